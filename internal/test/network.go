package test

import (
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
)

// Network is an in-process router between a fixed set of Handlers: it
// delivers every broadcast message to every party, the sender included, and
// every direct message to its addressee, with no simulated loss or reordering across
// parties.
type Network struct {
	parties party.IDSlice
	inboxes map[party.ID]chan *protocol.Message
}

// NewNetwork creates a Network for the given participant set. Callers
// drive it with one HandlerLoop goroutine per party.
func NewNetwork(ids party.IDSlice) *Network {
	n := &Network{
		parties: ids,
		inboxes: make(map[party.ID]chan *protocol.Message, len(ids)),
	}
	for _, id := range ids {
		n.inboxes[id] = make(chan *protocol.Message, len(ids)*8)
	}
	return n
}

func (n *Network) deliver(msg *protocol.Message) {
	if msg.Broadcast {
		for _, id := range n.parties {
			n.inboxes[id] <- msg
		}
		return
	}
	n.inboxes[msg.To] <- msg
}

// HandlerLoop pumps h's outbound messages onto the network and the
// network's inbound messages into h, until h finishes, then returns h's
// result error.
func HandlerLoop(id party.ID, h protocol.Handler, network *Network) error {
	in := network.inboxes[id]
	out := h.Listen()
	for {
		select {
		case msg, ok := <-out:
			if !ok {
				_, err := h.Result()
				return err
			}
			network.deliver(msg)
		case msg := <-in:
			if h.CanAccept(msg) {
				h.Accept(msg)
			}
		}
	}
}
