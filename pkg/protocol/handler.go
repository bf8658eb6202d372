package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/party"
)

// StartFunc creates the first round of a protocol, seeded with a caller
// supplied session id that should be unique across all runs of this
// protocol (spec §6: "session label").
type StartFunc func(sessionID []byte) (round.Session, error)

// Handler drives one protocol run end to end: it accepts inbound Messages,
// advances rounds as soon as a waitpoint's messages are all in, and emits
// outbound Messages on its Listen channel.
type Handler interface {
	// Result returns the protocol's output once finished, or the abort
	// error otherwise.
	Result() (interface{}, error)
	// Listen returns the channel of messages this party must deliver to
	// the others (reliably broadcasting any message with Broadcast set).
	Listen() <-chan *Message
	// Stop aborts the run.
	Stop()
	// CanAccept reports whether msg could plausibly advance this run.
	CanAccept(msg *Message) bool
	// Accept processes an inbound message.
	Accept(msg *Message)
}

// MultiHandler is the only Handler implementation: it holds the full
// message-bundling and waitpoint-advance state machine described in
// spec §5.
type MultiHandler struct {
	currentRound    round.Session
	rounds          map[round.Number]round.Session
	err             *Error
	result          interface{}
	messages        map[round.Number]map[party.ID]*Message
	broadcast       map[round.Number]map[party.ID]*Message
	broadcastHashes map[round.Number][]byte
	out             chan *Message
	mtx             sync.Mutex
}

// NewMultiHandler starts a protocol run from create, keyed by sessionID.
func NewMultiHandler(create StartFunc, sessionID []byte) (*MultiHandler, error) {
	r, err := create(sessionID)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to create round: %w", err)
	}
	h := &MultiHandler{
		currentRound:    r,
		rounds:          map[round.Number]round.Session{r.Number(): r},
		messages:        make(map[round.Number]map[party.ID]*Message),
		broadcast:       make(map[round.Number]map[party.ID]*Message),
		broadcastHashes: map[round.Number][]byte{},
		out:             make(chan *Message, 2*r.N()),
	}
	h.initRoundStorage(r)
	// The genesis round never waits on inbound messages of its own — it is
	// where they originate — so it advances unconditionally.
	h.advance(r)
	return h, nil
}

// Result returns the protocol result, or the abort error if the run ended
// badly, or a "not finished" error while still in progress.
func (h *MultiHandler) Result() (interface{}, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.result != nil {
		return h.result, nil
	}
	if h.err != nil {
		return nil, *h.err
	}
	return nil, errors.New("protocol: not finished")
}

// Listen returns the outbound message channel; it closes once the run
// finishes (successfully or not).
func (h *MultiHandler) Listen() <-chan *Message {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.out
}

// CanAccept reports whether msg could plausibly be consumed right now.
func (h *MultiHandler) CanAccept(msg *Message) bool {
	r := h.currentRound
	if msg == nil {
		return false
	}
	if !msg.IsFor(r.SelfID()) {
		return false
	}
	if msg.Protocol != r.ProtocolID() {
		return false
	}
	if !bytes.Equal(msg.SSID, r.SSID()) {
		return false
	}
	if !r.PartyIDs().Contains(msg.From) {
		return false
	}
	if msg.Data == nil {
		return false
	}
	if msg.RoundNumber > r.FinalRoundNumber() {
		return false
	}
	if msg.RoundNumber < r.Number() && msg.RoundNumber > 0 {
		return false
	}
	return true
}

// Accept processes msg if it is usable, possibly advancing to the next
// round and possibly ending the run.
func (h *MultiHandler) Accept(msg *Message) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	if !h.CanAccept(msg) || h.err != nil || h.result != nil || h.duplicate(msg) {
		return
	}

	if msg.RoundNumber == 0 {
		h.abort(Error{Kind: KindOther, Err: fmt.Errorf("aborted by other party: %q", msg.Data)}, msg.From)
		return
	}

	h.store(msg)
	if h.currentRound.Number() != msg.RoundNumber {
		return
	}

	if msg.Broadcast {
		if err := h.verifyBroadcastMessage(msg); err != nil {
			h.abort(Error{Kind: KindAssertion, Err: err}, msg.From)
			return
		}
	} else {
		if err := h.verifyMessage(msg); err != nil {
			h.abort(Error{Kind: KindAssertion, Err: err}, msg.From)
			return
		}
	}

	h.tryFinalize()
}

func (h *MultiHandler) verifyBroadcastMessage(msg *Message) error {
	r, ok := h.rounds[msg.RoundNumber]
	if !ok {
		return nil
	}
	if r.BroadcastContent() == nil {
		return nil
	}

	roundMsg, err := getRoundMessage(msg, r)
	if err != nil {
		return err
	}
	if err = r.StoreBroadcastMessage(roundMsg); err != nil {
		return fmt.Errorf("round %d: %w", r.Number(), err)
	}

	if r.MessageContent() == nil {
		return nil
	}
	if peerMsg := h.messages[msg.RoundNumber][msg.From]; peerMsg != nil {
		return h.verifyMessage(peerMsg)
	}
	return nil
}

func (h *MultiHandler) verifyMessage(msg *Message) error {
	r, ok := h.rounds[msg.RoundNumber]
	if !ok {
		return nil
	}
	if r.BroadcastContent() != nil {
		q := h.broadcast[msg.RoundNumber]
		if q == nil || q[msg.From] == nil {
			return nil
		}
	}

	roundMsg, err := getRoundMessage(msg, r)
	if err != nil {
		return err
	}
	if err = r.VerifyMessage(roundMsg); err != nil {
		return fmt.Errorf("round %d: %w", r.Number(), err)
	}
	if err = r.StoreMessage(roundMsg); err != nil {
		return fmt.Errorf("round %d: %w", r.Number(), err)
	}
	return nil
}

func (h *MultiHandler) tryFinalize() {
	if !h.receivedAll() {
		return
	}
	if !h.checkBroadcastHash() {
		h.abort(Error{Kind: KindAssertion, Err: errors.New("broadcast verification failed")})
		return
	}

	nextNumber := h.currentRound.Number() + 1
	if existing, ok := h.rounds[nextNumber]; ok {
		h.currentRound = existing
		h.initRoundStorage(existing)
		h.processQueuedMessages()
		return
	}

	h.advance(h.currentRound)
}

// advance finalizes r, forwards the messages it produces, and — if that
// produced a genuinely new round — recurses into any messages already
// queued for it.
func (h *MultiHandler) advance(r round.Session) {
	out := make(chan *round.Message, r.N()+1)
	next, err := r.Finalize(out)
	close(out)
	if err != nil {
		h.abort(Error{Kind: KindOther, Err: err}, r.SelfID())
		return
	}
	if next == nil {
		h.abort(Error{Kind: KindOther, Err: errors.New("protocol: round finalized to a nil session")}, r.SelfID())
		return
	}

	// next's storage must exist before this party's own broadcast is
	// recorded below, so that the copy looped back by the network is a
	// duplicate and never reaches next's StoreBroadcastMessage.
	h.initRoundStorage(next)
	for roundMsg := range out {
		data, err := cbor.Marshal(roundMsg.Content)
		if err != nil {
			panic(fmt.Errorf("protocol: failed to marshal round message: %w", err))
		}
		msg := &Message{
			SSID:                  next.SSID(),
			From:                  next.SelfID(),
			To:                    roundMsg.To,
			Protocol:              next.ProtocolID(),
			RoundNumber:           roundMsg.Content.RoundNumber(),
			Data:                  data,
			Broadcast:             roundMsg.Broadcast,
			BroadcastVerification: h.broadcastHashes[next.Number()-1],
		}
		if msg.Broadcast {
			h.store(msg)
		}
		h.out <- msg
	}

	if _, already := h.rounds[next.Number()]; already {
		return
	}
	h.rounds[next.Number()] = next
	h.currentRound = next

	if result, ok := round.IsResult(next); ok {
		h.result = result
		h.abort(Error{})
		return
	}

	if next.BroadcastContent() != nil {
		for id, m := range h.broadcast[next.Number()] {
			if m == nil || id == next.SelfID() {
				continue
			}
			if err := h.verifyBroadcastMessage(m); err != nil {
				h.abort(Error{Kind: KindAssertion, Err: err}, m.From)
				return
			}
		}
	} else {
		for _, m := range h.messages[next.Number()] {
			if m == nil {
				continue
			}
			if err := h.verifyMessage(m); err != nil {
				h.abort(Error{Kind: KindAssertion, Err: err}, m.From)
				return
			}
		}
	}

	h.tryFinalize()
}

func (h *MultiHandler) processQueuedMessages() {
	number := h.currentRound.Number()
	if h.currentRound.BroadcastContent() != nil {
		for id, m := range h.broadcast[number] {
			if m == nil || id == h.currentRound.SelfID() {
				continue
			}
			if err := h.verifyBroadcastMessage(m); err != nil {
				h.abort(Error{Kind: KindAssertion, Err: err}, m.From)
				return
			}
		}
	} else {
		for _, m := range h.messages[number] {
			if m == nil {
				continue
			}
			if err := h.verifyMessage(m); err != nil {
				h.abort(Error{Kind: KindAssertion, Err: err}, m.From)
				return
			}
		}
	}
	h.tryFinalize()
}

func (h *MultiHandler) abort(protoErr Error, culprits ...party.ID) {
	if protoErr.Err != nil {
		protoErr.Culprits = culprits
		h.err = &protoErr
		select {
		case h.out <- &Message{
			SSID:     h.currentRound.SSID(),
			From:     h.currentRound.SelfID(),
			Protocol: h.currentRound.ProtocolID(),
			Data:     []byte(h.err.Error()),
		}:
		default:
		}
	}
	close(h.out)
}

// Stop cancels the run if it has not already finished.
func (h *MultiHandler) Stop() {
	if h.err == nil && h.result == nil {
		h.abort(Error{Kind: KindOther, Err: errors.New("aborted by user")}, h.currentRound.SelfID())
	}
}

func (h *MultiHandler) receivedAll() bool {
	r := h.currentRound
	number := r.Number()
	if r.BroadcastContent() != nil {
		if h.broadcast[number] == nil {
			return false
		}
		for _, id := range r.PartyIDs() {
			if h.broadcast[number][id] == nil {
				return false
			}
		}
		if h.broadcastHashes[number] == nil {
			t := r.Hash().Fork("echo-hash", roundNumberBytes(number))
			for _, id := range r.PartyIDs() {
				t.Message("message", h.broadcast[number][id].Hash())
			}
			h.broadcastHashes[number] = t.Sum()
		}
	}

	if r.MessageContent() != nil {
		if h.messages[number] == nil {
			return true
		}
		for _, id := range r.OtherPartyIDs() {
			if h.messages[number][id] == nil {
				return false
			}
		}
	}
	return true
}

func roundNumberBytes(n round.Number) []byte {
	return []byte(fmt.Sprintf("round-%d", n))
}

func (h *MultiHandler) duplicate(msg *Message) bool {
	if msg.RoundNumber == 0 {
		return false
	}
	var q map[party.ID]*Message
	if msg.Broadcast {
		q = h.broadcast[msg.RoundNumber]
	} else {
		q = h.messages[msg.RoundNumber]
	}
	if q == nil {
		return false
	}
	return q[msg.From] != nil
}

func (h *MultiHandler) store(msg *Message) {
	var q map[party.ID]*Message
	if msg.Broadcast {
		q = h.broadcast[msg.RoundNumber]
	} else {
		q = h.messages[msg.RoundNumber]
	}
	if q == nil {
		// A message for a round this party has not reached yet: queue it.
		q = make(map[party.ID]*Message)
		if msg.Broadcast {
			h.broadcast[msg.RoundNumber] = q
		} else {
			h.messages[msg.RoundNumber] = q
		}
	}
	if q[msg.From] != nil {
		return
	}
	q[msg.From] = msg
}

func getRoundMessage(msg *Message, r round.Session) (round.Message, error) {
	var content round.Content
	if msg.Broadcast {
		bc := r.BroadcastContent()
		if bc == nil {
			return round.Message{}, errors.New("protocol: got broadcast message when none was expected")
		}
		content = bc
	} else {
		content = r.MessageContent()
		if content == nil {
			return round.Message{}, errors.New("protocol: got normal message when none was expected")
		}
	}

	if err := cbor.Unmarshal(msg.Data, content); err != nil {
		return round.Message{}, fmt.Errorf("protocol: failed to unmarshal: %w", err)
	}
	return round.Message{From: msg.From, To: msg.To, Content: content, Broadcast: msg.Broadcast}, nil
}

func (h *MultiHandler) checkBroadcastHash() bool {
	number := h.currentRound.Number()
	previousHash := h.broadcastHashes[number-1]
	if previousHash == nil {
		return true
	}
	for _, msg := range h.messages[number] {
		if msg != nil && !bytes.Equal(previousHash, msg.BroadcastVerification) {
			return false
		}
	}
	for _, msg := range h.broadcast[number] {
		if msg != nil && !bytes.Equal(previousHash, msg.BroadcastVerification) {
			return false
		}
	}
	return true
}

func (h *MultiHandler) String() string {
	return fmt.Sprintf("party: %s, protocol: %s", h.currentRound.SelfID(), h.currentRound.ProtocolID())
}

func (h *MultiHandler) initRoundStorage(r round.Session) {
	number := r.Number()
	if r.BroadcastContent() != nil && h.broadcast[number] == nil {
		h.broadcast[number] = make(map[party.ID]*Message, r.N())
		for _, id := range r.PartyIDs() {
			h.broadcast[number][id] = nil
		}
	}
	if r.MessageContent() != nil && h.messages[number] == nil {
		h.messages[number] = make(map[party.ID]*Message, r.N()-1)
		for _, id := range r.OtherPartyIDs() {
			h.messages[number][id] = nil
		}
	}
}
