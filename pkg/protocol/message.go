package protocol

import (
	"encoding/binary"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/zeebo/blake3"
)

// Message is the wire envelope a Handler emits and consumes: Data holds the
// cbor-encoded round.Content for RoundNumber, addressed either to a single
// party (To set, Broadcast false) or to everyone (Broadcast true).
type Message struct {
	SSID                  []byte
	From                  party.ID
	To                    party.ID
	Protocol              string
	RoundNumber           round.Number
	Data                  []byte
	Broadcast             bool
	BroadcastVerification []byte
}

// IsFor reports whether id is an intended recipient of msg.
func (m *Message) IsFor(id party.ID) bool {
	if m.Broadcast {
		return true
	}
	return m.To == id
}

// Hash returns a content fingerprint of msg, used to build the echo-hash
// that every party attaches to their next round's messages (spec §6:
// "Echo-broadcast hash ... every participant independently hashes the full
// set of round-k broadcast messages and attaches that hash to its round
// k+1 messages").
func (m *Message) Hash() []byte {
	h := blake3.New()
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(m.From))
	_, _ = h.Write(buf[:])
	binary.BigEndian.PutUint32(buf[:], uint32(m.To))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(m.Protocol))
	binary.BigEndian.PutUint32(buf[:], uint32(m.RoundNumber))
	_, _ = h.Write(buf[:])
	_, _ = h.Write(m.SSID)
	if m.Broadcast {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write(m.Data)
	return h.Sum(nil)
}
