// Package round implements the finite-sequence-of-local-steps execution
// model shared by every protocol in this module: each step consumes the
// previous round's received-message bundle, mutates nothing outside
// itself, and emits the next round plus zero or more outbound messages
// (spec §5).
package round

import (
	"errors"

	"github.com/tecdsa-go/tecdsa/pkg/hash"
	"github.com/tecdsa-go/tecdsa/pkg/party"
)

// Number identifies a waitpoint. Round 0 is reserved for the terminal
// "result" pseudo-round.
type Number int

// Content is any message payload; it knows which round it belongs to so
// the driver can route it without a side channel.
type Content interface {
	RoundNumber() Number
}

// BroadcastContent is a Content that must be identically seen by every
// honest party (an "echo broadcast" payload, as opposed to a private
// point-to-point message).
type BroadcastContent interface {
	Content
	Broadcastable()
}

// NormalBroadcastContent is embedded by broadcast payload structs; it only
// supplies the Broadcastable marker; RoundNumber is always defined directly
// on the concrete payload type so a given round's number lives in exactly
// one place.
type NormalBroadcastContent struct{}

// Broadcastable implements BroadcastContent.
func (NormalBroadcastContent) Broadcastable() {}

// ErrInvalidContent is returned by StoreMessage/StoreBroadcastMessage when
// a payload does not have the expected concrete type for the round.
var ErrInvalidContent = errors.New("round: message content has unexpected type")

// Message is one routed protocol message: a private message has To set to
// a specific participant; a broadcast message has Broadcast set and is
// delivered to every other participant.
type Message struct {
	From      party.ID
	To        party.ID
	Broadcast bool
	Content   Content
}

// Round is a single local step.
type Round interface {
	// Number is this round's waitpoint label.
	Number() Number
	// MessageContent returns a zero-value instance of the private message
	// type this round expects, or nil if it expects none.
	MessageContent() Content
	// BroadcastContent returns a zero-value instance of the broadcast
	// message type this round expects, or nil if it expects none.
	BroadcastContent() BroadcastContent
	// StoreBroadcastMessage validates and stores one party's broadcast
	// contribution.
	StoreBroadcastMessage(Message) error
	// VerifyMessage validates (but does not yet store) a private message.
	VerifyMessage(Message) error
	// StoreMessage stores a private message already validated by
	// VerifyMessage.
	StoreMessage(Message) error
	// Finalize runs once every expected message for this round has
	// arrived; it returns the next Round (or a terminal ResultRound) plus
	// any messages to broadcast/send for the next waitpoint.
	Finalize(out chan<- *Message) (Session, error)
}

// Session is a Round together with the session-wide parameters every round
// of a single protocol run shares; *Helper implements the session-level
// part and is embedded into every concrete round type.
type Session interface {
	Round
	N() int
	SelfID() party.ID
	PartyIDs() party.IDSlice
	OtherPartyIDs() party.IDSlice
	ProtocolID() string
	SSID() []byte
	FinalRoundNumber() Number
	Hash() *hash.Transcript
}
