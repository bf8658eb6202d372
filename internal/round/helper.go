package round

import (
	"encoding/binary"
	"fmt"

	"github.com/tecdsa-go/tecdsa/pkg/hash"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
)

// Info describes the session-wide, immutable parameters of one protocol
// run: the participant list, threshold, curve, and the session label used
// to key its transcript (spec §6: "session label").
type Info struct {
	// ProtocolID is the fixed domain label, e.g.
	// "cait-sith v0.8.0 keygen" (spec §6).
	ProtocolID string
	// FinalRoundNumber is the waitpoint number of the last real round;
	// messages addressed to any later number are rejected outright.
	FinalRoundNumber Number
	SelfID           party.ID
	PartyIDs         []party.ID
	Threshold        int
	Group            curve.Curve
}

// Transcript sub-labels (spec §6). THRESHOLD intentionally reuses the
// PARTICIPANTS label byte-for-byte: this is a preserved upstream quirk
// (spec §9 Open Questions — "almost certainly an error, but fixing it
// would break interop"), not a bug introduced here.
const (
	labelGroup        = "group"
	labelParticipants = "participants"
	labelThreshold    = "participants"
	labelConfirmation = "confirmation"
)

// Helper carries the per-run session state: the validated participant
// list, the transcript seeded per spec §6's "Transcript feed", and the
// worker pool. Every protocol's round-1 struct embeds *Helper so later
// rounds inherit Group()/Threshold()/SelfID()/etc for free.
type Helper struct {
	info      Info
	sessionID []byte
	ids       party.IDSlice
	others    party.IDSlice
	pool      *pool.Pool
	t         *hash.Transcript
}

// NewSession validates info and constructs the Helper shared by every
// round of one protocol run. Reusing a Helper across two runs is an error
// by construction: callers always obtain a fresh one per Start() call
// (spec §3: "All intermediate fields are write-once per protocol run;
// reusing a state is an error").
func NewSession(info Info, sessionID []byte, pl *pool.Pool) (*Helper, error) {
	if info.Threshold < 2 {
		return nil, fmt.Errorf("round: threshold must be at least 2, got %d", info.Threshold)
	}
	if len(info.PartyIDs) < 2 {
		return nil, fmt.Errorf("round: need at least 2 participants, got %d", len(info.PartyIDs))
	}
	if info.Threshold > len(info.PartyIDs) {
		return nil, fmt.Errorf("round: threshold %d exceeds participant count %d", info.Threshold, len(info.PartyIDs))
	}
	ids, err := party.NewIDSlice(info.PartyIDs)
	if err != nil {
		return nil, fmt.Errorf("round: %w", err)
	}
	if !ids.Contains(info.SelfID) {
		return nil, fmt.Errorf("round: self id %s is not a participant", info.SelfID)
	}

	t := hash.New(info.ProtocolID)
	t.Message(labelGroup, []byte(info.Group.Name()))
	for _, id := range ids {
		t.Message(labelParticipants, encodeID(id))
	}
	var thBuf [8]byte
	binary.BigEndian.PutUint64(thBuf[:], uint64(info.Threshold))
	t.Message(labelThreshold, thBuf[:])
	t.Message("session-id", sessionID)

	return &Helper{
		info:      info,
		sessionID: append([]byte(nil), sessionID...),
		ids:       ids,
		others:    ids.Others(info.SelfID),
		pool:      pl,
		t:         t,
	}, nil
}

func encodeID(id party.ID) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(id))
	return buf[:]
}

// Group returns the curve this session is running over.
func (h *Helper) Group() curve.Curve { return h.info.Group }

// Threshold returns t, the minimum qualifying subset size.
func (h *Helper) Threshold() int { return h.info.Threshold }

// N returns the number of participants in this run.
func (h *Helper) N() int { return len(h.ids) }

// SelfID returns this party's own id.
func (h *Helper) SelfID() party.ID { return h.info.SelfID }

// PartyIDs returns every participant, in canonical sorted order.
func (h *Helper) PartyIDs() party.IDSlice { return h.ids }

// OtherPartyIDs returns every participant except SelfID.
func (h *Helper) OtherPartyIDs() party.IDSlice { return h.others }

// SessionID returns the caller-supplied session identifier.
func (h *Helper) SessionID() []byte { return h.sessionID }

// SSID is an alias for SessionID, matching the wire-level name for the
// bytes that key one protocol run (spec §6).
func (h *Helper) SSID() []byte { return h.sessionID }

// ProtocolID returns the fixed domain label for this protocol.
func (h *Helper) ProtocolID() string { return h.info.ProtocolID }

// FinalRoundNumber returns the waitpoint number of the last real round.
func (h *Helper) FinalRoundNumber() Number { return h.info.FinalRoundNumber }

// Hash returns the session transcript; same object as Transcript, exposed
// under the shorter name callers that just want a fingerprint expect.
func (h *Helper) Hash() *hash.Transcript { return h.t }

// Pool returns the worker pool passed in for this run. It may be nil;
// pool.Pool.Parallelize treats a nil pool as serial execution.
func (h *Helper) Pool() *pool.Pool { return h.pool }

// Transcript returns the session transcript. Rounds fork it (never alias
// it) before deriving any challenge, per spec §4.1.
func (h *Helper) Transcript() *hash.Transcript { return h.t }

// AbsorbConfirmation feeds the round-2 confirmation digest into the
// transcript (spec §4.3 step 2 / §6 "Confirmation -> confirmation digest
// bytes").
func (h *Helper) AbsorbConfirmation(digest []byte) {
	h.t.Message(labelConfirmation, digest)
}

// BroadcastMessage sends content to every other participant, framed as a
// broadcast message.
func (h *Helper) BroadcastMessage(out chan<- *Message, content BroadcastContent) error {
	out <- &Message{From: h.SelfID(), Broadcast: true, Content: content}
	return nil
}

// SendMessage sends content privately to a single participant.
func (h *Helper) SendMessage(out chan<- *Message, content Content, to party.ID) error {
	out <- &Message{From: h.SelfID(), To: to, Content: content}
	return nil
}

// ResultRound wraps a terminal protocol output as a Session so the driver
// can treat "done" uniformly with every other round.
func (h *Helper) ResultRound(result interface{}) Session {
	return &resultRound{Helper: h, result: result}
}

// resultRound is the terminal pseudo-round produced by Finalize on the last
// real round of a protocol.
type resultRound struct {
	*Helper
	result interface{}
}

func (r *resultRound) Number() Number                                { return 0 }
func (r *resultRound) MessageContent() Content                       { return nil }
func (r *resultRound) BroadcastContent() BroadcastContent            { return nil }
func (r *resultRound) StoreBroadcastMessage(Message) error           { return nil }
func (r *resultRound) VerifyMessage(Message) error                   { return nil }
func (r *resultRound) StoreMessage(Message) error                    { return nil }
func (r *resultRound) Finalize(chan<- *Message) (Session, error)     { return r, nil }

// Result returns the protocol's final output.
func (r *resultRound) Result() interface{} { return r.result }

// IsResult reports whether s is a terminal result round, and if so returns
// its output.
func IsResult(s Session) (interface{}, bool) {
	r, ok := s.(*resultRound)
	if !ok {
		return nil, false
	}
	return r.result, true
}
