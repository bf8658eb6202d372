package keygen

import (
	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/commitment"
)

// round2 collects every peer's polynomial commitment and, once complete,
// broadcasts the confirmation digest over all of them (spec §4.3 step 2).
type round2 struct {
	*round1
}

func (r *round2) Number() round.Number                     { return 2 }
func (r *round2) MessageContent() round.Content            { return nil }
func (r *round2) BroadcastContent() round.BroadcastContent { return &broadcast1{} }
func (r *round2) VerifyMessage(round.Message) error        { return nil }
func (r *round2) StoreMessage(round.Message) error         { return nil }

// StoreBroadcastMessage records a peer's commitment to its polynomial.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast1)
	if !ok {
		return round.ErrInvalidContent
	}
	r.peerCommitments[msg.From] = body.C
	return nil
}

// Finalize computes the confirmation digest over every collected commitment
// and broadcasts it (spec §4.3 step 2).
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	ids := r.PartyIDs()
	orderedKeys := make([]string, len(ids))
	byKey := make(map[string]commitment.Commitment, len(ids))
	for i, id := range ids {
		orderedKeys[i] = id.String()
		byKey[id.String()] = r.peerCommitments[id]
	}
	d := commitment.DigestCommitments(orderedKeys, byKey)

	if err := r.BroadcastMessage(out, &broadcast2{D: d}); err != nil {
		return nil, err
	}

	return &round3{round2: r, confirmation: d}, nil
}
