package triples

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/commitment"
)

// round2 collects every peer's batch of joint commitments and, once
// complete, broadcasts the per-triple confirmation digests (spec §4.9
// step 2).
type round2 struct {
	*round1
}

func (r *round2) Number() round.Number                     { return 2 }
func (r *round2) MessageContent() round.Content            { return nil }
func (r *round2) BroadcastContent() round.BroadcastContent { return &broadcast1{} }
func (r *round2) VerifyMessage(round.Message) error        { return nil }
func (r *round2) StoreMessage(round.Message) error         { return nil }

// StoreBroadcastMessage records a peer's batch of triple commitments.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast1)
	if !ok {
		return round.ErrInvalidContent
	}
	if len(body.Cs) != r.triplesCount {
		return fmt.Errorf("triples: commitment batch from %s has wrong length %d, want %d", msg.From, len(body.Cs), r.triplesCount)
	}
	r.peerCommitments[msg.From] = body.Cs
	return nil
}

// Finalize computes, for every triple, the confirmation digest over every
// collected commitment, and broadcasts the resulting vector (spec §4.9
// step 2).
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	ids := r.PartyIDs()
	orderedKeys := make([]string, len(ids))
	for i, id := range ids {
		orderedKeys[i] = id.String()
	}

	ds := make([]commitment.Digest, r.triplesCount)
	for k := 0; k < r.triplesCount; k++ {
		byKey := make(map[string]commitment.Commitment, len(ids))
		for _, id := range ids {
			byKey[id.String()] = r.peerCommitments[id][k]
		}
		ds[k] = commitment.DigestCommitments(orderedKeys, byKey)
	}

	if err := r.BroadcastMessage(out, &broadcast2{Ds: ds}); err != nil {
		return nil, err
	}

	return &round3{round2: r, confirmations: ds}, nil
}
