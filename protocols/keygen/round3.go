package keygen

import (
	"encoding/binary"
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/commitment"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/zk/dlog"
)

// round3 collects every peer's confirmation digest, checks it matches its
// own, absorbs it into the transcript, and proves knowledge of f(0)
// (spec §4.3 steps 2-3).
type round3 struct {
	*round2
	confirmation commitment.Digest
}

func (r *round3) Number() round.Number                     { return 3 }
func (r *round3) MessageContent() round.Content            { return nil }
func (r *round3) BroadcastContent() round.BroadcastContent { return &broadcast2{} }
func (r *round3) VerifyMessage(round.Message) error        { return nil }
func (r *round3) StoreMessage(round.Message) error         { return nil }

// StoreBroadcastMessage checks that a peer's confirmation digest matches
// this party's own (spec §4.3 step 2 failure mode: "mismatched confirmation
// aborts the entire protocol").
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast2)
	if !ok {
		return round.ErrInvalidContent
	}
	if body.D != r.confirmation {
		return fmt.Errorf("keygen: confirmation mismatch from %s", msg.From)
	}
	return nil
}

// Finalize absorbs the confirmation digest, proves knowledge of f(0), and
// broadcasts the opened polynomial commitment (spec §4.3 step 3).
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	r.AbsorbConfirmation(r.confirmation[:])

	fork := r.Hash().Fork("dlog0", idBytes(r.SelfID()))
	proof := dlog.Prove(r.rng, fork, r.Group(), r.f.EvaluateZero(), r.F.EvaluateZero())

	coeffs, err := r.F.MarshalCoefficients()
	if err != nil {
		return nil, fmt.Errorf("keygen: failed to marshal polynomial: %w", err)
	}
	k, z, err := proof.Bytes()
	if err != nil {
		return nil, fmt.Errorf("keygen: failed to marshal proof: %w", err)
	}

	if err := r.BroadcastMessage(out, &broadcast3{F: coeffs, R: r.r, ProofK: k, ProofZ: z}); err != nil {
		return nil, err
	}

	r4 := &round4{
		round3: r,
		accF:   r.F,
		accX:   r.f.Evaluate(r.SelfID().Scalar(r.Group())),
	}
	return r4, nil
}

func idBytes(id party.ID) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(id))
	return buf[:]
}
