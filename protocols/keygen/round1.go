package keygen

import (
	"fmt"
	"io"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/commitment"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/polynomial"
	"github.com/tecdsa-go/tecdsa/pkg/math/sample"
	"github.com/tecdsa-go/tecdsa/pkg/party"
)

// round1 is the genesis round: it samples this party's polynomial and
// broadcasts a commitment to it, never waiting on anything (spec §4.3
// step 1).
type round1 struct {
	*round.Helper
	rng io.Reader

	// prevPublicKey is non-nil only for a reshare run, where the final
	// round must check F(0) == X_prev (spec §4.3 step 5).
	prevPublicKey curve.Point

	f *polynomial.Polynomial
	F *polynomial.GroupPolynomial
	r commitment.Randomizer

	// peerCommitments accumulates every C_j (including this party's own),
	// read by round2 once all have arrived.
	peerCommitments map[party.ID]commitment.Commitment
}

func (r *round1) Number() round.Number                      { return 1 }
func (r *round1) MessageContent() round.Content             { return nil }
func (r *round1) BroadcastContent() round.BroadcastContent  { return nil }
func (r *round1) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round1) VerifyMessage(round.Message) error         { return nil }
func (r *round1) StoreMessage(round.Message) error          { return nil }

// Finalize samples this party's polynomial, commits to it, and broadcasts
// the commitment (spec §4.3 step 1).
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	s := sample.Scalar(r.rng, group)
	r.f = polynomial.ExtendRandom(r.rng, group, r.Threshold(), s)
	r.F = r.f.Commit()

	payload, err := r.F.CommitPayload()
	if err != nil {
		return nil, fmt.Errorf("keygen: failed to serialize polynomial commitment: %w", err)
	}
	C, randomizer := commitment.Commit(r.rng, payload)
	r.r = randomizer
	r.peerCommitments = map[party.ID]commitment.Commitment{r.SelfID(): C}

	if err := r.BroadcastMessage(out, &broadcast1{C: C}); err != nil {
		return nil, err
	}

	return &round2{round1: r}, nil
}
