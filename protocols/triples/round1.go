package triples

import (
	"fmt"
	"io"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/commitment"
	"github.com/tecdsa-go/tecdsa/pkg/math/polynomial"
	"github.com/tecdsa-go/tecdsa/pkg/party"
)

// tripleMaterial is one triple's local secret state: the three sampled
// polynomials and their coefficient-wise commitments (spec §4.9 step 1).
type tripleMaterial struct {
	e, f, l *polynomial.Polynomial
	E, F, L *polynomial.GroupPolynomial
	r       commitment.Randomizer
}

// round1 is the genesis round: it samples every triple's (e, f, l)
// polynomials (l's constant term fixed to zero) and broadcasts a joint
// commitment to each (spec §4.9 step 1).
type round1 struct {
	*round.Helper
	rng io.Reader

	triplesCount int

	materials       []tripleMaterial
	peerCommitments map[party.ID][]commitment.Commitment
}

func (r *round1) Number() round.Number                      { return 1 }
func (r *round1) MessageContent() round.Content             { return nil }
func (r *round1) BroadcastContent() round.BroadcastContent  { return nil }
func (r *round1) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round1) VerifyMessage(round.Message) error         { return nil }
func (r *round1) StoreMessage(round.Message) error           { return nil }

// Finalize samples every triple's polynomials, commits jointly to each,
// and broadcasts the resulting commitments (spec §4.9 step 1).
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	t := r.Threshold()

	r.materials = make([]tripleMaterial, r.triplesCount)
	cs := make([]commitment.Commitment, r.triplesCount)

	for k := 0; k < r.triplesCount; k++ {
		e := polynomial.Random(r.rng, group, t)
		f := polynomial.Random(r.rng, group, t)
		l := polynomial.ExtendRandom(r.rng, group, t, group.NewScalar())

		E, F, L := e.Commit(), f.Commit(), l.Commit()

		payload, err := polynomial.CommitPayloadMulti(E, F, L)
		if err != nil {
			return nil, fmt.Errorf("triples: failed to serialize triple %d commitment: %w", k, err)
		}
		C, randomizer := commitment.Commit(r.rng, payload)

		r.materials[k] = tripleMaterial{e: e, f: f, l: l, E: E, F: F, L: L, r: randomizer}
		cs[k] = C
	}

	r.peerCommitments = map[party.ID][]commitment.Commitment{r.SelfID(): cs}

	if err := r.BroadcastMessage(out, &broadcast1{Cs: cs}); err != nil {
		return nil, err
	}

	return &round2{round1: r}, nil
}

// validateTriplesCount rejects an empty batch; Start calls it before
// creating round1.
func validateTriplesCount(n int) error {
	if n < 1 {
		return fmt.Errorf("triples: triplesCount must be at least 1, got %d", n)
	}
	return nil
}
