package triples

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/zk/dlogeq"
)

// round5 collects every peer's private share of this party's evaluation,
// checks the sums against the accumulated polynomials, and for every
// triple computes an MtA-free cross commitment C_i := e_i(0) * F(0),
// proven equal in exponent to E_i(0) (spec §4.9 step 5).
type round5 struct {
	*round4
}

func (r *round5) Number() round.Number                     { return 5 }
func (r *round5) MessageContent() round.Content            { return &message4{} }
func (r *round5) BroadcastContent() round.BroadcastContent { return nil }
func (r *round5) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round5) VerifyMessage(round.Message) error         { return nil }

// StoreMessage accumulates a peer's private shares into this party's final
// a_i, b_i accumulators (spec §4.9 step 4, the collecting side).
func (r *round5) StoreMessage(msg round.Message) error {
	body, ok := msg.Content.(*message4)
	if !ok {
		return round.ErrInvalidContent
	}
	if len(body.Shares) != r.triplesCount {
		return fmt.Errorf("triples: share batch from %s has wrong length %d, want %d", msg.From, len(body.Shares), r.triplesCount)
	}
	group := r.Group()
	for k, sh := range body.Shares {
		e, err := unmarshalScalar(group, sh.E)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal e-share from %s on triple %d: %w", msg.From, k, err)
		}
		f, err := unmarshalScalar(group, sh.F)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal f-share from %s on triple %d: %w", msg.From, k, err)
		}
		r.accA[k] = r.accA[k].Add(e)
		r.accB[k] = r.accB[k].Add(f)
	}
	return nil
}

// Finalize checks every accumulated share against the accumulated public
// polynomial, computes this party's MtA-free cross commitment for every
// triple, and broadcasts it with a dlog-eq proof (spec §4.9 step 5).
func (r *round5) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	selfScalar := r.SelfID().Scalar(group)

	commits := make([]tripleCommit, r.triplesCount)
	ownCs := make([]curve.Point, r.triplesCount)
	for k := range r.materials {
		if !r.accE[k].Evaluate(selfScalar).Equal(r.accA[k].ActOnBase()) {
			return nil, fmt.Errorf("triples: e-share does not match accumulated polynomial on triple %d", k)
		}
		if !r.accF[k].Evaluate(selfScalar).Equal(r.accB[k].ActOnBase()) {
			return nil, fmt.Errorf("triples: f-share does not match accumulated polynomial on triple %d", k)
		}

		mat := &r.materials[k]
		ownE := mat.e.EvaluateZero()
		Fpoint := r.accF[k].EvaluateZero()
		C := ownE.Act(Fpoint)
		ownCs[k] = C

		// mat.E has been summed into accE in place, so E_i(0) is recomputed.
		stmt := dlogeq.Statement{G: baseGenerator(group), H: Fpoint, P: ownE.ActOnBase(), Q: C}
		fork := r.Hash().Fork("dlogeq0", idTripleBytes(r.SelfID(), k))
		proof := dlogeq.Prove(r.rng, fork, group, ownE, stmt)

		cb, err := C.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal cross commitment for triple %d: %w", k, err)
		}
		k1, k2, z, err := proof.Bytes()
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal dlog-eq proof for triple %d: %w", k, err)
		}
		commits[k] = tripleCommit{C: cb, ProofK1: k1, ProofK2: k2, ProofZ: z}
	}

	if err := r.BroadcastMessage(out, &broadcast5{Commits: commits}); err != nil {
		return nil, err
	}

	return &round6{round5: r, Csum: ownCs}, nil
}
