package triples

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/commitment"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/polynomial"
	"github.com/tecdsa-go/tecdsa/pkg/zk/dlog"
)

// round3 collects every peer's confirmation digests, checks them against
// its own, absorbs them into the transcript, and proves knowledge of
// e(0), f(0) for every triple (spec §4.9 steps 2-3).
type round3 struct {
	*round2
	confirmations []commitment.Digest
}

func (r *round3) Number() round.Number                     { return 3 }
func (r *round3) MessageContent() round.Content            { return nil }
func (r *round3) BroadcastContent() round.BroadcastContent { return &broadcast2{} }
func (r *round3) VerifyMessage(round.Message) error        { return nil }
func (r *round3) StoreMessage(round.Message) error         { return nil }

// StoreBroadcastMessage checks a peer's confirmation digests against this
// party's own (spec §4.9 step 2 failure mode).
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast2)
	if !ok {
		return round.ErrInvalidContent
	}
	if len(body.Ds) != r.triplesCount {
		return fmt.Errorf("triples: confirmation batch from %s has wrong length %d, want %d", msg.From, len(body.Ds), r.triplesCount)
	}
	for k, d := range body.Ds {
		if d != r.confirmations[k] {
			return fmt.Errorf("triples: confirmation mismatch from %s on triple %d", msg.From, k)
		}
	}
	return nil
}

// Finalize absorbs every confirmation digest, proves knowledge of e(0) and
// f(0) for every triple, and broadcasts the opened commitments (spec §4.9
// step 3).
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	for _, d := range r.confirmations {
		r.AbsorbConfirmation(d[:])
	}

	group := r.Group()
	openings := make([]tripleOpening, r.triplesCount)
	for k := range r.materials {
		mat := &r.materials[k]

		eFork := r.Hash().Fork("dlog0", idTripleBytes(r.SelfID(), k))
		eProof := dlog.Prove(r.rng, eFork, group, mat.e.EvaluateZero(), mat.E.EvaluateZero())
		fFork := r.Hash().Fork("dlog1", idTripleBytes(r.SelfID(), k))
		fProof := dlog.Prove(r.rng, fFork, group, mat.f.EvaluateZero(), mat.F.EvaluateZero())

		eCoeffs, err := mat.E.MarshalCoefficients()
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal E for triple %d: %w", k, err)
		}
		fCoeffs, err := mat.F.MarshalCoefficients()
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal F for triple %d: %w", k, err)
		}
		lCoeffs, err := mat.L.MarshalCoefficients()
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal L for triple %d: %w", k, err)
		}
		ek, ez, err := eProof.Bytes()
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal e-proof for triple %d: %w", k, err)
		}
		fk, fz, err := fProof.Bytes()
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal f-proof for triple %d: %w", k, err)
		}

		openings[k] = tripleOpening{
			E: eCoeffs, F: fCoeffs, L: lCoeffs,
			R:       mat.r,
			ProofEK: ek, ProofEZ: ez,
			ProofFK: fk, ProofFZ: fz,
		}
	}

	if err := r.BroadcastMessage(out, &broadcast3{Openings: openings}); err != nil {
		return nil, err
	}

	accE := make([]*polynomial.GroupPolynomial, r.triplesCount)
	accF := make([]*polynomial.GroupPolynomial, r.triplesCount)
	accL := make([]*polynomial.GroupPolynomial, r.triplesCount)
	accA := make([]curve.Scalar, r.triplesCount)
	accB := make([]curve.Scalar, r.triplesCount)
	for k := range r.materials {
		accE[k] = r.materials[k].E
		accF[k] = r.materials[k].F
		accL[k] = r.materials[k].L
		accA[k] = r.materials[k].e.Evaluate(r.SelfID().Scalar(group))
		accB[k] = r.materials[k].f.Evaluate(r.SelfID().Scalar(group))
	}

	return &round4{round3: r, accE: accE, accF: accF, accL: accL, accA: accA, accB: accB}, nil
}
