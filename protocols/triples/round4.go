package triples

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/polynomial"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/zk/dlog"
)

// round4 collects every peer's opened triple commitments, verifies each
// one and accumulates the running polynomial sums, then privately shares
// this party's evaluations (spec §4.9 steps 3-4).
type round4 struct {
	*round3

	accE, accF, accL []*polynomial.GroupPolynomial
	accA, accB       []curve.Scalar

	// peerE retains each peer's own opened E polynomial (not just the
	// running sum), needed by round6 to verify that peer's individual
	// cross-commitment proof against its own E_p(0).
	peerE map[party.ID][]*polynomial.GroupPolynomial
}

func (r *round4) Number() round.Number                     { return 4 }
func (r *round4) MessageContent() round.Content            { return nil }
func (r *round4) BroadcastContent() round.BroadcastContent { return &broadcast3{} }
func (r *round4) VerifyMessage(round.Message) error        { return nil }
func (r *round4) StoreMessage(round.Message) error         { return nil }

// StoreBroadcastMessage verifies a peer's batch of opened triple
// commitments and knowledge proofs, then accumulates them into the running
// sums E, F, L (spec §4.9 step 3, plus the "L_p(0) == identity" check).
func (r *round4) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast3)
	if !ok {
		return round.ErrInvalidContent
	}
	if len(body.Openings) != r.triplesCount {
		return fmt.Errorf("triples: opening batch from %s has wrong length %d, want %d", msg.From, len(body.Openings), r.triplesCount)
	}

	group := r.Group()
	peerCs, ok := r.peerCommitments[msg.From]
	if !ok {
		return fmt.Errorf("triples: no commitment on file for %s", msg.From)
	}

	if r.peerE == nil {
		r.peerE = make(map[party.ID][]*polynomial.GroupPolynomial)
	}
	openedE := make([]*polynomial.GroupPolynomial, r.triplesCount)

	for k, op := range body.Openings {
		if len(op.E) != r.Threshold() || len(op.F) != r.Threshold() || len(op.L) != r.Threshold() {
			return fmt.Errorf("triples: polynomial from %s on triple %d has wrong length", msg.From, k)
		}

		Ep, err := polynomial.UnmarshalGroupPolynomial(group, op.E)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal E from %s on triple %d: %w", msg.From, k, err)
		}
		Fp, err := polynomial.UnmarshalGroupPolynomial(group, op.F)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal F from %s on triple %d: %w", msg.From, k, err)
		}
		Lp, err := polynomial.UnmarshalGroupPolynomial(group, op.L)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal L from %s on triple %d: %w", msg.From, k, err)
		}
		if !Lp.EvaluateZero().IsIdentity() {
			return fmt.Errorf("triples: L(0) from %s on triple %d is not the identity", msg.From, k)
		}

		payload, err := polynomial.CommitPayloadMulti(Ep, Fp, Lp)
		if err != nil {
			return fmt.Errorf("triples: failed to serialize opening from %s on triple %d: %w", msg.From, k, err)
		}
		if k >= len(peerCs) || !peerCs[k].Check(payload, op.R) {
			return fmt.Errorf("triples: commitment check failed for %s on triple %d", msg.From, k)
		}

		eProof, err := dlog.FromBytes(group, op.ProofEK, op.ProofEZ)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal e-proof from %s on triple %d: %w", msg.From, k, err)
		}
		eFork := r.Hash().Fork("dlog0", idTripleBytes(msg.From, k))
		if !eProof.Verify(eFork, group, Ep.EvaluateZero()) {
			return fmt.Errorf("triples: e-proof failed for %s on triple %d", msg.From, k)
		}

		fProof, err := dlog.FromBytes(group, op.ProofFK, op.ProofFZ)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal f-proof from %s on triple %d: %w", msg.From, k, err)
		}
		fFork := r.Hash().Fork("dlog1", idTripleBytes(msg.From, k))
		if !fProof.Verify(fFork, group, Fp.EvaluateZero()) {
			return fmt.Errorf("triples: f-proof failed for %s on triple %d", msg.From, k)
		}

		openedE[k] = Ep

		if err := r.accE[k].Add(Ep); err != nil {
			return fmt.Errorf("triples: failed to accumulate E for triple %d: %w", k, err)
		}
		if err := r.accF[k].Add(Fp); err != nil {
			return fmt.Errorf("triples: failed to accumulate F for triple %d: %w", k, err)
		}
		if err := r.accL[k].Add(Lp); err != nil {
			return fmt.Errorf("triples: failed to accumulate L for triple %d: %w", k, err)
		}
	}

	r.peerE[msg.From] = openedE
	return nil
}

// Finalize privately sends every triple's evaluation of this party's own
// polynomials to every peer (spec §4.9 step 4).
func (r *round4) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	for _, p := range r.OtherPartyIDs() {
		shares := make([]tripleShare, r.triplesCount)
		for k, mat := range r.materials {
			x := p.Scalar(group)
			eb, err := marshalScalar(mat.e.Evaluate(x))
			if err != nil {
				return nil, fmt.Errorf("triples: failed to marshal e-share for %s on triple %d: %w", p, k, err)
			}
			fb, err := marshalScalar(mat.f.Evaluate(x))
			if err != nil {
				return nil, fmt.Errorf("triples: failed to marshal f-share for %s on triple %d: %w", p, k, err)
			}
			shares[k] = tripleShare{E: eb, F: fb}
		}
		if err := r.SendMessage(out, &message4{Shares: shares}, p); err != nil {
			return nil, err
		}
	}

	return &round5{round4: r}, nil
}
