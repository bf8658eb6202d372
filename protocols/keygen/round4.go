package keygen

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/polynomial"
	"github.com/tecdsa-go/tecdsa/pkg/zk/dlog"
)

// round4 collects every peer's opened polynomial commitment, verifies its
// commitment and knowledge proof, and accumulates the group polynomial sum
// F before privately sharing this party's evaluations (spec §4.3 steps
// 3-4).
type round4 struct {
	*round3
	accF *polynomial.GroupPolynomial
	accX curve.Scalar
}

func (r *round4) Number() round.Number                     { return 4 }
func (r *round4) MessageContent() round.Content            { return nil }
func (r *round4) BroadcastContent() round.BroadcastContent { return &broadcast3{} }
func (r *round4) VerifyMessage(round.Message) error        { return nil }
func (r *round4) StoreMessage(round.Message) error         { return nil }

// StoreBroadcastMessage verifies a peer's opened polynomial commitment and
// knowledge proof, then accumulates it into the running sum F (spec §4.3
// step 5, first bullet: "Verify |F_p| == t and C_p.check(F_p, r_p) ... π_p
// ... Accumulate F := Σ F_p").
func (r *round4) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast3)
	if !ok {
		return round.ErrInvalidContent
	}
	group := r.Group()
	if len(body.F) != r.Threshold() {
		return fmt.Errorf("keygen: polynomial from %s has wrong length %d, want %d", msg.From, len(body.F), r.Threshold())
	}

	Fp, err := polynomial.UnmarshalGroupPolynomial(group, body.F)
	if err != nil {
		return fmt.Errorf("keygen: failed to unmarshal polynomial from %s: %w", msg.From, err)
	}

	payload, err := Fp.CommitPayload()
	if err != nil {
		return fmt.Errorf("keygen: failed to serialize polynomial from %s: %w", msg.From, err)
	}
	C, ok := r.peerCommitments[msg.From]
	if !ok || !C.Check(payload, body.R) {
		return fmt.Errorf("keygen: commitment check failed for %s", msg.From)
	}

	proof, err := dlog.FromBytes(group, body.ProofK, body.ProofZ)
	if err != nil {
		return fmt.Errorf("keygen: failed to unmarshal dlog proof from %s: %w", msg.From, err)
	}
	fork := r.Hash().Fork("dlog0", idBytes(msg.From))
	if !proof.Verify(fork, group, Fp.EvaluateZero()) {
		return fmt.Errorf("keygen: dlog proof failed for %s", msg.From)
	}

	return r.accF.Add(Fp)
}

// Finalize privately sends this party's evaluation of its own polynomial to
// every peer (spec §4.3 step 4).
func (r *round4) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	for _, p := range r.OtherPartyIDs() {
		xp := r.f.Evaluate(p.Scalar(group))
		b, err := xp.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("keygen: failed to marshal share for %s: %w", p, err)
		}
		if err := r.SendMessage(out, &message4{X: b}, p); err != nil {
			return nil, err
		}
	}

	return &round5{round4: r}, nil
}
