package sign

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/ecdsa"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/protocols/presign"
)

// round1 is the genesis round: it derives this party's signature share
// from its presignature and broadcasts it, never waiting on anything
// (spec §4.11 step 1).
type round1 struct {
	*round.Helper

	presig      presign.Output
	publicKey   curve.Point
	messageHash []byte

	r curve.Scalar // x(R), shared by every party
	s curve.Scalar // this party's signature share
}

func (r *round1) Number() round.Number                     { return 1 }
func (r *round1) MessageContent() round.Content            { return nil }
func (r *round1) BroadcastContent() round.BroadcastContent { return nil }
func (r *round1) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round1) VerifyMessage(round.Message) error         { return nil }
func (r *round1) StoreMessage(round.Message) error          { return nil }

// Finalize computes k_i := λ·presig.K, σ_i := λ·presig.σ, r := x(R),
// s_i := h·k_i + r·σ_i, and broadcasts s_i (spec §4.11 step 1).
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()

	r.r = r.presig.R.XScalar()
	if r.r.IsZero() {
		return nil, fmt.Errorf("sign: nonce point has zero x-coordinate")
	}

	lambda := r.PartyIDs().Lagrange(group, r.SelfID())
	kShare := lambda.Mul(r.presig.K)
	sigmaShare := lambda.Mul(r.presig.Sigma)
	h := ecdsa.HashToScalar(group, r.messageHash)

	r.s = h.Mul(kShare).Add(r.r.Mul(sigmaShare))

	sBytes, err := r.s.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("sign: failed to marshal signature share: %w", err)
	}
	if err := r.BroadcastMessage(out, &broadcast1{S: sBytes}); err != nil {
		return nil, err
	}

	return &round2{round1: r, sSum: r.s}, nil
}
