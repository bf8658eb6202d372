package sign

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/ecdsa"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
)

// round2 collects every peer's signature share, combines them into the
// final scalar, normalizes it to low-s form, and verifies the assembled
// signature before returning it; it never sends anything further (spec
// §4.11 step 2).
type round2 struct {
	*round1

	sSum curve.Scalar
}

func (r *round2) Number() round.Number                     { return 2 }
func (r *round2) MessageContent() round.Content            { return nil }
func (r *round2) BroadcastContent() round.BroadcastContent { return &broadcast1{} }
func (r *round2) VerifyMessage(round.Message) error         { return nil }
func (r *round2) StoreMessage(round.Message) error          { return nil }

// StoreBroadcastMessage accumulates a peer's signature share.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast1)
	if !ok {
		return round.ErrInvalidContent
	}
	group := r.Group()
	s := group.NewScalar()
	if err := s.UnmarshalBinary(body.S); err != nil {
		return fmt.Errorf("sign: failed to unmarshal signature share from %s: %w", msg.From, err)
	}
	r.sSum = r.sSum.Add(s)
	return nil
}

// Finalize combines every signature share, normalizes to low-s form, and
// verifies the assembled signature against the public key before
// returning it (spec §4.11 step 2; §4.11 final: "every party verifies the
// assembled signature locally").
func (r *round2) Finalize(chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	s, flipped := ecdsa.Normalize(group, r.sSum)

	sig := &ecdsa.Signature{
		R:          r.presig.R,
		S:          s,
		WasFlipped: flipped,
	}

	if err := ecdsa.MustVerify(group, r.publicKey, r.messageHash, sig); err != nil {
		return nil, err
	}

	return r.ResultRound(sig), nil
}
