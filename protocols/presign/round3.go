package presign

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
)

// round3 collects every peer's (ka, xb) share, reconstructs and verifies
// the triples' public data against the key share, and derives the
// presignature; it never sends anything further (spec §4.10 step 3).
type round3 struct {
	*round2

	kaSum curve.Scalar
	xbSum curve.Scalar
}

func (r *round3) Number() round.Number                     { return 3 }
func (r *round3) MessageContent() round.Content            { return nil }
func (r *round3) BroadcastContent() round.BroadcastContent { return &broadcast2{} }
func (r *round3) VerifyMessage(round.Message) error        { return nil }
func (r *round3) StoreMessage(round.Message) error         { return nil }

// StoreBroadcastMessage accumulates a peer's (ka, xb) share.
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast2)
	if !ok {
		return round.ErrInvalidContent
	}
	group := r.Group()
	ka := group.NewScalar()
	if err := ka.UnmarshalBinary(body.KA); err != nil {
		return fmt.Errorf("presign: failed to unmarshal ka share from %s: %w", msg.From, err)
	}
	xb := group.NewScalar()
	if err := xb.UnmarshalBinary(body.XB); err != nil {
		return fmt.Errorf("presign: failed to unmarshal xb share from %s: %w", msg.From, err)
	}
	r.kaSum = r.kaSum.Add(ka)
	r.xbSum = r.xbSum.Add(xb)
	return nil
}

// Finalize reconstructs kd, ka, xb from the collected shares, checks them
// against the triples' and key share's public data, derives the nonce
// point R, and outputs this party's presignature share (spec §4.10 step
// 3).
func (r *round3) Finalize(chan<- *round.Message) (round.Session, error) {
	if r.kdSum.IsZero() {
		return nil, fmt.Errorf("presign: reconstructed kd is zero")
	}
	if !r.kdSum.ActOnBase().Equal(r.triple0Pub.C) {
		return nil, fmt.Errorf("presign: kd does not match the nonce triple's cross commitment")
	}

	kPlusA := r.triple0Pub.A.Add(r.triple1Pub.A)
	if !r.kaSum.ActOnBase().Equal(kPlusA) {
		return nil, fmt.Errorf("presign: ka does not match K+A")
	}

	xPlusB := r.keyShare.PublicKey.Add(r.triple1Pub.B)
	if !r.xbSum.ActOnBase().Equal(xPlusB) {
		return nil, fmt.Errorf("presign: xb does not match X+B")
	}

	R := r.kdSum.Invert().Act(r.triple0Pub.B)

	lambdaDiff := r.lambda.Mul(r.lambdaSK.Invert())

	cross := r.xbSum.Mul(r.triple1Share.A).Sub(r.triple1Share.C)
	sigma := r.kaSum.Mul(r.keyShare.PrivateShare).Sub(cross.Mul(lambdaDiff))
	kOut := r.triple0Share.A.Mul(lambdaDiff)

	return r.ResultRound(Output{R: R, K: kOut, Sigma: sigma}), nil
}
