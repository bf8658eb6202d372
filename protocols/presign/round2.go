package presign

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
)

// round2 collects every peer's kd share, sums it, and broadcasts this
// party's two additively-masked combinations (spec §4.10 step 2).
type round2 struct {
	*round1

	kdSum curve.Scalar
}

func (r *round2) Number() round.Number                     { return 2 }
func (r *round2) MessageContent() round.Content            { return nil }
func (r *round2) BroadcastContent() round.BroadcastContent { return &broadcast1{} }
func (r *round2) VerifyMessage(round.Message) error        { return nil }
func (r *round2) StoreMessage(round.Message) error         { return nil }

// StoreBroadcastMessage accumulates a peer's kd share.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast1)
	if !ok {
		return round.ErrInvalidContent
	}
	group := r.Group()
	kd := group.NewScalar()
	if err := kd.UnmarshalBinary(body.KD); err != nil {
		return fmt.Errorf("presign: failed to unmarshal kd share from %s: %w", msg.From, err)
	}
	r.kdSum = r.kdSum.Add(kd)
	return nil
}

// Finalize broadcasts ka_i and xb_i (spec §4.10 step 2).
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	ka := r.kPrime.Add(r.aPrime)
	xb := r.xPrime.Add(r.bPrime)

	kaBytes, err := ka.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("presign: failed to marshal ka share: %w", err)
	}
	xbBytes, err := xb.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("presign: failed to marshal xb share: %w", err)
	}

	if err := r.BroadcastMessage(out, &broadcast2{KA: kaBytes, XB: xbBytes}); err != nil {
		return nil, err
	}

	return &round3{round2: r, kaSum: ka, xbSum: xb}, nil
}
