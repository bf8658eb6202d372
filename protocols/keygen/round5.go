package keygen

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
)

// round5 collects every peer's private share of this party's evaluation,
// sums them into the final Shamir share, and checks it against the
// accumulated group polynomial (spec §4.3 step 5).
type round5 struct {
	*round4
}

func (r *round5) Number() round.Number                     { return 5 }
func (r *round5) MessageContent() round.Content            { return &message4{} }
func (r *round5) BroadcastContent() round.BroadcastContent { return nil }
func (r *round5) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round5) VerifyMessage(round.Message) error         { return nil }

// StoreMessage accumulates a peer's private share into this party's final
// key share (spec §4.3 step 4, DKG.wait_3).
func (r *round5) StoreMessage(msg round.Message) error {
	body, ok := msg.Content.(*message4)
	if !ok {
		return round.ErrInvalidContent
	}
	group := r.Group()
	xp := group.NewScalar()
	if err := xp.UnmarshalBinary(body.X); err != nil {
		return fmt.Errorf("keygen: failed to unmarshal share from %s: %w", msg.From, err)
	}
	r.accX = r.accX.Add(xp)
	return nil
}

// Finalize checks the accumulated share against the accumulated public
// polynomial, checks continuity against a previous key on a reshare, and
// outputs the new key share (spec §4.3 step 5, final bullets).
func (r *round5) Finalize(chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	expected := r.accF.Evaluate(r.SelfID().Scalar(group))
	actual := r.accX.ActOnBase()
	if !expected.Equal(actual) {
		return nil, fmt.Errorf("keygen: share does not match accumulated public polynomial")
	}

	publicKey := r.accF.EvaluateZero()
	if r.prevPublicKey != nil && !publicKey.Equal(r.prevPublicKey) {
		return nil, fmt.Errorf("keygen: reshare produced a different public key")
	}

	return r.ResultRound(Output{PrivateShare: r.accX, PublicKey: publicKey}), nil
}
