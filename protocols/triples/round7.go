package triples

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/bitops"
	"github.com/tecdsa-go/tecdsa/protocols/ot/baseot"
	"github.com/tecdsa-go/tecdsa/protocols/ot/rot"
)

// round7 collects cascade stage 1 (every peer's batch-random-OT receiver
// points, real only from peers this party plays sender toward) and sends
// cascade stage 2: the base-OT reply bundled with a fresh random-OT seed
// (spec §4.5-§4.7, cascade stages 1-2).
type round7 struct {
	*round6
}

func (r *round7) Number() round.Number                     { return 7 }
func (r *round7) MessageContent() round.Content            { return &otMsg1{} }
func (r *round7) BroadcastContent() round.BroadcastContent { return nil }
func (r *round7) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round7) VerifyMessage(round.Message) error         { return nil }

// StoreMessage processes a peer's real receiver points if this party plays
// sender toward that peer (peer < self); otherwise the message is an
// empty placeholder and is ignored.
func (r *round7) StoreMessage(msg round.Message) error {
	body, ok := msg.Content.(*otMsg1)
	if !ok {
		return round.ErrInvalidContent
	}
	if msg.From > r.SelfID() {
		return nil
	}

	group := r.Group()
	Y, err := unmarshalPoints(group, body.Y)
	if err != nil {
		return fmt.Errorf("triples: failed to unmarshal receiver points from %s: %w", msg.From, err)
	}

	delta := bitops.RandomVector(r.rng)
	X, senderOut, err := baseot.Send(r.rng, group, r.Pool(), delta, Y)
	if err != nil {
		return fmt.Errorf("triples: base OT send to %s failed: %w", msg.From, err)
	}
	seed, err := rot.GenerateSeed(r.rng)
	if err != nil {
		return fmt.Errorf("triples: failed to sample random OT seed for %s: %w", msg.From, err)
	}

	st := r.peers[msg.From]
	st.delta = senderOut.Delta
	st.senderK = senderOut.K
	st.seed = seed
	st.toSendX = X
	return nil
}

// Finalize sends every sender-role peer the base-OT reply and seed; every
// receiver-role peer gets a placeholder, still waiting on that reply.
func (r *round7) Finalize(out chan<- *round.Message) (round.Session, error) {
	for _, p := range r.OtherPartyIDs() {
		if p > r.SelfID() {
			if err := r.SendMessage(out, &otMsg2{}, p); err != nil {
				return nil, err
			}
			continue
		}

		st := r.peers[p]
		xb, err := marshalPoints(st.toSendX)
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal base-OT reply for %s: %w", p, err)
		}
		if err := r.SendMessage(out, &otMsg2{X: xb, Seed: st.seed[:]}, p); err != nil {
			return nil, err
		}
	}

	return &round8{round7: r}, nil
}
