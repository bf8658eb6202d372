package triples

import (
	"fmt"
	"io"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/bitops"
	"github.com/tecdsa-go/tecdsa/protocols/ot/baseot"
	"github.com/tecdsa-go/tecdsa/protocols/ot/cot"
	"github.com/tecdsa-go/tecdsa/protocols/ot/rot"
)

// round8 collects cascade stage 2 (the base-OT reply and random-OT seed,
// real only from peers this party plays receiver toward) and sends
// cascade stage 3: the correlated-OT correction matrix and the consistency
// digest the sender needs to verify (spec §4.6-§4.7, cascade stage 3).
type round8 struct {
	*round7
}

func (r *round8) Number() round.Number                     { return 8 }
func (r *round8) MessageContent() round.Content            { return &otMsg2{} }
func (r *round8) BroadcastContent() round.BroadcastContent { return nil }
func (r *round8) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round8) VerifyMessage(round.Message) error         { return nil }

// StoreMessage processes a peer's real base-OT reply if this party plays
// receiver toward that peer (self < peer).
func (r *round8) StoreMessage(msg round.Message) error {
	body, ok := msg.Content.(*otMsg2)
	if !ok {
		return round.ErrInvalidContent
	}
	if msg.From < r.SelfID() {
		return nil
	}

	group := r.Group()
	X, err := unmarshalPoints(group, body.X)
	if err != nil {
		return fmt.Errorf("triples: failed to unmarshal base-OT points from %s: %w", msg.From, err)
	}
	var seed rot.Seed
	copy(seed[:], body.Seed)

	st := r.peers[msg.From]
	K0, K1, err := baseot.Receive(r.Pool(), st.recvState, X)
	if err != nil {
		return fmt.Errorf("triples: base OT receive from %s failed: %w", msg.From, err)
	}

	totalBatch := r.triplesCount * batchSizePerTriple(group)
	m := bitops.AdjustedSize(2 * totalBatch)
	b := bitops.NewChoiceVector(m)
	if _, rerr := io.ReadFull(r.rng, b); rerr != nil {
		return fmt.Errorf("triples: failed to sample choice vector for %s: %w", msg.From, rerr)
	}

	sid := pairSessionID(r.SSID(), r.SelfID(), msg.From)
	cotOut := cot.Receive(sid, K0, K1, b, m)
	rotOut, err := rot.Receive(group, seed, b, cotOut.T0, totalBatch)
	if err != nil {
		return fmt.Errorf("triples: random OT receive from %s failed: %w", msg.From, err)
	}

	st.choiceB = b
	st.recvOut = rotOut
	st.pendingU = cotOut.U
	return nil
}

// Finalize sends every receiver-role peer the correction matrix and
// consistency digest; every sender-role peer gets a placeholder.
func (r *round8) Finalize(out chan<- *round.Message) (round.Session, error) {
	for _, p := range r.OtherPartyIDs() {
		if p < r.SelfID() {
			if err := r.SendMessage(out, &otMsg3{}, p); err != nil {
				return nil, err
			}
			continue
		}

		st := r.peers[p]
		u := marshalBitMatrix(st.pendingU)
		smallT := make([][]byte, bitops.Kappa)
		for j := range smallT {
			smallT[j] = st.recvOut.Digest.SmallT[j].Bytes()
		}
		if err := r.SendMessage(out, &otMsg3{U: u, SmallX: st.recvOut.Digest.SmallX.Bytes(), SmallT: smallT}, p); err != nil {
			return nil, err
		}
	}

	return &round9{round8: r}, nil
}
