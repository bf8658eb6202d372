package triples

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/zk/dlogeq"
	"github.com/tecdsa-go/tecdsa/protocols/ot/baseot"
)

// round6 collects every peer's cross commitment, verifies it against that
// peer's own E_p(0), and sums the result into C (spec §4.9 step 6), then
// kicks off the OT cascade: every party sends every peer a cascade-stage-1
// message, real if it plays receiver toward that peer, a placeholder
// otherwise (the larger-id party of a pair plays sender).
type round6 struct {
	*round5

	Csum  []curve.Point
	peers map[party.ID]*peerOT
}

func (r *round6) Number() round.Number                     { return 6 }
func (r *round6) MessageContent() round.Content            { return nil }
func (r *round6) BroadcastContent() round.BroadcastContent { return &broadcast5{} }
func (r *round6) VerifyMessage(round.Message) error        { return nil }
func (r *round6) StoreMessage(round.Message) error         { return nil }

// StoreBroadcastMessage verifies a peer's cross commitment against its own
// E_p(0) and F(0), and accumulates C := sum C_p (spec §4.9 step 6).
func (r *round6) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast5)
	if !ok {
		return round.ErrInvalidContent
	}
	if len(body.Commits) != r.triplesCount {
		return fmt.Errorf("triples: cross commitment batch from %s has wrong length %d, want %d", msg.From, len(body.Commits), r.triplesCount)
	}

	group := r.Group()
	if r.Csum == nil {
		r.Csum = make([]curve.Point, r.triplesCount)
	}
	peerE, ok := r.peerE[msg.From]
	if !ok {
		return fmt.Errorf("triples: no opened polynomial on file for %s", msg.From)
	}

	for k, tc := range body.Commits {
		C := group.NewPoint()
		if err := C.UnmarshalBinary(tc.C); err != nil {
			return fmt.Errorf("triples: failed to unmarshal cross commitment from %s on triple %d: %w", msg.From, k, err)
		}
		proof, err := dlogeq.FromBytes(group, tc.ProofK1, tc.ProofK2, tc.ProofZ)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal dlog-eq proof from %s on triple %d: %w", msg.From, k, err)
		}

		stmt := dlogeq.Statement{G: baseGenerator(group), H: r.accF[k].EvaluateZero(), P: peerE[k].EvaluateZero(), Q: C}
		fork := r.Hash().Fork("dlogeq0", idTripleBytes(msg.From, k))
		if !proof.Verify(fork, group, stmt) {
			return fmt.Errorf("triples: dlog-eq proof failed for %s on triple %d", msg.From, k)
		}

		if r.Csum[k] == nil {
			r.Csum[k] = C
		} else {
			r.Csum[k] = r.Csum[k].Add(C)
		}
	}

	return nil
}

// Finalize begins the OT cascade: for every peer, send real batch-random-OT
// receiver points if self plays receiver toward that peer, a placeholder
// otherwise (spec §4.9 step 6, cascade stage 1).
func (r *round6) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	r.peers = make(map[party.ID]*peerOT, len(r.OtherPartyIDs()))

	for _, p := range r.OtherPartyIDs() {
		st := &peerOT{}
		r.peers[p] = st

		if r.SelfID() < p {
			state, Y := baseot.NewReceiverMessage(r.rng, group, r.Pool())
			st.recvState = state
			yb, err := marshalPoints(Y)
			if err != nil {
				return nil, fmt.Errorf("triples: failed to marshal receiver points for %s: %w", p, err)
			}
			if err := r.SendMessage(out, &otMsg1{Y: yb}, p); err != nil {
				return nil, err
			}
		} else {
			if err := r.SendMessage(out, &otMsg1{}, p); err != nil {
				return nil, err
			}
		}
	}

	return &round7{round6: r}, nil
}
