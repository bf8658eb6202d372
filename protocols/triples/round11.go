package triples

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/zk/dlog"
	"github.com/tecdsa-go/tecdsa/protocols/mta"
)

// round11 collects cascade stage 5 (the MtA consistency combiners, real
// only from peers this party plays sender toward) and, once every
// triple's additive share of c = a*b is complete, installs it as l's
// constant term, proves knowledge of it, and privately shares the
// evaluations of l (spec §4.9 step 7, the cascade's last exchange).
type round11 struct {
	*round10

	ownC [][]byte
}

func (r *round11) Number() round.Number                     { return 11 }
func (r *round11) MessageContent() round.Content            { return &otMsg5{} }
func (r *round11) BroadcastContent() round.BroadcastContent { return nil }
func (r *round11) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round11) VerifyMessage(round.Message) error         { return nil }

// StoreMessage processes a peer's real MtA consistency combiners if this
// party plays sender toward that peer (peer < self), finishing the MtA
// conversion and folding alpha into the running total.
func (r *round11) StoreMessage(msg round.Message) error {
	body, ok := msg.Content.(*otMsg5)
	if !ok {
		return round.ErrInvalidContent
	}
	if msg.From > r.SelfID() {
		return nil
	}

	group := r.Group()
	st := r.peers[msg.From]

	if len(body.Shares) != r.triplesCount {
		return fmt.Errorf("triples: MtA combiner batch from %s has wrong length %d, want %d", msg.From, len(body.Shares), r.triplesCount)
	}

	for k, cs := range body.Shares {
		chi0A, err := unmarshalScalar(group, cs.Chi0A)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal chi0 (A) from %s on triple %d: %w", msg.From, k, err)
		}
		chi0B, err := unmarshalScalar(group, cs.Chi0B)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal chi0 (B) from %s on triple %d: %w", msg.From, k, err)
		}
		var seedA, seedB [32]byte
		copy(seedA[:], cs.SeedA)
		copy(seedB[:], cs.SeedB)

		state := st.mtaStates[k]
		alphaA := mta.SenderStep2(group, state.stateA, chi0A, seedA)
		alphaB := mta.SenderStep2(group, state.stateB, chi0B, seedB)
		r.gammaTotal[k] = r.gammaTotal[k].Add(alphaA).Add(alphaB)
	}

	return nil
}

// Finalize runs once every triple's additive c-share is complete: it
// installs gammaTotal as l's constant term, proves knowledge of the
// recomputed Chat, and privately shares every evaluation of l (spec §4.9
// step 7).
func (r *round11) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	finals := make([]tripleFinal, r.triplesCount)

	peerShares := make(map[int][][]byte)
	for _, p := range r.OtherPartyIDs() {
		peerShares[int(p)] = make([][]byte, r.triplesCount)
	}
	ownC := make([][]byte, r.triplesCount)
	ownChats := make([]curve.Point, r.triplesCount)

	for k, mat := range r.materials {
		Chat := r.gammaTotal[k].ActOnBase()
		ownChats[k] = Chat
		fork := r.Hash().Fork("dlog2", idTripleBytes(r.SelfID(), k))
		proof := dlog.Prove(r.rng, fork, group, r.gammaTotal[k], Chat)
		pk, pz, err := proof.Bytes()
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal Chat proof for triple %d: %w", k, err)
		}
		chatBytes, err := Chat.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal Chat for triple %d: %w", k, err)
		}
		finals[k] = tripleFinal{Chat: chatBytes, ProofK: pk, ProofZ: pz}

		mat.l.SetZero(r.gammaTotal[k])

		for _, p := range r.OtherPartyIDs() {
			share, err := marshalScalar(mat.l.Evaluate(p.Scalar(group)))
			if err != nil {
				return nil, fmt.Errorf("triples: failed to marshal l-share for %s on triple %d: %w", p, k, err)
			}
			peerShares[int(p)][k] = share
		}
		own, err := marshalScalar(mat.l.Evaluate(r.SelfID().Scalar(group)))
		if err != nil {
			return nil, fmt.Errorf("triples: failed to marshal own l-share on triple %d: %w", k, err)
		}
		ownC[k] = own
	}

	if err := r.BroadcastMessage(out, &broadcastFinal{Triples: finals}); err != nil {
		return nil, err
	}
	for _, p := range r.OtherPartyIDs() {
		if err := r.SendMessage(out, &messageFinal{C: peerShares[int(p)]}, p); err != nil {
			return nil, err
		}
	}

	return &round12{round11: r, ownC: ownC, chatSum: ownChats}, nil
}
