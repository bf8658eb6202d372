package triples

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/protocols/mta"
	"github.com/tecdsa-go/tecdsa/protocols/ot/rot"
)

// round10 collects cascade stage 4 (the MtA ciphertext batch, real only
// from peers this party plays receiver toward) and sends cascade stage 5:
// the MtA consistency combiners, folding the receiver's own beta share
// into this party's running total as soon as it is known (spec §4.9 step
// 6 tail, §4.8 receiver side).
type round10 struct {
	*round9
}

func (r *round10) Number() round.Number                     { return 10 }
func (r *round10) MessageContent() round.Content            { return &otMsg4{} }
func (r *round10) BroadcastContent() round.BroadcastContent { return nil }
func (r *round10) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round10) VerifyMessage(round.Message) error         { return nil }

// StoreMessage processes a peer's real MtA ciphertext batch if this party
// plays receiver toward that peer (peer > self), folding beta into the
// running total and stashing the consistency combiner to send back.
func (r *round10) StoreMessage(msg round.Message) error {
	body, ok := msg.Content.(*otMsg4)
	if !ok {
		return round.ErrInvalidContent
	}
	if msg.From < r.SelfID() {
		return nil
	}

	group := r.Group()
	st := r.peers[msg.From]
	batch := batchSizePerTriple(group)

	if len(body.Ciphertexts) != r.triplesCount {
		return fmt.Errorf("triples: MtA ciphertext batch from %s has wrong length %d, want %d", msg.From, len(body.Ciphertexts), r.triplesCount)
	}

	st.toSend5 = make([]tripleChiSeed, r.triplesCount)

	for k, mat := range r.materials {
		wc := body.Ciphertexts[k]
		cipherA, err := unmarshalCipherPairs(group, wc.C0A, wc.C1A, batch)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal MtA ciphertext (A) from %s on triple %d: %w", msg.From, k, err)
		}
		cipherB, err := unmarshalCipherPairs(group, wc.C0B, wc.C1B, batch)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal MtA ciphertext (B) from %s on triple %d: %w", msg.From, k, err)
		}

		tv0 := st.recvOut.Res0[k*batch : (k+1)*batch]
		tv1 := st.recvOut.Res1[k*batch : (k+1)*batch]

		chi0A, seedA, betaA, err := mta.ReceiverStep1(r.rng, group, cipherA, tv0, mat.f.EvaluateZero())
		if err != nil {
			return fmt.Errorf("triples: MtA receiver step 1 (A) against %s on triple %d failed: %w", msg.From, k, err)
		}
		chi0B, seedB, betaB, err := mta.ReceiverStep1(r.rng, group, cipherB, tv1, mat.e.EvaluateZero())
		if err != nil {
			return fmt.Errorf("triples: MtA receiver step 1 (B) against %s on triple %d failed: %w", msg.From, k, err)
		}

		r.gammaTotal[k] = r.gammaTotal[k].Add(betaA).Add(betaB)

		chi0ab, err := marshalScalar(chi0A)
		if err != nil {
			return fmt.Errorf("triples: failed to marshal chi0 (A) for %s on triple %d: %w", msg.From, k, err)
		}
		chi0bb, err := marshalScalar(chi0B)
		if err != nil {
			return fmt.Errorf("triples: failed to marshal chi0 (B) for %s on triple %d: %w", msg.From, k, err)
		}
		st.toSend5[k] = tripleChiSeed{
			Chi0A: chi0ab, SeedA: seedA[:],
			Chi0B: chi0bb, SeedB: seedB[:],
		}
	}

	return nil
}

// unmarshalCipherPairs reconstructs one cross term's batch of MtA
// ciphertext rows from its flattened wire form.
func unmarshalCipherPairs(group curve.Curve, c0, c1 []byte, count int) ([]mta.CipherPair, error) {
	s0, err := unmarshalScalars(group, c0, count)
	if err != nil {
		return nil, err
	}
	s1, err := unmarshalScalars(group, c1, count)
	if err != nil {
		return nil, err
	}
	out := make([]mta.CipherPair, count)
	for i := range out {
		out[i] = mta.CipherPair{C0: s0[i], C1: s1[i]}
	}
	return out, nil
}

// Finalize sends every sender-role peer the real consistency combiners;
// every receiver-role peer gets a placeholder.
func (r *round10) Finalize(out chan<- *round.Message) (round.Session, error) {
	for _, p := range r.OtherPartyIDs() {
		if p > r.SelfID() {
			st := r.peers[p]
			if err := r.SendMessage(out, &otMsg5{Shares: st.toSend5}, p); err != nil {
				return nil, err
			}
			continue
		}
		if err := r.SendMessage(out, &otMsg5{}, p); err != nil {
			return nil, err
		}
	}

	return &round11{round10: r}, nil
}
