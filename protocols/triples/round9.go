package triples

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/bitops"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/protocols/mta"
	"github.com/tecdsa-go/tecdsa/protocols/ot/cot"
	"github.com/tecdsa-go/tecdsa/protocols/ot/rot"
)

// round9 collects cascade stage 3 (the correlated-OT correction and
// consistency digest, real only from peers this party plays sender
// toward) and sends cascade stage 4: the MtA ciphertexts covering both
// cross terms of every triple (spec §4.9 step 6 tail, §4.8 sender side).
type round9 struct {
	*round8

	// gammaTotal is this party's running additive share of every triple's
	// c = a*b, seeded with the local diagonal term e(0)*f(0) and later
	// folded in with every peer's MtA alpha/beta contribution.
	gammaTotal []curve.Scalar
}

func (r *round9) Number() round.Number                     { return 9 }
func (r *round9) MessageContent() round.Content            { return &otMsg3{} }
func (r *round9) BroadcastContent() round.BroadcastContent { return nil }
func (r *round9) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round9) VerifyMessage(round.Message) error         { return nil }

// StoreMessage processes a peer's real correlated-OT correction if this
// party plays sender toward that peer (peer < self), runs the MtA
// sender step for both cross terms of every triple, and stores the
// resulting ciphertext and state.
func (r *round9) StoreMessage(msg round.Message) error {
	body, ok := msg.Content.(*otMsg3)
	if !ok {
		return round.ErrInvalidContent
	}
	if msg.From > r.SelfID() {
		return nil
	}

	group := r.Group()
	st := r.peers[msg.From]
	batch := batchSizePerTriple(group)
	totalBatch := r.triplesCount * batch
	m := bitops.AdjustedSize(2 * totalBatch)

	U := unmarshalBitMatrix(body.U)
	sid := pairSessionID(r.SSID(), r.SelfID(), msg.From)
	cotOut, err := cot.Send(sid, st.senderK, st.delta, m, U)
	if err != nil {
		return fmt.Errorf("triples: correlated OT send to %s failed: %w", msg.From, err)
	}

	if len(body.SmallT) != bitops.Kappa {
		return fmt.Errorf("triples: consistency digest from %s has wrong length %d, want %d", msg.From, len(body.SmallT), bitops.Kappa)
	}
	digest := rot.Digest{SmallX: doubleBitVectorFromBytes(body.SmallX)}
	for j := range digest.SmallT {
		digest.SmallT[j] = doubleBitVectorFromBytes(body.SmallT[j])
	}

	senderOut, err := rot.Verify(group, st.seed, st.delta, cotOut.Q, digest, totalBatch)
	if err != nil {
		return fmt.Errorf("triples: random OT verify against %s failed: %w", msg.From, err)
	}
	st.senderOut = senderOut

	st.mtaStates = make([]mtaPairState, r.triplesCount)
	st.toSend4 = make([]tripleCipher, r.triplesCount)

	for k, mat := range r.materials {
		v0 := senderOut.Res0[k*batch : (k+1)*batch]
		v1 := senderOut.Res1[k*batch : (k+1)*batch]

		cipherA, stateA, err := mta.SenderStep1(r.rng, group, v0, mat.e.EvaluateZero())
		if err != nil {
			return fmt.Errorf("triples: MtA sender step 1 (A) for %s on triple %d failed: %w", msg.From, k, err)
		}
		cipherB, stateB, err := mta.SenderStep1(r.rng, group, v1, mat.f.EvaluateZero())
		if err != nil {
			return fmt.Errorf("triples: MtA sender step 1 (B) for %s on triple %d failed: %w", msg.From, k, err)
		}

		c0a := make([]curve.Scalar, len(cipherA))
		c1a := make([]curve.Scalar, len(cipherA))
		for i, c := range cipherA {
			c0a[i], c1a[i] = c.C0, c.C1
		}
		c0b := make([]curve.Scalar, len(cipherB))
		c1b := make([]curve.Scalar, len(cipherB))
		for i, c := range cipherB {
			c0b[i], c1b[i] = c.C0, c.C1
		}

		wc, err := marshalCipherRows(c0a, c1a, c0b, c1b)
		if err != nil {
			return fmt.Errorf("triples: failed to marshal MtA ciphertext for %s on triple %d: %w", msg.From, k, err)
		}

		st.mtaStates[k] = mtaPairState{stateA: stateA, stateB: stateB}
		st.toSend4[k] = wc
	}

	return nil
}

// marshalCipherRows flattens the four per-row scalar columns of one
// triple's MtA ciphertext batch into wire form.
func marshalCipherRows(c0a, c1a, c0b, c1b []curve.Scalar) (tripleCipher, error) {
	var wc tripleCipher
	var err error
	if wc.C0A, err = marshalScalars(c0a); err != nil {
		return wc, err
	}
	if wc.C1A, err = marshalScalars(c1a); err != nil {
		return wc, err
	}
	if wc.C0B, err = marshalScalars(c0b); err != nil {
		return wc, err
	}
	if wc.C1B, err = marshalScalars(c1b); err != nil {
		return wc, err
	}
	return wc, nil
}

// Finalize seeds every triple's local diagonal term, then sends every
// receiver-role peer the real MtA ciphertext batch; every sender-role
// peer gets a placeholder.
func (r *round9) Finalize(out chan<- *round.Message) (round.Session, error) {
	r.gammaTotal = make([]curve.Scalar, r.triplesCount)
	for k, mat := range r.materials {
		r.gammaTotal[k] = mat.e.EvaluateZero().Mul(mat.f.EvaluateZero())
	}

	for _, p := range r.OtherPartyIDs() {
		if p > r.SelfID() {
			if err := r.SendMessage(out, &otMsg4{}, p); err != nil {
				return nil, err
			}
			continue
		}

		st := r.peers[p]
		if err := r.SendMessage(out, &otMsg4{Ciphertexts: st.toSend4}, p); err != nil {
			return nil, err
		}
	}

	return &round10{round9: r}, nil
}
