// Package mta implements the two-party multiplicative-to-additive share
// conversion that triple generation runs over a batch of random OT
// outputs: a sender holding a and a receiver holding b end up with
// alpha, beta such that alpha+beta = a*b, with neither party learning
// the other's input (spec §4.8).
package mta

import (
	"fmt"
	"io"

	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/sample"
	"github.com/tecdsa-go/tecdsa/protocols/ot/rot"
)

// CipherPair is one row of the sender's masked message, sent to the
// receiver in the clear: it hides a behind a fresh per-row mask that the
// receiver's chi-combiner later cancels (spec §4.8: "c0_i, c1_i").
type CipherPair struct {
	C0, C1 curve.Scalar
}

// SenderState is the sender's private state between its two steps: the
// per-row masks it must later combine with the receiver's chi challenge.
type SenderState struct {
	Delta []curve.Scalar
}

// SenderStep1 masks the sender's input a against each row of its random
// OT output v, producing the ciphertext it sends the receiver and the
// private masks it needs for SenderStep2 (spec §4.8:
// "c0_i = v0_i + delta_i + a, c1_i = v1_i + delta_i - a").
func SenderStep1(rng io.Reader, group curve.Curve, v []rot.SenderPair, a curve.Scalar) ([]CipherPair, *SenderState, error) {
	if len(v) == 0 {
		return nil, nil, fmt.Errorf("mta: empty random OT batch")
	}
	c := make([]CipherPair, len(v))
	delta := make([]curve.Scalar, len(v))
	for i, row := range v {
		di := sample.Scalar(rng, group)
		delta[i] = di

		c[i] = CipherPair{
			C0: row.V0.Add(di).Add(a),
			C1: row.V1.Add(di).Sub(a),
		}
	}
	return c, &SenderState{Delta: delta}, nil
}

// SenderStep2 finishes the conversion once it learns the receiver's chi
// combiner (chi0, seed): it re-derives the same per-row challenges the
// receiver used internally, combines them with its own masks, and
// negates the result so alpha+beta telescopes to a*b (spec §4.8:
// "alpha := delta_0*chi_0 + sum(delta_i*chi_i); return -alpha").
func SenderStep2(group curve.Curve, state *SenderState, chi0 curve.Scalar, seed [32]byte) curve.Scalar {
	alpha := state.Delta[0].Mul(chi0)

	for i := 1; i < len(state.Delta); i++ {
		chiI := sample.ScalarFromSeed(seed[:], uint64(i), group)
		alpha = alpha.Add(state.Delta[i].Mul(chiI))
	}

	return alpha.Negate()
}

// ReceiverStep1 is the receiver's only step: it cancels the sender's
// per-row masks from the ciphertext using its own random-OT rows tv (the
// rows it chose to pick up via its choice bits), draws a fresh chi
// combiner binding b into the result, and returns both the combiner it
// must send the sender and its own additive share beta (spec §4.8).
//
// The sign flip on the first challenge when tv[0]'s choice bit is set is
// deliberate: it binds b into the consistency combiner so a cheating
// sender's tampering surfaces as a failed MtA rather than a silently
// wrong product.
func ReceiverStep1(rng io.Reader, group curve.Curve, c []CipherPair, tv []rot.Pair, b curve.Scalar) (chi0 curve.Scalar, seed [32]byte, beta curve.Scalar, err error) {
	if len(c) != len(tv) {
		return nil, seed, nil, fmt.Errorf("mta: ciphertext length %d does not match random OT batch length %d", len(c), len(tv))
	}
	size := len(tv)
	if size == 0 {
		return nil, seed, nil, fmt.Errorf("mta: empty random OT batch")
	}

	m := make([]curve.Scalar, size)
	for i, row := range tv {
		selected := c[i].C0
		if row.Choice&1 == 1 {
			selected = c[i].C1
		}
		m[i] = selected.Sub(row.Value)
	}

	if _, rerr := io.ReadFull(rng, seed[:]); rerr != nil {
		return nil, seed, nil, fmt.Errorf("mta: failed to sample seed: %w", rerr)
	}

	chi := make([]curve.Scalar, size)
	acc := group.NewScalar()
	for i := 1; i < size; i++ {
		chi[i] = sample.ScalarFromSeed(seed[:], uint64(i), group)
		term := chi[i]
		if tv[i].Choice&1 == 1 {
			term = term.Negate()
		}
		acc = acc.Add(term)
	}

	chi0 = b.Sub(acc)
	if tv[0].Choice&1 == 1 {
		chi0 = chi0.Negate()
	}

	beta = chi0.Mul(m[0])
	for i := 1; i < size; i++ {
		beta = beta.Add(chi[i].Mul(m[i]))
	}

	return chi0, seed, beta, nil
}
