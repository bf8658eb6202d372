// Package cot implements correlated OT extension: given the square key
// matrices a batched base OT produced, it stretches them into m
// correlated pairs via a PRG column expansion, so a single base OT run
// can seed an arbitrarily large batch of OTs (spec §4.6).
package cot

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/pkg/bitops"
)

// SenderOutput is the expanded correlation matrix Q = (U & delta) XOR T
// the sender derives once it sees the receiver's U (spec §4.6, "Spec 6").
type SenderOutput struct {
	Q *bitops.BitMatrix
}

// Send expands the sender's base-OT key matrix K into T and folds in the
// receiver's correction matrix U (spec §4.6, sender side).
func Send(sid []byte, K *bitops.SquareBitMatrix, delta bitops.BitVector, m int, U *bitops.BitMatrix) (*SenderOutput, error) {
	if U.Height() != m {
		return nil, fmt.Errorf("cot: expected correction matrix of height %d, got %d", m, U.Height())
	}
	T := K.ExpandTranspose(sid, m)
	Q := U.AndVector(delta).Xor(T)
	return &SenderOutput{Q: Q}, nil
}

// ReceiverOutput is the receiver's two candidate correlation matrices T0,
// T1 plus the correction matrix U it must send the sender.
type ReceiverOutput struct {
	T0 *bitops.BitMatrix
	T1 *bitops.BitMatrix
	U  *bitops.BitMatrix
}

// Receive expands the receiver's two base-OT key matrices K0, K1 into T0,
// T1 and builds the correction matrix U = T0 XOR T1 XOR X, where row i of
// X is all-ones when choice bit i is set and all-zero otherwise (spec
// §4.6, receiver side, "Spec 1" and "Spec 3").
func Receive(sid []byte, K0, K1 *bitops.SquareBitMatrix, b bitops.ChoiceVector, m int) *ReceiverOutput {
	T0 := K0.ExpandTranspose(sid, m)
	T1 := K1.ExpandTranspose(sid, m)

	X := bitops.NewBitMatrix(m)
	for i := 0; i < m; i++ {
		X.SetRow(i, rowFromBit(b.Bit(i)))
	}

	U := T0.Xor(T1).Xor(X)
	return &ReceiverOutput{T0: T0, T1: T1, U: U}
}

// rowFromBit returns the all-ones row when bit is set, the zero row
// otherwise (spec §4.6: "BitVector::conditional_select(zero, !zero, b_i)").
func rowFromBit(bit byte) bitops.BitVector {
	var row bitops.BitVector
	if bit&1 == 1 {
		for i := 0; i < bitops.Kappa; i++ {
			row.SetBit(i, 1)
		}
	}
	return row
}
