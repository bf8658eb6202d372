// Package baseot implements the batched random OT that correlated OT
// extension bootstraps from: kappa independent 1-of-2 OTs of kappa-bit
// strings, run concurrently between exactly two parties (spec §4.5).
package baseot

import (
	"fmt"
	"io"

	"github.com/tecdsa-go/tecdsa/pkg/bitops"
	"github.com/tecdsa-go/tecdsa/pkg/hash"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/sample"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
)

// sessionLabel is the fixed domain label for the H sponge (spec §6:
// "cait-sith v0.8.0 batch ROT").
const sessionLabel = "cait-sith v0.8.0 batch ROT"

// ReceiverState is the private state a receiver keeps between producing
// its message and consuming the sender's reply.
type ReceiverState struct {
	group curve.Curve
	y     [bitops.Kappa]curve.Scalar
	Y     [bitops.Kappa]curve.Point
}

// SenderOutput is what the sender of the batch learns: the choice bits it
// committed to, and the row matching each one.
type SenderOutput struct {
	Delta bitops.BitVector
	K     *bitops.SquareBitMatrix
}

// NewReceiverMessage draws kappa fresh base points Y_i = y_i*G and returns
// them alongside the private state needed to finish the exchange (spec
// §4.5, receiver side, first bullet).
func NewReceiverMessage(rng io.Reader, group curve.Curve, pl *pool.Pool) (*ReceiverState, []curve.Point) {
	state := &ReceiverState{group: group}
	Y := make([]curve.Point, bitops.Kappa)
	_ = pl.Parallelize(bitops.Kappa, func(i int) error {
		state.y[i] = sample.Scalar(rng, group)
		state.Y[i] = state.y[i].ActOnBase()
		Y[i] = state.Y[i]
		return nil
	})
	return state, Y
}

// Send plays the sender role: given its κ-bit choice vector delta and the
// receiver's Y, it returns its reply X and the rows it privately learns
// (spec §4.5, sender side).
func Send(rng io.Reader, group curve.Curve, pl *pool.Pool, delta bitops.BitVector, Y []curve.Point) ([]curve.Point, *SenderOutput, error) {
	if len(Y) != bitops.Kappa {
		return nil, nil, fmt.Errorf("baseot: expected %d receiver points, got %d", bitops.Kappa, len(Y))
	}

	X := make([]curve.Point, bitops.Kappa)
	rows := make([]bitops.BitVector, bitops.Kappa)
	err := pl.Parallelize(bitops.Kappa, func(i int) error {
		if Y[i].IsIdentity() {
			return fmt.Errorf("baseot: receiver point %d is the identity", i)
		}
		x := sample.Scalar(rng, group)
		Xi := x.ActOnBase()
		if delta.Bit(i) == 1 {
			Xi = Xi.Add(Y[i])
		}
		X[i] = Xi
		shared := x.Act(Y[i])
		row, herr := hashRow(i, Xi, Y[i], shared)
		if herr != nil {
			return herr
		}
		rows[i] = row
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	K, err := bitops.NewSquareBitMatrix(rows)
	if err != nil {
		return nil, nil, err
	}
	return X, &SenderOutput{Delta: delta, K: K}, nil
}

// Receive finishes the exchange on the receiver side: given the sender's
// X, it computes both candidate key matrices K^0, K^1 (spec §4.5,
// receiver side, second bullet).
func Receive(pl *pool.Pool, state *ReceiverState, X []curve.Point) (K0, K1 *bitops.SquareBitMatrix, err error) {
	if len(X) != bitops.Kappa {
		return nil, nil, fmt.Errorf("baseot: expected %d sender points, got %d", bitops.Kappa, len(X))
	}

	rows0 := make([]bitops.BitVector, bitops.Kappa)
	rows1 := make([]bitops.BitVector, bitops.Kappa)
	perr := pl.Parallelize(bitops.Kappa, func(i int) error {
		yX := state.y[i].Act(X[i])
		Zi := state.y[i].Act(state.Y[i])
		row0, herr := hashRow(i, X[i], state.Y[i], yX)
		if herr != nil {
			return herr
		}
		row1, herr := hashRow(i, X[i], state.Y[i], yX.Add(Zi.Negate()))
		if herr != nil {
			return herr
		}
		rows0[i] = row0
		rows1[i] = row1
		return nil
	})
	if perr != nil {
		return nil, nil, perr
	}

	K0, err = bitops.NewSquareBitMatrix(rows0)
	if err != nil {
		return nil, nil, err
	}
	K1, err = bitops.NewSquareBitMatrix(rows1)
	if err != nil {
		return nil, nil, err
	}
	return K0, K1, nil
}

// hashRow is H(i, X, Y, P): a domain-separated duplex sponge producing
// kappa bits (spec §4.5).
func hashRow(i int, X, Y, P curve.Point) (bitops.BitVector, error) {
	t := hash.New(sessionLabel)
	var idx [8]byte
	idx[7] = byte(i)
	idx[6] = byte(i >> 8)
	idx[5] = byte(i >> 16)
	idx[4] = byte(i >> 24)
	fork := t.Fork("row", idx[:])

	xb, err := X.MarshalBinary()
	if err != nil {
		return bitops.BitVector{}, err
	}
	yb, err := Y.MarshalBinary()
	if err != nil {
		return bitops.BitVector{}, err
	}
	pb, err := P.MarshalBinary()
	if err != nil {
		return bitops.BitVector{}, err
	}
	fork.Message("X", xb)
	fork.Message("Y", yb)
	fork.Message("P", pb)

	return bitops.BitVectorFromBytes(fork.Squeeze(16)), nil
}
