// Package rot implements random OT extension: layered on top of
// correlated OT extension, both sides turn their correlation matrices
// into 2*batchSize pairs of scalar outputs (split into two independent
// batches), with an embedded consistency check by which the sender
// catches a receiver whose correlated-OT correction matrix is not
// consistent with a single choice vector (spec §4.7).
package rot

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tecdsa-go/tecdsa/pkg/bitops"
	"github.com/tecdsa-go/tecdsa/pkg/hash"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/sample"
)

// hashLabel domain-separates the per-row output derivation from every
// other sponge in the module (spec §6: "Random OT Extension Hash").
const hashLabel = "Random OT Extension Hash"

// Seed is the 32 bytes the correlated-OT sender broadcasts before the
// consistency exchange; both parties expand it into the same chi vectors
// (spec §4.7: "Sender samples a fresh 32-byte seed").
type Seed [32]byte

// GenerateSeed draws a fresh random Seed.
func GenerateSeed(rng io.Reader) (Seed, error) {
	var seed Seed
	if _, err := io.ReadFull(rng, seed[:]); err != nil {
		return seed, fmt.Errorf("rot: failed to sample seed: %w", err)
	}
	return seed, nil
}

// Digest is the consistency-check material the receiver sends the sender
// once it has derived the shared chi vectors (spec §4.7: "Receiver sends
// (small_x, small_t)").
type Digest struct {
	SmallX bitops.DoubleBitVector
	SmallT [bitops.Kappa]bitops.DoubleBitVector
}

// Pair is one row of a party's final random-OT output.
type Pair struct {
	Choice byte
	Value  curve.Scalar
}

// SenderPair is one row of the sender's final output: both arms of that
// row's 1-of-2 OT.
type SenderPair struct {
	V0, V1 curve.Scalar
}

// ReceiverOutput is everything the receiver produces: the Digest it must
// send the sender, and its own private batchSize+batchSize output.
type ReceiverOutput struct {
	Digest Digest
	Res0   []Pair
	Res1   []Pair
}

// Receive derives the shared chi vectors from the sender's seed, builds
// the consistency digest from its choice vector b and correlated-OT
// matrix t (the T0 half of the correlated OT, spec §4.6), and produces
// its own final 2*batchSize output split into two halves (spec §4.7,
// receiver side).
func Receive(group curve.Curve, seed Seed, b bitops.ChoiceVector, t *bitops.BitMatrix, batchSize int) (*ReceiverOutput, error) {
	adjustedSize := t.Height()
	mu, err := chiCount(adjustedSize)
	if err != nil {
		return nil, err
	}
	if 2*batchSize > adjustedSize {
		return nil, fmt.Errorf("rot: batch size %d too large for matrix height %d", batchSize, adjustedSize)
	}
	chi := deriveChi(seed[:], mu)

	var smallX bitops.DoubleBitVector
	for k, chunk := range b.Chunks() {
		smallX = smallX.Xor(chunk.GFMul(chi[k]))
	}

	var smallT [bitops.Kappa]bitops.DoubleBitVector
	for j := 0; j < bitops.Kappa; j++ {
		var acc bitops.DoubleBitVector
		for k, chunk := range t.ColumnChunkVectors(j) {
			acc = acc.Xor(chunk.GFMul(chi[k]))
		}
		smallT[j] = acc
	}

	pairs := make([]Pair, 2*batchSize)
	for i := range pairs {
		pairs[i] = Pair{
			Choice: b.Bit(i),
			Value:  hashToScalar(group, i, t.Row(i)),
		}
	}

	return &ReceiverOutput{
		Digest: Digest{SmallX: smallX, SmallT: smallT},
		Res0:   pairs[:batchSize],
		Res1:   pairs[batchSize:],
	}, nil
}

// SenderOutput is the sender's final private output: both arms of every
// row, split into two batches matching the receiver's Res0/Res1.
type SenderOutput struct {
	Res0 []SenderPair
	Res1 []SenderPair
}

// Verify derives the same chi vectors from its own seed, checks the
// receiver's digest against its correlated-OT matrix q and correlation
// delta, and on success produces its final 2*batchSize output (spec
// §4.7, sender side).
func Verify(group curve.Curve, seed Seed, delta bitops.BitVector, q *bitops.BitMatrix, digest Digest, batchSize int) (*SenderOutput, error) {
	adjustedSize := q.Height()
	mu, err := chiCount(adjustedSize)
	if err != nil {
		return nil, err
	}
	if 2*batchSize > adjustedSize {
		return nil, fmt.Errorf("rot: batch size %d too large for matrix height %d", batchSize, adjustedSize)
	}
	chi := deriveChi(seed[:], mu)

	for j := 0; j < bitops.Kappa; j++ {
		var smallQ bitops.DoubleBitVector
		for k, chunk := range q.ColumnChunkVectors(j) {
			smallQ = smallQ.Xor(chunk.GFMul(chi[k]))
		}
		want := digest.SmallT[j]
		if delta.Bit(j) == 1 {
			want = want.Xor(digest.SmallX)
		}
		if !smallQ.Equal(want) {
			return nil, fmt.Errorf("rot: consistency check failed at column %d", j)
		}
	}

	pairs := make([]SenderPair, 2*batchSize)
	for i := range pairs {
		row := q.Row(i)
		pairs[i] = SenderPair{
			V0: hashToScalar(group, i, row),
			V1: hashToScalar(group, i, row.Xor(delta)),
		}
	}

	return &SenderOutput{Res0: pairs[:batchSize], Res1: pairs[batchSize:]}, nil
}

func chiCount(adjustedSize int) (int, error) {
	if adjustedSize%bitops.Kappa != 0 {
		return 0, fmt.Errorf("rot: matrix height %d is not a multiple of kappa", adjustedSize)
	}
	return adjustedSize / bitops.Kappa, nil
}

// deriveChi expands seed into mu independent Kappa-bit consistency
// challenges, the same column-expansion PRG used elsewhere in the OT
// cascade (spec §4.7: "chi_0 ... chi_{mu-1}").
func deriveChi(seed []byte, mu int) []bitops.BitVector {
	chi := make([]bitops.BitVector, mu)
	for k := range chi {
		var idx [8]byte
		binary.BigEndian.PutUint64(idx[:], uint64(k))
		chi[k] = bitops.BitVectorFromBytes(sample.Expand(seed, idx[:], bitops.Kappa/8))
	}
	return chi
}

// hashToScalar is H_Z(i, row): a domain-separated sponge that absorbs the
// row index and the row's bits, then samples a scalar from the resulting
// digest by constant-time rejection (spec §4.7).
func hashToScalar(group curve.Curve, i int, row bitops.BitVector) curve.Scalar {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], uint64(i))
	fork := hash.New(hashLabel).Fork("row", idx[:])
	fork.Message("v", row.Bytes())
	return fork.Challenge(group)
}
