package sample

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// expand derives deterministic pseudorandom bytes from a seed, an index
// (e.g. the OT row number), and a retry counter, via blake3's native
// keyed/XOF mode. It backs ScalarFromSeed; the base-OT expansion
// (pkg/bitops.SquareBitMatrix.ExpandTranspose) and the random OT
// extension's chi vectors use Expand instead.
func expand(seed []byte, index, counter uint64, outLen int) []byte {
	var key [32]byte
	copy(key[:], seed)
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("sample: keyed blake3 init failed: " + err.Error())
	}
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], index)
	binary.BigEndian.PutUint64(buf[8:16], counter)
	_, _ = h.Write(buf[:])
	out := make([]byte, outLen)
	_, _ = h.Digest().Read(out)
	return out
}

// Expand exposes the same PRG to other packages (bitops column expansion,
// OT hash functions) that need deterministic pseudorandom bytes keyed by a
// session id and a column/row index rather than a single 64-bit index.
func Expand(seed []byte, label []byte, outLen int) []byte {
	var key [32]byte
	copy(key[:], seed)
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("sample: keyed blake3 init failed: " + err.Error())
	}
	_, _ = h.Write(label)
	out := make([]byte, outLen)
	_, _ = h.Digest().Read(out)
	return out
}
