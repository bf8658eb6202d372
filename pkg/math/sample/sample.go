// Package sample draws uniformly random field and group elements from a
// cryptographically secure source.
package sample

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
)

// Scalar draws a uniform element of Z_q by rejection sampling bytes from
// rng. rng must be a CSPRNG (spec §5/§9: "the RNG is a cryptographically
// secure source").
func Scalar(rng io.Reader, group curve.Curve) curve.Scalar {
	byteLen := (group.ScalarBits() + 7) / 8
	order := group.Order()
	buf := make([]byte, byteLen)
	for {
		if _, err := io.ReadFull(rng, buf); err != nil {
			panic("sample: entropy source failed: " + err.Error())
		}
		n := new(saferith.Nat).SetBytes(buf)
		if n.Cmp(order.Nat()) < 0 {
			return group.NewScalar().SetNat(n)
		}
	}
}

// Bytes draws n uniform bytes from rng.
func Bytes(rng io.Reader, n int) []byte {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rng, buf); err != nil {
		panic("sample: entropy source failed: " + err.Error())
	}
	return buf
}

// ScalarFromSeed deterministically derives a scalar from a 32-byte seed via
// rejection sampling, used by MtA to derive its chi challenges
// (spec §4.7 "H_Z ... samples a scalar using constant-time rejection").
func ScalarFromSeed(seed []byte, index uint64, group curve.Curve) curve.Scalar {
	byteLen := (group.ScalarBits() + 7) / 8
	order := group.Order()
	counter := uint64(0)
	for {
		material := expand(seed, index, counter, byteLen)
		n := new(saferith.Nat).SetBytes(material)
		if n.Cmp(order.Nat()) < 0 {
			return group.NewScalar().SetNat(n)
		}
		counter++
	}
}
