// Package hash implements the duplex-sponge Fiat-Shamir transcript shared by
// every proof and protocol transcript-feed in this module (spec §4.1, §6).
package hash

import (
	"encoding/binary"

	"github.com/cronokirby/saferith"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/zeebo/blake3"
)

// Transcript is an append-only Fiat-Shamir channel. It is never aliased:
// Fork clones the underlying sponge state so the parent and the fork can be
// extended independently (spec §9: "typical implementation clones the
// duplex state").
type Transcript struct {
	h *blake3.Hasher
}

// New creates a transcript keyed by the fixed session label, e.g.
// "cait-sith v0.8.0 keygen" (spec §6 domain labels).
func New(label string) *Transcript {
	h := blake3.New()
	t := &Transcript{h: h}
	t.absorbString("session", label)
	return t
}

func (t *Transcript) absorbString(label, s string) {
	t.Message(label, []byte(s))
}

// Message absorbs a labeled, length-prefixed byte string into the sponge.
func (t *Transcript) Message(label string, data []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(label)))
	_, _ = t.h.Write(lenBuf[:])
	_, _ = t.h.Write([]byte(label))
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
	_, _ = t.h.Write(lenBuf[:])
	_, _ = t.h.Write(data)
}

// Fork clones the transcript and absorbs a domain-separation tag plus an
// arbitrary identity (typically the prover's participant id bytes) before
// any challenge is squeezed, per spec §4.1: "Every proof/verification pair
// derives its challenge from a fork keyed by a protocol-specific tag ...
// and the prover's participant bytes."
func (t *Transcript) Fork(label string, tag []byte) *Transcript {
	fork := &Transcript{h: t.h.Clone()}
	fork.Message(label, tag)
	return fork
}

// Squeeze reads n fresh bytes from the sponge. Squeezing does not affect
// future Message calls on the same transcript; callers that need repeated
// independent challenges should Fork before each one.
func (t *Transcript) Squeeze(n int) []byte {
	digest := t.h.Digest()
	out := make([]byte, n)
	_, _ = digest.Read(out)
	return out
}

// Challenge squeezes a uniformly random scalar in Z_q via rejection
// sampling: each attempt squeezes a scalar-width string, the first from t
// itself and each retry from a fresh "challenge-retry" fork keyed by the
// attempt counter (the probability of rejection for a 256-bit-ish curve
// order is negligible, so this loop runs once in practice).
func (t *Transcript) Challenge(group curve.Curve) curve.Scalar {
	byteLen := (group.ScalarBits() + 7) / 8
	order := group.Order()
	for ctr := 0; ; ctr++ {
		raw := t.forkForChallenge(ctr).Squeeze(byteLen)
		n := new(saferith.Nat).SetBytes(raw)
		if n.Cmp(order.Nat()) < 0 {
			return group.NewScalar().SetNat(n)
		}
	}
}

func (t *Transcript) forkForChallenge(ctr int) *Transcript {
	if ctr == 0 {
		return t
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(ctr))
	return t.Fork("challenge-retry", buf[:])
}

// Sum returns a fixed 32-byte digest of the transcript's current state,
// used as a lightweight fingerprint (e.g. the "Hash().Sum()" style
// convenience some callers want without taking a full Challenge).
func (t *Transcript) Sum() []byte {
	return t.Squeeze(32)
}
