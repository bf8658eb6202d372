// Package commitment implements the randomized hash commitment used to
// commit to a VSS polynomial (and other payloads) before it is revealed
// (spec §4.2).
package commitment

import (
	"crypto/subtle"
	"io"

	"github.com/zeebo/blake3"
)

// RandomizerSize is the length in bytes of the commitment randomizer,
// sampled uniformly and never reused (spec §4.2, §5).
const RandomizerSize = 32

// Randomizer is a single-use 32-byte blinding value.
type Randomizer [RandomizerSize]byte

// Commitment is a collision-resistant hash binding a serialized payload and
// its randomizer together.
type Commitment [32]byte

const commitDomain = "cait-sith commit"

// Commit draws a fresh randomizer and returns the commitment to payload.
func Commit(rng io.Reader, payload []byte) (Commitment, Randomizer) {
	var r Randomizer
	if _, err := io.ReadFull(rng, r[:]); err != nil {
		panic("commitment: entropy source failed: " + err.Error())
	}
	return hashPayload(r, payload), r
}

// Check recomputes the commitment from payload and r and compares it to c
// in constant time (spec §4.2: "check(payload, r) recomputes and compares
// in constant time").
func (c Commitment) Check(payload []byte, r Randomizer) bool {
	recomputed := hashPayload(r, payload)
	return subtle.ConstantTimeCompare(c[:], recomputed[:]) == 1
}

func hashPayload(r Randomizer, payload []byte) Commitment {
	h := blake3.New()
	_, _ = h.Write([]byte(commitDomain))
	_, _ = h.Write(r[:])
	_, _ = h.Write(payload)
	var out Commitment
	copy(out[:], h.Sum(nil))
	return out
}

// Digest is a collision-resistant hash of an ordered participant-keyed map
// of commitments, used as the DKG/triple-generation "confirmation" value
// (spec §4.3 step 2).
type Digest [32]byte

// DigestCommitments hashes the commitments in the exact order given by
// orderedKeys (the caller is responsible for a stable, agreed-upon
// ordering, typically the sorted participant list).
func DigestCommitments(orderedKeys []string, commitments map[string]Commitment) Digest {
	h := blake3.New()
	_, _ = h.Write([]byte("cait-sith commitment digest"))
	for _, k := range orderedKeys {
		_, _ = h.Write([]byte(k))
		c := commitments[k]
		_, _ = h.Write(c[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
