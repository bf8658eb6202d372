// Package party defines the participant identifier and ordered participant
// list used throughout every protocol in this module.
package party

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cronokirby/saferith"
	"github.com/tecdsa-go/tecdsa/pkg/hash"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
)

// ID identifies a party. It is ordered by its unsigned integer value, and
// its curve-scalar embedding is deterministic, nonzero, and distinct for
// distinct ids (spec §3).
type ID uint32

// String renders the decimal form used as the wire map key (spec §6:
// "<u32 decimal>").
func (id ID) String() string {
	return fmt.Sprintf("%d", uint32(id))
}

// Scalar returns π(id), the deterministic nonzero curve-scalar embedding of
// this participant.
func (id ID) Scalar(group curve.Curve) curve.Scalar {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(id))

	for ctr := uint32(0); ; ctr++ {
		digest := hash.New("cait-sith v0.8.0 participant")
		digest.Message("id", buf[:])
		var ctrBuf [4]byte
		binary.BigEndian.PutUint32(ctrBuf[:], ctr)
		digest.Message("ctr", ctrBuf[:])

		s := digest.Challenge(group)
		if !s.IsZero() {
			return s
		}
	}
}

// IDSlice is an ordered, duplicate-free list of participants.
type IDSlice []ID

// NewIDSlice returns a sorted copy of ids, failing if any duplicate is found
// (spec §3: "construction fails if duplicates").
func NewIDSlice(ids []ID) (IDSlice, error) {
	out := make(IDSlice, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	for i := 1; i < len(out); i++ {
		if out[i] == out[i-1] {
			return nil, fmt.Errorf("party: duplicate participant %s", out[i])
		}
	}
	return out, nil
}

// Contains reports whether id is a member of the list.
func (l IDSlice) Contains(id ID) bool {
	for _, p := range l {
		if p == id {
			return true
		}
	}
	return false
}

// Others returns every participant in the list except me.
func (l IDSlice) Others(me ID) IDSlice {
	out := make(IDSlice, 0, len(l))
	for _, p := range l {
		if p != me {
			out = append(out, p)
		}
	}
	return out
}

// Len, Less, Swap implement sort.Interface for convenience in callers that
// construct an IDSlice from an unsorted source.
func (l IDSlice) Len() int           { return len(l) }
func (l IDSlice) Less(i, j int) bool { return l[i] < l[j] }
func (l IDSlice) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

// Lagrange computes the Lagrange basis coefficient at x=0 for participant p
// relative to the embeddings π(q) of every q in the list.
//
//	lagrange(p) = prod_{q != p} (0 - π(q)) / (π(p) - π(q))
func (l IDSlice) Lagrange(group curve.Curve, p ID) curve.Scalar {
	num := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
	den := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))

	piP := p.Scalar(group)
	for _, q := range l {
		if q == p {
			continue
		}
		piQ := q.Scalar(group)
		num = num.Mul(piQ.Negate())
		den = den.Mul(piP.Sub(piQ))
	}
	return num.Mul(den.Invert())
}

// LagrangeAll computes Lagrange(group, p) for every p in the list at once,
// sharing the O(n) cost of the standard batched-inversion trick is left as
// a future optimization; this computes each coefficient independently,
// which is simple and, for the participant counts threshold ECDSA is used
// at (tens, not millions), fast enough.
func (l IDSlice) LagrangeAll(group curve.Curve) map[ID]curve.Scalar {
	out := make(map[ID]curve.Scalar, len(l))
	for _, p := range l {
		out[p] = l.Lagrange(group, p)
	}
	return out
}
