package polynomial

import (
	"encoding/binary"

	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
)

// CommitPayload renders g as the flat, length-prefixed byte string that
// pkg/commitment.Commit binds to (spec §4.3 step 1: "compute (C_i, r_i) =
// commit(F_i)").
func (g *GroupPolynomial) CommitPayload() ([]byte, error) {
	coeffs, err := g.MarshalCoefficients()
	if err != nil {
		return nil, err
	}
	return commitPayload(coeffs...), nil
}

func commitPayload(chunks ...[]byte) []byte {
	var out []byte
	var lenBuf [8]byte
	for _, c := range chunks {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(c)))
		out = append(out, lenBuf[:]...)
		out = append(out, c...)
	}
	return out
}

// CommitPayloadMulti renders several coefficient-wise group polynomials
// together as one payload, in argument order (spec §4.9 step 1: "commit
// each coefficient-wise to E_i, F_i, L_i; compute (C_i, r_i) <-
// commit((E_i, F_i, L_i))").
func CommitPayloadMulti(polys ...*GroupPolynomial) ([]byte, error) {
	var chunks [][]byte
	for _, p := range polys {
		coeffs, err := p.MarshalCoefficients()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, coeffs...)
	}
	return commitPayload(chunks...), nil
}

// MarshalCoefficients renders every F_i as its compressed point bytes, in
// order, for embedding directly into a CBOR wire message (spec §6:
// "scalars/points pre-serialized to canonical byte forms before CBOR wraps
// them").
func (g *GroupPolynomial) MarshalCoefficients() ([][]byte, error) {
	out := make([][]byte, g.Len())
	for i, F := range g.coefficients {
		b, err := F.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// UnmarshalGroupPolynomial reconstructs a GroupPolynomial from its wire
// form.
func UnmarshalGroupPolynomial(group curve.Curve, coeffs [][]byte) (*GroupPolynomial, error) {
	points := make([]curve.Point, len(coeffs))
	for i, b := range coeffs {
		P := group.NewPoint()
		if err := P.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		points[i] = P
	}
	return NewGroupPolynomial(group, points), nil
}
