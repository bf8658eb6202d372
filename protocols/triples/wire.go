package triples

import (
	"encoding/binary"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/tecdsa-go/tecdsa/pkg/bitops"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
)

// idBytes renders a participant id as the 4-byte big-endian form used to
// key transcript forks, matching keygen's convention.
func idBytes(id party.ID) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(id))
	return buf[:]
}

// idTripleBytes extends idBytes with a triple index, so every triple's
// proofs live in an independent transcript fork.
func idTripleBytes(id party.ID, k int) []byte {
	buf := make([]byte, 8)
	copy(buf, idBytes(id))
	binary.BigEndian.PutUint32(buf[4:], uint32(k))
	return buf
}

// pairSessionID derives the domain-separation string the OT cascade uses
// for a given peer pair, ordering the two ids so both sides compute the
// identical bytes regardless of which one is the local party.
func pairSessionID(ssid []byte, a, b party.ID) []byte {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	out := make([]byte, 0, len(ssid)+8)
	out = append(out, ssid...)
	out = append(out, idBytes(lo)...)
	out = append(out, idBytes(hi)...)
	return out
}

// baseGenerator returns G, the curve's standard generator point, as a
// concrete curve.Point for use in dlog-eq statements.
func baseGenerator(group curve.Curve) curve.Point {
	one := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
	return one.ActOnBase()
}

func marshalPoints(points []curve.Point) ([][]byte, error) {
	out := make([][]byte, len(points))
	for i, p := range points {
		b, err := p.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func unmarshalPoints(group curve.Curve, raw [][]byte) ([]curve.Point, error) {
	out := make([]curve.Point, len(raw))
	for i, b := range raw {
		p := group.NewPoint()
		if err := p.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func marshalScalar(s curve.Scalar) ([]byte, error) { return s.MarshalBinary() }

func unmarshalScalar(group curve.Curve, b []byte) (curve.Scalar, error) {
	s := group.NewScalar()
	if err := s.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return s, nil
}

// marshalScalars concatenates a row of scalars into one flat buffer, used
// for the per-triple MtA ciphertext batches where every row marshals to
// the curve's fixed scalar width.
func marshalScalars(s []curve.Scalar) ([]byte, error) {
	if len(s) == 0 {
		return nil, nil
	}
	first, err := s[0].MarshalBinary()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(first)*len(s))
	out = append(out, first...)
	for _, sc := range s[1:] {
		b, err := sc.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// unmarshalScalars splits a flat buffer marshalScalars produced back into
// count equal-width scalars.
func unmarshalScalars(group curve.Curve, b []byte, count int) ([]curve.Scalar, error) {
	if count == 0 {
		return nil, nil
	}
	if len(b)%count != 0 {
		return nil, fmt.Errorf("triples: scalar batch of %d bytes does not divide evenly into %d entries", len(b), count)
	}
	chunk := len(b) / count
	out := make([]curve.Scalar, count)
	for i := range out {
		s, err := unmarshalScalar(group, b[i*chunk:(i+1)*chunk])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// marshalBitMatrix renders every row of m as its Kappa/8-byte form.
func marshalBitMatrix(m *bitops.BitMatrix) [][]byte {
	rows := m.Rows()
	out := make([][]byte, len(rows))
	for i, row := range rows {
		out[i] = row.Bytes()
	}
	return out
}

func unmarshalBitMatrix(raw [][]byte) *bitops.BitMatrix {
	m := bitops.NewBitMatrix(len(raw))
	for i, b := range raw {
		m.SetRow(i, bitops.BitVectorFromBytes(b))
	}
	return m
}

// doubleBitVectorFromBytes parses the little-endian word encoding
// DoubleBitVector.Bytes produces, without relying on any unexported width
// constant from pkg/bitops.
func doubleBitVectorFromBytes(b []byte) bitops.DoubleBitVector {
	var v bitops.DoubleBitVector
	for i := range v {
		v[i] = binary.LittleEndian.Uint64(b[i*8 : i*8+8])
	}
	return v
}
