// Package dlogeq implements the discrete-log equality proof: given
// (G, H, P = x*G, Q = x*H), prove knowledge of x without revealing it
// (spec §4.1). Triple generation uses this to bind a single e(0) to both
// its commitment under G and its MtA-derived commitment under F(0).
package dlogeq

import (
	"io"

	"github.com/tecdsa-go/tecdsa/pkg/hash"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/sample"
)

// Proof is a non-interactive dlog-equality proof.
type Proof struct {
	K1 curve.Point
	K2 curve.Point
	Z  curve.Scalar
}

// Statement is (G, H, P, Q) with P = x*G, Q = x*H.
type Statement struct {
	G, H curve.Point
	P, Q curve.Point
}

// Prove produces a proof of knowledge of x for the given statement.
func Prove(rng io.Reader, transcript *hash.Transcript, group curve.Curve, x curve.Scalar, stmt Statement) *Proof {
	k := sample.Scalar(rng, group)
	K1 := k.Act(stmt.G)
	K2 := k.Act(stmt.H)

	transcript.Message("k1", mustMarshal(K1))
	transcript.Message("k2", mustMarshal(K2))
	transcript.Message("p", mustMarshal(stmt.P))
	transcript.Message("q", mustMarshal(stmt.Q))
	e := transcript.Challenge(group)

	z := k.Add(e.Mul(x))
	return &Proof{K1: K1, K2: K2, Z: z}
}

// Verify checks both equations z*G = K1 + e*P and z*H = K2 + e*Q.
func (proof *Proof) Verify(transcript *hash.Transcript, group curve.Curve, stmt Statement) bool {
	if proof == nil || proof.K1 == nil || proof.K2 == nil || proof.Z == nil {
		return false
	}
	transcript.Message("k1", mustMarshal(proof.K1))
	transcript.Message("k2", mustMarshal(proof.K2))
	transcript.Message("p", mustMarshal(stmt.P))
	transcript.Message("q", mustMarshal(stmt.Q))
	e := transcript.Challenge(group)

	lhs1 := proof.Z.Act(stmt.G)
	rhs1 := proof.K1.Add(e.Act(stmt.P))
	if !lhs1.Equal(rhs1) {
		return false
	}
	lhs2 := proof.Z.Act(stmt.H)
	rhs2 := proof.K2.Add(e.Act(stmt.Q))
	return lhs2.Equal(rhs2)
}

// Bytes renders the proof as its three canonical byte strings.
func (proof *Proof) Bytes() (k1, k2, z []byte, err error) {
	k1, err = proof.K1.MarshalBinary()
	if err != nil {
		return nil, nil, nil, err
	}
	k2, err = proof.K2.MarshalBinary()
	if err != nil {
		return nil, nil, nil, err
	}
	z, err = proof.Z.MarshalBinary()
	if err != nil {
		return nil, nil, nil, err
	}
	return k1, k2, z, nil
}

// FromBytes reconstructs a Proof from its wire form.
func FromBytes(group curve.Curve, k1, k2, z []byte) (*Proof, error) {
	K1 := group.NewPoint()
	if err := K1.UnmarshalBinary(k1); err != nil {
		return nil, err
	}
	K2 := group.NewPoint()
	if err := K2.UnmarshalBinary(k2); err != nil {
		return nil, err
	}
	Z := group.NewScalar()
	if err := Z.UnmarshalBinary(z); err != nil {
		return nil, err
	}
	return &Proof{K1: K1, K2: K2, Z: Z}, nil
}

func mustMarshal(p curve.Point) []byte {
	b, err := p.MarshalBinary()
	if err != nil {
		panic("dlogeq: point marshal failed: " + err.Error())
	}
	return b
}
