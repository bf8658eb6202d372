// Package dlog implements the Schnorr discrete-log proof of knowledge:
// prove knowledge of x such that P = x*G (spec §4.1).
package dlog

import (
	"io"

	"github.com/tecdsa-go/tecdsa/pkg/hash"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/sample"
)

// Proof is a non-interactive Schnorr proof.
type Proof struct {
	K curve.Point
	Z curve.Scalar
}

// Prove produces a proof that the prover knows x with P = x*G, absorbing
// the commitment into transcript (already forked by the caller with the
// protocol-specific tag and prover identity, per spec §4.1) before deriving
// the challenge.
func Prove(rng io.Reader, transcript *hash.Transcript, group curve.Curve, x curve.Scalar, P curve.Point) *Proof {
	k := sample.Scalar(rng, group)
	K := k.ActOnBase()

	transcript.Message("commitment", mustMarshal(K))
	transcript.Message("statement", mustMarshal(P))
	e := transcript.Challenge(group)

	z := k.Add(e.Mul(x))
	return &Proof{K: K, Z: z}
}

// Verify checks the proof against statement P = x*G using the same
// transcript fork discipline as Prove.
func (proof *Proof) Verify(transcript *hash.Transcript, group curve.Curve, P curve.Point) bool {
	if proof == nil || proof.K == nil || proof.Z == nil {
		return false
	}
	transcript.Message("commitment", mustMarshal(proof.K))
	transcript.Message("statement", mustMarshal(P))
	e := transcript.Challenge(group)

	lhs := proof.Z.ActOnBase()
	rhs := proof.K.Add(e.Act(P))
	return lhs.Equal(rhs)
}

// Bytes renders the proof as the two canonical byte strings CBOR-friendly
// wire types embed directly (spec §6: "scalars/points pre-serialized to
// canonical byte forms before CBOR wraps them").
func (proof *Proof) Bytes() (k, z []byte, err error) {
	k, err = proof.K.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	z, err = proof.Z.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	return k, z, nil
}

// FromBytes reconstructs a Proof from its wire form.
func FromBytes(group curve.Curve, k, z []byte) (*Proof, error) {
	K := group.NewPoint()
	if err := K.UnmarshalBinary(k); err != nil {
		return nil, err
	}
	Z := group.NewScalar()
	if err := Z.UnmarshalBinary(z); err != nil {
		return nil, err
	}
	return &Proof{K: K, Z: Z}, nil
}

func mustMarshal(p curve.Point) []byte {
	b, err := p.MarshalBinary()
	if err != nil {
		panic("dlog: point marshal failed: " + err.Error())
	}
	return b
}
