package curve

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Secp256k1 is the curve used by ECDSA across Bitcoin-derived chains. It is
// the only curve wired into this module, but additional short-Weierstrass
// curves can be added behind the same Curve interface.
type Secp256k1 struct{}

var secp256k1Order = func() *saferith.Modulus {
	n := new(saferith.Nat).SetBytes(secp256k1.S256().N.Bytes())
	return saferith.ModulusFromNat(n)
}()

func (Secp256k1) NewScalar() Scalar { return &secp256k1Scalar{} }
func (Secp256k1) NewPoint() Point   { return &secp256k1Point{} }
func (Secp256k1) ScalarBits() int   { return 256 }
func (Secp256k1) Order() *saferith.Modulus { return secp256k1Order }
func (Secp256k1) Name() string      { return "secp256k1" }

type secp256k1Scalar struct {
	s secp256k1.ModNScalar
}

func newScalar(s secp256k1.ModNScalar) *secp256k1Scalar {
	return &secp256k1Scalar{s: s}
}

func (a *secp256k1Scalar) Add(b Scalar) Scalar {
	bb := b.(*secp256k1Scalar)
	var out secp256k1.ModNScalar
	out.Add2(&a.s, &bb.s)
	return &secp256k1Scalar{s: out}
}

func (a *secp256k1Scalar) Sub(b Scalar) Scalar {
	bb := b.(*secp256k1Scalar)
	var neg secp256k1.ModNScalar
	neg.Set(&bb.s)
	neg.Negate()
	var out secp256k1.ModNScalar
	out.Add2(&a.s, &neg)
	return &secp256k1Scalar{s: out}
}

func (a *secp256k1Scalar) Mul(b Scalar) Scalar {
	bb := b.(*secp256k1Scalar)
	var out secp256k1.ModNScalar
	out.Mul2(&a.s, &bb.s)
	return &secp256k1Scalar{s: out}
}

func (a *secp256k1Scalar) Negate() Scalar {
	var out secp256k1.ModNScalar
	out.Set(&a.s)
	out.Negate()
	return &secp256k1Scalar{s: out}
}

func (a *secp256k1Scalar) Invert() Scalar {
	var out secp256k1.ModNScalar
	out.Set(&a.s)
	out.InverseNonConst()
	return &secp256k1Scalar{s: out}
}

func (a *secp256k1Scalar) Equal(b Scalar) bool {
	bb, ok := b.(*secp256k1Scalar)
	if !ok {
		return false
	}
	return a.s.Equals(&bb.s)
}

func (a *secp256k1Scalar) IsZero() bool { return a.s.IsZero() }

func (a *secp256k1Scalar) Set(b Scalar) Scalar {
	bb := b.(*secp256k1Scalar)
	a.s.Set(&bb.s)
	return a
}

func (a *secp256k1Scalar) SetNat(n *saferith.Nat) Scalar {
	reduced := new(saferith.Nat).Mod(n, secp256k1Order)
	a.s.SetByteSlice(reduced.Bytes())
	return a
}

func (a *secp256k1Scalar) Nat() *saferith.Nat {
	b := a.s.Bytes()
	return new(saferith.Nat).SetBytes(b[:])
}

func (a *secp256k1Scalar) Act(p Point) Point {
	pp := p.(*secp256k1Point)
	var result secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&a.s, &pp.p, &result)
	return &secp256k1Point{p: result}
}

func (a *secp256k1Scalar) ActOnBase() Point {
	var result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&a.s, &result)
	return &secp256k1Point{p: result}
}

func (a *secp256k1Scalar) MarshalBinary() ([]byte, error) {
	b := a.s.Bytes()
	out := make([]byte, 32)
	copy(out, b[:])
	return out, nil
}

func (a *secp256k1Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return fmt.Errorf("curve: scalar must be 32 bytes, got %d", len(data))
	}
	if a.s.SetByteSlice(data) {
		return fmt.Errorf("curve: scalar encoding overflows the group order")
	}
	return nil
}

type secp256k1Point struct {
	p secp256k1.JacobianPoint
}

func (a *secp256k1Point) Add(b Point) Point {
	bb := b.(*secp256k1Point)
	var result secp256k1.JacobianPoint
	secp256k1.AddNonConst(&a.p, &bb.p, &result)
	return &secp256k1Point{p: result}
}

func (a *secp256k1Point) Negate() Point {
	var aff secp256k1.JacobianPoint
	aff.Set(&a.p)
	aff.ToAffine()
	aff.Y.Negate(1).Normalize()
	var result secp256k1.JacobianPoint
	result.Set(&aff)
	return &secp256k1Point{p: result}
}

func (a *secp256k1Point) Equal(b Point) bool {
	bb, ok := b.(*secp256k1Point)
	if !ok {
		return false
	}
	var x, y secp256k1.JacobianPoint
	x.Set(&a.p)
	y.Set(&bb.p)
	x.ToAffine()
	y.ToAffine()
	return x.X.Equals(&y.X) && x.Y.Equals(&y.Y)
}

func (a *secp256k1Point) IsIdentity() bool {
	var aff secp256k1.JacobianPoint
	aff.Set(&a.p)
	aff.ToAffine()
	return (aff.X.IsZero() && aff.Y.IsZero())
}

func (a *secp256k1Point) XScalar() Scalar {
	var aff secp256k1.JacobianPoint
	aff.Set(&a.p)
	aff.ToAffine()
	xBytes := aff.X.Bytes()
	n := new(saferith.Nat).SetBytes(xBytes[:])
	return (&secp256k1Scalar{}).SetNat(n)
}

func (a *secp256k1Point) MarshalBinary() ([]byte, error) {
	if a.IsIdentity() {
		return make([]byte, 33), nil
	}
	var aff secp256k1.JacobianPoint
	aff.Set(&a.p)
	aff.ToAffine()
	pub := secp256k1.NewPublicKey(&aff.X, &aff.Y)
	return pub.SerializeCompressed(), nil
}

func (a *secp256k1Point) UnmarshalBinary(data []byte) error {
	if len(data) == 33 && isAllZero(data) {
		var identity secp256k1.JacobianPoint
		a.p = identity
		return nil
	}
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return fmt.Errorf("curve: invalid compressed point: %w", err)
	}
	var j secp256k1.JacobianPoint
	pub.AsJacobian(&j)
	a.p = j
	return nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
