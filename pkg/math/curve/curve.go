// Package curve abstracts the scalar field and point group of the elliptic
// curve used for ECDSA. Every other package in this module treats the curve
// as an opaque collaborator behind this interface: scalar/point arithmetic,
// generator, bit-width, and serialization, never raw field elements.
package curve

import (
	"errors"

	"github.com/cronokirby/saferith"
)

// Curve is a prime-order short-Weierstrass curve suitable for ECDSA.
type Curve interface {
	// NewScalar returns the additive identity of the scalar field.
	NewScalar() Scalar
	// NewPoint returns the identity element of the curve group.
	NewPoint() Point
	// ScalarBits is the bit-length of the scalar field order (the "field_bits"
	// of the spec).
	ScalarBits() int
	// Order is the modulus of the scalar field, Z_q.
	Order() *saferith.Modulus
	// Name is the stable curve identifier absorbed into transcripts.
	Name() string
}

// Scalar is an element of Z_q. Arithmetic operations (Add, Sub, Mul, Negate,
// Invert) leave the receiver unchanged and return a new Scalar, so results
// must be assigned; only the setters (Set, SetNat) modify and return the
// receiver.
type Scalar interface {
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Negate() Scalar
	Invert() Scalar
	Equal(Scalar) bool
	IsZero() bool
	Set(Scalar) Scalar
	SetNat(*saferith.Nat) Scalar
	Nat() *saferith.Nat

	// Act returns scalar * point (group action written multiplicatively in
	// the spec, additively here).
	Act(Point) Point
	// ActOnBase returns scalar * G.
	ActOnBase() Point

	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

// Point is an element of the prime-order curve group, represented in
// whichever coordinate system is convenient (affine or projective); the two
// representations of the spec are implementation detail behind this
// interface, conversions happen inside MarshalBinary/UnmarshalBinary.
type Point interface {
	Add(Point) Point
	Negate() Point
	Equal(Point) bool
	IsIdentity() bool

	// XScalar returns x(P) reduced into Z_q, used for the ECDSA r value and
	// for presign's R handling.
	XScalar() Scalar

	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

// ErrIdentity is returned when an operation that forbids the identity
// element (e.g. a base-OT counterparty key) encounters it.
var ErrIdentity = errors.New("curve: unexpected identity element")
