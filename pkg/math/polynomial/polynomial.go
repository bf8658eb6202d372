// Package polynomial implements the scalar and group-element polynomials
// used by Pedersen VSS (keygen), triple generation, and Lagrange
// interpolation (spec §3).
package polynomial

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/sample"
	"github.com/tecdsa-go/tecdsa/pkg/party"
)

// Polynomial is a scalar polynomial of degree threshold-1, coefficients
// a_0...a_{threshold-1}.
type Polynomial struct {
	group        curve.Curve
	coefficients []curve.Scalar
}

// NewConstant returns the degree-0 polynomial f(x) = c.
func NewConstant(group curve.Curve, c curve.Scalar) *Polynomial {
	return &Polynomial{group: group, coefficients: []curve.Scalar{c}}
}

// ExtendRandom samples a degree-(threshold-1) polynomial whose constant
// term is fixed to a0 and whose remaining coefficients are uniform (spec
// §3: "extend_random(t, a0) fixes the constant term and samples the rest").
func ExtendRandom(rng io.Reader, group curve.Curve, threshold int, a0 curve.Scalar) *Polynomial {
	coeffs := make([]curve.Scalar, threshold)
	coeffs[0] = a0
	for i := 1; i < threshold; i++ {
		coeffs[i] = sample.Scalar(rng, group)
	}
	return &Polynomial{group: group, coefficients: coeffs}
}

// Random samples a fresh degree-(threshold-1) polynomial with a uniform
// constant term.
func Random(rng io.Reader, group curve.Curve, threshold int) *Polynomial {
	return ExtendRandom(rng, group, threshold, sample.Scalar(rng, group))
}

// Degree returns threshold-1.
func (p *Polynomial) Degree() int { return len(p.coefficients) - 1 }

// Len returns the number of coefficients (threshold).
func (p *Polynomial) Len() int { return len(p.coefficients) }

// Coefficient returns a_i.
func (p *Polynomial) Coefficient(i int) curve.Scalar { return p.coefficients[i] }

// EvaluateZero returns a_0, the secret itself.
func (p *Polynomial) EvaluateZero() curve.Scalar { return p.coefficients[0] }

// SetZero mutates the constant term in place (spec §3: "set_zero(x) mutates
// a_0"), used by triple generation to replace a committed-but-unknown
// constant term with its later-recomputed value.
func (p *Polynomial) SetZero(x curve.Scalar) {
	p.coefficients[0] = x
}

// Evaluate computes f(x) = sum a_i * x^i via Horner's method.
func (p *Polynomial) Evaluate(x curve.Scalar) curve.Scalar {
	group := p.group
	result := group.NewScalar()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(p.coefficients[i])
	}
	return result
}

// Commit produces the group-element polynomial F_i = a_i * G for every
// coefficient (spec §3: GroupPolynomial).
func (p *Polynomial) Commit() *GroupPolynomial {
	coeffs := make([]curve.Point, len(p.coefficients))
	for i, a := range p.coefficients {
		coeffs[i] = a.ActOnBase()
	}
	return &GroupPolynomial{group: p.group, coefficients: coeffs}
}

// GroupPolynomial is the coefficient-wise commitment of a Polynomial:
// F_i = a_i * G.
type GroupPolynomial struct {
	group        curve.Curve
	coefficients []curve.Point
}

// NewGroupPolynomial wraps an existing slice of coefficient commitments,
// e.g. after deserializing one from the wire.
func NewGroupPolynomial(group curve.Curve, coefficients []curve.Point) *GroupPolynomial {
	return &GroupPolynomial{group: group, coefficients: coefficients}
}

// Len returns the number of coefficients.
func (g *GroupPolynomial) Len() int { return len(g.coefficients) }

// Coefficient returns F_i.
func (g *GroupPolynomial) Coefficient(i int) curve.Point { return g.coefficients[i] }

// EvaluateZero returns F(0) = F_0.
func (g *GroupPolynomial) EvaluateZero() curve.Point { return g.coefficients[0] }

// SetZero mutates the constant term in place, mirroring Polynomial.SetZero;
// used by triple generation step 8 to install the recomputed Ĉ sum as L's
// constant commitment before checking L(0) == C.
func (g *GroupPolynomial) SetZero(x curve.Point) {
	g.coefficients[0] = x
}

// Evaluate computes F(x) = sum F_i * x^i.
func (g *GroupPolynomial) Evaluate(x curve.Scalar) curve.Point {
	group := g.group
	result := group.NewPoint()
	power := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
	for i, F := range g.coefficients {
		result = result.Add(power.Act(F))
		if i != len(g.coefficients)-1 {
			power = power.Mul(x)
		}
	}
	return result
}

// Add accumulates other coefficient-wise into g (spec §3: GroupPolynomial
// "supports in-place += for coefficient-wise addition"). The two
// polynomials must have equal length.
func (g *GroupPolynomial) Add(other *GroupPolynomial) error {
	if g.Len() != other.Len() {
		return errPolynomialLengthMismatch
	}
	for i := range g.coefficients {
		g.coefficients[i] = g.coefficients[i].Add(other.coefficients[i])
	}
	return nil
}

var errPolynomialLengthMismatch = polynomialLengthError{}

type polynomialLengthError struct{}

func (polynomialLengthError) Error() string { return "polynomial: length mismatch" }

// Lagrange computes the Lagrange basis coefficients at x=0 for every
// participant in ids, relative to their curve-scalar embeddings (spec §3:
// ParticipantList.lagrange).
func Lagrange(group curve.Curve, ids []party.ID) map[party.ID]curve.Scalar {
	list := party.IDSlice(ids)
	return list.LagrangeAll(group)
}
