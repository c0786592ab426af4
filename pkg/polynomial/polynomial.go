// Package polynomial implements the Shamir polynomial kit shared by the RSS
// commitment aggregator and client engine: random polynomial generation with
// a fixed y-intercept, evaluation mod the curve order, Lagrange coefficients,
// and dot products.
package polynomial

import (
	"io"

	"github.com/luxfi/rss-client/pkg/curve"
)

// Polynomial is P(x) = a_0 + a_1*x + ... + a_d*x^d, with coefficients in the
// scalar field of Group.
type Polynomial struct {
	Group        curve.Curve
	Coefficients []curve.Scalar
}

// New generates a random polynomial of the given degree. If yIntercept is
// non-nil it becomes a_0; otherwise a_0 is also drawn at random (the core
// RSS protocol always supplies a yIntercept — an omitted one is a
// test-only affordance).
func New(group curve.Curve, degree int, yIntercept curve.Scalar, rand io.Reader) (*Polynomial, error) {
	coeffs := make([]curve.Scalar, degree+1)

	if yIntercept != nil {
		coeffs[0] = yIntercept
	} else {
		a0, err := group.RandomScalar(rand)
		if err != nil {
			return nil, err
		}
		coeffs[0] = a0
	}

	for i := 1; i <= degree; i++ {
		ai, err := group.RandomScalar(rand)
		if err != nil {
			return nil, err
		}
		coeffs[i] = ai
	}

	return &Polynomial{Group: group, Coefficients: coeffs}, nil
}

// Degree returns len(Coefficients)-1.
func (p *Polynomial) Degree() int {
	return len(p.Coefficients) - 1
}

// Evaluate computes P(x) mod n via Horner's method, reducing each partial
// term mod n before accumulating so large degrees never implicitly widen.
func (p *Polynomial) Evaluate(x curve.Scalar) curve.Scalar {
	result := p.Group.NewScalar()
	for i := len(p.Coefficients) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(p.Coefficients[i])
	}
	return result
}

// EvaluateInt is a convenience wrapper evaluating at a small non-negative
// integer index, the common case for party/target indices.
func (p *Polynomial) EvaluateInt(x uint64) curve.Scalar {
	return p.Evaluate(p.Group.ScalarFromUint64(x))
}

// Commitments returns the Feldman commitment vector {G*a_i} for every
// coefficient, in ascending degree order.
func (p *Polynomial) Commitments() []curve.Point {
	out := make([]curve.Point, len(p.Coefficients))
	for i, a := range p.Coefficients {
		out[i] = a.ActOnBase()
	}
	return out
}

// LagrangeCoeff computes L(target) = Prod_{j != myIndex} (target - indices[j]) / (myIndex - indices[j]) mod n,
// where indices ranges over all entries of idx, and the product skips the
// first entry equal to myIndex; any further entry equal to myIndex fails with
// ErrZeroDenominator. target = 0 is plain Shamir reconstruction;
// nonzero target re-shares a value at x=myIndex into a value at x=target.
func LagrangeCoeff(group curve.Curve, idx []int, myIndex, target int) (curve.Scalar, error) {
	myScalar := group.ScalarFromUint64(uint64(myIndex))
	targetScalar := group.ScalarFromUint64(uint64(target))

	num := group.ScalarFromUint64(1)
	den := group.ScalarFromUint64(1)

	skipped := false
	for _, j := range idx {
		if j == myIndex && !skipped {
			skipped = true
			continue
		}
		jScalar := group.ScalarFromUint64(uint64(j))

		num = num.Mul(targetScalar.Sub(jScalar))

		diff := myScalar.Sub(jScalar)
		if diff.IsZero() {
			return nil, ErrZeroDenominator
		}
		den = den.Mul(diff)
	}

	return num.Mul(den.Invert()), nil
}

// Lagrange computes LagrangeCoeff(idx, myIndex, 0) for every id in idx, the
// classic Shamir-reconstruction coefficient set. The returned coefficients
// always sum to 1.
func Lagrange(group curve.Curve, idx []int) (map[int]curve.Scalar, error) {
	out := make(map[int]curve.Scalar, len(idx))
	for _, my := range idx {
		c, err := LagrangeCoeff(group, idx, my, 0)
		if err != nil {
			return nil, err
		}
		out[my] = c
	}
	return out, nil
}

// DotProduct computes Sum(a[i]*b[i]) mod n. It fails with ErrLengthMismatch
// if a and b have different lengths.
func DotProduct(group curve.Curve, a, b []curve.Scalar) (curve.Scalar, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}
	sum := group.NewScalar()
	for i := range a {
		sum = sum.Add(a[i].Mul(b[i]))
	}
	return sum, nil
}
