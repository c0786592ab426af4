package polynomial_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/polynomial"
)

func TestLagrangeSumsToOne(t *testing.T) {
	group := curve.Secp256k1Curve{}

	idx := []int{1, 2, 3, 4, 5}
	coeffs, err := polynomial.Lagrange(group, idx)
	require.NoError(t, err)

	sum := group.NewScalar()
	for _, c := range coeffs {
		sum = sum.Add(c)
	}
	assert.True(t, sum.Equal(group.ScalarFromUint64(1)))
}

func TestLagrangeReconstructsSecret(t *testing.T) {
	group := curve.Secp256k1Curve{}

	secret, err := group.RandomScalar(rand.Reader)
	require.NoError(t, err)

	poly, err := polynomial.New(group, 2, secret, rand.Reader)
	require.NoError(t, err)

	idx := []int{1, 2, 3}
	shares := make(map[int]curve.Scalar, len(idx))
	for _, i := range idx {
		shares[i] = poly.EvaluateInt(uint64(i))
	}

	coeffs, err := polynomial.Lagrange(group, idx)
	require.NoError(t, err)

	reconstructed := group.NewScalar()
	for _, i := range idx {
		reconstructed = reconstructed.Add(coeffs[i].Mul(shares[i]))
	}

	assert.True(t, reconstructed.Equal(secret))
}

func TestLagrangeCoeffNonzeroTargetResharesIndex(t *testing.T) {
	group := curve.Secp256k1Curve{}

	secret, err := group.RandomScalar(rand.Reader)
	require.NoError(t, err)
	poly, err := polynomial.New(group, 1, secret, rand.Reader)
	require.NoError(t, err)

	// The re-sharing coefficients of the two-point index set {0,1} at
	// target x=5, applied to the shares at x=0 and x=1, must together equal
	// directly evaluating the degree-1 polynomial at x=5.
	coeff, err := polynomial.LagrangeCoeff(group, []int{0, 1}, 1, 5)
	require.NoError(t, err)

	shareAt1 := poly.EvaluateInt(1)
	lifted := coeff.Mul(shareAt1)

	// Add the x=0 leg: L_0(5)*P(0) + L_1(5)*P(1) == P(5).
	shareAt0 := poly.EvaluateInt(0)
	c0, err := polynomial.LagrangeCoeff(group, []int{0, 1}, 0, 5)
	require.NoError(t, err)
	expected := c0.Mul(shareAt0).Add(lifted)

	directAt5 := poly.EvaluateInt(5)
	assert.True(t, expected.Equal(directAt5))
}

func TestLagrangeCoeffZeroDenominator(t *testing.T) {
	group := curve.Secp256k1Curve{}
	_, err := polynomial.LagrangeCoeff(group, []int{1, 1, 2}, 1, 0)
	assert.ErrorIs(t, err, polynomial.ErrZeroDenominator)
}

func TestDotProductLengthMismatch(t *testing.T) {
	group := curve.Secp256k1Curve{}
	a := []curve.Scalar{group.ScalarFromUint64(1)}
	b := []curve.Scalar{group.ScalarFromUint64(1), group.ScalarFromUint64(2)}

	_, err := polynomial.DotProduct(group, a, b)
	assert.ErrorIs(t, err, polynomial.ErrLengthMismatch)
}

func TestDotProduct(t *testing.T) {
	group := curve.Secp256k1Curve{}
	a := []curve.Scalar{group.ScalarFromUint64(2), group.ScalarFromUint64(3)}
	b := []curve.Scalar{group.ScalarFromUint64(5), group.ScalarFromUint64(7)}

	got, err := polynomial.DotProduct(group, a, b)
	require.NoError(t, err)
	assert.True(t, got.Equal(group.ScalarFromUint64(2*5+3*7)))
}

func TestEvaluateDegreeZero(t *testing.T) {
	group := curve.Secp256k1Curve{}
	secret := group.ScalarFromUint64(42)
	poly := &polynomial.Polynomial{Group: group, Coefficients: []curve.Scalar{secret}}

	for _, x := range []uint64{0, 1, 99} {
		assert.True(t, poly.EvaluateInt(x).Equal(secret))
	}
}

func TestCommitmentsMatchEvaluation(t *testing.T) {
	group := curve.Secp256k1Curve{}
	secret, err := group.RandomScalar(rand.Reader)
	require.NoError(t, err)
	poly, err := polynomial.New(group, 2, secret, rand.Reader)
	require.NoError(t, err)

	commits := poly.Commitments()
	require.Len(t, commits, 3)
	assert.True(t, commits[0].Equal(secret.ActOnBase()))
}
