package curve_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/rss-client/pkg/curve"
)

func TestByName(t *testing.T) {
	for _, name := range []curve.Name{curve.Secp256k1, curve.Ed25519} {
		c, err := curve.ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}

	_, err := curve.ByName("bn254")
	assert.Error(t, err)
}

// hexPoint encoding must round-trip every non-identity point exactly;
// TestHexPointInfinity covers the {null,null} identity sentinel.
func TestHexPointRoundTrip(t *testing.T) {
	for _, name := range []curve.Name{curve.Secp256k1, curve.Ed25519} {
		c, err := curve.ByName(name)
		require.NoError(t, err)

		s, err := c.RandomScalar(rand.Reader)
		require.NoError(t, err)
		p := s.ActOnBase()

		h := c.ToHexPoint(p)
		assert.False(t, h.IsInfinity())

		decoded, err := c.FromHexPoint(h)
		require.NoError(t, err)
		assert.True(t, p.Equal(decoded))
	}
}

func TestHexPointInfinity(t *testing.T) {
	for _, name := range []curve.Name{curve.Secp256k1, curve.Ed25519} {
		c, err := curve.ByName(name)
		require.NoError(t, err)

		h := c.ToHexPoint(c.NewPoint())
		assert.True(t, h.IsInfinity())

		decoded, err := c.FromHexPoint(curve.Infinity)
		require.NoError(t, err)
		assert.True(t, decoded.IsIdentity())
	}
}

func TestScalarArithmetic(t *testing.T) {
	for _, name := range []curve.Name{curve.Secp256k1, curve.Ed25519} {
		c, err := curve.ByName(name)
		require.NoError(t, err)

		a, err := c.RandomScalar(rand.Reader)
		require.NoError(t, err)
		b, err := c.RandomScalar(rand.Reader)
		require.NoError(t, err)

		sum := a.Add(b)
		back := sum.Sub(b)
		assert.True(t, back.Equal(a))

		inv := a.Invert()
		one := a.Mul(inv)
		assert.True(t, one.Equal(c.ScalarFromUint64(1)))

		// G*(a+b) == G*a + G*b
		lhs := sum.ActOnBase()
		rhs := a.ActOnBase().Add(b.ActOnBase())
		assert.True(t, lhs.Equal(rhs))
	}
}

func TestScalarFromUint64(t *testing.T) {
	for _, name := range []curve.Name{curve.Secp256k1, curve.Ed25519} {
		c, err := curve.ByName(name)
		require.NoError(t, err)

		zero := c.NewScalar()
		assert.True(t, zero.IsZero())

		one := c.ScalarFromUint64(1)
		two := c.ScalarFromUint64(2)
		assert.True(t, one.Add(one).Equal(two))
	}
}
