// Package curve provides a uniform interface over the two elliptic curve
// groups used by the RSS protocol: secp256k1 (the TSS curve, and always the
// curve backing the ECIES layer) and ed25519 (an alternative TSS curve).
//
// The protocol equations in the RSS engine are curve-agnostic: they only
// need a prime-order group with a distinguished generator G, scalar field
// arithmetic mod the group order, and an encode/decode path to and from
// HexPoint. Everything above this package is written against these
// interfaces, never against a concrete curve implementation.
package curve

import (
	"io"

	"github.com/cronokirby/saferith"
)

// Name identifies a supported curve variant, matching the wire key_type
// field.
type Name string

const (
	Secp256k1 Name = "secp256k1"
	Ed25519   Name = "ed25519"
)

// Scalar is an element of Z_n, where n is the prime order of the curve's
// group. All arithmetic is performed modulo n.
type Scalar interface {
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Negate() Scalar
	Invert() Scalar
	IsZero() bool
	Equal(Scalar) bool

	// SetNat sets the receiver's value from a saferith.Nat, reduced mod n,
	// and returns the receiver.
	SetNat(*saferith.Nat) Scalar

	// Bytes returns the canonical 32-byte big-endian encoding.
	Bytes() []byte

	// ActOnBase returns G*s, the scalar multiplication of the receiver with
	// the curve's base point.
	ActOnBase() Point

	// Act returns p*s, the scalar multiplication of the receiver with p.
	Act(p Point) Point
}

// Point is an element of the curve's group.
type Point interface {
	Add(Point) Point
	Equal(Point) bool
	IsIdentity() bool

	// XY returns the affine coordinates of the point. ok is false only for
	// the identity, which has no affine representation.
	XY() (x, y []byte, ok bool)
}

// Curve is the uniform adapter over a single curve variant.
type Curve interface {
	Name() Name

	// Order returns the prime order of the scalar field as a modulus
	// suitable for saferith arithmetic.
	Order() *saferith.Modulus

	// NewScalar returns the additive identity (zero) scalar.
	NewScalar() Scalar

	// ScalarFromUint64 builds a scalar from a small non-negative integer,
	// used for fixed protocol indices (party indices, the constant 99, ...).
	ScalarFromUint64(v uint64) Scalar

	// RandomScalar returns a uniformly random scalar in [1, n).
	RandomScalar(rand io.Reader) (Scalar, error)

	// NewPoint returns the identity element of the group.
	NewPoint() Point

	// BasePoint returns G.
	BasePoint() Point

	// ToHexPoint encodes p as a HexPoint, using the {null,null} sentinel for
	// the identity.
	ToHexPoint(p Point) HexPoint

	// FromHexPoint decodes a HexPoint back into a Point. A {null,null}
	// HexPoint decodes to the identity.
	FromHexPoint(h HexPoint) (Point, error)
}

// ByName returns the Curve implementation for the given wire key_type.
func ByName(n Name) (Curve, error) {
	switch n {
	case Secp256k1:
		return Secp256k1Curve{}, nil
	case Ed25519:
		return Ed25519Curve{}, nil
	default:
		return nil, errUnknownCurve(n)
	}
}

type errUnknownCurve Name

func (e errUnknownCurve) Error() string {
	return "curve: unknown key type " + string(Name(e))
}
