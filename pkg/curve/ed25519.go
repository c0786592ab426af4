package curve

import (
	"crypto/rand"
	"errors"
	"io"

	"filippo.io/edwards25519"
	"filippo.io/edwards25519/field"
	"github.com/cronokirby/saferith"
)

// Ed25519Curve adapts filippo.io/edwards25519 to the Curve interface. It is
// never used for the ECIES layer, which is always bound to secp256k1
// regardless of the TSS curve in use.
type Ed25519Curve struct{}

func (Ed25519Curve) Name() Name { return Ed25519 }

// ed25519Order is the prime order L = 2^252 + 27742317777372353535851937790883648493
// of the ed25519 scalar field, big-endian encoded.
var ed25519OrderBytes = []byte{
	0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x14, 0xde, 0xf9, 0xde, 0xa2, 0xf7, 0x9c, 0xd6,
	0x58, 0x12, 0x63, 0x1a, 0x5c, 0xf5, 0xd3, 0xed,
}

var ed25519Order = saferith.ModulusFromBytes(ed25519OrderBytes)

func (Ed25519Curve) Order() *saferith.Modulus {
	return ed25519Order
}

func reduceToScalar(bigEndian []byte) *edwards25519.Scalar {
	buf := make([]byte, 64)
	// place big-endian value at the low end of a little-endian 64-byte
	// buffer so SetUniformBytes reduces it mod L correctly.
	n := len(bigEndian)
	for i := 0; i < n; i++ {
		buf[i] = bigEndian[n-1-i]
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(buf)
	if err != nil {
		// SetUniformBytes only fails on wrong input length, which cannot
		// happen here given the fixed 64-byte buffer.
		panic(err)
	}
	return s
}

func (Ed25519Curve) NewScalar() Scalar {
	return &ed25519Scalar{s: edwards25519.NewScalar()}
}

func (c Ed25519Curve) ScalarFromUint64(v uint64) Scalar {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[7-i] = byte(v >> (8 * i))
	}
	return &ed25519Scalar{s: reduceToScalar(buf)}
}

func (Ed25519Curve) RandomScalar(r io.Reader) (Scalar, error) {
	for {
		var buf [64]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		s, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
		if err != nil {
			return nil, err
		}
		if s.Equal(edwards25519.NewScalar()) != 1 {
			return &ed25519Scalar{s: s}, nil
		}
	}
}

func (Ed25519Curve) NewPoint() Point {
	return &ed25519Point{p: edwards25519.NewIdentityPoint()}
}

func (Ed25519Curve) BasePoint() Point {
	return &ed25519Point{p: edwards25519.NewGeneratorPoint()}
}

func (c Ed25519Curve) ToHexPoint(pt Point) HexPoint {
	p := pt.(*ed25519Point)
	x, y, ok := p.XY()
	if !ok {
		return Infinity
	}
	return hexPointFromCoords(x, y)
}

func (c Ed25519Curve) FromHexPoint(h HexPoint) (Point, error) {
	if h.IsInfinity() {
		return c.NewPoint(), nil
	}
	if h.X == nil || h.Y == nil {
		return nil, errors.New("curve: partial HexPoint, expected both or neither coordinate")
	}
	xb, err := decodeCoord(*h.X)
	if err != nil {
		return nil, err
	}
	yb, err := decodeCoord(*h.Y)
	if err != nil {
		return nil, err
	}
	x := feFromBigEndian(xb)
	y := feFromBigEndian(yb)
	z := new(field.Element).One()
	t := new(field.Element).Multiply(x, y)

	p, err := edwards25519.NewIdentityPoint().SetExtendedCoordinates(x, y, z, t)
	if err != nil {
		return nil, errors.New("curve: point is not on ed25519")
	}
	return &ed25519Point{p: p}, nil
}

func feFromBigEndian(b []byte) *field.Element {
	le := make([]byte, 32)
	for i := 0; i < len(b) && i < 32; i++ {
		le[len(b)-1-i] = b[i]
	}
	fe, err := new(field.Element).SetBytes(le)
	if err != nil {
		panic(err)
	}
	return fe
}

type ed25519Scalar struct {
	s *edwards25519.Scalar
}

func (s *ed25519Scalar) Add(o Scalar) Scalar {
	other := o.(*ed25519Scalar)
	return &ed25519Scalar{s: edwards25519.NewScalar().Add(s.s, other.s)}
}

func (s *ed25519Scalar) Sub(o Scalar) Scalar {
	other := o.(*ed25519Scalar)
	return &ed25519Scalar{s: edwards25519.NewScalar().Subtract(s.s, other.s)}
}

func (s *ed25519Scalar) Mul(o Scalar) Scalar {
	other := o.(*ed25519Scalar)
	return &ed25519Scalar{s: edwards25519.NewScalar().Multiply(s.s, other.s)}
}

func (s *ed25519Scalar) Negate() Scalar {
	return &ed25519Scalar{s: edwards25519.NewScalar().Negate(s.s)}
}

func (s *ed25519Scalar) Invert() Scalar {
	return &ed25519Scalar{s: edwards25519.NewScalar().Invert(s.s)}
}

func (s *ed25519Scalar) IsZero() bool {
	return s.s.Equal(edwards25519.NewScalar()) == 1
}

func (s *ed25519Scalar) Equal(o Scalar) bool {
	other, ok := o.(*ed25519Scalar)
	return ok && s.s.Equal(other.s) == 1
}

func (s *ed25519Scalar) SetNat(n *saferith.Nat) Scalar {
	s.s = reduceToScalar(n.Bytes())
	return s
}

// Bytes returns the big-endian canonical encoding, reversing the curve's
// native little-endian representation to keep the contract uniform across
// curve variants.
func (s *ed25519Scalar) Bytes() []byte {
	le := s.s.Bytes()
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	return be
}

func (s *ed25519Scalar) ActOnBase() Point {
	return &ed25519Point{p: edwards25519.NewIdentityPoint().ScalarBaseMult(s.s)}
}

func (s *ed25519Scalar) Act(pt Point) Point {
	p := pt.(*ed25519Point)
	return &ed25519Point{p: edwards25519.NewIdentityPoint().ScalarMult(s.s, p.p)}
}

type ed25519Point struct {
	p *edwards25519.Point
}

func (p *ed25519Point) Add(o Point) Point {
	other := o.(*ed25519Point)
	return &ed25519Point{p: edwards25519.NewIdentityPoint().Add(p.p, other.p)}
}

func (p *ed25519Point) Equal(o Point) bool {
	other, ok := o.(*ed25519Point)
	return ok && p.p.Equal(other.p) == 1
}

func (p *ed25519Point) IsIdentity() bool {
	return p.p.Equal(edwards25519.NewIdentityPoint()) == 1
}

func (p *ed25519Point) XY() (x, y []byte, ok bool) {
	if p.IsIdentity() {
		return nil, nil, false
	}
	X, Y, Z, _ := p.p.ExtendedCoordinates()
	zinv := new(field.Element).Invert(Z)
	ax := new(field.Element).Multiply(X, zinv)
	ay := new(field.Element).Multiply(Y, zinv)

	xle := ax.Bytes()
	yle := ay.Bytes()
	xb := make([]byte, len(xle))
	yb := make([]byte, len(yle))
	for i := range xle {
		xb[len(xle)-1-i] = xle[i]
	}
	for i := range yle {
		yb[len(yle)-1-i] = yle[i]
	}
	return xb, yb, true
}
