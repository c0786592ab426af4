package curve

import (
	"bytes"
	"errors"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Secp256k1Curve adapts decred's secp256k1 implementation to the Curve
// interface. This is the only curve ever used for the ECIES layer, and one
// of the two selectable TSS curves.
type Secp256k1Curve struct{}

func (Secp256k1Curve) Name() Name { return Secp256k1 }

var secp256k1Order = func() *saferith.Modulus {
	n := secp256k1.S256().Params().N
	return saferith.ModulusFromBytes(n.Bytes())
}()

func (Secp256k1Curve) Order() *saferith.Modulus {
	return secp256k1Order
}

func (Secp256k1Curve) NewScalar() Scalar {
	return &secp256k1Scalar{v: new(saferith.Nat)}
}

func (c Secp256k1Curve) ScalarFromUint64(v uint64) Scalar {
	return &secp256k1Scalar{v: new(saferith.Nat).Mod(new(saferith.Nat).SetUint64(v), c.Order())}
}

// RandomScalar draws 128 bits more than the order's width and reduces mod n,
// the standard oversample-then-reduce technique: the resulting bias is
// negligible without needing rejection sampling against a variable-width
// bound.
func (c Secp256k1Curve) RandomScalar(r io.Reader) (Scalar, error) {
	buf := make([]byte, coordWidth/2+16)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		s := &secp256k1Scalar{v: new(saferith.Nat).Mod(new(saferith.Nat).SetBytes(buf), c.Order())}
		if !s.IsZero() {
			return s, nil
		}
	}
}

func (Secp256k1Curve) NewPoint() Point {
	return &secp256k1Point{x: nil, y: nil}
}

func (Secp256k1Curve) BasePoint() Point {
	p := secp256k1.S256().Params()
	return &secp256k1Point{x: new(big.Int).Set(p.Gx), y: new(big.Int).Set(p.Gy)}
}

func (c Secp256k1Curve) ToHexPoint(p Point) HexPoint {
	x, y, ok := p.XY()
	if !ok {
		return Infinity
	}
	return hexPointFromCoords(x, y)
}

func (c Secp256k1Curve) FromHexPoint(h HexPoint) (Point, error) {
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
	x := new(big.Int).SetBytes(xb)
	y := new(big.Int).SetBytes(yb)
	if !secp256k1.S256().IsOnCurve(x, y) {
		return nil, errors.New("curve: point is not on secp256k1")
	}
	return &secp256k1Point{x: x, y: y}, nil
}

// secp256k1Scalar holds its value as a fixed-width saferith.Nat, always
// reduced mod secp256k1Order: all arithmetic goes through saferith's
// Mod-family methods rather than math/big, avoiding variable-width
// intermediate values in the Add/Sub/Mul/Invert hot paths.
type secp256k1Scalar struct {
	v *saferith.Nat // always reduced into [0, n)
}

func (s *secp256k1Scalar) Add(o Scalar) Scalar {
	other := o.(*secp256k1Scalar)
	return &secp256k1Scalar{v: new(saferith.Nat).ModAdd(s.v, other.v, Secp256k1Curve{}.Order())}
}

func (s *secp256k1Scalar) Sub(o Scalar) Scalar {
	other := o.(*secp256k1Scalar)
	return &secp256k1Scalar{v: new(saferith.Nat).ModSub(s.v, other.v, Secp256k1Curve{}.Order())}
}

func (s *secp256k1Scalar) Mul(o Scalar) Scalar {
	other := o.(*secp256k1Scalar)
	return &secp256k1Scalar{v: new(saferith.Nat).ModMul(s.v, other.v, Secp256k1Curve{}.Order())}
}

func (s *secp256k1Scalar) Negate() Scalar {
	return &secp256k1Scalar{v: new(saferith.Nat).ModSub(new(saferith.Nat), s.v, Secp256k1Curve{}.Order())}
}

func (s *secp256k1Scalar) Invert() Scalar {
	return &secp256k1Scalar{v: new(saferith.Nat).ModInverse(s.v, Secp256k1Curve{}.Order())}
}

func (s *secp256k1Scalar) IsZero() bool {
	for _, b := range s.v.Bytes() {
		if b != 0 {
			return false
		}
	}
	return true
}

func (s *secp256k1Scalar) Equal(o Scalar) bool {
	other, ok := o.(*secp256k1Scalar)
	return ok && bytes.Equal(s.v.Bytes(), other.v.Bytes())
}

func (s *secp256k1Scalar) SetNat(n *saferith.Nat) Scalar {
	s.v = new(saferith.Nat).Mod(n, Secp256k1Curve{}.Order())
	return s
}

func (s *secp256k1Scalar) Bytes() []byte {
	raw := s.v.Bytes()
	buf := make([]byte, coordWidth/2)
	copy(buf[len(buf)-len(raw):], raw)
	return buf
}

func (s *secp256k1Scalar) ActOnBase() Point {
	px, py := secp256k1.S256().ScalarBaseMult(s.Bytes())
	return &secp256k1Point{x: px, y: py}
}

func (s *secp256k1Scalar) Act(p Point) Point {
	pt := p.(*secp256k1Point)
	if pt.x == nil {
		return &secp256k1Point{}
	}
	px, py := secp256k1.S256().ScalarMult(pt.x, pt.y, s.Bytes())
	return &secp256k1Point{x: px, y: py}
}

type secp256k1Point struct {
	x, y *big.Int // nil, nil represents the identity
}

func (p *secp256k1Point) Add(o Point) Point {
	other := o.(*secp256k1Point)
	if p.x == nil {
		return &secp256k1Point{x: other.x, y: other.y}
	}
	if other.x == nil {
		return &secp256k1Point{x: p.x, y: p.y}
	}
	rx, ry := secp256k1.S256().Add(p.x, p.y, other.x, other.y)
	return &secp256k1Point{x: rx, y: ry}
}

func (p *secp256k1Point) Equal(o Point) bool {
	other, ok := o.(*secp256k1Point)
	if !ok {
		return false
	}
	if p.x == nil || other.x == nil {
		return p.x == nil && other.x == nil
	}
	return p.x.Cmp(other.x) == 0 && p.y.Cmp(other.y) == 0
}

func (p *secp256k1Point) IsIdentity() bool {
	return p.x == nil
}

func (p *secp256k1Point) XY() (x, y []byte, ok bool) {
	if p.x == nil {
		return nil, nil, false
	}
	xb := make([]byte, coordWidth/2)
	yb := make([]byte, coordWidth/2)
	p.x.FillBytes(xb)
	p.y.FillBytes(yb)
	return xb, yb, true
}
