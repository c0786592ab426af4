package curve

import (
	"encoding/hex"
	"fmt"
)

// coordWidth is the zero-padded width, in hex characters, of every encoded
// point coordinate: 32 bytes for both secp256k1 and ed25519 field elements.
const coordWidth = 64

// HexPoint is the wire encoding of a curve point: zero-padded lowercase hex
// affine coordinates, or the {null,null} sentinel for the group identity.
type HexPoint struct {
	X *string `json:"x"`
	Y *string `json:"y"`
}

// Infinity is the sentinel HexPoint representing the identity element.
var Infinity = HexPoint{}

// IsInfinity reports whether h is the {null,null} sentinel.
func (h HexPoint) IsInfinity() bool {
	return h.X == nil && h.Y == nil
}

func padHex(b []byte) string {
	s := hex.EncodeToString(b)
	if len(s) < coordWidth {
		s = fmt.Sprintf("%0*s", coordWidth, s)
	}
	return s
}

func hexPointFromCoords(x, y []byte) HexPoint {
	xs := padHex(x)
	ys := padHex(y)
	return HexPoint{X: &xs, Y: &ys}
}

func decodeCoord(s string) ([]byte, error) {
	if len(s) != coordWidth {
		return nil, fmt.Errorf("curve: hex coordinate must be %d characters, got %d", coordWidth, len(s))
	}
	return hex.DecodeString(s)
}
