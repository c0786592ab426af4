// Package mockserver implements the server side of the RSS protocol
// in-process, for deterministic tests: Round 1 / Round 2 handlers and
// the small configuration surface (private key, public key, tss share,
// nonce counters) the protocol's test harness needs, with identical wire
// semantics to a remote HTTP server.
package mockserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/rss"
)

// userShareIndex mirrors pkg/rss's fixed user-share index.
const userShareIndex = 99

// Server is one storage server's in-process state, implementing
// rss.Endpoint directly rather than over HTTP. A test harness constructs N
// of these to stand in for a full committee.
type Server struct {
	mu sync.Mutex

	index      int
	keyType    curve.Name
	privateKey curve.Scalar // secp256k1, the server's ECIES key

	// tssShares holds tssServerShare(label): the server's pre-existing
	// hierarchical-sharing share for a given committee label ("old" or
	// "new" generation identity), set via POST /tss_share.
	tssShares map[string]curve.Scalar

	nonces map[string]uint64
}

// persistedState is the CBOR-serializable snapshot of a Server, used by
// Snapshot/Restore for tests that need to save and reload mock committee
// state across a run.
type persistedState struct {
	Index      int               `cbor:"index"`
	KeyType    string            `cbor:"key_type"`
	PrivateKey []byte            `cbor:"private_key,omitempty"`
	TSSShares  map[string][]byte `cbor:"tss_shares"`
	Nonces     map[string]uint64 `cbor:"nonces"`
}

// NewServer constructs a Server for the given 1-based committee index and
// TSS key type, with a freshly generated ECIES private key.
func NewServer(index int, keyType curve.Name) (*Server, error) {
	priv, err := curve.Secp256k1Curve{}.RandomScalar(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("mockserver: generating private key: %w", err)
	}
	return &Server{
		index:      index,
		keyType:    keyType,
		privateKey: priv,
		tssShares:  make(map[string]curve.Scalar),
		nonces:     make(map[string]uint64),
	}, nil
}

// PublicKey returns the server's secp256k1 ECIES public key.
func (s *Server) PublicKey() curve.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.privateKey.ActOnBase()
}

// SetTSSShare sets the server's pre-existing share under a committee label,
// the out-of-band equivalent of POST /tss_share used directly by tests that
// construct a committee without going through the wire.
func (s *Server) SetTSSShare(label string, share curve.Scalar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tssShares[label] = share
}

// Snapshot serializes the server's persisted state (everything but the
// in-flight request handling) to CBOR.
func (s *Server) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shares := make(map[string][]byte, len(s.tssShares))
	for label, sh := range s.tssShares {
		shares[label] = sh.Bytes()
	}
	state := persistedState{
		Index:      s.index,
		KeyType:    string(s.keyType),
		PrivateKey: s.privateKey.Bytes(),
		TSSShares:  shares,
		Nonces:     s.nonces,
	}
	return cbor.Marshal(state)
}

// Restore replaces the server's state with a previously captured Snapshot.
func (s *Server) Restore(data []byte) error {
	var state persistedState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("mockserver: decoding snapshot: %w", err)
	}

	group, err := curve.ByName(curve.Name(state.KeyType))
	if err != nil {
		return fmt.Errorf("mockserver: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = state.Index
	s.keyType = curve.Name(state.KeyType)
	s.privateKey = curve.Secp256k1Curve{}.NewScalar().SetNat(new(saferith.Nat).SetBytes(state.PrivateKey))
	s.tssShares = make(map[string]curve.Scalar, len(state.TSSShares))
	for label, b := range state.TSSShares {
		s.tssShares[label] = group.NewScalar().SetNat(new(saferith.Nat).SetBytes(b))
	}
	s.nonces = state.Nonces
	if s.nonces == nil {
		s.nonces = make(map[string]uint64)
	}
	return nil
}

// Get implements rss.Endpoint.
func (s *Server) Get(_ context.Context, path string) ([]byte, error) {
	switch path {
	case "/public_key":
		hp := curve.Secp256k1Curve{}.ToHexPoint(s.PublicKey())
		return json.Marshal(hp)
	default:
		return nil, fmt.Errorf("mockserver: unknown path %q", path)
	}
}

// Post implements rss.Endpoint. body is round-tripped through JSON so the
// mock's semantics match a real HTTP server exactly.
func (s *Server) Post(_ context.Context, path string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("mockserver: marshal request: %w", err)
	}

	switch path {
	case "/private_key":
		var req struct {
			PrivateKey string `json:"privateKey"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		b, err := hex.DecodeString(req.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("mockserver: malformed privateKey: %w", err)
		}
		s.mu.Lock()
		s.privateKey = curve.Secp256k1Curve{}.NewScalar().SetNat(new(saferith.Nat).SetBytes(b))
		s.mu.Unlock()
		return []byte(`{}`), nil

	case "/tss_share":
		var req struct {
			Label string `json:"label"`
			Share string `json:"share"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		b, err := hex.DecodeString(req.Share)
		if err != nil {
			return nil, fmt.Errorf("mockserver: malformed share: %w", err)
		}
		group, err := curve.ByName(s.keyType)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.tssShares[req.Label] = group.NewScalar().SetNat(new(saferith.Nat).SetBytes(b))
		s.mu.Unlock()
		return []byte(`{}`), nil

	case "/set_tss_nonce":
		var req struct {
			Label string `json:"label"`
			Nonce uint64 `json:"nonce"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.nonces[req.Label] = req.Nonce
		s.mu.Unlock()
		return []byte(`{}`), nil

	case "/get_tss_nonce":
		var req struct {
			Label string `json:"label"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		s.mu.Lock()
		n := s.nonces[req.Label]
		s.mu.Unlock()
		return json.Marshal(struct {
			Nonce uint64 `json:"nonce"`
		}{Nonce: n})

	case "/rss_round_1":
		var req rss.Round1Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		return s.handleRound1(req)

	case "/rss_round_2":
		var req rss.Round2Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		return s.handleRound2(req)

	default:
		return nil, fmt.Errorf("mockserver: unknown path %q", path)
	}
}

// secp256k1Uncompressed encodes a secp256k1 point as 0x04 || x || y.
func secp256k1Uncompressed(p curve.Point) ([]byte, error) {
	x, y, ok := p.XY()
	if !ok {
		return nil, fmt.Errorf("mockserver: cannot encode identity point")
	}
	out := make([]byte, 0, 65)
	out = append(out, 0x04)
	out = append(out, x...)
	out = append(out, y...)
	return out, nil
}

func decodeHexPointsMS(group curve.Curve, hp []curve.HexPoint) ([]curve.Point, error) {
	out := make([]curve.Point, len(hp))
	for i, h := range hp {
		p, err := group.FromHexPoint(h)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func hexPointsMS(group curve.Curve, pts []curve.Point) []curve.HexPoint {
	out := make([]curve.HexPoint, len(pts))
	for i, p := range pts {
		out[i] = group.ToHexPoint(p)
	}
	return out
}
