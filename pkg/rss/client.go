package rss

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/luxfi/rss-client/pkg/curve"
)

// userShareIndex is the fixed, non-configurable index at which the user's
// share sits on the master polynomial.
const userShareIndex = 99

// Config are the recognized construction options for a Client.
type Config struct {
	// TSSPubKey is the known, unchanging TSS public key every refreshed
	// sharing must reconstruct to.
	TSSPubKey curve.Point

	// ServerEndpoints has length N: one capability-trait endpoint per
	// storage server, polymorphic over a remote URL and an in-process mock.
	ServerEndpoints []Endpoint

	// ServerPubKeys has length N, parallel to ServerEndpoints: each
	// server's secp256k1 ECIES public key (uncompressed, 65 bytes).
	ServerPubKeys []curve.Point

	// ServerThreshold is T.
	ServerThreshold int

	// KeyType selects the TSS curve. The ECIES layer always uses secp256k1
	// regardless of this setting.
	KeyType curve.Name

	// TempKey optionally pins the ephemeral keypair's private scalar
	// (secp256k1), for deterministic tests. When nil one is generated per
	// call.
	TempKey curve.Scalar

	// Rand is the randomness source used for scalar generation. Defaults to
	// crypto/rand.Reader when nil.
	Rand io.Reader
}

// Client drives the RSS protocol against the configured server committee.
// A Client holds no mutable state: each Refresh/Import call generates its own
// ephemeral keypair (or uses Config.TempKey), so every call is independent
// and safe to abandon.
type Client struct {
	cfg   Config
	group curve.Curve
}

// NewClient validates cfg and constructs a Client.
func NewClient(cfg Config) (*Client, error) {
	group, err := curve.ByName(cfg.KeyType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(cfg.ServerEndpoints) != len(cfg.ServerPubKeys) {
		return nil, fmt.Errorf("%w: %d server endpoints but %d server pubkeys", ErrLengthMismatch, len(cfg.ServerEndpoints), len(cfg.ServerPubKeys))
	}
	if cfg.ServerThreshold < 1 || cfg.ServerThreshold > len(cfg.ServerEndpoints) {
		return nil, fmt.Errorf("%w: threshold %d out of range for %d servers", ErrInvalidInput, cfg.ServerThreshold, len(cfg.ServerEndpoints))
	}
	if cfg.TSSPubKey == nil {
		return nil, fmt.Errorf("%w: missing tssPubKey", ErrInvalidInput)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}
	return &Client{cfg: cfg, group: group}, nil
}

func (c *Client) numServers() int { return len(c.cfg.ServerEndpoints) }

// ephemeralKeypair returns the client's per-call ephemeral secp256k1
// keypair, always on secp256k1 regardless of c.cfg.KeyType, using the
// pinned TempKey if configured.
func (c *Client) ephemeralKeypair() (priv curve.Scalar, pub curve.Point, err error) {
	secp := curve.Secp256k1Curve{}
	if c.cfg.TempKey != nil {
		return c.cfg.TempKey, c.cfg.TempKey.ActOnBase(), nil
	}
	priv, err = secp.RandomScalar(c.cfg.Rand)
	if err != nil {
		return nil, nil, fmt.Errorf("rss: generating ephemeral keypair: %w", err)
	}
	return priv, priv.ActOnBase(), nil
}

func validateTargetIndexes(targets []int) error {
	for _, t := range targets {
		if t != 2 && t != 3 {
			return fmt.Errorf("%w: target index %d must be 2 or 3", ErrInvalidInput, t)
		}
	}
	return nil
}

func validateSelectedServers(selected []int, n int) error {
	seen := make(map[int]bool, len(selected))
	for _, s := range selected {
		if s < 1 || s > n {
			return fmt.Errorf("%w: selected server %d out of range [1,%d]", ErrInvalidInput, s, n)
		}
		if seen[s] {
			return fmt.Errorf("%w: duplicate selected server %d", ErrInvalidInput, s)
		}
		seen[s] = true
	}
	return nil
}
