package rss

import (
	"context"
	"fmt"

	"github.com/luxfi/rss-client/pkg/curve"
)

// ImportOptions are the recognized inputs to Client.Import: the import
// variant of refresh, sharing the same co-dealer machinery but with no "old"
// side and a freshly supplied secret instead of an existing share.
type ImportOptions struct {
	Label string
	Sigs  []string

	// DkgNewPub is the known public point for the companion share at x=1,
	// used in the TSS public key binding check.
	DkgNewPub curve.Point

	// ImportKey is the externally generated secret being imported.
	ImportKey curve.Scalar

	TargetIndexes   []int
	SelectedServers []int // length T
	FactorPubs      []curve.Point
}

// Import drives the import variant: T new-set Round 1 requests, the
// client as the (T+1)-th co-dealer, and the same aggregation, verification,
// and Round 2 tail as Refresh.
func (c *Client) Import(ctx context.Context, opts ImportOptions) ([]RefreshResponse, error) {
	if len(opts.FactorPubs) != len(opts.TargetIndexes) {
		return nil, fmt.Errorf("%w: %d factorPubs but %d targetIndexes", ErrLengthMismatch, len(opts.FactorPubs), len(opts.TargetIndexes))
	}
	if err := validateTargetIndexes(opts.TargetIndexes); err != nil {
		return nil, err
	}
	if err := validateSelectedServers(opts.SelectedServers, c.numServers()); err != nil {
		return nil, err
	}
	if len(opts.SelectedServers) != c.cfg.ServerThreshold {
		return nil, fmt.Errorf("%w: selectedServers must have length %d, got %d", ErrInvalidInput, c.cfg.ServerThreshold, len(opts.SelectedServers))
	}

	tempPriv, tempPub, err := c.ephemeralKeypair()
	if err != nil {
		return nil, err
	}

	serversInfo := c.serversInfo(opts.SelectedServers)
	secp := curve.Secp256k1Curve{}
	tempPubHex := secp.ToHexPoint(tempPub)

	calls := buildRound1Calls("new", opts.Label, opts.SelectedServers, nil, serversInfo, nil, tempPubHex, opts.TargetIndexes, opts.Sigs, c.cfg.KeyType)

	fetched, err := c.issueRound1(ctx, calls)
	if err != nil {
		return nil, err
	}

	clientContribs := make(map[int]clientDealerContribution, len(opts.TargetIndexes))
	for _, t := range opts.TargetIndexes {
		lClient, err := lClientImport(c.group, t)
		if err != nil {
			return nil, err
		}
		contrib, err := c.generateDealerContribution(lClient, opts.ImportKey, tempPub)
		if err != nil {
			return nil, err
		}
		clientContribs[t] = contrib
	}

	return c.completeRound(ctx, opts.TargetIndexes, fetched, clientContribs, opts.DkgNewPub, tempPriv, opts.FactorPubs)
}
