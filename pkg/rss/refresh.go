package rss

import (
	"context"
	"fmt"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/ecies"
)

// RefreshOptions are the recognized inputs to Client.Refresh.
type RefreshOptions struct {
	OldLabel string
	NewLabel string
	Sigs     []string

	// DkgNewPub is the known public point for the companion share at x=1,
	// used in the TSS public key binding check.
	DkgNewPub curve.Point

	// InputShare is the user's current share, sitting at x=InputIndex on the
	// existing master polynomial.
	InputShare curve.Scalar
	InputIndex int // 2 or 3

	TargetIndexes   []int // subset of {2,3}
	SelectedServers []int // length T, distinct, subset of [1,N]
	FactorPubs      []curve.Point
}

// Refresh drives the refresh variant of the RSS protocol end to end: 2T
// Round 1 requests (T "old" + T "new"), the client's own (2T+1)-th co-dealer
// contribution, commitment aggregation and verification, user-share
// decryption, and Round 2 factor re-encryption.
func (c *Client) Refresh(ctx context.Context, opts RefreshOptions) ([]RefreshResponse, error) {
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

	oldInputIndex := opts.InputIndex
	oldCalls := buildRound1Calls("old", opts.OldLabel, opts.SelectedServers, &serversInfo, serversInfo, &oldInputIndex, tempPubHex, opts.TargetIndexes, opts.Sigs, c.cfg.KeyType)
	newCalls := buildRound1Calls("new", opts.NewLabel, opts.SelectedServers, nil, serversInfo, nil, tempPubHex, opts.TargetIndexes, opts.Sigs, c.cfg.KeyType)
	calls := append(oldCalls, newCalls...)

	fetched, err := c.issueRound1(ctx, calls)
	if err != nil {
		return nil, err
	}

	clientContribs := make(map[int]clientDealerContribution, len(opts.TargetIndexes))
	for _, t := range opts.TargetIndexes {
		lClient, err := lClientRefresh(c.group, opts.InputIndex, t)
		if err != nil {
			return nil, err
		}
		contrib, err := c.generateDealerContribution(lClient, opts.InputShare, tempPub)
		if err != nil {
			return nil, err
		}
		clientContribs[t] = contrib
	}

	return c.completeRound(ctx, opts.TargetIndexes, fetched, clientContribs, opts.DkgNewPub, tempPriv, opts.FactorPubs)
}

// serversInfo builds the wire ServersInfo for the current committee and
// selected subset.
func (c *Client) serversInfo(selected []int) ServersInfo {
	secp := curve.Secp256k1Curve{}
	pubkeys := make([]curve.HexPoint, c.numServers())
	for i, p := range c.cfg.ServerPubKeys {
		pubkeys[i] = secp.ToHexPoint(p)
	}
	return ServersInfo{Pubkeys: pubkeys, Threshold: c.cfg.ServerThreshold, Selected: selected}
}

// completeRound shares the tail of both refresh and import: aggregate and
// verify every target at once, transpose the server_encs matrix, dispatch
// Round 2, and assemble the RefreshResponse list.
func (c *Client) completeRound(
	ctx context.Context,
	targets []int,
	fetched []Round1Response,
	clientContribs map[int]clientDealerContribution,
	dkgNewPub curve.Point,
	tempPriv curve.Scalar,
	factorPubs []curve.Point,
) ([]RefreshResponse, error) {
	aggregated, err := c.aggregateAndVerify(targets, fetched, clientContribs, dkgNewPub, c.cfg.TSSPubKey, tempPriv)
	if err != nil {
		return nil, err
	}

	secp := curve.Secp256k1Curve{}
	userFactorEncs := make(map[int]ecies.EncryptedMessage, len(targets))
	factorPubHex := make([]curve.HexPoint, len(targets))
	for ti, t := range targets {
		factorPubHex[ti] = secp.ToHexPoint(factorPubs[ti])

		factorPubBytes := uncompressedSecp256k1Bytes(factorPubs[ti])
		enc, err := ecies.Encrypt(factorPubBytes, aggregated[t].userShare.Bytes())
		if err != nil {
			return nil, fmt.Errorf("rss: encrypting user factor share for target %d: %w", t, err)
		}
		userFactorEncs[t] = enc
	}

	columns, err := transposeServerEncs(targets, fetched, clientContribs, c.numServers())
	if err != nil {
		return nil, err
	}

	// serverResults[j][ti]: server j+1's Round 2 factor encryption for
	// targets[ti], nil if that server's request failed.
	serverResults, err := c.issueRound2(ctx, targets, aggregated, columns, factorPubHex)
	if err != nil {
		return nil, err
	}

	out := make([]RefreshResponse, len(targets))
	for ti, t := range targets {
		perTargetServerEncs := make([]*ecies.EncryptedMessage, c.numServers())
		for j := 0; j < c.numServers(); j++ {
			perTargetServerEncs[j] = serverResults[j][ti]
		}
		out[ti] = RefreshResponse{
			TargetIndex:      t,
			FactorPub:        factorPubHex[ti],
			ServerFactorEncs: perTargetServerEncs,
			UserFactorEnc:    userFactorEncs[t],
		}
	}
	return out, nil
}
