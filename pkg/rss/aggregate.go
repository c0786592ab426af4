package rss

import (
	"fmt"

	"github.com/cronokirby/saferith"

	"github.com/luxfi/rss-client/pkg/commitment"
	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/ecies"
)

// aggregatedTarget holds the verified, aggregated state for one target
// index: the summed commitment vectors and the reconstructed user share.
type aggregatedTarget struct {
	commits   *commitment.Aggregated
	userShare curve.Scalar
}

// aggregateAndVerify folds every co-dealer's Round 1 contribution (the
// fetched server responses plus the client's own locally generated one)
// for every target index, verifies both algebraic invariants, decrypts and
// sums the user shares, and verifies the share-consistency identity.
func (c *Client) aggregateAndVerify(
	targets []int,
	fetched []Round1Response,
	clientContribs map[int]clientDealerContribution,
	dkgNewPub curve.Point,
	tssPubKey curve.Point,
	tempPriv curve.Scalar,
) (map[int]*aggregatedTarget, error) {
	out := make(map[int]*aggregatedTarget, len(targets))

	for ti, t := range targets {
		perTarget := make([]commitment.PerTarget, 0, len(fetched)+1)
		userEncs := make([]ecies.EncryptedMessage, 0, len(fetched)+1)

		for _, resp := range fetched {
			if ti >= len(resp.Data) {
				return nil, fmt.Errorf("%w: server response missing target %d", ErrInvalidInput, t)
			}
			d := resp.Data[ti]
			pt, err := decodePerTarget(c.group, d)
			if err != nil {
				return nil, err
			}
			perTarget = append(perTarget, pt)
			userEncs = append(userEncs, d.TargetEncryptions.UserEnc)
		}

		client := clientContribs[t]
		clientPT, err := decodePerTarget(c.group, client.data)
		if err != nil {
			return nil, err
		}
		perTarget = append(perTarget, clientPT)
		userEncs = append(userEncs, client.data.TargetEncryptions.UserEnc)

		agg, err := commitment.Aggregate(c.group, c.cfg.ServerThreshold, perTarget)
		if err != nil {
			return nil, fmt.Errorf("%w: target %d: %v", ErrInvalidCommitShape, t, err)
		}

		if err := agg.VerifyTSSBinding(c.group, dkgNewPub, tssPubKey, t); err != nil {
			return nil, fmt.Errorf("%w: target %d: %v", ErrCommitConsistency, t, err)
		}
		if err := agg.VerifyServerMasterConsistency(); err != nil {
			return nil, fmt.Errorf("%w: target %d: %v", ErrCommitConsistency, t, err)
		}

		userShare, err := c.sumUserShares(userEncs, tempPriv)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", t, err)
		}

		lhs := userShare.ActOnBase()
		rhs := agg.MasterCommits[0].Add(c.group.ScalarFromUint64(userShareIndex).Act(agg.MasterCommits[1]))
		if !lhs.Equal(rhs) {
			return nil, fmt.Errorf("%w: target %d", ErrShareConsistency, t)
		}

		out[t] = &aggregatedTarget{commits: agg, userShare: userShare}
	}

	return out, nil
}

func decodePerTarget(group curve.Curve, d Round1ResponseData) (commitment.PerTarget, error) {
	mc, err := decodeHexPoints(group, d.MasterPolyCommits)
	if err != nil {
		return commitment.PerTarget{}, fmt.Errorf("%w: master_poly_commits: %v", ErrInvalidCommitShape, err)
	}
	sc, err := decodeHexPoints(group, d.ServerPolyCommits)
	if err != nil {
		return commitment.PerTarget{}, fmt.Errorf("%w: server_poly_commits: %v", ErrInvalidCommitShape, err)
	}
	return commitment.PerTarget{MasterCommits: mc, ServerCommits: sc}, nil
}

func decodeHexPoints(group curve.Curve, hp []curve.HexPoint) ([]curve.Point, error) {
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

// sumUserShares decrypts every co-dealer's user_enc with tempPriv and sums
// the resulting scalars mod n.
func (c *Client) sumUserShares(encs []ecies.EncryptedMessage, tempPriv curve.Scalar) (curve.Scalar, error) {
	sum := c.group.NewScalar()
	privBytes := tempPriv.Bytes()
	for i, enc := range encs {
		plain, err := ecies.Decrypt(privBytes, enc)
		if err != nil {
			return nil, fmt.Errorf("%w: user_enc %d: %v", ErrDecrypt, i, err)
		}
		share := c.group.NewScalar().SetNat(new(saferith.Nat).SetBytes(plain))
		sum = sum.Add(share)
	}
	return sum, nil
}
