package rss

import (
	"fmt"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/ecies"
	"github.com/luxfi/rss-client/pkg/polynomial"
)

// clientDealerContribution is the client's own co-dealer response for one
// target index: the final co-dealer in refresh (the (2T+1)-th) or import
// (the (T+1)-th), generated locally rather than fetched over the wire.
type clientDealerContribution struct {
	data Round1ResponseData
}

// lClientRefresh computes L_client(t) for the refresh variant:
// Lagrange([1,inputIndex], inputIndex, 0) * Lagrange([0,1], 0, t).
func lClientRefresh(group curve.Curve, inputIndex, target int) (curve.Scalar, error) {
	a, err := polynomial.LagrangeCoeff(group, []int{1, inputIndex}, inputIndex, 0)
	if err != nil {
		return nil, fmt.Errorf("rss: L_client (input leg): %w", err)
	}
	b, err := polynomial.LagrangeCoeff(group, []int{0, 1}, 0, target)
	if err != nil {
		return nil, fmt.Errorf("rss: L_client (target leg): %w", err)
	}
	return a.Mul(b), nil
}

// lClientImport computes L_client(t) for the import variant:
// Lagrange([0,1], 0, t).
func lClientImport(group curve.Curve, target int) (curve.Scalar, error) {
	c, err := polynomial.LagrangeCoeff(group, []int{0, 1}, 0, target)
	if err != nil {
		return nil, fmt.Errorf("rss: L_client: %w", err)
	}
	return c, nil
}

// generateDealerContribution builds the client's own hierarchical-sharing
// contribution for one target index: a degree-1 master polynomial whose
// y-intercept is lClient*secret, a degree-(T-1) server polynomial whose
// y-intercept is the master polynomial evaluated at x=1, their Feldman
// commitments, and the ECIES encryptions of the user's share (index 99) and
// every server's share (indices 1..N).
func (c *Client) generateDealerContribution(
	lClient curve.Scalar,
	secret curve.Scalar,
	tempPub curve.Point,
) (clientDealerContribution, error) {
	m0 := lClient.Mul(secret)

	masterPoly, err := polynomial.New(c.group, 1, m0, c.cfg.Rand)
	if err != nil {
		return clientDealerContribution{}, fmt.Errorf("rss: generating master polynomial: %w", err)
	}

	s0 := masterPoly.EvaluateInt(1)
	serverPoly, err := polynomial.New(c.group, c.cfg.ServerThreshold-1, s0, c.cfg.Rand)
	if err != nil {
		return clientDealerContribution{}, fmt.Errorf("rss: generating server polynomial: %w", err)
	}

	tempPubBytes := uncompressedSecp256k1Bytes(tempPub)
	userShare := masterPoly.EvaluateInt(userShareIndex)
	userEnc, err := ecies.Encrypt(tempPubBytes, userShare.Bytes())
	if err != nil {
		return clientDealerContribution{}, fmt.Errorf("rss: encrypting user share: %w", err)
	}

	serverEncs := make([]ecies.EncryptedMessage, c.numServers())
	for j := 0; j < c.numServers(); j++ {
		share := serverPoly.EvaluateInt(uint64(j + 1))
		pubBytes := uncompressedSecp256k1Bytes(c.cfg.ServerPubKeys[j])
		enc, err := ecies.Encrypt(pubBytes, share.Bytes())
		if err != nil {
			return clientDealerContribution{}, fmt.Errorf("rss: encrypting share for server %d: %w", j+1, err)
		}
		serverEncs[j] = enc
	}

	return clientDealerContribution{
		data: Round1ResponseData{
			MasterPolyCommits: hexPoints(c.group, masterPoly.Commitments()),
			ServerPolyCommits: hexPoints(c.group, serverPoly.Commitments()),
			TargetEncryptions: TargetEncryptions{
				UserEnc:    userEnc,
				ServerEncs: serverEncs,
			},
		},
	}, nil
}

func hexPoints(group curve.Curve, pts []curve.Point) []curve.HexPoint {
	out := make([]curve.HexPoint, len(pts))
	for i, p := range pts {
		out[i] = group.ToHexPoint(p)
	}
	return out
}

// uncompressedSecp256k1Bytes encodes a secp256k1 point as the 65-byte
// 0x04 || x || y form the ECIES layer expects.
func uncompressedSecp256k1Bytes(p curve.Point) []byte {
	x, y, ok := p.XY()
	if !ok {
		// The identity has no valid ECIES encoding; callers never pass it.
		panic("rss: cannot encode identity point for ECIES")
	}
	out := make([]byte, 0, 65)
	out = append(out, 0x04)
	out = append(out, x...)
	out = append(out, y...)
	return out
}
