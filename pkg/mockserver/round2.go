package mockserver

import (
	"encoding/json"
	"fmt"

	"github.com/cronokirby/saferith"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/ecies"
	"github.com/luxfi/rss-client/pkg/rss"
)

// handleRound2 implements the Round 2 server-side subprotocol: verify the
// aggregated commitments, decrypt and sum the incoming share column,
// check it against the commitment vector evaluated at this server's own
// index, and re-encrypt the result under every factor public key.
func (s *Server) handleRound2(req rss.Round2Request) ([]byte, error) {
	group, err := curve.ByName(req.KeyType)
	if err != nil {
		return nil, fmt.Errorf("mockserver: %w", err)
	}

	data := make([]rss.Round2ResponseDatum, len(req.Data))
	for ti, d := range req.Data {
		mc, err := decodeHexPointsMS(group, d.MasterCommits)
		if err != nil {
			return nil, fmt.Errorf("mockserver: master_commits: %w", err)
		}
		sc, err := decodeHexPointsMS(group, d.ServerCommits)
		if err != nil {
			return nil, fmt.Errorf("mockserver: server_commits: %w", err)
		}
		if len(mc) != 2 || len(sc) == 0 {
			return nil, fmt.Errorf("mockserver: malformed commitment shape")
		}
		if !mc[0].Add(mc[1]).Equal(sc[0]) {
			return nil, fmt.Errorf("mockserver: mc[0]+mc[1] != sc[0] for target %d", req.TargetIndex[ti])
		}

		share := group.NewScalar()
		privBytes := s.privateKey.Bytes()
		for i, enc := range d.ServerEncs {
			plain, err := ecies.Decrypt(privBytes, enc)
			if err != nil {
				return nil, fmt.Errorf("mockserver: server_encs[%d]: %w", i, err)
			}
			share = share.Add(group.NewScalar().SetNat(new(saferith.Nat).SetBytes(plain)))
		}

		expected := evaluateCommitment(group, sc, s.index)
		if !share.ActOnBase().Equal(expected) {
			return nil, fmt.Errorf("mockserver: reconstructed share fails commitment check for target %d", req.TargetIndex[ti])
		}

		encs := make([]ecies.EncryptedMessage, len(d.FactorPubkeys))
		for i, fp := range d.FactorPubkeys {
			pubBytes, err := hexPointToUncompressed(curve.Secp256k1Curve{}, fp)
			if err != nil {
				return nil, fmt.Errorf("mockserver: factor_pubkeys[%d]: %w", i, err)
			}
			enc, err := ecies.Encrypt(pubBytes, share.Bytes())
			if err != nil {
				return nil, err
			}
			encs[i] = enc
		}
		data[ti] = rss.Round2ResponseDatum{Encs: encs}
	}

	return json.Marshal(rss.Round2Response{TargetIndex: req.TargetIndex, Data: data})
}

// evaluateCommitment computes Sum_i commits[i] * x^i, the Feldman public
// evaluation of a commitment vector at x.
func evaluateCommitment(group curve.Curve, commits []curve.Point, x int) curve.Point {
	result := group.NewPoint()
	xPow := group.ScalarFromUint64(1)
	xs := group.ScalarFromUint64(uint64(x))
	for _, c := range commits {
		result = result.Add(xPow.Act(c))
		xPow = xPow.Mul(xs)
	}
	return result
}
