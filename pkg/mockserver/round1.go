package mockserver

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/ecies"
	"github.com/luxfi/rss-client/pkg/polynomial"
	"github.com/luxfi/rss-client/pkg/rss"
)

// handleRound1 implements the server-side subprotocol: compute this
// server's own hierarchical sharing contribution for every requested
// target index.
func (s *Server) handleRound1(req rss.Round1Request) ([]byte, error) {
	group, err := curve.ByName(req.KeyType)
	if err != nil {
		return nil, fmt.Errorf("mockserver: %w", err)
	}

	numPubkeys := len(req.NewServersInfo.Pubkeys)
	if req.ServerIndex < 1 || req.ServerIndex > numPubkeys {
		return nil, fmt.Errorf("mockserver: server_index %d out of range [1,%d]", req.ServerIndex, numPubkeys)
	}
	if !contains(req.NewServersInfo.Selected, req.ServerIndex) {
		return nil, fmt.Errorf("mockserver: server_index %d not selected", req.ServerIndex)
	}
	for _, t := range req.TargetIndex {
		if t != 2 && t != 3 {
			return nil, fmt.Errorf("mockserver: target index %d must be 2 or 3", t)
		}
	}
	if req.ServerSet == "old" {
		if req.OldUserShareIndex == nil {
			return nil, fmt.Errorf("mockserver: old set requires old_user_share_index")
		}
		if *req.OldUserShareIndex != 2 && *req.OldUserShareIndex != 3 {
			return nil, fmt.Errorf("mockserver: old_user_share_index must be 2 or 3")
		}
	}

	s.mu.Lock()
	tssServerShare, ok := s.tssShares[req.Auth.Label]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("mockserver: no tss share stored for label %q", req.Auth.Label)
	}

	threshold := req.NewServersInfo.Threshold
	numServers := len(req.NewServersInfo.Pubkeys)
	selected := req.NewServersInfo.Selected

	tempPubBytes, err := hexPointToUncompressed(curve.Secp256k1Curve{}, req.UserTempPubkey)
	if err != nil {
		return nil, fmt.Errorf("mockserver: user_temp_pubkey: %w", err)
	}

	data := make([]rss.Round1ResponseData, len(req.TargetIndex))
	for ti, t := range req.TargetIndex {
		lcServer, err := lcServer(group, selected, req.ServerIndex, req.ServerSet, req.OldUserShareIndex, t)
		if err != nil {
			return nil, err
		}
		y0 := lcServer.Mul(tssServerShare)

		masterPoly, err := polynomial.New(group, 1, y0, rand.Reader)
		if err != nil {
			return nil, err
		}
		s0 := masterPoly.EvaluateInt(1)
		serverPoly, err := polynomial.New(group, threshold-1, s0, rand.Reader)
		if err != nil {
			return nil, err
		}

		userShare := masterPoly.EvaluateInt(userShareIndex)
		userEnc, err := ecies.Encrypt(tempPubBytes, userShare.Bytes())
		if err != nil {
			return nil, err
		}

		serverEncs := make([]ecies.EncryptedMessage, numServers)
		for j := 0; j < numServers; j++ {
			pubBytes, err := hexPointToUncompressed(curve.Secp256k1Curve{}, req.NewServersInfo.Pubkeys[j])
			if err != nil {
				return nil, fmt.Errorf("mockserver: server %d pubkey: %w", j+1, err)
			}
			share := serverPoly.EvaluateInt(uint64(j + 1))
			enc, err := ecies.Encrypt(pubBytes, share.Bytes())
			if err != nil {
				return nil, err
			}
			serverEncs[j] = enc
		}

		data[ti] = rss.Round1ResponseData{
			MasterPolyCommits: hexPointsMS(group, masterPoly.Commitments()),
			ServerPolyCommits: hexPointsMS(group, serverPoly.Commitments()),
			TargetEncryptions: rss.TargetEncryptions{
				UserEnc:    userEnc,
				ServerEncs: serverEncs,
			},
		}
	}

	return json.Marshal(rss.Round1Response{TargetIndex: req.TargetIndex, Data: data})
}

// lcServer computes lc_server(t):
//
//	old set: Lagrange(selected,serverIndex,0) * Lagrange([1,oldUserShareIndex],1,0) * Lagrange([0,1],0,t)
//	new set: Lagrange(selected,serverIndex,0) * Lagrange([0,1],0,t)
func lcServer(group curve.Curve, selected []int, serverIndex int, serverSet string, oldUserShareIndex *int, target int) (curve.Scalar, error) {
	a, err := polynomial.LagrangeCoeff(group, selected, serverIndex, 0)
	if err != nil {
		return nil, fmt.Errorf("mockserver: lc_server (selected leg): %w", err)
	}
	c, err := polynomial.LagrangeCoeff(group, []int{0, 1}, 0, target)
	if err != nil {
		return nil, fmt.Errorf("mockserver: lc_server (target leg): %w", err)
	}
	result := a.Mul(c)

	if serverSet == "old" {
		b, err := polynomial.LagrangeCoeff(group, []int{1, *oldUserShareIndex}, 1, 0)
		if err != nil {
			return nil, fmt.Errorf("mockserver: lc_server (old-user leg): %w", err)
		}
		result = result.Mul(b)
	}
	return result, nil
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// hexPointToUncompressed decodes a HexPoint and re-encodes it as the 65-byte
// 0x04||x||y form ECIES expects.
func hexPointToUncompressed(group curve.Curve, h curve.HexPoint) ([]byte, error) {
	p, err := group.FromHexPoint(h)
	if err != nil {
		return nil, err
	}
	return secp256k1Uncompressed(p)
}
