package rss

import (
	"context"
	"fmt"
	"sync"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/ecies"
)

// transposeServerEncs builds, for each target index and each server index j
// (0-based), the ordered list of server_encs contributed by every co-dealer:
// every fetched Round1Response in order, then the client's own locally
// generated contribution last. The resulting column has length 2T+1 for
// refresh or T+1 for import.
func transposeServerEncs(
	targets []int,
	fetched []Round1Response,
	clientContribs map[int]clientDealerContribution,
	numServers int,
) (map[int][][]ecies.EncryptedMessage, error) {
	out := make(map[int][][]ecies.EncryptedMessage, len(targets))

	for ti, t := range targets {
		perServer := make([][]ecies.EncryptedMessage, numServers)
		for j := 0; j < numServers; j++ {
			column := make([]ecies.EncryptedMessage, 0, len(fetched)+1)
			for _, resp := range fetched {
				if ti >= len(resp.Data) {
					return nil, fmt.Errorf("%w: server response missing target %d", ErrInvalidInput, t)
				}
				encs := resp.Data[ti].TargetEncryptions.ServerEncs
				if j >= len(encs) {
					return nil, fmt.Errorf("%w: server_encs too short for server %d", ErrInvalidInput, j+1)
				}
				column = append(column, encs[j])
			}
			clientEncs := clientContribs[t].data.TargetEncryptions.ServerEncs
			if j >= len(clientEncs) {
				return nil, fmt.Errorf("%w: client server_encs too short for server %d", ErrInvalidInput, j+1)
			}
			column = append(column, clientEncs[j])
			perServer[j] = column
		}
		out[t] = perServer
	}

	return out, nil
}

// issueRound2 sends one Round2Request per server (all N, not just the
// selected set) in parallel, tolerating individual failures: a failed
// server's slot is left nil in every target's ServerFactorEncs rather than
// aborting the call.
func (c *Client) issueRound2(
	ctx context.Context,
	targets []int,
	aggregated map[int]*aggregatedTarget,
	columns map[int][][]ecies.EncryptedMessage,
	factorPubs []curve.HexPoint,
) ([][]*ecies.EncryptedMessage, error) {
	// serverResults[j][ti] holds server j+1's factor encryption for target
	// targets[ti], nil if that server failed.
	serverResults := make([][]*ecies.EncryptedMessage, c.numServers())
	for j := range serverResults {
		serverResults[j] = make([]*ecies.EncryptedMessage, len(targets))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for j := 0; j < c.numServers(); j++ {
		j := j
		wg.Add(1)
		go func() {
			defer wg.Done()

			data := make([]Round2RequestData, len(targets))
			for ti, t := range targets {
				agg := aggregated[t]
				data[ti] = Round2RequestData{
					MasterCommits: hexPoints(c.group, agg.commits.MasterCommits),
					ServerCommits: hexPoints(c.group, agg.commits.ServerCommits),
					ServerEncs:    columns[t][j],
					FactorPubkeys: []curve.HexPoint{factorPubs[ti]},
				}
			}
			req := Round2Request{
				RoundName:   "rss_round_2",
				ServerIndex: j + 1,
				TargetIndex: targets,
				Data:        data,
				KeyType:     c.cfg.KeyType,
			}

			raw, err := c.cfg.ServerEndpoints[j].Post(ctx, "/rss_round_2", req)
			if err != nil {
				return
			}
			var resp Round2Response
			if err := unmarshalJSON(raw, &resp); err != nil {
				return
			}
			if len(resp.Data) != len(targets) {
				return
			}

			for ti := range targets {
				if len(resp.Data[ti].Encs) == 0 {
					return
				}
			}

			mu.Lock()
			defer mu.Unlock()
			for ti := range targets {
				enc := resp.Data[ti].Encs[0]
				serverResults[j][ti] = &enc
			}
			succeeded++
		}()
	}
	wg.Wait()

	if succeeded < c.cfg.ServerThreshold {
		return nil, fmt.Errorf("%w: %d of %d servers responded, need %d", ErrInsufficientServerResponses, succeeded, c.numServers(), c.cfg.ServerThreshold)
	}
	return serverResults, nil
}
