package rss

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/rss-client/pkg/curve"
)

// round1Call pairs the server index to dial with the request body to send.
type round1Call struct {
	serverIndex int // 1-based
	req         Round1Request
}

// issueRound1 dispatches every call in parallel and returns their responses
// in the same order. Round 1 is fail-fast: a single failed request aborts
// the whole call, since every co-dealer response is an unconditional
// summand in the aggregated sharing.
func (c *Client) issueRound1(ctx context.Context, calls []round1Call) ([]Round1Response, error) {
	responses := make([]Round1Response, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			raw, err := c.cfg.ServerEndpoints[call.serverIndex-1].Post(gctx, "/rss_round_1", call.req)
			if err != nil {
				return fmt.Errorf("rss: round 1 (%s set) server %d: %w", call.req.ServerSet, call.serverIndex, err)
			}
			var resp Round1Response
			if err := unmarshalJSON(raw, &resp); err != nil {
				return fmt.Errorf("rss: round 1 (%s set) server %d: decoding response: %w", call.req.ServerSet, call.serverIndex, err)
			}
			responses[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// buildRound1Calls constructs one Round1Call per selected server for one
// server_set label.
func buildRound1Calls(
	serverSet, label string,
	selected []int,
	oldServersInfo *ServersInfo,
	newServersInfo ServersInfo,
	oldUserShareIndex *int,
	tempPub curve.HexPoint,
	targets []int,
	sigs []string,
	keyType curve.Name,
) []round1Call {
	calls := make([]round1Call, len(selected))
	for i, idx := range selected {
		calls[i] = round1Call{
			serverIndex: idx,
			req: Round1Request{
				RoundName:         "rss_round_1",
				ServerSet:         serverSet,
				ServerIndex:       idx,
				OldServersInfo:    oldServersInfo,
				NewServersInfo:    newServersInfo,
				OldUserShareIndex: oldUserShareIndex,
				UserTempPubkey:    tempPub,
				TargetIndex:       targets,
				Auth:              Auth{Label: label, Sigs: sigs},
				KeyType:           keyType,
			},
		}
	}
	return calls
}
