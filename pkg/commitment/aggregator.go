// Package commitment implements the Feldman commitment aggregator: summing
// polynomial commitment vectors across a co-dealer set and checking
// the algebraic invariants that bind the refreshed sharing to the publicly
// known TSS public key.
package commitment

import (
	"fmt"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/polynomial"
)

// PerTarget holds one co-dealer's commitment vectors for a single target
// index, the decoded form of RSSRound1ResponseData.{master,server}_poly_commits.
type PerTarget struct {
	MasterCommits []curve.Point // length must be 2
	ServerCommits []curve.Point // length must equal the server threshold T
}

// Aggregated holds the summed commitment vectors for one target index,
// referred to below as mc[] and sc[].
type Aggregated struct {
	MasterCommits []curve.Point // mc[0], mc[1]
	ServerCommits []curve.Point // sc[0..T-1]
}

// Aggregate sums the commitment vectors contributed by every co-dealer
// response for one target index, validating vector shape first.
func Aggregate(group curve.Curve, threshold int, responses []PerTarget) (*Aggregated, error) {
	mc := make([]curve.Point, 2)
	mc[0], mc[1] = group.NewPoint(), group.NewPoint()
	sc := make([]curve.Point, threshold)
	for i := range sc {
		sc[i] = group.NewPoint()
	}

	for _, r := range responses {
		if len(r.MasterCommits) != 2 {
			return nil, fmt.Errorf("%w: master commits: want 2, got %d", ErrInvalidCommitShape, len(r.MasterCommits))
		}
		if len(r.ServerCommits) != threshold {
			return nil, fmt.Errorf("%w: server commits: want %d, got %d", ErrInvalidCommitShape, threshold, len(r.ServerCommits))
		}
		mc[0] = mc[0].Add(r.MasterCommits[0])
		mc[1] = mc[1].Add(r.MasterCommits[1])
		for i, c := range r.ServerCommits {
			sc[i] = sc[i].Add(c)
		}
	}

	return &Aggregated{MasterCommits: mc, ServerCommits: sc}, nil
}

// VerifyTSSBinding checks eta1*dkgNewPub + eta2*mc[0] == tssPubKey, where
// eta1 = Lagrange([1,target],1,0) and eta2 = Lagrange([1,target],target,0).
func (a *Aggregated) VerifyTSSBinding(group curve.Curve, dkgNewPub, tssPubKey curve.Point, target int) error {
	eta1, err := polynomial.LagrangeCoeff(group, []int{1, target}, 1, 0)
	if err != nil {
		return fmt.Errorf("commitment: eta1: %w", err)
	}
	eta2, err := polynomial.LagrangeCoeff(group, []int{1, target}, target, 0)
	if err != nil {
		return fmt.Errorf("commitment: eta2: %w", err)
	}

	reconstructed := eta1.Act(dkgNewPub).Add(eta2.Act(a.MasterCommits[0]))
	if !reconstructed.Equal(tssPubKey) {
		return fmt.Errorf("%w: target index %d", ErrTSSPubKeyMismatch, target)
	}
	return nil
}

// VerifyServerMasterConsistency checks mc[0]+mc[1] == sc[0]: the server
// sharing evaluates at x=1 to the master sharing's value at x=1.
func (a *Aggregated) VerifyServerMasterConsistency() error {
	lhs := a.MasterCommits[0].Add(a.MasterCommits[1])
	if len(a.ServerCommits) == 0 {
		return fmt.Errorf("%w: empty server commitment vector", ErrInvalidCommitShape)
	}
	if !lhs.Equal(a.ServerCommits[0]) {
		return ErrServerMasterCommitMismatch
	}
	return nil
}
