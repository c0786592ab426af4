package commitment_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/rss-client/pkg/commitment"
	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/polynomial"
)

// buildValidScenario constructs a minimal but algebraically valid
// single-dealer aggregation for target index t, yielding a consistent
// (mc, sc, tssPubKey) triple.
func buildValidScenario(t *testing.T, group curve.Curve, target int) (*commitment.Aggregated, curve.Point, curve.Point) {
	threshold := 2

	dkgNewPriv, err := group.RandomScalar(rand.Reader)
	require.NoError(t, err)
	dkgNewPub := dkgNewPriv.ActOnBase()

	eta1, err := polynomial.LagrangeCoeff(group, []int{1, target}, 1, 0)
	require.NoError(t, err)
	eta2, err := polynomial.LagrangeCoeff(group, []int{1, target}, target, 0)
	require.NoError(t, err)

	mc0, err := group.RandomScalar(rand.Reader)
	require.NoError(t, err)
	// tssPubKey is whatever eta1*dkgNewPriv + eta2*mc0 reconstructs to.
	tssPriv := eta1.Mul(dkgNewPriv).Add(eta2.Mul(mc0))
	tssPubKey := tssPriv.ActOnBase()

	mc1, err := group.RandomScalar(rand.Reader)
	require.NoError(t, err)

	sPoly := &polynomial.Polynomial{Group: group, Coefficients: []curve.Scalar{mc0.Add(mc1)}}
	for i := 1; i < threshold; i++ {
		extra, err := group.RandomScalar(rand.Reader)
		require.NoError(t, err)
		sPoly.Coefficients = append(sPoly.Coefficients, extra)
	}

	perTarget := []commitment.PerTarget{
		{
			MasterCommits: []curve.Point{mc0.ActOnBase(), mc1.ActOnBase()},
			ServerCommits: sPoly.Commitments(),
		},
	}

	agg, err := commitment.Aggregate(group, threshold, perTarget)
	require.NoError(t, err)
	return agg, dkgNewPub, tssPubKey
}

func TestAggregateValidScenario(t *testing.T) {
	group := curve.Secp256k1Curve{}
	agg, dkgNewPub, tssPubKey := buildValidScenario(t, group, 2)

	require.NoError(t, agg.VerifyTSSBinding(group, dkgNewPub, tssPubKey, 2))
	require.NoError(t, agg.VerifyServerMasterConsistency())
}

func TestAggregateInvalidShape(t *testing.T) {
	group := curve.Secp256k1Curve{}
	_, err := commitment.Aggregate(group, 2, []commitment.PerTarget{
		{MasterCommits: []curve.Point{group.NewPoint()}, ServerCommits: []curve.Point{group.NewPoint(), group.NewPoint()}},
	})
	assert.ErrorIs(t, err, commitment.ErrInvalidCommitShape)
}

func TestAggregateTamperedMasterCommitFailsBinding(t *testing.T) {
	group := curve.Secp256k1Curve{}
	agg, dkgNewPub, tssPubKey := buildValidScenario(t, group, 2)

	// flip the first master commitment: simulates a single tampered byte in
	// a server's Round-1 response.
	agg.MasterCommits[0] = agg.MasterCommits[0].Add(group.BasePoint())

	err := agg.VerifyTSSBinding(group, dkgNewPub, tssPubKey, 2)
	assert.ErrorIs(t, err, commitment.ErrTSSPubKeyMismatch)
}

func TestAggregateTamperedServerCommitFailsConsistency(t *testing.T) {
	group := curve.Secp256k1Curve{}
	agg, _, _ := buildValidScenario(t, group, 3)

	agg.ServerCommits[0] = agg.ServerCommits[0].Add(group.BasePoint())

	err := agg.VerifyServerMasterConsistency()
	assert.ErrorIs(t, err, commitment.ErrServerMasterCommitMismatch)
}
