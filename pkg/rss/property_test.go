package rss_test

import (
	"context"
	"crypto/rand"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/mockserver"
	"github.com/luxfi/rss-client/pkg/polynomial"
	recoverpkg "github.com/luxfi/rss-client/pkg/recover"
	"github.com/luxfi/rss-client/pkg/rss"
)

// importFixture wires a committee, a zero-companion import scenario
// (dkgNewPub at the identity, the new-generation server polynomial sharing
// zero), and the client, the same shape TestImportRoundTrip verifies by
// hand. Ginkgo specs reuse it to probe failure modes around the happy path.
type importFixture struct {
	group      curve.Curve
	servers    []*mockserver.Server
	endpoints  []rss.Endpoint
	pubkeys    []curve.Point
	selected   []int
	importKey  curve.Scalar
	tssPubKey  curve.Point
	factorPriv curve.Scalar
	client     *rss.Client
}

func newImportFixture(n, threshold int) *importFixture {
	group, err := curve.ByName(curve.Secp256k1)
	Expect(err).NotTo(HaveOccurred())

	servers := make([]*mockserver.Server, n)
	endpoints := make([]rss.Endpoint, n)
	pubkeys := make([]curve.Point, n)
	for i := 0; i < n; i++ {
		s, err := mockserver.NewServer(i+1, curve.Secp256k1)
		Expect(err).NotTo(HaveOccurred())
		servers[i] = s
		endpoints[i] = s
		pubkeys[i] = s.PublicKey()
	}

	selected := make([]int, threshold)
	for i := range selected {
		selected[i] = i + 1
	}

	zero := group.NewScalar()
	sharingPoly, err := polynomial.New(group, threshold-1, zero, rand.Reader)
	Expect(err).NotTo(HaveOccurred())
	for _, j := range selected {
		servers[j-1].SetTSSShare("prop-gen", sharingPoly.EvaluateInt(uint64(j)))
	}

	importKey, err := group.RandomScalar(rand.Reader)
	Expect(err).NotTo(HaveOccurred())
	tssPubKey := importKey.ActOnBase()

	factorPriv, err := curve.Secp256k1Curve{}.RandomScalar(rand.Reader)
	Expect(err).NotTo(HaveOccurred())

	client, err := rss.NewClient(rss.Config{
		TSSPubKey:       tssPubKey,
		ServerEndpoints: endpoints,
		ServerPubKeys:   pubkeys,
		ServerThreshold: threshold,
		KeyType:         curve.Secp256k1,
	})
	Expect(err).NotTo(HaveOccurred())

	return &importFixture{
		group: group, servers: servers, endpoints: endpoints, pubkeys: pubkeys,
		selected: selected, importKey: importKey, tssPubKey: tssPubKey,
		factorPriv: factorPriv, client: client,
	}
}

func (f *importFixture) importOne(target int) (rss.RefreshResponse, error) {
	responses, err := f.client.Import(context.Background(), rss.ImportOptions{
		Label:           "prop-gen",
		DkgNewPub:       f.group.NewPoint(),
		ImportKey:       f.importKey,
		TargetIndexes:   []int{target},
		SelectedServers: f.selected,
		FactorPubs:      []curve.Point{f.factorPriv.ActOnBase()},
	})
	if err != nil {
		return rss.RefreshResponse{}, err
	}
	return responses[0], nil
}

var _ = Describe("RSS protocol properties", func() {
	Describe("import round trip", func() {
		It("recovers exactly the imported secret for every valid target", func() {
			f := newImportFixture(5, 3)
			for _, target := range []int{2, 3} {
				resp, err := f.importOne(target)
				Expect(err).NotTo(HaveOccurred())

				recovered, err := recoverpkg.Recover(recoverpkg.Options{
					KeyType:         curve.Secp256k1,
					FactorKey:       f.factorPriv,
					UserEnc:         resp.UserFactorEnc,
					ServerEncs:      resp.ServerFactorEncs,
					SelectedServers: f.selected,
				})
				Expect(err).NotTo(HaveOccurred())

				// dkgNewPub is the identity, so the imported key is the
				// recovered share lifted by Lagrange([1,t],t,0) alone.
				eta2, err := polynomial.LagrangeCoeff(f.group, []int{1, target}, target, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(recovered.Mul(eta2).Equal(f.importKey)).To(BeTrue())
			}
		})
	})

	// Round 2 fans out to every configured server, not just the selected
	// co-dealers, so the availability floor is about how many of the N
	// servers answer at all, not which T were selected for Round 1.
	Describe("availability floor", func() {
		It("succeeds when exactly the threshold number of servers respond", func() {
			f := newImportFixture(5, 3)
			f.endpoints[3] = failingEndpoint{}
			f.endpoints[4] = failingEndpoint{}

			client, err := rss.NewClient(rss.Config{
				TSSPubKey:       f.tssPubKey,
				ServerEndpoints: f.endpoints,
				ServerPubKeys:   f.pubkeys,
				ServerThreshold: 3,
				KeyType:         curve.Secp256k1,
			})
			Expect(err).NotTo(HaveOccurred())
			f.client = client

			resp, err := f.importOne(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ServerFactorEncs[3]).To(BeNil())
			Expect(resp.ServerFactorEncs[4]).To(BeNil())
			Expect(resp.ServerFactorEncs[0]).NotTo(BeNil())
		})

		It("fails with an insufficient-responses error when one fewer than the threshold responds", func() {
			f := newImportFixture(5, 3)
			// Selected server 3 must still answer Round 1, which aborts the
			// whole call on any failure.
			f.endpoints[2] = round2FailingEndpoint{inner: f.endpoints[2]}
			f.endpoints[3] = failingEndpoint{}
			f.endpoints[4] = failingEndpoint{}

			client, err := rss.NewClient(rss.Config{
				TSSPubKey:       f.tssPubKey,
				ServerEndpoints: f.endpoints,
				ServerPubKeys:   f.pubkeys,
				ServerThreshold: 3,
				KeyType:         curve.Secp256k1,
			})
			Expect(err).NotTo(HaveOccurred())
			f.client = client

			_, err = f.importOne(2)
			Expect(err).To(MatchError(rss.ErrInsufficientServerResponses))
		})
	})

	Describe("length contract", func() {
		It("rejects a factorPubs/targetIndexes length mismatch synchronously", func() {
			f := newImportFixture(5, 3)
			_, err := f.client.Import(context.Background(), rss.ImportOptions{
				Label:           "prop-gen",
				DkgNewPub:       f.group.NewPoint(),
				ImportKey:       f.importKey,
				TargetIndexes:   []int{2, 3},
				SelectedServers: f.selected,
				FactorPubs:      []curve.Point{f.factorPriv.ActOnBase()},
			})
			Expect(errors.Is(err, rss.ErrLengthMismatch)).To(BeTrue())
		})
	})

	Describe("input validation", func() {
		It("rejects a target index outside {2,3}", func() {
			f := newImportFixture(5, 3)
			_, err := f.client.Import(context.Background(), rss.ImportOptions{
				Label:           "prop-gen",
				DkgNewPub:       f.group.NewPoint(),
				ImportKey:       f.importKey,
				TargetIndexes:   []int{4},
				SelectedServers: f.selected,
				FactorPubs:      []curve.Point{f.factorPriv.ActOnBase()},
			})
			Expect(err).To(MatchError(rss.ErrInvalidInput))
		})

		It("rejects a selected-server set of the wrong length", func() {
			f := newImportFixture(5, 3)
			_, err := f.client.Import(context.Background(), rss.ImportOptions{
				Label:           "prop-gen",
				DkgNewPub:       f.group.NewPoint(),
				ImportKey:       f.importKey,
				TargetIndexes:   []int{2},
				SelectedServers: []int{1, 2},
				FactorPubs:      []curve.Point{f.factorPriv.ActOnBase()},
			})
			Expect(err).To(MatchError(rss.ErrInvalidInput))
		})
	})
})
