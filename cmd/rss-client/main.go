// Command rss-client drives the RSS protocol from the command line:
// refresh an existing sharing, import a fresh secret into the committee, or
// recover a factor-encrypted share locally, plus a self-contained demo
// that exercises the whole protocol against an in-process mock committee.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strings"

	"github.com/cronokirby/saferith"
	"github.com/spf13/cobra"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/mockserver"
	"github.com/luxfi/rss-client/pkg/polynomial"
	recoverpkg "github.com/luxfi/rss-client/pkg/recover"
	"github.com/luxfi/rss-client/pkg/rss"
)

var (
	// Global flags
	keyType   string
	outputFile string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "rss-client",
		Short: "CLI tool for the Refresh Secret Sharing protocol",
		Long:  `Drives refresh, import, and recovery of hierarchically-shared TSS wallet keys.`,
	}

	refreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "Refresh an existing hierarchical sharing",
		Long:  `Runs the refresh variant of RSS against a committee config file, producing factor-encrypted output shares per target index.`,
		RunE:  runRefresh,
	}

	importCmd = &cobra.Command{
		Use:   "import",
		Short: "Import a freshly generated secret into the committee",
		Long:  `Runs the import variant of RSS: the client supplies a new secret instead of an existing share.`,
		RunE:  runImport,
	}

	recoverCmd = &cobra.Command{
		Use:   "recover",
		Short: "Recover a TSS share from factor-encrypted output",
		Long:  `Decrypts and Lagrange-reconstructs a refresh or import response's factor-encrypted shares into the underlying TSS share.`,
		RunE:  runRecover,
	}

	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Run an end-to-end import against an in-process mock committee",
		Long:  `Spins up a mock committee, imports a freshly generated secret, recovers it back, and reports whether the round trip succeeded. Useful for smoke-testing a build without standing up real servers.`,
		RunE:  runDemo,
	}

	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Display protocol information",
		RunE:  runInfo,
	}

	mockServerCmd = &cobra.Command{
		Use:   "mock-server",
		Short: "Serve one mock committee member over HTTP",
		Long:  `Stands up a single pkg/mockserver.Server behind a real net/http listener, for exercising the refresh/import/recover commands against a standalone process instead of an in-process committee.`,
		RunE:  runMockServer,
	}
)

// committeeConfig is the on-disk shape describing a server committee: one
// base URL and ECIES public key per server.
type committeeConfig struct {
	TSSPubKey       curve.HexPoint   `json:"tss_pub_key"`
	ServerURLs      []string         `json:"server_urls"`
	ServerPubKeys   []curve.HexPoint `json:"server_pub_keys"`
	ServerThreshold int              `json:"server_threshold"`
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&keyType, "key-type", "k", "secp256k1", "TSS curve: secp256k1, ed25519")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	refreshCmd.Flags().String("config", "", "Committee config file (required)")
	refreshCmd.Flags().String("old-label", "", "Old committee generation label (required)")
	refreshCmd.Flags().String("new-label", "", "New committee generation label (required)")
	refreshCmd.Flags().String("dkg-pub", "", "Hex-encoded companion public point, 0x04||x||y (required)")
	refreshCmd.Flags().String("input-share", "", "Hex-encoded current user share scalar (required)")
	refreshCmd.Flags().Int("input-index", 0, "Current user share index, 2 or 3 (required)")
	refreshCmd.Flags().IntSlice("targets", nil, "Target indices, subset of {2,3} (required)")
	refreshCmd.Flags().IntSlice("selected", nil, "Selected server indices, length T (required)")
	refreshCmd.Flags().StringSlice("factor-pubs", nil, "Hex-encoded factor public points, one per target (required)")
	for _, name := range []string{"config", "old-label", "new-label", "dkg-pub", "input-share", "input-index", "targets", "selected", "factor-pubs"} {
		refreshCmd.MarkFlagRequired(name)
	}

	importCmd.Flags().String("config", "", "Committee config file (required)")
	importCmd.Flags().String("label", "", "Committee generation label (required)")
	importCmd.Flags().String("dkg-pub", "", "Hex-encoded companion public point, 0x04||x||y (optional, defaults to the identity for a fresh import)")
	importCmd.Flags().String("import-key", "", "Hex-encoded secret scalar to import (required)")
	importCmd.Flags().IntSlice("targets", nil, "Target indices, subset of {2,3} (required)")
	importCmd.Flags().IntSlice("selected", nil, "Selected server indices, length T (required)")
	importCmd.Flags().StringSlice("factor-pubs", nil, "Hex-encoded factor public points, one per target (required)")
	for _, name := range []string{"config", "label", "import-key", "targets", "selected", "factor-pubs"} {
		importCmd.MarkFlagRequired(name)
	}

	recoverCmd.Flags().String("response", "", "Refresh/import response JSON file for one target (required)")
	recoverCmd.Flags().String("factor-key", "", "Hex-encoded factor private scalar (required)")
	recoverCmd.Flags().IntSlice("selected", nil, "Selected server indices, length T (required)")
	for _, name := range []string{"response", "factor-key", "selected"} {
		recoverCmd.MarkFlagRequired(name)
	}

	demoCmd.Flags().Int("servers", 5, "Number of mock servers")
	demoCmd.Flags().Int("threshold", 3, "Server threshold")

	mockServerCmd.Flags().Int("index", 1, "This server's 1-based committee index")
	mockServerCmd.Flags().String("addr", ":8080", "Listen address")

	rootCmd.AddCommand(refreshCmd, importCmd, recoverCmd, demoCmd, infoCmd, mockServerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadCommittee(path string, group curve.Curve) (committeeConfig, *rss.Client, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return committeeConfig{}, nil, fmt.Errorf("reading committee config: %w", err)
	}
	var cfg committeeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return committeeConfig{}, nil, fmt.Errorf("decoding committee config: %w", err)
	}

	tssPubKey, err := group.FromHexPoint(cfg.TSSPubKey)
	if err != nil {
		return committeeConfig{}, nil, fmt.Errorf("decoding tss_pub_key: %w", err)
	}

	secp := curve.Secp256k1Curve{}
	endpoints := make([]rss.Endpoint, len(cfg.ServerURLs))
	pubkeys := make([]curve.Point, len(cfg.ServerPubKeys))
	for i, url := range cfg.ServerURLs {
		endpoints[i] = rss.NewHTTPEndpoint(url)
	}
	for i, hp := range cfg.ServerPubKeys {
		p, err := secp.FromHexPoint(hp)
		if err != nil {
			return committeeConfig{}, nil, fmt.Errorf("decoding server_pub_keys[%d]: %w", i, err)
		}
		pubkeys[i] = p
	}

	client, err := rss.NewClient(rss.Config{
		TSSPubKey:       tssPubKey,
		ServerEndpoints: endpoints,
		ServerPubKeys:   pubkeys,
		ServerThreshold: cfg.ServerThreshold,
		KeyType:         curve.Name(keyType),
	})
	if err != nil {
		return committeeConfig{}, nil, err
	}
	return cfg, client, nil
}

func parseHexScalar(group curve.Curve, s string) (curve.Scalar, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("malformed hex scalar: %w", err)
	}
	return group.NewScalar().SetNat(new(saferith.Nat).SetBytes(b)), nil
}

// parseHexPubkey decodes an uncompressed secp256k1 point, 0x04 || x(32) ||
// y(32), the same wire form the ECIES layer uses for factor and companion
// public keys.
func parseHexPubkey(s string) (curve.Point, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("malformed hex point: %w", err)
	}
	if len(b) != 65 || b[0] != 0x04 {
		return nil, fmt.Errorf("expected 65-byte uncompressed point (0x04||x||y), got %d bytes", len(b))
	}
	secp := curve.Secp256k1Curve{}
	hp := curve.HexPoint{}
	xs := hex.EncodeToString(b[1:33])
	ys := hex.EncodeToString(b[33:65])
	hp.X, hp.Y = &xs, &ys
	return secp.FromHexPoint(hp)
}

func writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	if outputFile == "" {
		fmt.Println(string(data))
		return nil
	}
	return ioutil.WriteFile(outputFile, data, 0644)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	group, err := curve.ByName(curve.Name(keyType))
	if err != nil {
		return err
	}

	configPath, _ := cmd.Flags().GetString("config")
	_, client, err := loadCommittee(configPath, group)
	if err != nil {
		return err
	}

	oldLabel, _ := cmd.Flags().GetString("old-label")
	newLabel, _ := cmd.Flags().GetString("new-label")
	dkgPubHex, _ := cmd.Flags().GetString("dkg-pub")
	inputShareHex, _ := cmd.Flags().GetString("input-share")
	inputIndex, _ := cmd.Flags().GetInt("input-index")
	targets, _ := cmd.Flags().GetIntSlice("targets")
	selected, _ := cmd.Flags().GetIntSlice("selected")
	factorPubHexes, _ := cmd.Flags().GetStringSlice("factor-pubs")

	dkgPub, err := parseHexPubkey(dkgPubHex)
	if err != nil {
		return fmt.Errorf("dkg-pub: %w", err)
	}
	inputShare, err := parseHexScalar(group, inputShareHex)
	if err != nil {
		return fmt.Errorf("input-share: %w", err)
	}
	factorPubs := make([]curve.Point, len(factorPubHexes))
	for i, h := range factorPubHexes {
		p, err := parseHexPubkey(h)
		if err != nil {
			return fmt.Errorf("factor-pubs[%d]: %w", i, err)
		}
		factorPubs[i] = p
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "refreshing %d target(s) against %d selected servers\n", len(targets), len(selected))
	}

	responses, err := client.Refresh(context.Background(), rss.RefreshOptions{
		OldLabel:        oldLabel,
		NewLabel:        newLabel,
		DkgNewPub:       dkgPub,
		InputShare:      inputShare,
		InputIndex:      inputIndex,
		TargetIndexes:   targets,
		SelectedServers: selected,
		FactorPubs:      factorPubs,
	})
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	return writeJSON(responses)
}

func runImport(cmd *cobra.Command, args []string) error {
	group, err := curve.ByName(curve.Name(keyType))
	if err != nil {
		return err
	}

	configPath, _ := cmd.Flags().GetString("config")
	_, client, err := loadCommittee(configPath, group)
	if err != nil {
		return err
	}

	label, _ := cmd.Flags().GetString("label")
	dkgPubHex, _ := cmd.Flags().GetString("dkg-pub")
	importKeyHex, _ := cmd.Flags().GetString("import-key")
	targets, _ := cmd.Flags().GetIntSlice("targets")
	selected, _ := cmd.Flags().GetIntSlice("selected")
	factorPubHexes, _ := cmd.Flags().GetStringSlice("factor-pubs")

	var dkgPub curve.Point = group.NewPoint()
	if dkgPubHex != "" {
		dkgPub, err = parseHexPubkey(dkgPubHex)
		if err != nil {
			return fmt.Errorf("dkg-pub: %w", err)
		}
	}
	importKey, err := parseHexScalar(group, importKeyHex)
	if err != nil {
		return fmt.Errorf("import-key: %w", err)
	}
	factorPubs := make([]curve.Point, len(factorPubHexes))
	for i, h := range factorPubHexes {
		p, err := parseHexPubkey(h)
		if err != nil {
			return fmt.Errorf("factor-pubs[%d]: %w", i, err)
		}
		factorPubs[i] = p
	}

	responses, err := client.Import(context.Background(), rss.ImportOptions{
		Label:           label,
		DkgNewPub:       dkgPub,
		ImportKey:       importKey,
		TargetIndexes:   targets,
		SelectedServers: selected,
		FactorPubs:      factorPubs,
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return writeJSON(responses)
}

func runRecover(cmd *cobra.Command, args []string) error {
	if _, err := curve.ByName(curve.Name(keyType)); err != nil {
		return err
	}

	respPath, _ := cmd.Flags().GetString("response")
	factorKeyHex, _ := cmd.Flags().GetString("factor-key")
	selected, _ := cmd.Flags().GetIntSlice("selected")

	data, err := ioutil.ReadFile(respPath)
	if err != nil {
		return fmt.Errorf("reading response file: %w", err)
	}
	var resp rss.RefreshResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decoding response file: %w", err)
	}

	factorKey, err := parseHexScalar(curve.Secp256k1Curve{}, factorKeyHex)
	if err != nil {
		return fmt.Errorf("factor-key: %w", err)
	}

	share, err := recoverpkg.Recover(recoverpkg.Options{
		KeyType:         curve.Name(keyType),
		FactorKey:       factorKey,
		UserEnc:         resp.UserFactorEnc,
		ServerEncs:      resp.ServerFactorEncs,
		SelectedServers: selected,
	})
	if err != nil {
		return fmt.Errorf("recover failed: %w", err)
	}

	return writeJSON(struct {
		TSSShare string `json:"tss_share"`
	}{TSSShare: hex.EncodeToString(share.Bytes())})
}

// runDemo wires an in-process mock committee the same way pkg/rss's
// integration tests do, imports a fresh secret, and recovers it back,
// printing whether the round trip held.
func runDemo(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("servers")
	threshold, _ := cmd.Flags().GetInt("threshold")

	group, err := curve.ByName(curve.Name(keyType))
	if err != nil {
		return err
	}

	servers := make([]*mockserver.Server, n)
	endpoints := make([]rss.Endpoint, n)
	pubkeys := make([]curve.Point, n)
	for i := 0; i < n; i++ {
		s, err := mockserver.NewServer(i+1, curve.Name(keyType))
		if err != nil {
			return fmt.Errorf("constructing mock server %d: %w", i+1, err)
		}
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
	if err != nil {
		return err
	}
	for _, j := range selected {
		servers[j-1].SetTSSShare("demo-gen", sharingPoly.EvaluateInt(uint64(j)))
	}

	importKey, err := group.RandomScalar(rand.Reader)
	if err != nil {
		return err
	}
	tssPubKey := importKey.ActOnBase()

	factorPriv, err := curve.Secp256k1Curve{}.RandomScalar(rand.Reader)
	if err != nil {
		return err
	}

	client, err := rss.NewClient(rss.Config{
		TSSPubKey:       tssPubKey,
		ServerEndpoints: endpoints,
		ServerPubKeys:   pubkeys,
		ServerThreshold: threshold,
		KeyType:         curve.Name(keyType),
	})
	if err != nil {
		return err
	}

	responses, err := client.Import(context.Background(), rss.ImportOptions{
		Label:           "demo-gen",
		DkgNewPub:       group.NewPoint(),
		ImportKey:       importKey,
		TargetIndexes:   []int{2},
		SelectedServers: selected,
		FactorPubs:      []curve.Point{factorPriv.ActOnBase()},
	})
	if err != nil {
		return fmt.Errorf("demo import failed: %w", err)
	}

	recovered, err := recoverpkg.Recover(recoverpkg.Options{
		KeyType:         curve.Name(keyType),
		FactorKey:       factorPriv,
		UserEnc:         responses[0].UserFactorEnc,
		ServerEncs:      responses[0].ServerFactorEncs,
		SelectedServers: selected,
	})
	if err != nil {
		return fmt.Errorf("demo recover failed: %w", err)
	}

	// With no companion share (dkgNewPub is the identity), the imported key
	// is the recovered target-2 share lifted by Lagrange([1,2],2,0).
	eta2, err := polynomial.LagrangeCoeff(group, []int{1, 2}, 2, 0)
	if err != nil {
		return err
	}
	ok := recovered.Mul(eta2).Equal(importKey)
	fmt.Printf("committee: %d servers, threshold %d, curve %s\n", n, threshold, keyType)
	fmt.Printf("round trip: %v\n", ok)
	if !ok {
		return fmt.Errorf("demo round trip mismatch")
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	fmt.Println("rss-client: Refresh Secret Sharing protocol client")
	fmt.Println()
	fmt.Println("Operations:")
	fmt.Println("  refresh      - re-randomize an existing hierarchical sharing")
	fmt.Println("  import       - bring an externally generated secret into the committee")
	fmt.Println("  recover      - reconstruct a TSS share from factor-encrypted output")
	fmt.Println("  demo         - round-trip an import against an in-process mock committee")
	fmt.Println("  mock-server  - serve one mock committee member over HTTP")
	fmt.Println()
	fmt.Println("Curves: secp256k1, ed25519 (ECIES always uses secp256k1)")
	return nil
}

// runMockServer stands up a single mockserver.Server behind net/http,
// translating each request's path and body straight into the server's
// Get/Post trait methods so the HTTP and in-process codepaths share
// identical protocol semantics.
func runMockServer(cmd *cobra.Command, args []string) error {
	index, _ := cmd.Flags().GetInt("index")
	addr, _ := cmd.Flags().GetString("addr")

	s, err := mockserver.NewServer(index, curve.Name(keyType))
	if err != nil {
		return fmt.Errorf("constructing mock server: %w", err)
	}

	fmt.Fprintf(os.Stderr, "mock-server: index=%d curve=%s listening on %s\n", index, keyType, addr)
	return http.ListenAndServe(addr, mockServerHandler(s))
}

// mockServerHandler adapts a mockserver.Server's Get/Post trait methods to
// net/http: GET requests carry no body, POST bodies are passed through
// untouched as a json.RawMessage so Server.Post's own json.Marshal round
// trip reproduces exactly what a real wire client would send.
func mockServerHandler(s *mockserver.Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var (
			raw []byte
			err error
		)
		switch r.Method {
		case http.MethodGet:
			raw, err = s.Get(r.Context(), r.URL.Path)
		case http.MethodPost:
			body, readErr := io.ReadAll(r.Body)
			if readErr != nil {
				http.Error(w, readErr.Error(), http.StatusBadRequest)
				return
			}
			raw, err = s.Post(r.Context(), r.URL.Path, json.RawMessage(body))
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
	})
	return mux
}
