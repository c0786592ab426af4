// Package rss implements the RSS client engine: driving Round 1 and Round 2
// of the Refresh Secret Sharing protocol against a committee of storage
// servers, acting as the client's own co-dealer, verifying every server
// response, and producing factor-encrypted output shares.
package rss

import (
	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/ecies"
)

// ServersInfo describes the server committee participating in one round.
type ServersInfo struct {
	Pubkeys   []curve.HexPoint `json:"pubkeys"`
	Threshold int              `json:"threshold"`
	Selected  []int            `json:"selected"`
}

// Auth carries the pass-through session authentication: a label and its
// signatures. Verification of sigs against label is an explicit open hook
// left to the server side — the client only forwards it.
type Auth struct {
	Label string   `json:"label"`
	Sigs  []string `json:"sigs"`
}

// Round1Request is the body of POST {server}/rss_round_1.
type Round1Request struct {
	RoundName         string          `json:"round_name"`
	ServerSet         string          `json:"server_set"` // "old" | "new"
	ServerIndex       int             `json:"server_index"`
	OldServersInfo    *ServersInfo    `json:"old_servers_info,omitempty"`
	NewServersInfo    ServersInfo     `json:"new_servers_info"`
	OldUserShareIndex *int            `json:"old_user_share_index,omitempty"`
	UserTempPubkey    curve.HexPoint  `json:"user_temp_pubkey"`
	TargetIndex       []int           `json:"target_index"`
	Auth              Auth            `json:"auth"`
	KeyType           curve.Name      `json:"key_type"`
}

// TargetEncryptions is the encrypted payload a co-dealer contributes for one
// target index: the user's own share, and one column per server.
type TargetEncryptions struct {
	UserEnc    ecies.EncryptedMessage   `json:"user_enc"`
	ServerEncs []ecies.EncryptedMessage `json:"server_encs"`
}

// Round1ResponseData is one co-dealer's contribution for one target index.
type Round1ResponseData struct {
	MasterPolyCommits []curve.HexPoint  `json:"master_poly_commits"`
	ServerPolyCommits []curve.HexPoint  `json:"server_poly_commits"`
	TargetEncryptions TargetEncryptions `json:"target_encryptions"`
}

// Round1Response is the body returned by POST {server}/rss_round_1.
type Round1Response struct {
	TargetIndex []int                 `json:"target_index"`
	Data        []Round1ResponseData  `json:"data"`
}

// Round2RequestData is the aggregated, per-target payload sent to one
// server in Round 2.
type Round2RequestData struct {
	MasterCommits []curve.HexPoint         `json:"master_commits"`
	ServerCommits []curve.HexPoint         `json:"server_commits"`
	ServerEncs    []ecies.EncryptedMessage `json:"server_encs"`
	FactorPubkeys []curve.HexPoint         `json:"factor_pubkeys"`
}

// Round2Request is the body of POST {server}/rss_round_2.
type Round2Request struct {
	RoundName   string              `json:"round_name"`
	ServerIndex int                 `json:"server_index"`
	TargetIndex []int               `json:"target_index"`
	Data        []Round2RequestData `json:"data"`
	KeyType     curve.Name          `json:"key_type"`
}

// Round2ResponseDatum is one server's per-target factor re-encryptions.
type Round2ResponseDatum struct {
	Encs []ecies.EncryptedMessage `json:"encs"`
}

// Round2Response is the body returned by POST {server}/rss_round_2.
type Round2Response struct {
	TargetIndex []int                 `json:"target_index"`
	Data        []Round2ResponseDatum `json:"data"`
}

// RefreshResponse is one client-output record per requested target index.
type RefreshResponse struct {
	TargetIndex int
	FactorPub   curve.HexPoint

	// ServerFactorEncs is N-wide and index-preserved: entry j is nil if
	// server j+1 did not respond to Round 2.
	ServerFactorEncs []*ecies.EncryptedMessage
	UserFactorEnc    ecies.EncryptedMessage
}
