// Package recover implements share recovery: reconstructing the user's
// refreshed TSS share from one factor-key-encrypted user share and a sparse
// set of factor-key-encrypted server shares, without ever touching the
// master secret.
package recover

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"

	"github.com/luxfi/rss-client/pkg/curve"
	"github.com/luxfi/rss-client/pkg/ecies"
	"github.com/luxfi/rss-client/pkg/polynomial"
)

// ErrDecrypt is returned when the user encryption, or every available
// server encryption, fails to decrypt.
var ErrDecrypt = errors.New("recover: decryption failed")

// userShareIndex mirrors pkg/rss.userShareIndex: the fixed, non-configurable
// index at which the user's share sits on the master polynomial.
const userShareIndex = 99

// Options are the recognized inputs to Recover.
type Options struct {
	KeyType    curve.Name
	FactorKey  curve.Scalar
	UserEnc    ecies.EncryptedMessage
	ServerEncs []*ecies.EncryptedMessage // length N, sparse; nil entries skipped
	// SelectedServers are the 1-based server indices whose entries in
	// ServerEncs should be consulted; length T.
	SelectedServers []int
}

// Recover reconstructs the refreshed TSS share for one target index:
// decrypt the user share, decrypt and Lagrange-combine the available
// server shares at x=1, then lift both to x=0 against the x=1/x=99
// pairing.
func Recover(opts Options) (curve.Scalar, error) {
	group, err := curve.ByName(opts.KeyType)
	if err != nil {
		return nil, fmt.Errorf("recover: %w", err)
	}

	factorKeyBytes := opts.FactorKey.Bytes()

	userPlain, err := ecies.Decrypt(factorKeyBytes, opts.UserEnc)
	if err != nil {
		return nil, fmt.Errorf("%w: user share: %v", ErrDecrypt, err)
	}
	u := group.NewScalar().SetNat(new(saferith.Nat).SetBytes(userPlain))

	serverRecon := group.NewScalar()
	decrypted, undecryptable := 0, 0
	for _, j := range opts.SelectedServers {
		if j < 1 || j > len(opts.ServerEncs) {
			return nil, fmt.Errorf("recover: selected server %d out of range for %d server encryptions", j, len(opts.ServerEncs))
		}
		enc := opts.ServerEncs[j-1]
		if enc == nil {
			continue
		}
		plain, err := ecies.Decrypt(factorKeyBytes, *enc)
		if err != nil {
			undecryptable++
			continue
		}
		decrypted++
		sj := group.NewScalar().SetNat(new(saferith.Nat).SetBytes(plain))

		coeff, err := polynomial.LagrangeCoeff(group, opts.SelectedServers, j, 0)
		if err != nil {
			return nil, fmt.Errorf("recover: server %d: %w", j, err)
		}
		serverRecon = serverRecon.Add(sj.Mul(coeff))
	}
	if decrypted == 0 && undecryptable > 0 {
		return nil, fmt.Errorf("%w: none of %d available server shares decrypted", ErrDecrypt, undecryptable)
	}

	lUser, err := polynomial.LagrangeCoeff(group, []int{1, userShareIndex}, userShareIndex, 0)
	if err != nil {
		return nil, fmt.Errorf("recover: user-leg Lagrange coefficient: %w", err)
	}
	lServer, err := polynomial.LagrangeCoeff(group, []int{1, userShareIndex}, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("recover: server-leg Lagrange coefficient: %w", err)
	}

	tssShare := u.Mul(lUser).Add(serverRecon.Mul(lServer))
	return tssShare, nil
}
