package commitment

import "errors"

// ErrInvalidCommitShape is returned when a co-dealer's commitment vectors
// don't have the expected length: 2 master-polynomial commitments, T
// server-polynomial commitments.
var ErrInvalidCommitShape = errors.New("commitment: invalid commitment vector shape")

// ErrTSSPubKeyMismatch is returned when the aggregated master commitments
// fail to reconstruct the known TSS public key.
var ErrTSSPubKeyMismatch = errors.New("commitment: aggregated commitments do not reconstruct tss public key")

// ErrServerMasterCommitMismatch is returned when the aggregated master and
// server commitments fail the binding identity mc[0]+mc[1] == sc[0].
var ErrServerMasterCommitMismatch = errors.New("commitment: server commitment inconsistent with master commitment")
