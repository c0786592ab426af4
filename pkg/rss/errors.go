package rss

import "errors"

// Error taxonomy. These are abstract kinds; each is a sentinel wrapped with
// call-specific context via fmt.Errorf("...: %w", ...).
var (
	// ErrLengthMismatch covers caller-supplied inconsistent lengths, e.g.
	// len(FactorPubs) != len(TargetIndexes).
	ErrLengthMismatch = errors.New("rss: length mismatch")

	// ErrInvalidInput covers bad indices or an unknown key type supplied by
	// the caller.
	ErrInvalidInput = errors.New("rss: invalid input")

	// ErrInvalidCommitShape covers a server response with wrong-length or
	// undecodable commitment vectors. It is a separate sentinel from
	// pkg/commitment.ErrInvalidCommitShape, whose error text the client
	// includes in the message without wrapping it.
	ErrInvalidCommitShape = errors.New("rss: invalid commitment shape")

	// ErrCommitConsistency covers either algebraic identity violation
	// aggregated commitments must satisfy (TSS pubkey binding, or
	// server/master binding).
	ErrCommitConsistency = errors.New("rss: aggregated commitments fail consistency check")

	// ErrShareConsistency covers a decrypted user-share sum failing
	// G*userShare == mc[0] + 99*mc[1].
	ErrShareConsistency = errors.New("rss: user share fails consistency check")

	// ErrDecrypt covers an ECIES MAC or parse failure on a ciphertext the
	// client must read (its own user_enc slots).
	ErrDecrypt = errors.New("rss: decryption failed")

	// ErrInsufficientServerResponses covers fewer than T usable Round 2
	// responses.
	ErrInsufficientServerResponses = errors.New("rss: insufficient server responses")

	// ErrTransport carries an opaque transport-layer failure, for
	// diagnostic logging only.
	ErrTransport = errors.New("rss: transport error")
)
