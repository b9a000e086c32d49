// Package witness assembles circuit assignments and ordered
// public-signal vectors from domain objects. All validation that would
// make a proof fail circuit constraints happens here, before any
// proving time is spent.
package witness

import (
	"errors"
)

var (
	// ErrMissingField marks an absent or zero-valued required input.
	ErrMissingField = errors.New("witness: missing field")
	// ErrValueRange marks an amount, fee or refund above the circuit's
	// declared bit width.
	ErrValueRange = errors.New("witness: value out of range")
	// ErrCommitmentMismatch marks a Merkle proof whose leaf is not the
	// commitment recomputed from the supplied secret and nullifier.
	// This is the check that stops a withdrawal being forged against
	// someone else's note.
	ErrCommitmentMismatch = errors.New("witness: commitment does not match merkle leaf")
	// ErrPathMismatch marks a Merkle proof that does not replay to its
	// own root.
	ErrPathMismatch = errors.New("witness: merkle path does not reproduce root")
)
