package prooferrors

import (
	"errors"
	"fmt"
)

// Proof construction (P) errors. Every pipeline stage surfaces one of these
// to the assembler caller; no stage downgrades a failure into a partial bundle.
var (
	ErrStateRootNotFound = errors.New("P1|StateRootNotFound: no committed state batch with at least one state root. Retry after the next batch submission, not immediately.")

	ErrEmptySlotUnsupported = errors.New("P2|EmptySlotUnsupported: primary slot holds the zero word. Proof-of-absence is not implemented.")

	ErrTrieProofQueryFailed = errors.New("P3|TrieProofQueryFailed: trie proof query failed or returned a malformed response. Safe to retry with backoff.")

	ErrIncompleteLongValueProof = errors.New("P4|IncompleteLongValueProof: node returned proofs for only a subset of the continuation slots of a long value.")
)

// QueryFailed wraps an underlying transport or decoding error so that callers
// can match it with errors.Is(err, ErrTrieProofQueryFailed) while keeping the cause.
func QueryFailed(cause error) error {
	return fmt.Errorf("%w: %v", ErrTrieProofQueryFailed, cause)
}
