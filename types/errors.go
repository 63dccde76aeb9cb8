package types

import (
	"errors"
	"fmt"
)

// ErrDuplicateKey is returned by ledger and catalyst inserts when the identity
// is already present.
var ErrDuplicateKey = errors.New("duplicate key")

// SourceFetchError means the content source could not be read (unreachable or timed out).
type SourceFetchError struct {
	Account string
	Err     error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch posts for %s: %v", e.Account, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// ExtractionParseError means the extraction model returned output that does
// not satisfy the response schema.
type ExtractionParseError struct {
	Op      string
	Content string
	Err     error
}

func (e *ExtractionParseError) Error() string {
	return fmt.Sprintf("%s: invalid model response: %v", e.Op, e.Err)
}

func (e *ExtractionParseError) Unwrap() error { return e.Err }

// QuoteFetchError is logged by the price gate and downgraded to "no price data".
type QuoteFetchError struct {
	Ticker string
	Err    error
}

func (e *QuoteFetchError) Error() string {
	return fmt.Sprintf("quote %s: %v", e.Ticker, e.Err)
}

func (e *QuoteFetchError) Unwrap() error { return e.Err }

// PreconditionError rejects an operation whose inputs are not ready yet.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}
