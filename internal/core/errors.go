package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrStoreUnavailable is returned when the persisted example index cannot
// be read or written. The triggering operation fails; callers may retry.
var ErrStoreUnavailable = errors.New("example store unavailable")

// MalformedVerdictError indicates the LLM response failed structured
// parsing. It is fatal for a single email only, never for a batch.
type MalformedVerdictError struct {
	Raw string
	Err error
}

func (e *MalformedVerdictError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		cut := raw[:200]
		// Never split a multi-byte rune at the truncation point
		for !utf8.ValidString(cut) && len(cut) > 0 {
			cut = cut[:len(cut)-1]
		}
		raw = cut + "..."
	}
	return fmt.Sprintf("malformed verdict: %v (response: %q)", e.Err, raw)
}

func (e *MalformedVerdictError) Unwrap() error {
	return e.Err
}

// IngestFailure records one record that failed to embed or persist
// during a bulk add
type IngestFailure struct {
	Index int
	Err   error
}

// IngestError aggregates per-record failures from a bulk add. The store
// attempts every record before returning it, so successfully added
// records remain persisted (no atomicity across the batch).
type IngestError struct {
	Attempted int
	Failures  []IngestFailure
}

func (e *IngestError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("record %d: %v", f.Index, f.Err))
	}
	return fmt.Sprintf("ingest failed for %d of %d records: %s",
		len(e.Failures), e.Attempted, strings.Join(parts, "; "))
}
