package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a session-scoped or identity lookup misses.
var ErrNotFound = errors.New("not found")

// ValidationError rejects bad client input. It is never retried and maps to
// a 400 response with a precise message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UpstreamError wraps a computation-unit failure. Handlers surface it as a
// generic retryable failure; the wrapped diagnostics stay in the logs.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
