// Package bridge runs external computation units as child processes.
//
// A unit is an argv-based program that writes exactly one JSON value to
// stdout and exits 0 on success, or writes diagnostics to stderr and exits
// non-zero on failure. The bridge buffers the whole output stream until the
// process exits and parses once; it never acts on partial output. Each
// invocation gets its own child and buffers, so any number may be in flight
// concurrently. The bridge does not retry; retry policy belongs to callers.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Well-known unit names wired in main.
const (
	UnitRAG       = "rag"
	UnitCaseStudy = "casestudy"
	UnitDocProc   = "docproc"
)

// Kind classifies a bridge failure.
type Kind string

const (
	// KindStartFailure covers unknown units and processes that never started.
	KindStartFailure Kind = "start_failure"
	// KindNonZeroExit means the unit ran and reported failure.
	KindNonZeroExit Kind = "non_zero_exit"
	// KindParseFailure means the unit exited 0 but stdout was not a JSON
	// object or array.
	KindParseFailure Kind = "parse_failure"
	// KindTimeout means the deadline expired and the child was killed.
	KindTimeout Kind = "timeout"
)

// Error is a typed computation-unit failure. ExitCode is -1 when the
// process never ran to completion.
type Error struct {
	Kind        Kind
	Unit        string
	ExitCode    int
	Diagnostics string
	Err         error
}

func (e *Error) Error() string {
	if e.Diagnostics != "" {
		return fmt.Sprintf("unit %s: %s (exit %d): %s", e.Unit, e.Kind, e.ExitCode, e.Diagnostics)
	}
	return fmt.Sprintf("unit %s: %s (exit %d)", e.Unit, e.Kind, e.ExitCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Invoker is the interface services depend on. Invoke resolves to the
// unit's parsed stdout or a *Error.
type Invoker interface {
	Invoke(ctx context.Context, unit string, args ...string) (json.RawMessage, error)
}

// Unit is the base argv of a computation unit; per-call arguments are
// appended after Args.
type Unit struct {
	Command string
	Args    []string
}

// Bridge invokes configured units with a per-invocation deadline.
type Bridge struct {
	units   map[string]Unit
	timeout time.Duration
}

// New creates a bridge over the given units. A zero timeout means the
// caller's context alone bounds the invocation.
func New(units map[string]Unit, timeout time.Duration) *Bridge {
	return &Bridge{units: units, timeout: timeout}
}

// Invoke runs the named unit to completion and returns its parsed stdout.
// Cancellation of ctx (or expiry of the configured timeout) kills the child.
func (b *Bridge) Invoke(ctx context.Context, unit string, args ...string) (json.RawMessage, error) {
	u, ok := b.units[unit]
	if !ok {
		return nil, &Error{
			Kind:        KindStartFailure,
			Unit:        unit,
			ExitCode:    -1,
			Diagnostics: "unknown unit",
		}
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	argv := append(append([]string(nil), u.Args...), args...)
	cmd := exec.CommandContext(ctx, u.Command, argv...)
	// An orphaned grandchild holding the output pipes must not stall Wait
	// after the context kills the unit.
	cmd.WaitDelay = 3 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	diagnostics := strings.TrimSpace(stderr.String())

	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{
				Kind:        KindTimeout,
				Unit:        unit,
				ExitCode:    -1,
				Diagnostics: diagnostics,
				Err:         ctx.Err(),
			}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &Error{
				Kind:        KindNonZeroExit,
				Unit:        unit,
				ExitCode:    exitErr.ExitCode(),
				Diagnostics: diagnostics,
				Err:         err,
			}
		}
		return nil, &Error{
			Kind:        KindStartFailure,
			Unit:        unit,
			ExitCode:    -1,
			Diagnostics: err.Error(),
			Err:         err,
		}
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if !isStructuredJSON(out) {
		return nil, &Error{
			Kind:        KindParseFailure,
			Unit:        unit,
			ExitCode:    0,
			Diagnostics: diagnostics,
			Err:         fmt.Errorf("stdout is not a JSON object or array"),
		}
	}

	return json.RawMessage(out), nil
}

// isStructuredJSON reports whether data is a well-formed JSON object or
// array. Bare scalars are rejected: the unit contract is structured data.
func isStructuredJSON(data []byte) bool {
	if len(data) == 0 || (data[0] != '{' && data[0] != '[') {
		return false
	}
	return json.Valid(data)
}
