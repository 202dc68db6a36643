package benchmark

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSamples is returned when a reduction is asked for an empty sample set.
var ErrNoSamples = errors.New("no samples")

// WorkloadError wraps a failure raised by the timed operation itself.
type WorkloadError struct {
	Key Key
	Err error
}

func (e *WorkloadError) Error() string {
	return fmt.Sprintf("workload %s failed: %v", e.Key, e.Err)
}

func (e *WorkloadError) Unwrap() error { return e.Err }

// ProcessFailure describes an isolated child that exited non-zero, was killed,
// or wrote output that does not follow the line protocol.
type ProcessFailure struct {
	Locator  string
	ExitCode int
	Reason   string
	Stderr   string
	Err      error
}

func (e *ProcessFailure) Error() string {
	msg := fmt.Sprintf("child %s failed (exit %d): %s", e.Locator, e.ExitCode, e.Reason)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ProcessFailure) Unwrap() error { return e.Err }

// ProtocolError is returned when a worker output line does not match the
// name:value contract.
type ProtocolError struct {
	Line string
	Msg  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed result line %q: %s", e.Line, e.Msg)
}

// FormatError is returned when a persisted result table cannot be loaded.
type FormatError struct {
	Path string
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
