package verification

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is the remote "no verification form yet" signal.
	ErrNotFound = errors.New("verification form not found")
	// ErrStaleSession marks a result that belongs to a previous session or step.
	ErrStaleSession = errors.New("stale verification session")
	// ErrAdvanceInFlight is returned when an advance is already outstanding.
	ErrAdvanceInFlight = errors.New("advance already in flight")
	// ErrNotLoaded is returned when no record or step has been resolved yet.
	ErrNotLoaded = errors.New("verification not loaded")
	// ErrTerminalStep is returned when advancing past the last step.
	ErrTerminalStep = errors.New("no step after the current one")
)

// ValidationError carries field-scoped validation failures.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// RemoteError wraps a failed fetch, write or authorization call.
type RemoteError struct {
	Op   string
	Step StepName
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
