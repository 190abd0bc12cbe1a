package types

import (
	"errors"
	"fmt"
)

// Recoverable error classes. Each of these is converted to human-readable
// text and reinserted into the conversation rather than propagated past the
// run-loop boundary; the model is the primary error-recovery agent.
var (
	// ErrMalformedCall means the extractor found a directive it could not parse.
	ErrMalformedCall = errors.New("malformed tool call")

	// ErrToolNotFound means dispatch could not resolve the tool name.
	ErrToolNotFound = errors.New("tool not found")

	// ErrArgumentValidation means the arguments violate the tool's parameter contract.
	ErrArgumentValidation = errors.New("argument validation failed")

	// ErrPatchMatch means an anchored patch's old code was not found verbatim.
	ErrPatchMatch = errors.New("patch context not found")

	// ErrCommitRejected means the user declined the commit workflow.
	ErrCommitRejected = errors.New("commit rejected")
)

// TransportError wraps a failed model call. Transport errors are retried
// with capped exponential backoff and never silently dropped.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
