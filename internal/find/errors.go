package find

import (
	"errors"
	"fmt"
)

// Errors returned by sessions.
var (
	// ErrNeedData indicates Find or Replace was called without a fragment
	// to search. Supply one with SetData.
	ErrNeedData = errors.New("session needs data")

	// ErrAwaitingDecision indicates Replace was called while a proposal
	// is still waiting for Decide.
	ErrAwaitingDecision = errors.New("replace session is awaiting a decision")

	// ErrNoPendingDecision indicates Decide was called with no proposal.
	ErrNoPendingDecision = errors.New("no replacement is pending")

	// ErrInvalidPattern indicates a structured pattern failed to compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidDecision indicates an unknown Decision value.
	ErrInvalidDecision = errors.New("invalid decision")
)

// PatternError reports a pattern that could not be compiled.
type PatternError struct {
	// Expr is the expression as supplied by the caller.
	Expr string
	// Err is the compiler's error.
	Err error
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Expr, e.Err)
}

// Unwrap returns the compiler's error.
func (e *PatternError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidPattern.
func (e *PatternError) Is(target error) bool {
	return target == ErrInvalidPattern
}
