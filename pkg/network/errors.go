package network

import (
	"errors"
	"fmt"
)

// Common sentinel errors for network generation
var (
	ErrNetworkTooLarge = errors.New("network exceeds configured bounds")
	ErrDuplicateSeed   = errors.New("duplicate seed species")
)

// GenError provides structured error information for generation failures.
type GenError struct {
	Op    string // Operation that failed (e.g., "Seed", "Expand")
	Rule  string // Rule being applied (if applicable)
	Pass  int    // Expansion pass number (if applicable)
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *GenError) Error() string {
	switch {
	case e.Rule != "" && e.Pass > 0:
		return fmt.Sprintf("%s rule %q (pass %d): %v", e.Op, e.Rule, e.Pass, e.Cause)
	case e.Rule != "":
		return fmt.Sprintf("%s rule %q: %v", e.Op, e.Rule, e.Cause)
	case e.Pass > 0:
		return fmt.Sprintf("%s (pass %d): %v", e.Op, e.Pass, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
}

// Unwrap returns the underlying cause for error chain support.
func (e *GenError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *GenError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}
