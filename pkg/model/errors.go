package model

import (
	"errors"
	"fmt"
)

// Common sentinel errors for model construction
var (
	ErrDuplicateType     = errors.New("molecule type already declared")
	ErrInvalidSite       = errors.New("invalid site declaration")
	ErrUnknownType       = errors.New("unknown molecule type")
	ErrMalformedRule     = errors.New("malformed rule")
	ErrUnknownParameter  = errors.New("unknown parameter")
	ErrDuplicateName     = errors.New("name already declared")
	ErrIncompletePattern = errors.New("pattern is not fully specified")
)

// ModelError provides structured error information for model construction.
type ModelError struct {
	Op    string // Operation that failed (e.g., "Declare", "AddRule")
	Kind  string // Declaration kind (e.g., "molecule type", "rule", "parameter")
	Name  string // Declaration name (if applicable)
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Kind, e.Name, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ModelError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *ModelError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}
