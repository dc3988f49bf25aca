package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the engine. Callers match them with errors.Is.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrDuplicateMember      = errors.New("duplicate member")
	ErrDuplicateBinding     = errors.New("duplicate binding")
	ErrInvalidBaseType      = errors.New("invalid base type")
	ErrNotOverridable       = errors.New("operation is not overridable")
	ErrExtractionFailure    = errors.New("member name extraction failed")
	ErrCompilationFailure   = errors.New("compilation failed")
	ErrNoSuchGeneratedType  = errors.New("generated type not found")
	ErrBindingNotFound      = errors.New("binding not found")
	ErrNullArgument         = errors.New("null argument")
)

// CompilationError carries every diagnostic of a failed toolchain run.
type CompilationError struct {
	Unit        string
	Diagnostics []Diagnostic
}

func (e *CompilationError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s", ErrCompilationFailure, e.Unit)

	errs := e.Errors()
	if len(errs) > 0 {
		fmt.Fprintf(&b, ": %d error(s): %s", len(errs), errs[0].Message)
	}

	return b.String()
}

// Unwrap lets errors.Is match ErrCompilationFailure.
func (e *CompilationError) Unwrap() error {
	return ErrCompilationFailure
}

// Errors returns the error-severity diagnostics.
func (e *CompilationError) Errors() []Diagnostic {
	var errs []Diagnostic

	for _, d := range e.Diagnostics {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}

	return errs
}
