// SPDX-License-Identifier: MPL-2.0

package modules

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleLoad is the sentinel error wrapped by LoadError.
	ErrModuleLoad = errors.New("module load failed")

	// ErrMalformedDescriptor classifies descriptor syntax and structure errors.
	// I/O failures are reported with their own cause instead.
	ErrMalformedDescriptor = errors.New("malformed module descriptor")
)

type (
	// LoadError reports that a module could not be loaded. The cause tells the
	// caller whether the descriptor was malformed (errors.Is(err, ErrMalformedDescriptor))
	// or an I/O operation failed.
	LoadError struct {
		// Identifier is the module that failed to load (zero when unknown).
		Identifier Identifier
		// Source is the descriptor location or label, when known.
		Source string
		// Cause is the underlying error.
		Cause error
	}

	// DescriptorError describes a structural problem inside a descriptor.
	// It wraps ErrMalformedDescriptor for errors.Is() compatibility.
	DescriptorError struct {
		// Source is the descriptor label (usually its classpath path).
		Source string
		// Line is the 1-based line of the offending element, or 0 when unknown.
		Line int
		// Message describes the problem.
		Message string
		// Cause is an optional lower-level error, such as an XML syntax error.
		Cause error
	}
)

// NewLoadError wraps cause into a LoadError for id. A cause that already is a
// LoadError is returned unchanged so that wrapping stays one level deep.
func NewLoadError(id Identifier, source string, cause error) *LoadError {
	var le *LoadError
	if errors.As(cause, &le) {
		return le
	}
	return &LoadError{Identifier: id, Source: source, Cause: cause}
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	msg := "failed to load module"
	if !e.Identifier.IsZero() {
		msg += " " + e.Identifier.String()
	}
	if e.Source != "" {
		msg += " from " + e.Source
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *LoadError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrModuleLoad}
	}
	return []error{ErrModuleLoad, e.Cause}
}

// Error implements the error interface.
func (e *DescriptorError) Error() string {
	loc := e.Source
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Source, e.Line)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", loc, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

// Unwrap exposes the sentinel and the lower-level cause.
func (e *DescriptorError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrMalformedDescriptor}
	}
	return []error{ErrMalformedDescriptor, e.Cause}
}
