// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load module"},
			expected: "failed to load module",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load module", Resource: "org.example.app:main"},
			expected: "failed to load module: org.example.app:main",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "read archive", Cause: errors.New("checksum mismatch")},
			expected: "failed to read archive: checksum mismatch",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load module",
				Resource:  "org.example.app:main",
				Cause:     errors.New("not found"),
			},
			expected: "failed to load module: org.example.app:main: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	wrapped := fmt.Errorf("outer: %w", &ActionableError{Operation: "test", Cause: cause})
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	var ae *ActionableError
	if !errors.As(wrapped, &ae) {
		t.Error("errors.As should find the ActionableError")
	}
	if (&ActionableError{Operation: "test"}).Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("permission denied")
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "suggestions",
			err:      &ActionableError{Operation: "open archive", Resource: "/opt/app.jar", Suggestions: []string{"Check permissions", "Rebuild the archive"}},
			contains: []string{"failed to open archive: /opt/app.jar", "• Check permissions", "• Rebuild the archive"},
			excludes: []string{"Error chain"},
		},
		{
			name:     "issue reference",
			err:      &ActionableError{Operation: "load module", Issue: ModuleNotFoundId},
			contains: []string{"swarmboot issues module-not-found"},
		},
		{
			name:     "chain hidden when not verbose",
			err:      &ActionableError{Operation: "read descriptor", Cause: fmt.Errorf("open: %w", root)},
			excludes: []string{"Error chain"},
		},
		{
			name:     "verbose chain",
			err:      &ActionableError{Operation: "read descriptor", Cause: fmt.Errorf("open: %w", root)},
			verbose:  true,
			contains: []string{"Error chain:", "1. open: permission denied", "2. permission denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.err.Format(tt.verbose)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Format() missing %q:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("Format() should not contain %q:\n%s", bad, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("load configuration").
		WithResource("config.cue").
		WithSuggestion("Check the syntax").
		WithSuggestions("Run 'swarmboot config show'", "Remove unknown keys").
		WithIssue(ConfigLoadFailedId).
		Wrap(cause).
		Build()

	if ae.Operation != "load configuration" || ae.Resource != "config.cue" || ae.Issue != ConfigLoadFailedId {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 3 || !ae.HasSuggestions() {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if !errors.Is(ae, cause) {
		t.Error("Build() should keep the cause")
	}

	if NewErrorContext().Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want untyped nil", err)
	}
}

func TestErrorContext_Reuse(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithOperation("read archive").WithResource("/opt/app.jar")
	first := ctx.Wrap(errors.New("error 1")).Build()
	second := ctx.Wrap(errors.New("error 2")).Build()
	if first.Cause.Error() == second.Cause.Error() {
		t.Error("a reused context should allow different causes")
	}
	if first.Operation != second.Operation {
		t.Error("a reused context should preserve the operation")
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}
	ae := WrapWithContext(errors.New("x"), "open archive", "/a.jar")
	if ae.Error() != "failed to open archive: /a.jar: x" {
		t.Errorf("Error() = %q", ae.Error())
	}
}
