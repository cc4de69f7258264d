// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

func newGreeters() *Registry[greeter] {
	r := NewRegistry[greeter]("greeter")
	r.Register("english", func() (greeter, error) { return english{}, nil })
	r.Register("broken", func() (greeter, error) { return nil, errors.New("missing dictionary") })
	return r
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	r := newGreeters()

	g, err := r.Resolve("english")
	if err != nil || g == nil || g.Greet() != "hello" {
		t.Fatalf("Resolve(english) = %v, %v", g, err)
	}

	g, err = r.Resolve("")
	if err != nil || g != nil {
		t.Errorf("Resolve(\"\") = %v, %v; want zero value and no error", g, err)
	}
}

func TestRegistry_ResolveErrors(t *testing.T) {
	t.Parallel()

	r := newGreeters()

	tests := []struct {
		name      string
		ext       string
		wantCause string
		unknown   bool
	}{
		{name: "unknown name", ext: "klingon", wantCause: "available: [broken english]", unknown: true},
		{name: "factory failure", ext: "broken", wantCause: "missing dictionary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Resolve(tt.ext)
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *ConfigError", err)
			}
			if ce.Point != "greeter" || ce.Name != tt.ext {
				t.Errorf("ConfigError = %+v", ce)
			}
			if errors.Is(err, ErrUnknownExtension) != tt.unknown {
				t.Errorf("errors.Is(ErrUnknownExtension) = %v, want %v", !tt.unknown, tt.unknown)
			}
			if !strings.Contains(err.Error(), tt.wantCause) {
				t.Errorf("Error() = %q, want it to contain %q", err, tt.wantCause)
			}
		})
	}
}

func TestRegistry_ResolveAll(t *testing.T) {
	t.Parallel()

	r := newGreeters()
	got, err := r.ResolveAll([]string{"english", "", "english"})
	if err != nil || len(got) != 2 {
		t.Fatalf("ResolveAll() = %v, %v", got, err)
	}
	if _, err := r.ResolveAll([]string{"english", "klingon"}); err == nil {
		t.Error("ResolveAll() should fail on unknown names")
	}
}

func TestRegistry_Names(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff([]string{"broken", "english"}, newGreeters().Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_RegisterPanics(t *testing.T) {
	t.Parallel()

	for name, register := range map[string]func(*Registry[greeter]){
		"duplicate":   func(r *Registry[greeter]) { r.Register("english", func() (greeter, error) { return english{}, nil }) },
		"empty name":  func(r *Registry[greeter]) { r.Register("", func() (greeter, error) { return english{}, nil }) },
		"nil factory": func(r *Registry[greeter]) { r.Register("x", nil) },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			defer func() {
				if recover() == nil {
					t.Error("Register() should panic")
				}
			}()
			register(newGreeters())
		})
	}
}
