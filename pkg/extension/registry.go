// SPDX-License-Identifier: MPL-2.0

// Package extension resolves configured extension names to implementations.
//
// An extension point is a Registry of factories keyed by name. Resolving an
// empty name is not an error; it yields the zero value so that callers can
// treat "not configured" as "use nothing".
package extension

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownExtension is wrapped by ConfigError when no factory is registered
// under the requested name.
var ErrUnknownExtension = errors.New("unknown extension")

type (
	// Factory constructs one instance of an extension.
	Factory[T any] func() (T, error)

	// Registry maps names to factories for one extension point.
	// It is safe for concurrent use.
	Registry[T any] struct {
		point     string
		mu        sync.RWMutex
		factories map[string]Factory[T]
	}

	// ConfigError reports that an extension could not be resolved from
	// configuration. It is a configuration problem, not a system fault.
	ConfigError struct {
		// Point is the extension point, such as "finder".
		Point string
		// Name is the configured extension name.
		Name string
		// Known lists the registered names, sorted.
		Known []string
		// Cause is ErrUnknownExtension or the factory's error.
		Cause error
	}
)

// NewRegistry creates an empty registry for the named extension point.
func NewRegistry[T any](point string) *Registry[T] {
	return &Registry[T]{point: point, factories: map[string]Factory[T]{}}
}

// Register adds factory under name. Registering an empty name, a nil factory
// or a duplicate name panics, since those are programming errors.
func (r *Registry[T]) Register(name string, factory Factory[T]) {
	if name == "" || factory == nil {
		panic(fmt.Sprintf("extension: invalid registration %q for %s", name, r.point))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("extension: %s %q registered twice", r.point, name))
	}
	r.factories[name] = factory
}

// Names returns the registered names, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Resolve builds the extension registered under name. An empty name returns
// the zero value and no error. Unknown names and factory failures are
// reported as *ConfigError.
func (r *Registry[T]) Resolve(name string) (T, error) {
	var zero T
	if name == "" {
		return zero, nil
	}
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return zero, &ConfigError{Point: r.point, Name: name, Known: r.Names(), Cause: ErrUnknownExtension}
	}
	v, err := factory()
	if err != nil {
		return zero, &ConfigError{Point: r.point, Name: name, Cause: err}
	}
	return v, nil
}

// ResolveAll resolves names in order, skipping empty names. The first
// failure is returned.
func (r *Registry[T]) ResolveAll(names []string) ([]T, error) {
	out := make([]T, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		v, err := r.Resolve(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return slices.Clip(out), nil
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if errors.Is(e.Cause, ErrUnknownExtension) {
		return fmt.Sprintf("unknown %s %q (available: %v)", e.Point, e.Name, e.Known)
	}
	return fmt.Sprintf("cannot create %s %q: %v", e.Point, e.Name, e.Cause)
}

// Unwrap returns the cause.
func (e *ConfigError) Unwrap() error { return e.Cause }
