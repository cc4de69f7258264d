// SPDX-License-Identifier: MPL-2.0

// Package loader is the consumer side of module finders: it caches the
// modules they produce, follows aliases, walks dependency graphs and
// delegates resource lookups across module boundaries.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/swarmboot/swarmboot/pkg/modules"
)

// DefaultMaxAliasDepth bounds how many module-alias hops are followed.
const DefaultMaxAliasDepth = 8

var (
	// ErrNotFound is wrapped by NotFoundError.
	ErrNotFound = errors.New("module not found")

	// ErrAliasLoop is returned when aliases form a loop or exceed the hop limit.
	ErrAliasLoop = errors.New("module alias loop")
)

type (
	// NotFoundError reports that no finder owns an identifier.
	NotFoundError struct {
		Identifier modules.Identifier
		// RequiredBy is the module whose dependency could not be found, if any.
		RequiredBy *modules.Identifier
	}

	// Observer is notified of module cache activity.
	Observer interface {
		ModuleCacheHit()
		ModuleCacheMiss()
	}

	// Loader loads modules through a finder and caches them by identifier.
	// Concurrent first loads of one identifier call the finder once.
	Loader struct {
		finder        modules.Finder
		logger        *slog.Logger
		observer      Observer
		maxAliasDepth int

		mu      sync.RWMutex
		modules map[modules.Identifier]*Module
		group   singleflight.Group
	}

	// Option configures a Loader.
	Option func(*Loader)

	nopObserver struct{}
)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithObserver reports cache activity to obs.
func WithObserver(obs Observer) Option {
	return func(ld *Loader) {
		if obs != nil {
			ld.observer = obs
		}
	}
}

// WithMaxAliasDepth overrides DefaultMaxAliasDepth.
func WithMaxAliasDepth(n int) Option {
	return func(ld *Loader) {
		if n > 0 {
			ld.maxAliasDepth = n
		}
	}
}

// New creates a Loader over finder.
func New(finder modules.Finder, opts ...Option) *Loader {
	l := &Loader{
		finder:        finder,
		logger:        slog.Default(),
		observer:      nopObserver{},
		maxAliasDepth: DefaultMaxAliasDepth,
		modules:       map[modules.Identifier]*Module{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadSpec implements modules.DelegateLoader. Aliases are followed, so the
// returned spec belongs to the module the identifier finally resolves to.
func (l *Loader) LoadSpec(ctx context.Context, id modules.Identifier) (*modules.ModuleSpec, error) {
	m, err := l.LoadModule(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.spec, nil
}

// LoadModule returns the module for id, finding it on first use.
func (l *Loader) LoadModule(ctx context.Context, id modules.Identifier) (*Module, error) {
	id = modules.NewIdentifier(id.Name, id.Slot)
	if m, ok := l.cached(id); ok {
		l.observer.ModuleCacheHit()
		return m, nil
	}

	ch := l.group.DoChan(id.String(), func() (any, error) {
		if m, ok := l.cached(id); ok {
			return m, nil
		}
		l.observer.ModuleCacheMiss()
		return l.find(id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Module), nil
	}
}

// Loaded returns the identifiers currently cached, including aliases.
func (l *Loader) Loaded() []modules.Identifier {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]modules.Identifier, 0, len(l.modules))
	for id := range l.modules {
		ids = append(ids, id)
	}
	return ids
}

func (l *Loader) cached(id modules.Identifier) (*Module, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.modules[id]
	return m, ok
}

// find resolves id through the finder, following aliases, and caches the
// result under every identifier on the alias path.
func (l *Loader) find(id modules.Identifier) (*Module, error) {
	path := []modules.Identifier{id}
	cur := id
	for {
		if m, ok := l.cached(cur); ok {
			l.store(path, m)
			return m, nil
		}

		spec, err := l.finder.FindModule(cur, l)
		if err != nil {
			return nil, err
		}
		if spec == nil {
			return nil, &NotFoundError{Identifier: cur}
		}
		if !spec.IsAlias() {
			m := &Module{spec: spec, loader: l}
			l.store(path, m)
			l.logger.Debug("module loaded", "module", cur, "requested", id, "resource_roots", len(spec.ResourceLoaders))
			return m, nil
		}

		target := *spec.AliasTarget
		for _, seen := range path {
			if seen == target {
				return nil, fmt.Errorf("%w: %s -> %s", ErrAliasLoop, cur, target)
			}
		}
		if len(path) > l.maxAliasDepth {
			return nil, fmt.Errorf("%w: more than %d hops from %s", ErrAliasLoop, l.maxAliasDepth, id)
		}
		l.logger.Debug("following module alias", "alias", cur, "target", target)
		path = append(path, target)
		cur = target
	}
}

func (l *Loader) store(ids []modules.Identifier, m *Module) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		if _, ok := l.modules[id]; !ok {
			l.modules[id] = m
		}
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.RequiredBy != nil {
		return fmt.Sprintf("module %s not found (required by %s)", e.Identifier, e.RequiredBy)
	}
	return fmt.Sprintf("module %s not found", e.Identifier)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func (nopObserver) ModuleCacheHit()  {}
func (nopObserver) ModuleCacheMiss() {}

var _ modules.DelegateLoader = (*Loader)(nil)
