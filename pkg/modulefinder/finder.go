// SPDX-License-Identifier: MPL-2.0

// Package modulefinder answers "which module spec belongs to this
// identifier" by locating a module.xml on a classpath, parsing it and
// anchoring every resource root at the descriptor's directory.
//
// A finder that does not own an identifier returns a nil spec and a nil
// error; Chain uses that to fall through to the next finder.
package modulefinder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/swarmboot/swarmboot/pkg/moduledesc"
	"github.com/swarmboot/swarmboot/pkg/modules"
	"github.com/swarmboot/swarmboot/pkg/nestedjar"
)

const (
	// OutcomeFound means a spec was returned.
	OutcomeFound Outcome = "found"
	// OutcomeNotFound means the finder does not own the identifier.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeAbsent means a module-absent descriptor declared the module missing.
	OutcomeAbsent Outcome = "absent"
	// OutcomeMalformed means the descriptor could not be parsed.
	OutcomeMalformed Outcome = "malformed"
	// OutcomeIOError means reading the descriptor failed.
	OutcomeIOError Outcome = "io_error"
	// OutcomePanic means parsing panicked; the panic was re-raised.
	OutcomePanic Outcome = "panic"

	// RootNamespace is the root path handed to every resource root factory.
	RootNamespace = "/"
)

type (
	// Outcome classifies one FindModule call.
	Outcome string

	// Layout maps an identifier to the path of its descriptor.
	Layout func(modules.Identifier) string

	// Observer is notified of every FindModule call.
	Observer interface {
		ModuleFound(outcome Outcome, elapsed time.Duration)
	}

	// ClasspathFinder finds modules whose descriptors live on a classpath.
	// It keeps no state between calls: every FindModule opens its own stream,
	// computes its own base URL and builds a fresh spec.
	ClasspathFinder struct {
		locator    Locator
		layout     Layout
		open       func(*url.URL) (io.ReadCloser, error)
		logger     *slog.Logger
		observer   Observer
		loaderOpts []nestedjar.LoaderOption
	}

	// Option configures a ClasspathFinder.
	Option func(*ClasspathFinder)

	nopObserver struct{}
)

// BootstrapLayout places descriptors at modules/<name as path>/<slot>/module.xml.
func BootstrapLayout(id modules.Identifier) string { return id.DescriptorPath() }

// RepositoryLayout places descriptors at <name as path>/<slot>/module.xml,
// the layout of a local module repository.
func RepositoryLayout(id modules.Identifier) string { return id.RepositoryPath() }

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *ClasspathFinder) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithObserver reports every call to obs.
func WithObserver(obs Observer) Option {
	return func(f *ClasspathFinder) {
		if obs != nil {
			f.observer = obs
		}
	}
}

// WithLayout overrides BootstrapLayout.
func WithLayout(l Layout) Option {
	return func(f *ClasspathFinder) {
		if l != nil {
			f.layout = l
		}
	}
}

// WithLoaderOptions passes opts to every resource loader the finder builds.
func WithLoaderOptions(opts ...nestedjar.LoaderOption) Option {
	return func(f *ClasspathFinder) {
		f.loaderOpts = append(f.loaderOpts, opts...)
	}
}

// WithStreamOpener overrides how descriptor streams are opened.
func WithStreamOpener(open func(*url.URL) (io.ReadCloser, error)) Option {
	return func(f *ClasspathFinder) {
		if open != nil {
			f.open = open
		}
	}
}

// New creates a finder over locator.
func New(locator Locator, opts ...Option) *ClasspathFinder {
	f := &ClasspathFinder{
		locator:  locator,
		layout:   BootstrapLayout,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	if cp, ok := locator.(*Classpath); ok {
		f.open = cp.Opener().Open
		f.loaderOpts = append(f.loaderOpts, nestedjar.WithOpener(cp.Opener()))
	} else {
		f.open = nestedjar.NewOpener().Open
	}
	for _, opt := range opts {
		opt(f)
	}
	if cp, ok := f.locator.(*Classpath); ok && cp.logger == nil {
		f.locator = cp.WithLogger(f.logger)
	}
	return f
}

// NewBootstrapFinder finds modules under modules/ in the given classpath.
func NewBootstrapFinder(cp *Classpath, opts ...Option) *ClasspathFinder {
	return New(cp, opts...)
}

// NewRepositoryFinder finds modules in local module repositories, which use
// RepositoryLayout.
func NewRepositoryFinder(repos *Classpath, opts ...Option) *ClasspathFinder {
	return New(repos, append([]Option{WithLayout(RepositoryLayout)}, opts...)...)
}

// FindModule returns the spec of id, or nil when no descriptor for id exists
// on the classpath. Parse and I/O failures are returned as *modules.LoadError.
// A panic while parsing is logged and re-raised with its original value.
func (f *ClasspathFinder) FindModule(id modules.Identifier, delegate modules.DelegateLoader) (spec *modules.ModuleSpec, err error) {
	start := time.Now()
	outcome := OutcomePanic
	defer func() {
		f.observer.ModuleFound(outcome, time.Since(start))
	}()

	id = modules.NewIdentifier(id.Name, id.Slot)
	if err := id.Validate(); err != nil {
		outcome = OutcomeMalformed
		return nil, modules.NewLoadError(id, "", err)
	}

	path := f.layout(id)
	u, err := f.locator.Locate(path)
	if err != nil {
		outcome = OutcomeIOError
		f.logger.Error("failed to locate module descriptor", "module", id, "path", path, "error", err)
		return nil, modules.NewLoadError(id, path, err)
	}
	if u == nil {
		outcome = OutcomeNotFound
		f.logger.Debug("module descriptor not found", "module", id, "path", path)
		return nil, nil
	}

	base := nestedjar.Dir(u)
	rc, err := f.open(u)
	if err != nil {
		outcome = OutcomeIOError
		f.logger.Error("failed to open module descriptor", "module", id, "url", nestedjar.Format(u), "error", err)
		return nil, modules.NewLoadError(id, path, err)
	}
	defer func() {
		closeErr := rc.Close()
		if closeErr == nil || err != nil {
			return
		}
		spec = nil
		err = modules.NewLoadError(id, path, fmt.Errorf("failed to close descriptor: %w", closeErr))
		if outcome != OutcomePanic {
			outcome = OutcomeIOError
			f.logger.Error("failed to close module descriptor", "module", id, "url", nestedjar.Format(u), "error", closeErr)
		}
	}()

	spec, err = f.parse(id, delegate, base, path, rc)
	switch {
	case errors.Is(err, modules.ErrMalformedDescriptor):
		outcome = OutcomeMalformed
	case err != nil:
		outcome = OutcomeIOError
	case spec == nil:
		outcome = OutcomeAbsent
	default:
		outcome = OutcomeFound
		f.logger.Debug("module found", "module", id, "base", nestedjar.Format(base), "resource_roots", len(spec.ResourceLoaders))
	}
	return spec, err
}

func (f *ClasspathFinder) parse(id modules.Identifier, delegate modules.DelegateLoader, base *url.URL, path string, r io.Reader) (*modules.ModuleSpec, error) {
	defer func() {
		if p := recover(); p != nil {
			f.logger.Error("unexpected failure while parsing module descriptor", "module", id, "path", path, "panic", p)
			panic(p)
		}
	}()

	factory := func(rootPath, loaderPath, loaderName string) (modules.ResourceLoader, error) {
		l, err := nestedjar.LoaderFor(base, rootPath, loaderPath, loaderName, f.loaderOpts...)
		if err != nil {
			return nil, err
		}
		return l, nil
	}

	spec, err := moduledesc.Parse(base, RootNamespace, r, path, delegate, id, factory)
	if err != nil {
		f.logger.Error("failed to parse module descriptor", "module", id, "path", path, "error", err)
		return nil, modules.NewLoadError(id, path, err)
	}
	return spec, nil
}

func (nopObserver) ModuleFound(Outcome, time.Duration) {}

var _ modules.Finder = (*ClasspathFinder)(nil)
