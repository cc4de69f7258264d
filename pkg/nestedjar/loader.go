// SPDX-License-Identifier: MPL-2.0

package nestedjar

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"sync"

	"github.com/swarmboot/swarmboot/pkg/modules"
)

var defaultOpener = NewOpener()

type (
	// Loader serves classes and resources from one resource root of a module.
	//
	// The root is the target base⊕loaderPath. When the target is an archive
	// the loader serves its entries; when it is a directory (inside an
	// archive or on disk) the loader serves the files below it. RootPath
	// narrows either form to a sub-directory. The target is inspected on
	// first use; every read reopens the underlying file.
	Loader struct {
		name       string
		base       *url.URL
		rootPath   string
		loaderPath string
		target     *url.URL
		opener     *Opener

		mu      sync.Mutex
		rootURL *url.URL
	}

	// LoaderOption configures a Loader.
	LoaderOption func(*Loader)
)

// WithOpener makes the loader read through o instead of the package default,
// which has no index cache.
func WithOpener(o *Opener) LoaderOption {
	return func(l *Loader) {
		if o != nil {
			l.opener = o
		}
	}
}

// LoaderFor builds the loader of one resource root. base is the descriptor's
// base URL, loaderPath is resolved against it, and loaderName identifies the
// loader in diagnostics. No I/O happens until the first read.
func LoaderFor(base *url.URL, rootPath, loaderPath, loaderName string, opts ...LoaderOption) (*Loader, error) {
	if base == nil {
		return nil, errors.New("loader base URL is nil")
	}
	target, err := Resolve(base, loaderPath)
	if err != nil {
		return nil, fmt.Errorf("resource root %q: %w", loaderName, err)
	}
	baseCopy := *base
	l := &Loader{
		name:       loaderName,
		base:       &baseCopy,
		rootPath:   strings.Trim(rootPath, "/"),
		loaderPath: loaderPath,
		target:     target,
		opener:     defaultOpener,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Name returns the logical loader name.
func (l *Loader) Name() string { return l.name }

// Location returns base⊕loaderPath.
func (l *Loader) Location() *url.URL {
	u := *l.target
	return &u
}

// Base returns the URL the loader path was resolved against.
func (l *Loader) Base() *url.URL {
	u := *l.base
	return &u
}

// RootPath returns the sub-directory of the target the loader serves.
func (l *Loader) RootPath() string { return l.rootPath }

// Root returns the directory URL resource names are resolved against.
func (l *Loader) Root() (*url.URL, error) {
	r, err := l.root()
	if err != nil {
		return nil, err
	}
	u := *r
	return &u, nil
}

// Resource looks up name below the loader root. Names that are missing,
// that denote directories or that would leave the root yield nil, nil.
func (l *Loader) Resource(name string) (*modules.Resource, error) {
	clean, ok := cleanName(name)
	if !ok {
		return nil, nil
	}
	root, err := l.root()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	u, err := Resolve(root, EscapePath(clean))
	if err != nil {
		return nil, nil
	}

	info, err := l.opener.Stat(u)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("loader %s: %w", l.name, err)
	case info.Dir:
		return nil, nil
	}

	opener := l.opener
	return modules.NewResource(clean, u, info.Size, func() (io.ReadCloser, error) {
		return opener.Open(u)
	}), nil
}

// Paths lists the directories below the loader root that hold at least one
// resource. A missing root has no paths.
func (l *Loader) Paths() ([]string, error) {
	root, err := l.root()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	paths, err := l.opener.Paths(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return paths, err
}

// Equal reports whether two loaders address the same content under the same name.
func (l *Loader) Equal(other *Loader) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.name == other.name &&
		l.rootPath == other.rootPath &&
		l.loaderPath == other.loaderPath &&
		l.target.String() == other.target.String() &&
		l.base.String() == other.base.String()
}

func (l *Loader) String() string {
	return fmt.Sprintf("%s (%s)", l.name, Format(l.target))
}

// root resolves the serving directory once it exists. Failures are not
// remembered, so a root that appears later is picked up.
func (l *Loader) root() (*url.URL, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rootURL != nil {
		return l.rootURL, nil
	}
	u, err := l.resolveRoot()
	if err != nil {
		return nil, err
	}
	l.rootURL = u
	return u, nil
}

func (l *Loader) resolveRoot() (*url.URL, error) {
	info, err := l.opener.Stat(l.target)
	if err != nil {
		return nil, err
	}
	var dir *url.URL
	if info.Dir {
		u := *l.target
		dir = &u
		if !strings.HasSuffix(dir.Path, "/") {
			dir.Path += "/"
		}
	} else {
		dir = Enter(l.target)
	}
	if l.rootPath == "" {
		return dir, nil
	}
	return Resolve(dir, EscapePath(l.rootPath)+"/")
}

var _ modules.ResourceLoader = (*Loader)(nil)
