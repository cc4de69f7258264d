// SPDX-License-Identifier: MPL-2.0

package modulefinder

import (
	"archive/zip"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/swarmboot/swarmboot/pkg/nestedjar"
)

// ClasspathEnvVar lists extra classpath entries, separated by the OS path-list separator.
const ClasspathEnvVar = "SWARMBOOT_CLASSPATH"

type (
	// Locator finds a descriptor path on some search path. A nil URL with a
	// nil error means the path is not there.
	Locator interface {
		Locate(path string) (*url.URL, error)
	}

	// ClasspathEntry is one root of a classpath: an archive or a directory.
	ClasspathEntry struct {
		// Path is the filesystem path the entry was created from.
		Path string
		// Root is the directory URL descriptor paths are resolved against.
		Root *url.URL
	}

	// Classpath is an ordered list of archives and directories searched for
	// module descriptors. It is immutable and safe for concurrent use.
	Classpath struct {
		entries []ClasspathEntry
		opener  *nestedjar.Opener
		logger  *slog.Logger
	}
)

// NewClasspath builds a classpath from filesystem paths. Directories are
// searched as exploded roots; everything else is treated as an archive.
// Paths that do not exist are kept and simply never match. A nil opener
// uses one without an index cache.
func NewClasspath(opener *nestedjar.Opener, paths ...string) (*Classpath, error) {
	if opener == nil {
		opener = nestedjar.NewOpener()
	}
	cp := &Classpath{opener: opener}
	for _, p := range paths {
		if p == "" {
			continue
		}
		var (
			root *url.URL
			err  error
		)
		if st, statErr := os.Stat(p); statErr == nil && st.IsDir() {
			root, err = nestedjar.DirURL(p)
		} else {
			root, err = nestedjar.ArchiveURL(p)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid classpath entry %q: %w", p, err)
		}
		cp.entries = append(cp.entries, ClasspathEntry{Path: p, Root: root})
	}
	return cp, nil
}

// DefaultClasspathPaths returns the entries of SWARMBOOT_CLASSPATH followed
// by the running executable when it carries an appended module archive.
func DefaultClasspathPaths() []string {
	var paths []string
	if v := os.Getenv(ClasspathEnvVar); v != "" {
		paths = append(paths, filepath.SplitList(v)...)
	}
	if exe, err := os.Executable(); err == nil && IsArchive(exe) {
		paths = append(paths, exe)
	}
	return paths
}

// IsArchive reports whether the file at path is a readable zip archive,
// including executables with an archive appended.
func IsArchive(path string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	_ = r.Close()
	return true
}

// Entries returns the classpath entries in search order.
func (c *Classpath) Entries() []ClasspathEntry {
	out := make([]ClasspathEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Opener returns the opener the classpath reads through.
func (c *Classpath) Opener() *nestedjar.Opener { return c.opener }

// WithLogger returns a copy of the classpath that reports unreadable entries to l.
func (c *Classpath) WithLogger(l *slog.Logger) *Classpath {
	cp := *c
	cp.logger = l
	return &cp
}

// Locate returns the URL of path in the first entry that holds it as a file.
// Entries that cannot be read, such as files that are not archives, are
// logged and skipped.
func (c *Classpath) Locate(path string) (*url.URL, error) {
	ref := nestedjar.EscapePath(path)
	for _, e := range c.entries {
		u, err := nestedjar.Resolve(e.Root, ref)
		if err != nil {
			return nil, fmt.Errorf("invalid descriptor path %q: %w", path, err)
		}
		info, err := c.opener.Stat(u)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			c.log().Warn("skipping unreadable classpath entry", "entry", e.Path, "error", err)
			continue
		case info.Dir:
			continue
		}
		return u, nil
	}
	return nil, nil
}

func (c *Classpath) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}
