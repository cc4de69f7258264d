// SPDX-License-Identifier: MPL-2.0

package nestedjar

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

const (
	// Scheme is the URL scheme for locations inside archives.
	Scheme = "nested"

	// FileScheme is the URL scheme for locations on the filesystem.
	FileScheme = "file"

	// Separator marks an archive boundary inside a URL path.
	Separator = "!/"
)

var (
	// ErrEscapesArchive is returned when a relative reference climbs out of
	// the archive its base URL points into.
	ErrEscapesArchive = errors.New("reference escapes archive")

	// ErrUnsupportedScheme is returned for URLs that are neither "nested" nor "file".
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// Location is a decoded URL: a filesystem path followed by zero or more
// archive entry names. Chain[len(Chain)-1] is the addressed entry; every
// earlier element is an archive that has to be entered to reach it.
type Location struct {
	FilePath string
	Chain    []string
}

// ArchiveURL returns the URL of the root directory of the archive at fsPath.
func ArchiveURL(fsPath string) (*url.URL, error) {
	abs, err := filepath.Abs(fsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive path: %w", err)
	}
	return &url.URL{Scheme: Scheme, Path: filepath.ToSlash(abs) + Separator}, nil
}

// DirURL returns the URL of the directory at fsPath, with a trailing slash.
func DirURL(fsPath string) (*url.URL, error) {
	abs, err := filepath.Abs(fsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return &url.URL{Scheme: FileScheme, Path: p}, nil
}

// Resolve composes ref against base. The result must stay inside the
// innermost archive of base; otherwise ErrEscapesArchive is returned.
func Resolve(base *url.URL, ref string) (*url.URL, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid reference %q: %w", ref, err)
	}
	if r.IsAbs() {
		return r, nil
	}
	u := base.ResolveReference(r)
	if prefix := archivePrefix(base.Path); prefix != "" && !strings.HasPrefix(u.Path, prefix) {
		return nil, fmt.Errorf("%w: %q against %s", ErrEscapesArchive, ref, base)
	}
	return u, nil
}

// EscapePath turns a slash-separated path into a relative URL reference,
// so that names containing ':', '#', '?' or '%' reach Resolve unchanged.
func EscapePath(p string) string {
	u := url.URL{Path: p}
	s := u.EscapedPath()
	if i := strings.IndexByte(s, '/'); i < 0 || strings.Contains(s[:i], ":") {
		s = "./" + s
	}
	return s
}

// Dir returns u with its final path segment removed, keeping the trailing slash.
func Dir(u *url.URL) *url.URL {
	return u.ResolveReference(&url.URL{Path: "./"})
}

// Enter returns the URL of the root directory of the archive addressed by u.
// For "file" URLs the result switches to the "nested" scheme.
func Enter(u *url.URL) *url.URL {
	p := strings.TrimSuffix(u.Path, "/")
	return &url.URL{Scheme: Scheme, Path: p + Separator}
}

// Format renders u with archive boundaries left unescaped.
func Format(u *url.URL) string {
	if u == nil {
		return ""
	}
	return strings.ReplaceAll(u.String(), "%21", "!")
}

// Decode splits u into its filesystem path and archive chain.
func Decode(u *url.URL) (Location, error) {
	switch u.Scheme {
	case Scheme, FileScheme:
	default:
		return Location{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	parts := strings.Split(u.Path, Separator)
	loc := Location{FilePath: filepath.FromSlash(parts[0])}
	if u.Scheme == Scheme && len(parts) == 1 {
		return Location{}, fmt.Errorf("nested URL %s has no archive boundary", u)
	}
	if len(parts) > 1 {
		loc.Chain = parts[1:]
	}
	return loc, nil
}

// Archives returns the entries that must be entered to reach the addressed entry.
func (l Location) Archives() []string {
	if len(l.Chain) == 0 {
		return nil
	}
	return l.Chain[:len(l.Chain)-1]
}

// Entry returns the addressed entry name inside the innermost archive, or ""
// when the location addresses the filesystem directly.
func (l Location) Entry() string {
	if len(l.Chain) == 0 {
		return ""
	}
	return l.Chain[len(l.Chain)-1]
}

// archivePrefix returns the path up to and including the last archive
// boundary, or "" for paths outside any archive.
func archivePrefix(p string) string {
	i := strings.LastIndex(p, Separator)
	if i < 0 {
		return ""
	}
	return p[:i+len(Separator)]
}

// cleanName normalises a resource name relative to a loader root. It
// reports false for names that would leave the root.
func cleanName(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "", false
	}
	c := path.Clean(name)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", false
	}
	return c, true
}
