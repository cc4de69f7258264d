// SPDX-License-Identifier: MPL-2.0

package modules

import (
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type (
	// FilterRule is a single include or exclude rule of a PathFilter.
	// Exactly one of Glob or Paths is set: Glob is a doublestar pattern
	// ("org/example/**"), Paths is a literal path set (include-set / exclude-set).
	FilterRule struct {
		Include bool     `json:"include" yaml:"include"`
		Glob    string   `json:"glob,omitempty" yaml:"glob,omitempty"`
		Paths   []string `json:"paths,omitempty" yaml:"paths,omitempty"`
	}

	// PathFilter decides whether a directory path is visible across a module
	// boundary. Rules are evaluated in order and the first match wins; a path
	// matched by no rule is accepted. The zero value accepts everything.
	PathFilter struct {
		Rules []FilterRule `json:"rules,omitempty" yaml:"rules,omitempty"`
	}
)

// Include appends an include rule for glob and returns the filter.
func (f PathFilter) Include(glob string) PathFilter {
	f.Rules = append(slices.Clone(f.Rules), FilterRule{Include: true, Glob: glob})
	return f
}

// Exclude appends an exclude rule for glob and returns the filter.
func (f PathFilter) Exclude(glob string) PathFilter {
	f.Rules = append(slices.Clone(f.Rules), FilterRule{Include: false, Glob: glob})
	return f
}

// IsZero reports whether the filter has no rules.
func (f PathFilter) IsZero() bool {
	return len(f.Rules) == 0
}

// Accepts reports whether path passes the filter. Leading and trailing
// slashes are ignored.
func (f PathFilter) Accepts(path string) bool {
	path = strings.Trim(path, "/")
	for _, r := range f.Rules {
		if r.matches(path) {
			return r.Include
		}
	}
	return true
}

// Validate returns an error for the first malformed glob.
func (f PathFilter) Validate() error {
	for _, r := range f.Rules {
		if r.Glob == "" {
			continue
		}
		if !doublestar.ValidatePattern(r.Glob) {
			return doublestar.ErrBadPattern
		}
	}
	return nil
}

func (r FilterRule) matches(path string) bool {
	if r.Glob != "" {
		ok, err := doublestar.Match(strings.Trim(r.Glob, "/"), path)
		return err == nil && ok
	}
	return slices.Contains(r.Paths, path)
}
