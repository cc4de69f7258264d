// SPDX-License-Identifier: MPL-2.0

package modules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultSlot is the slot used when an identifier does not name one.
	DefaultSlot = "main"

	// ModulesRoot is the classpath directory that holds bootstrap module descriptors.
	ModulesRoot = "modules"

	// DescriptorFileName is the file name of a module descriptor.
	DescriptorFileName = "module.xml"
)

var (
	// ErrInvalidIdentifier is the sentinel error wrapped by InvalidIdentifierError.
	ErrInvalidIdentifier = errors.New("invalid module identifier")

	// nameSegmentPattern matches one dot-separated segment of a module name.
	// Hyphens and underscores are common in module names ("org.jboss.as.naming-client").
	nameSegmentPattern = regexp.MustCompile(`^[A-Za-z0-9_$][A-Za-z0-9_$-]*$`)
)

type (
	// Identifier uniquely names a module within a loader's namespace.
	// It is a value type: use it as a map key, never mutate it.
	Identifier struct {
		// Name is the dotted module name (e.g., "org.example.foo").
		Name string `json:"name" yaml:"name"`
		// Slot distinguishes versions of the same module (default "main").
		Slot string `json:"slot" yaml:"slot"`
	}

	// InvalidIdentifierError is returned when an Identifier does not satisfy the
	// naming rules. It wraps ErrInvalidIdentifier for errors.Is() compatibility.
	InvalidIdentifierError struct {
		Value  Identifier
		Reason string
	}
)

// NewIdentifier returns an Identifier, substituting DefaultSlot for an empty slot.
func NewIdentifier(name, slot string) Identifier {
	if slot == "" {
		slot = DefaultSlot
	}
	return Identifier{Name: name, Slot: slot}
}

// ParseIdentifier parses "name" or "name:slot" and validates the result.
func ParseIdentifier(s string) (Identifier, error) {
	name, slot, _ := strings.Cut(strings.TrimSpace(s), ":")
	id := NewIdentifier(name, slot)
	if err := id.Validate(); err != nil {
		return Identifier{}, err
	}
	return id, nil
}

// MustParseIdentifier is like ParseIdentifier but panics on error.
// It is intended for tests and package-level variables.
func MustParseIdentifier(s string) Identifier {
	id, err := ParseIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the "name:slot" form.
func (id Identifier) String() string {
	return id.Name + ":" + id.slot()
}

// IsZero reports whether the identifier is the zero value.
func (id Identifier) IsZero() bool {
	return id.Name == "" && id.Slot == ""
}

// Validate returns nil if the name is a non-empty sequence of dot-separated
// segments and the slot is non-empty and free of path separators.
func (id Identifier) Validate() error {
	if id.Name == "" {
		return &InvalidIdentifierError{Value: id, Reason: "name must not be empty"}
	}
	for seg := range strings.SplitSeq(id.Name, ".") {
		if !nameSegmentPattern.MatchString(seg) {
			return &InvalidIdentifierError{Value: id, Reason: fmt.Sprintf("invalid name segment %q", seg)}
		}
	}
	slot := id.slot()
	if strings.ContainsAny(slot, `/\`) || slot == "." || slot == ".." || strings.TrimSpace(slot) != slot {
		return &InvalidIdentifierError{Value: id, Reason: fmt.Sprintf("invalid slot %q", slot)}
	}
	return nil
}

// DescriptorPath returns the bootstrap classpath location of the module descriptor:
// modules/<name with '.' replaced by '/'>/<slot>/module.xml.
func (id Identifier) DescriptorPath() string {
	return ModulesRoot + "/" + id.RepositoryPath()
}

// RepositoryPath returns the descriptor path relative to a local module
// repository root, which omits the leading "modules/" directory.
func (id Identifier) RepositoryPath() string {
	return strings.ReplaceAll(id.Name, ".", "/") + "/" + id.slot() + "/" + DescriptorFileName
}

func (id Identifier) slot() string {
	if id.Slot == "" {
		return DefaultSlot
	}
	return id.Slot
}

// Error implements the error interface for InvalidIdentifierError.
func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid module identifier %q: %s", e.Value.Name+":"+e.Value.Slot, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidIdentifierError) Unwrap() error {
	return ErrInvalidIdentifier
}
