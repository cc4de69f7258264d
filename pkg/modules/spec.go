// SPDX-License-Identifier: MPL-2.0

package modules

import (
	"context"
	"net/url"
)

const (
	// DependencyModule is a dependency on another module.
	DependencyModule DependencyKind = "module"
	// DependencySystem is a dependency on paths supplied by the host runtime.
	DependencySystem DependencyKind = "system"

	// ServicesNone does not propagate service descriptors.
	ServicesNone ServiceMode = "none"
	// ServicesImport imports service descriptors (META-INF/services) from the dependency.
	ServicesImport ServiceMode = "import"
	// ServicesExport imports and re-exports service descriptors.
	ServicesExport ServiceMode = "export"
)

type (
	// DependencyKind distinguishes module dependencies from system dependencies.
	DependencyKind string

	// ServiceMode controls how service descriptors cross a dependency edge.
	ServiceMode string

	// Property is a single name/value pair declared by a descriptor.
	Property struct {
		Name  string `json:"name" yaml:"name" toml:"name"`
		Value string `json:"value" yaml:"value" toml:"value"`
	}

	// DependencySpec describes one edge of the module graph.
	DependencySpec struct {
		Kind       DependencyKind `json:"kind" yaml:"kind"`
		Identifier Identifier     `json:"identifier,omitempty" yaml:"identifier,omitempty"`
		// Loader resolves Identifier. It is the delegate loader that was handed
		// to the finder which produced the enclosing spec.
		Loader   DelegateLoader `json:"-" yaml:"-"`
		Export   bool           `json:"export,omitempty" yaml:"export,omitempty"`
		Optional bool           `json:"optional,omitempty" yaml:"optional,omitempty"`
		Services ServiceMode    `json:"services,omitempty" yaml:"services,omitempty"`
		Imports  PathFilter     `json:"imports,omitempty" yaml:"imports,omitempty"`
		Exports  PathFilter     `json:"exports,omitempty" yaml:"exports,omitempty"`
		// Paths lists the paths a system dependency makes visible.
		Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
	}

	// ResourceLoaderSpec describes one source of classes and resources.
	// Loader is constructed by the descriptor parser's factory; it performs no
	// I/O until the first read.
	ResourceLoaderSpec struct {
		RootPath   string         `json:"root_path" yaml:"root_path"`
		LoaderPath string         `json:"loader_path" yaml:"loader_path"`
		LoaderName string         `json:"loader_name" yaml:"loader_name"`
		Filter     PathFilter     `json:"filter,omitempty" yaml:"filter,omitempty"`
		// Conditions are recorded as declared; they are not evaluated.
		Conditions []Condition    `json:"conditions,omitempty" yaml:"conditions,omitempty"`
		Loader     ResourceLoader `json:"-" yaml:"-"`
	}

	// Condition is a property test attached to a resource root. Equal is
	// false for property-not-equal.
	Condition struct {
		Property string `json:"property" yaml:"property"`
		Value    string `json:"value" yaml:"value"`
		Equal    bool   `json:"equal" yaml:"equal"`
	}

	// ModuleSpec is the fully resolved description of a module. Specs are
	// created fresh by every FindModule call and are read-only once returned.
	ModuleSpec struct {
		Identifier      Identifier           `json:"identifier" yaml:"identifier"`
		Version         string               `json:"version,omitempty" yaml:"version,omitempty"`
		MainClass       string               `json:"main_class,omitempty" yaml:"main_class,omitempty"`
		Properties      []Property           `json:"properties,omitempty" yaml:"properties,omitempty"`
		Dependencies    []DependencySpec     `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
		ResourceLoaders []ResourceLoaderSpec `json:"resource_loaders,omitempty" yaml:"resource_loaders,omitempty"`
		Exports         PathFilter           `json:"exports,omitempty" yaml:"exports,omitempty"`
		// AliasTarget is set when the descriptor is a module-alias.
		AliasTarget *Identifier `json:"alias_target,omitempty" yaml:"alias_target,omitempty"`
		// Source is the label of the descriptor the spec was parsed from.
		Source string `json:"source,omitempty" yaml:"source,omitempty"`
	}

	// ResourceLoader serves class and resource bytes for a module.
	//
	// Implementations must be safe for concurrent use. A missing resource is
	// reported as a nil *Resource with a nil error, so that callers can fall
	// through to the next loader.
	ResourceLoader interface {
		// Name is the stable logical name used for diagnostics and equality.
		Name() string
		// Location is the URL the loader is anchored at.
		Location() *url.URL
		// Resource looks up a resource by slash-separated name.
		Resource(name string) (*Resource, error)
		// Paths lists the directory paths that contain at least one resource.
		Paths() ([]string, error)
	}

	// Finder locates and parses module descriptors.
	//
	// A nil spec with a nil error means the finder does not own the identifier,
	// which lets callers try the next finder in a chain.
	Finder interface {
		FindModule(id Identifier, delegate DelegateLoader) (*ModuleSpec, error)
	}

	// FinderFunc adapts an ordinary function to the Finder interface.
	FinderFunc func(id Identifier, delegate DelegateLoader) (*ModuleSpec, error)

	// DelegateLoader resolves the dependencies named by a spec. It is typically
	// the caching loader that invoked the finder.
	DelegateLoader interface {
		LoadSpec(ctx context.Context, id Identifier) (*ModuleSpec, error)
	}
)

// FindModule calls f(id, delegate).
func (f FinderFunc) FindModule(id Identifier, delegate DelegateLoader) (*ModuleSpec, error) {
	return f(id, delegate)
}

// IsAlias reports whether the spec redirects to another module.
func (s *ModuleSpec) IsAlias() bool {
	return s.AliasTarget != nil
}

// Property returns the value of the named property.
func (s *ModuleSpec) Property(name string) (string, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// ModuleDependencies returns the dependencies of kind DependencyModule, in order.
func (s *ModuleSpec) ModuleDependencies() []DependencySpec {
	var deps []DependencySpec
	for _, d := range s.Dependencies {
		if d.Kind == DependencyModule {
			deps = append(deps, d)
		}
	}
	return deps
}

// Resolve loads the spec of a module dependency through its delegate loader.
// System dependencies and dependencies without a loader resolve to nil.
func (d DependencySpec) Resolve(ctx context.Context) (*ModuleSpec, error) {
	if d.Kind != DependencyModule || d.Loader == nil {
		return nil, nil
	}
	return d.Loader.LoadSpec(ctx, d.Identifier)
}
