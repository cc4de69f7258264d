// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"slices"

	"github.com/swarmboot/swarmboot/internal/dag"
	"github.com/swarmboot/swarmboot/pkg/modules"
)

type (
	// Module is a loaded module: its spec plus the loader that resolves its
	// dependencies.
	Module struct {
		spec   *modules.ModuleSpec
		loader *Loader
	}

	// Dependency is a resolved module dependency edge.
	Dependency struct {
		Spec   modules.DependencySpec
		Module *Module
	}
)

// Identifier returns the module identifier.
func (m *Module) Identifier() modules.Identifier { return m.spec.Identifier }

// Spec returns the module spec. It must not be modified.
func (m *Module) Spec() *modules.ModuleSpec { return m.spec }

// Dependencies resolves the module dependencies in declaration order.
// A missing optional dependency is skipped; a missing required one is a
// *NotFoundError naming this module.
func (m *Module) Dependencies(ctx context.Context) ([]Dependency, error) {
	var out []Dependency
	for _, d := range m.spec.ModuleDependencies() {
		dep, err := m.loader.LoadModule(ctx, d.Identifier)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				if d.Optional {
					m.loader.logger.Debug("optional dependency missing", "module", m.Identifier(), "dependency", d.Identifier)
					continue
				}
				requiredBy := m.Identifier()
				return nil, &NotFoundError{Identifier: nf.Identifier, RequiredBy: &requiredBy}
			}
			return nil, err
		}
		out = append(out, Dependency{Spec: d, Module: dep})
	}
	return out, nil
}

// Resource looks up name in the module's own resource roots, in order and
// subject to each root's filter, and then in the exports of its
// dependencies. It returns nil, nil when no module serves the resource.
func (m *Module) Resource(ctx context.Context, name string) (*modules.Resource, error) {
	dir := modules.ResourceDir(name)
	if res, err := m.local(name, dir, modules.PathFilter{}); res != nil || err != nil {
		return res, err
	}

	deps, err := m.Dependencies(ctx)
	if err != nil {
		return nil, err
	}
	visited := map[*Module]bool{m: true}
	for _, d := range deps {
		if !d.Spec.Imports.Accepts(dir) {
			continue
		}
		res, err := d.Module.exported(ctx, name, dir, visited)
		if res != nil || err != nil {
			return res, err
		}
	}
	return nil, nil
}

// LoadClass returns the bytes of className as seen from this module, or nil
// when the class is not visible.
func (m *Module) LoadClass(ctx context.Context, className string) ([]byte, error) {
	res, err := m.Resource(ctx, modules.ClassResourceName(className))
	if err != nil || res == nil {
		return nil, err
	}
	return res.Bytes()
}

// Paths returns the sorted, de-duplicated directory paths served by the
// module's own resource roots after filtering.
func (m *Module) Paths() ([]string, error) {
	var out []string
	for _, rl := range m.spec.ResourceLoaders {
		if rl.Loader == nil {
			continue
		}
		paths, err := rl.Loader.Paths()
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			if rl.Filter.Accepts(p) {
				out = append(out, p)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// local searches the module's own resource roots. extra is applied on top of
// each root's filter.
func (m *Module) local(name, dir string, extra modules.PathFilter) (*modules.Resource, error) {
	if !extra.Accepts(dir) {
		return nil, nil
	}
	for _, rl := range m.spec.ResourceLoaders {
		if rl.Loader == nil || !rl.Filter.Accepts(dir) {
			continue
		}
		res, err := rl.Loader.Resource(name)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// exported searches what m makes visible to dependents: its own resources
// passing its export filter, then re-exported dependencies.
func (m *Module) exported(ctx context.Context, name, dir string, visited map[*Module]bool) (*modules.Resource, error) {
	if visited[m] {
		return nil, nil
	}
	visited[m] = true

	if res, err := m.local(name, dir, m.spec.Exports); res != nil || err != nil {
		return res, err
	}

	deps, err := m.Dependencies(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range deps {
		if !d.Spec.Export || !d.Spec.Imports.Accepts(dir) || !d.Spec.Exports.Accepts(dir) {
			continue
		}
		res, err := d.Module.exported(ctx, name, dir, visited)
		if res != nil || err != nil {
			return res, err
		}
	}
	return nil, nil
}

// Closure returns id's module followed by every module reachable through
// module dependencies, in breadth-first discovery order. Cycles are allowed.
func (l *Loader) Closure(ctx context.Context, id modules.Identifier) ([]*Module, error) {
	root, err := l.LoadModule(ctx, id)
	if err != nil {
		return nil, err
	}
	seen := map[*Module]bool{root: true}
	out := []*Module{root}
	for i := 0; i < len(out); i++ {
		deps, err := out[i].Dependencies(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if !seen[d.Module] {
				seen[d.Module] = true
				out = append(out, d.Module)
			}
		}
	}
	return out, nil
}

// BootOrder returns the identifiers of id's closure ordered so that every
// module follows its dependencies. Ties keep discovery order. A circular
// dependency is reported as *dag.CycleError.
func (l *Loader) BootOrder(ctx context.Context, id modules.Identifier) ([]modules.Identifier, error) {
	closure, err := l.Closure(ctx, id)
	if err != nil {
		return nil, err
	}
	g := dag.New[modules.Identifier]()
	for _, m := range closure {
		g.AddNode(m.Identifier())
	}
	for _, m := range closure {
		deps, err := m.Dependencies(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			g.AddEdge(d.Module.Identifier(), m.Identifier())
		}
	}
	return g.TopologicalSort()
}
