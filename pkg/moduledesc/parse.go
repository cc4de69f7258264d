// SPDX-License-Identifier: MPL-2.0

// Package moduledesc parses module.xml descriptors into module specs.
//
// The parser never builds resource loaders itself. Every <resource-root>
// is handed to a ResourceRootFactory, which decides where the bytes come
// from (a nested archive, a directory on disk).
package moduledesc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/swarmboot/swarmboot/pkg/modules"
)

// NamespacePrefix is the namespace family of module descriptors. The
// namespace version is not enforced.
const NamespacePrefix = "urn:jboss:module:"

type (
	// ResourceRootFactory builds the loader of one resource root. rootPath is
	// the root namespace handed to Parse; loaderPath and loaderName come from
	// the <resource-root> element.
	ResourceRootFactory func(rootPath, loaderPath, loaderName string) (modules.ResourceLoader, error)

	// parser walks one descriptor token by token.
	parser struct {
		dec      *xml.Decoder
		src      *trackingReader
		source   string
		base     *url.URL
		rootPath string
		delegate modules.DelegateLoader
		id       modules.Identifier
		factory  ResourceRootFactory
	}

	// trackingReader remembers the last read failure so that I/O errors can
	// be told apart from malformed XML.
	trackingReader struct {
		r   io.Reader
		err error
	}
)

// Parse reads the descriptor in r and returns the spec it declares for id.
//
// base is the URL of the directory holding the descriptor and is recorded
// for diagnostics; sourceLabel names the descriptor in errors. A
// <module-absent> descriptor yields a nil spec and a nil error. Structural
// and syntax problems are reported as *modules.DescriptorError. Parse does
// not close r.
func Parse(base *url.URL, rootNamespace string, r io.Reader, sourceLabel string, delegate modules.DelegateLoader, id modules.Identifier, factory ResourceRootFactory) (*modules.ModuleSpec, error) {
	if factory == nil {
		return nil, errors.New("resource root factory is nil")
	}
	src := &trackingReader{r: r}
	dec := xml.NewDecoder(src)
	dec.CharsetReader = charset.NewReaderLabel
	p := &parser{
		dec:      dec,
		src:      src,
		source:   sourceLabel,
		base:     base,
		rootPath: rootNamespace,
		delegate: delegate,
		id:       modules.NewIdentifier(id.Name, id.Slot),
		factory:  factory,
	}
	return p.document()
}

func (p *parser) document() (*modules.ModuleSpec, error) {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, p.errorf("no root element")
		}
		if err != nil {
			return nil, p.syntaxError(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if ns := t.Name.Space; ns != "" && !strings.HasPrefix(ns, NamespacePrefix) {
				return nil, p.errorf("unexpected namespace %q", ns)
			}
			var spec *modules.ModuleSpec
			switch t.Name.Local {
			case "module":
				spec, err = p.module(t)
			case "module-alias":
				spec, err = p.alias(t)
			case "module-absent":
				err = p.absent(t)
			default:
				return nil, p.errorf("unexpected root element <%s>", t.Name.Local)
			}
			if err != nil {
				return nil, err
			}
			if err := p.trailer(); err != nil {
				return nil, err
			}
			return spec, nil
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) > 0 {
				return nil, p.errorf("unexpected text before root element")
			}
		}
	}
}

// trailer checks that nothing but whitespace, comments and processing
// instructions follow the root element.
func (p *parser) trailer() error {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return p.syntaxError(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return p.errorf("unexpected element <%s> after root element", t.Name.Local)
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) > 0 {
				return p.errorf("unexpected text after root element")
			}
		}
	}
}

func (p *parser) module(se xml.StartElement) (*modules.ModuleSpec, error) {
	attrs, err := p.attrs(se, []string{"name"}, []string{"slot", "version"})
	if err != nil {
		return nil, err
	}
	if err := p.checkIdentity(attrs["name"], attrs["slot"]); err != nil {
		return nil, err
	}

	spec := &modules.ModuleSpec{Identifier: p.id, Version: attrs["version"], Source: p.source}
	seen := map[string]bool{}
	err = p.children(se, func(child xml.StartElement) error {
		name := child.Name.Local
		if seen[name] {
			return p.errorf("duplicate element <%s>", name)
		}
		seen[name] = true
		switch name {
		case "main-class":
			a, err := p.attrs(child, []string{"name"}, nil)
			if err != nil {
				return err
			}
			spec.MainClass = a["name"]
			return p.empty(child)
		case "properties":
			props, err := p.properties(child)
			spec.Properties = props
			return err
		case "resources":
			roots, err := p.resources(child)
			spec.ResourceLoaders = roots
			return err
		case "dependencies":
			deps, err := p.dependencies(child)
			spec.Dependencies = deps
			return err
		case "exports":
			f, err := p.filter(child)
			spec.Exports = f
			return err
		case "permissions":
			if err := p.dec.Skip(); err != nil {
				return p.syntaxError(err)
			}
			return nil
		default:
			return p.errorf("unexpected element <%s> in <module>", name)
		}
	})
	if err != nil {
		return nil, err
	}
	return spec, nil
}

func (p *parser) alias(se xml.StartElement) (*modules.ModuleSpec, error) {
	attrs, err := p.attrs(se, []string{"name", "target-name"}, []string{"slot", "target-slot"})
	if err != nil {
		return nil, err
	}
	if err := p.checkIdentity(attrs["name"], attrs["slot"]); err != nil {
		return nil, err
	}
	target := modules.NewIdentifier(attrs["target-name"], attrs["target-slot"])
	if err := target.Validate(); err != nil {
		return nil, p.wrapf(err, "invalid alias target")
	}
	if target == p.id {
		return nil, p.errorf("module alias %s points at itself", p.id)
	}
	if err := p.empty(se); err != nil {
		return nil, err
	}
	return &modules.ModuleSpec{
		Identifier:  p.id,
		AliasTarget: &target,
		Dependencies: []modules.DependencySpec{{
			Kind:       modules.DependencyModule,
			Identifier: target,
			Loader:     p.delegate,
			Export:     true,
			Services:   modules.ServicesNone,
		}},
		Source: p.source,
	}, nil
}

func (p *parser) absent(se xml.StartElement) error {
	attrs, err := p.attrs(se, []string{"name"}, []string{"slot"})
	if err != nil {
		return err
	}
	if err := p.checkIdentity(attrs["name"], attrs["slot"]); err != nil {
		return err
	}
	return p.empty(se)
}

func (p *parser) checkIdentity(name, slot string) error {
	declared := modules.NewIdentifier(name, slot)
	if err := declared.Validate(); err != nil {
		return p.wrapf(err, "invalid module identifier")
	}
	if declared != p.id {
		return p.errorf("descriptor declares %s, expected %s", declared, p.id)
	}
	return nil
}

func (p *parser) properties(se xml.StartElement) ([]modules.Property, error) {
	var props []modules.Property
	err := p.children(se, func(child xml.StartElement) error {
		if child.Name.Local != "property" {
			return p.errorf("unexpected element <%s> in <properties>", child.Name.Local)
		}
		a, err := p.attrs(child, []string{"name"}, []string{"value"})
		if err != nil {
			return err
		}
		value, ok := a["value"]
		if !ok {
			value = "true"
		}
		props = append(props, modules.Property{Name: a["name"], Value: Expand(value)})
		return p.empty(child)
	})
	return props, err
}

func (p *parser) resources(se xml.StartElement) ([]modules.ResourceLoaderSpec, error) {
	var roots []modules.ResourceLoaderSpec
	err := p.children(se, func(child xml.StartElement) error {
		switch child.Name.Local {
		case "resource-root":
		case "artifact", "native-artifact":
			return p.errorf("<%s> is not supported: bootstrap modules must carry their resources", child.Name.Local)
		default:
			return p.errorf("unexpected element <%s> in <resources>", child.Name.Local)
		}

		a, err := p.attrs(child, []string{"path"}, []string{"name"})
		if err != nil {
			return err
		}
		loaderPath := a["path"]
		if strings.TrimSpace(loaderPath) == "" {
			return p.errorf("resource-root path is empty")
		}
		loaderName, ok := a["name"]
		if !ok || loaderName == "" {
			loaderName = loaderPath
		}

		root := modules.ResourceLoaderSpec{RootPath: p.rootPath, LoaderPath: loaderPath, LoaderName: loaderName}
		err = p.children(child, func(inner xml.StartElement) error {
			switch inner.Name.Local {
			case "filter":
				root.Filter, err = p.filter(inner)
			case "conditions":
				root.Conditions, err = p.conditions(inner)
			default:
				return p.errorf("unexpected element <%s> in <resource-root>", inner.Name.Local)
			}
			return err
		})
		if err != nil {
			return err
		}

		loader, err := p.factory(p.rootPath, loaderPath, loaderName)
		if err != nil {
			return p.wrapf(err, "cannot create loader for resource root %q", loaderPath)
		}
		root.Loader = loader
		roots = append(roots, root)
		return nil
	})
	return roots, err
}

func (p *parser) dependencies(se xml.StartElement) ([]modules.DependencySpec, error) {
	var deps []modules.DependencySpec
	err := p.children(se, func(child xml.StartElement) error {
		switch child.Name.Local {
		case "module":
			dep, err := p.moduleDependency(child)
			if err != nil {
				return err
			}
			deps = append(deps, dep)
			return nil
		case "system":
			dep, err := p.systemDependency(child)
			if err != nil {
				return err
			}
			deps = append(deps, dep)
			return nil
		default:
			return p.errorf("unexpected element <%s> in <dependencies>", child.Name.Local)
		}
	})
	return deps, err
}

func (p *parser) moduleDependency(se xml.StartElement) (modules.DependencySpec, error) {
	a, err := p.attrs(se, []string{"name"}, []string{"slot", "export", "optional", "services"})
	if err != nil {
		return modules.DependencySpec{}, err
	}
	dep := modules.DependencySpec{
		Kind:       modules.DependencyModule,
		Identifier: modules.NewIdentifier(a["name"], a["slot"]),
		Loader:     p.delegate,
		Services:   modules.ServicesNone,
	}
	if err := dep.Identifier.Validate(); err != nil {
		return dep, p.wrapf(err, "invalid dependency")
	}
	if dep.Export, err = p.boolAttr(a, "export"); err != nil {
		return dep, err
	}
	if dep.Optional, err = p.boolAttr(a, "optional"); err != nil {
		return dep, err
	}
	if s, ok := a["services"]; ok {
		switch mode := modules.ServiceMode(s); mode {
		case modules.ServicesNone, modules.ServicesImport, modules.ServicesExport:
			dep.Services = mode
		default:
			return dep, p.errorf("invalid services value %q", s)
		}
	}

	err = p.children(se, func(child xml.StartElement) error {
		var err error
		switch child.Name.Local {
		case "imports":
			dep.Imports, err = p.filter(child)
		case "exports":
			dep.Exports, err = p.filter(child)
		case "properties":
			_, err = p.properties(child)
		default:
			err = p.errorf("unexpected element <%s> in module dependency", child.Name.Local)
		}
		return err
	})
	return dep, err
}

func (p *parser) systemDependency(se xml.StartElement) (modules.DependencySpec, error) {
	a, err := p.attrs(se, nil, []string{"export"})
	if err != nil {
		return modules.DependencySpec{}, err
	}
	dep := modules.DependencySpec{Kind: modules.DependencySystem}
	if dep.Export, err = p.boolAttr(a, "export"); err != nil {
		return dep, err
	}
	err = p.children(se, func(child xml.StartElement) error {
		switch child.Name.Local {
		case "paths":
			return p.children(child, func(pe xml.StartElement) error {
				if pe.Name.Local != "path" {
					return p.errorf("unexpected element <%s> in <paths>", pe.Name.Local)
				}
				pa, err := p.attrs(pe, []string{"name"}, nil)
				if err != nil {
					return err
				}
				dep.Paths = append(dep.Paths, strings.Trim(pa["name"], "/"))
				return p.empty(pe)
			})
		case "exports":
			var err error
			dep.Exports, err = p.filter(child)
			return err
		default:
			return p.errorf("unexpected element <%s> in system dependency", child.Name.Local)
		}
	})
	return dep, err
}

// conditions parses the property tests of a resource root.
func (p *parser) conditions(se xml.StartElement) ([]modules.Condition, error) {
	var out []modules.Condition
	err := p.children(se, func(child xml.StartElement) error {
		name := child.Name.Local
		if name != "property-equal" && name != "property-not-equal" {
			return p.errorf("unexpected element <%s> in <conditions>", name)
		}
		a, err := p.attrs(child, []string{"name", "value"}, nil)
		if err != nil {
			return err
		}
		out = append(out, modules.Condition{Property: a["name"], Value: a["value"], Equal: name == "property-equal"})
		return p.empty(child)
	})
	return out, err
}

// filter parses include/exclude rules in document order.
func (p *parser) filter(se xml.StartElement) (modules.PathFilter, error) {
	var f modules.PathFilter
	err := p.children(se, func(child xml.StartElement) error {
		switch name := child.Name.Local; name {
		case "include", "exclude":
			a, err := p.attrs(child, []string{"path"}, nil)
			if err != nil {
				return err
			}
			if name == "include" {
				f = f.Include(strings.Trim(a["path"], "/"))
			} else {
				f = f.Exclude(strings.Trim(a["path"], "/"))
			}
			return p.empty(child)
		case "include-set", "exclude-set":
			rule := modules.FilterRule{Include: name == "include-set"}
			err := p.children(child, func(pe xml.StartElement) error {
				if pe.Name.Local != "path" {
					return p.errorf("unexpected element <%s> in <%s>", pe.Name.Local, name)
				}
				pa, err := p.attrs(pe, []string{"name"}, nil)
				if err != nil {
					return err
				}
				rule.Paths = append(rule.Paths, strings.Trim(pa["name"], "/"))
				return p.empty(pe)
			})
			if err != nil {
				return err
			}
			f.Rules = append(f.Rules, rule)
			return nil
		default:
			return p.errorf("unexpected element <%s> in <%s>", name, se.Name.Local)
		}
	})
	if err != nil {
		return modules.PathFilter{}, err
	}
	if err := f.Validate(); err != nil {
		return modules.PathFilter{}, p.wrapf(err, "invalid filter in <%s>", se.Name.Local)
	}
	return f, nil
}

// children calls fn for every child element of se and consumes tokens up to
// the end of se. fn must consume its element completely.
func (p *parser) children(se xml.StartElement, fn func(xml.StartElement) error) error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.syntaxError(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if ns := t.Name.Space; ns != "" && ns != se.Name.Space {
				return p.errorf("element <%s> has unexpected namespace %q", t.Name.Local, ns)
			}
			if err := fn(t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) > 0 {
				return p.errorf("unexpected text in <%s>", se.Name.Local)
			}
		}
	}
}

// empty consumes the end of an element that must not have content.
func (p *parser) empty(se xml.StartElement) error {
	return p.children(se, func(child xml.StartElement) error {
		return p.errorf("unexpected element <%s> in <%s>", child.Name.Local, se.Name.Local)
	})
}

// attrs collects the attributes of se, rejecting unknown and missing ones.
func (p *parser) attrs(se xml.StartElement, required, optional []string) (map[string]string, error) {
	out := make(map[string]string, len(se.Attr))
	for _, a := range se.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		name := a.Name.Local
		if !slices.Contains(required, name) && !slices.Contains(optional, name) {
			return nil, p.errorf("unexpected attribute %q on <%s>", name, se.Name.Local)
		}
		out[name] = a.Value
	}
	for _, name := range required {
		if _, ok := out[name]; !ok {
			return nil, p.errorf("missing required attribute %q on <%s>", name, se.Name.Local)
		}
	}
	return out, nil
}

func (p *parser) boolAttr(attrs map[string]string, name string) (bool, error) {
	v, ok := attrs[name]
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, p.errorf("attribute %q must be true or false, got %q", name, v)
	}
	return b, nil
}

func (p *parser) line() int {
	line, _ := p.dec.InputPos()
	return line
}

func (p *parser) errorf(format string, args ...any) error {
	return &modules.DescriptorError{Source: p.source, Line: p.line(), Message: fmt.Sprintf(format, args...)}
}

func (p *parser) wrapf(cause error, format string, args ...any) error {
	return &modules.DescriptorError{Source: p.source, Line: p.line(), Message: fmt.Sprintf(format, args...), Cause: cause}
}

// syntaxError classifies decoder errors. Failures of the underlying reader
// are I/O errors; everything else is a malformed descriptor.
func (p *parser) syntaxError(err error) error {
	var se *xml.SyntaxError
	switch {
	case p.src.err != nil:
		return fmt.Errorf("failed to read %s: %w", p.source, p.src.err)
	case errors.As(err, &se):
		return &modules.DescriptorError{Source: p.source, Line: se.Line, Message: "invalid XML", Cause: err}
	case errors.Is(err, io.EOF):
		return &modules.DescriptorError{Source: p.source, Line: p.line(), Message: "unexpected end of document", Cause: io.ErrUnexpectedEOF}
	default:
		return &modules.DescriptorError{Source: p.source, Line: p.line(), Message: "invalid XML", Cause: err}
	}
}

func (t *trackingReader) Read(b []byte) (int, error) {
	n, err := t.r.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}
