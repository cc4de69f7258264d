// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	"github.com/swarmboot/swarmboot/internal/loader"
	"github.com/swarmboot/swarmboot/pkg/modules"
	"github.com/swarmboot/swarmboot/pkg/nestedjar"
)

type (
	moduleView struct {
		Module       string             `json:"module" yaml:"module" toml:"module"`
		Requested    string             `json:"requested,omitempty" yaml:"requested,omitempty" toml:"requested,omitempty"`
		Version      string             `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
		Source       string             `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
		MainClass    string             `json:"main_class,omitempty" yaml:"main_class,omitempty" toml:"main_class,omitempty"`
		Properties   []modules.Property `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`
		Dependencies []dependencyView   `json:"dependencies,omitempty" yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
		Resources    []resourceView     `json:"resources,omitempty" yaml:"resources,omitempty" toml:"resources,omitempty"`
	}

	dependencyView struct {
		Kind     string   `json:"kind" yaml:"kind" toml:"kind"`
		Module   string   `json:"module,omitempty" yaml:"module,omitempty" toml:"module,omitempty"`
		Export   bool     `json:"export,omitempty" yaml:"export,omitempty" toml:"export,omitempty"`
		Optional bool     `json:"optional,omitempty" yaml:"optional,omitempty" toml:"optional,omitempty"`
		Services string   `json:"services,omitempty" yaml:"services,omitempty" toml:"services,omitempty"`
		Paths    []string `json:"paths,omitempty" yaml:"paths,omitempty" toml:"paths,omitempty"`
	}

	resourceView struct {
		Name     string `json:"name" yaml:"name" toml:"name"`
		Location string `json:"location,omitempty" yaml:"location,omitempty" toml:"location,omitempty"`
	}

	graphView struct {
		Module    string   `json:"module" yaml:"module" toml:"module"`
		BootOrder []string `json:"boot_order" yaml:"boot_order" toml:"boot_order"`
	}

	pathsView struct {
		Module string   `json:"module" yaml:"module" toml:"module"`
		Paths  []string `json:"paths" yaml:"paths" toml:"paths"`
	}

	digestView struct {
		Module   string        `json:"module" yaml:"module" toml:"module"`
		Resource string        `json:"resource" yaml:"resource" toml:"resource"`
		URL      string        `json:"url" yaml:"url" toml:"url"`
		Size     int64         `json:"size" yaml:"size" toml:"size"`
		Digest   digest.Digest `json:"digest" yaml:"digest" toml:"digest"`
	}
)

// newModuleCommand creates the `swarmboot module` command tree.
func newModuleCommand(app *App) *cobra.Command {
	moduleCmd := &cobra.Command{
		Use:   "module",
		Short: "Find and inspect modules",
		Long: `Find and inspect modules on the bootstrap classpath.

Module identifiers are written name[:slot]; the slot defaults to "main".
Descriptors are looked up at modules/<name with dots as slashes>/<slot>/module.xml
in each classpath entry, in order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	moduleCmd.AddCommand(&cobra.Command{
		Use:   "find <module>",
		Short: "Show a module descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, "find module", args[0], func(ctx context.Context, s *session) error {
				return runModuleFind(ctx, app, s, args[0])
			})
		},
	})

	moduleCmd.AddCommand(&cobra.Command{
		Use:   "graph <module>",
		Short: "Print the dependency-first boot order of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, "resolve boot order", args[0], func(ctx context.Context, s *session) error {
				return runModuleGraph(ctx, app, s, args[0])
			})
		},
	})

	moduleCmd.AddCommand(&cobra.Command{
		Use:   "ls <module>",
		Short: "List the resource directories a module serves itself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, "list module paths", args[0], func(ctx context.Context, s *session) error {
				return runModuleList(ctx, app, s, args[0])
			})
		},
	})

	moduleCmd.AddCommand(newModuleCatCommand(app))
	return moduleCmd
}

// newModuleCatCommand creates the `swarmboot module cat` command.
func newModuleCatCommand(app *App) *cobra.Command {
	var (
		withDigest bool
		asClass    bool
	)
	cmd := &cobra.Command{
		Use:   "cat <module> <resource>",
		Short: "Print a resource as the module sees it",
		Long: `Print a resource as the module sees it: its own resource roots first,
then what its dependencies export.

Examples:
  swarmboot module cat org.example.app META-INF/MANIFEST.MF
  swarmboot module cat org.example.app org.example.app.Main --class --digest`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, "read resource", args[0]+" "+args[1], func(ctx context.Context, s *session) error {
				name := args[1]
				if asClass {
					name = modules.ClassResourceName(name)
				}
				return runModuleCat(ctx, app, s, args[0], name, withDigest)
			})
		},
	}
	cmd.Flags().BoolVar(&withDigest, "digest", false, "print the sha256 digest instead of the content")
	cmd.Flags().BoolVar(&asClass, "class", false, "treat the resource as a class name")
	return cmd
}

// loadModule parses raw and loads the module through a fresh loader.
func loadModule(ctx context.Context, s *session, raw string) (*loader.Module, error) {
	id, err := modules.ParseIdentifier(raw)
	if err != nil {
		return nil, err
	}
	l, err := s.loader()
	if err != nil {
		return nil, err
	}
	return l.LoadModule(ctx, id)
}

func runModuleFind(ctx context.Context, app *App, s *session, raw string) error {
	m, err := loadModule(ctx, s, raw)
	if err != nil {
		return err
	}
	view := newModuleView(m.Spec())
	if requested, _ := modules.ParseIdentifier(raw); requested != m.Identifier() {
		view.Requested = requested.String()
	}
	if ok, err := writeStructured(app.stdout, s.cfg.Output.Format, view); ok {
		return err
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(view.Module) + "\n")
	field := func(label, value string) {
		sb.WriteString("  " + labelStyle.Render(label) + value + "\n")
	}
	if view.Requested != "" {
		field("alias", view.Requested)
	}
	if view.Version != "" {
		field("version", view.Version)
	}
	if view.Source != "" {
		field("source", view.Source)
	}
	if view.MainClass != "" {
		field("main class", view.MainClass)
	}
	for _, p := range view.Properties {
		field("property", p.Name+"="+p.Value)
	}
	for _, d := range view.Dependencies {
		field("dependency", d.String())
	}
	for _, r := range view.Resources {
		field("resource", r.Name+"  "+SubtitleStyle.Render(r.Location))
	}
	_, err = io.WriteString(app.stdout, sb.String())
	return err
}

func runModuleGraph(ctx context.Context, app *App, s *session, raw string) error {
	id, err := modules.ParseIdentifier(raw)
	if err != nil {
		return err
	}
	l, err := s.loader()
	if err != nil {
		return err
	}
	order, err := l.BootOrder(ctx, id)
	if err != nil {
		return err
	}
	view := graphView{Module: id.String(), BootOrder: make([]string, len(order))}
	for i, o := range order {
		view.BootOrder[i] = o.String()
	}
	if ok, err := writeStructured(app.stdout, s.cfg.Output.Format, view); ok {
		return err
	}
	for i, o := range view.BootOrder {
		if _, err := fmt.Fprintf(app.stdout, "%3d. %s\n", i+1, o); err != nil {
			return err
		}
	}
	return nil
}

func runModuleList(ctx context.Context, app *App, s *session, raw string) error {
	m, err := loadModule(ctx, s, raw)
	if err != nil {
		return err
	}
	paths, err := m.Paths()
	if err != nil {
		return err
	}
	if ok, err := writeStructured(app.stdout, s.cfg.Output.Format, pathsView{Module: m.Identifier().String(), Paths: paths}); ok {
		return err
	}
	for _, p := range paths {
		if p == "" {
			p = "/"
		}
		if _, err := fmt.Fprintln(app.stdout, p); err != nil {
			return err
		}
	}
	return nil
}

func runModuleCat(ctx context.Context, app *App, s *session, raw, name string, withDigest bool) (err error) {
	m, err := loadModule(ctx, s, raw)
	if err != nil {
		return err
	}
	res, err := m.Resource(ctx, name)
	if err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("%w: %s in %s", errResourceNotFound, name, m.Identifier())
	}
	rc, err := res.Open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !withDigest {
		_, err = io.Copy(app.stdout, rc)
		return err
	}
	d, err := digest.Canonical.FromReader(rc)
	if err != nil {
		return err
	}
	view := digestView{
		Module:   m.Identifier().String(),
		Resource: name,
		URL:      nestedjar.Format(res.URL()),
		Size:     res.Size(),
		Digest:   d,
	}
	if ok, err := writeStructured(app.stdout, s.cfg.Output.Format, view); ok {
		return err
	}
	_, err = fmt.Fprintf(app.stdout, "%s  %s\n", d, name)
	return err
}

func newModuleView(spec *modules.ModuleSpec) moduleView {
	view := moduleView{
		Module:     spec.Identifier.String(),
		Version:    spec.Version,
		Source:     spec.Source,
		MainClass:  spec.MainClass,
		Properties: spec.Properties,
	}
	for _, d := range spec.Dependencies {
		dv := dependencyView{
			Kind:     string(d.Kind),
			Export:   d.Export,
			Optional: d.Optional,
			Paths:    d.Paths,
		}
		if d.Kind == modules.DependencyModule {
			dv.Module = d.Identifier.String()
		}
		if d.Services != "" && d.Services != modules.ServicesNone {
			dv.Services = string(d.Services)
		}
		view.Dependencies = append(view.Dependencies, dv)
	}
	for _, r := range spec.ResourceLoaders {
		rv := resourceView{Name: r.LoaderName}
		if r.Loader != nil {
			rv.Location = nestedjar.Format(r.Loader.Location())
		}
		view.Resources = append(view.Resources, rv)
	}
	return view
}

// String renders the dependency on one line, such as
// "org.example.lib:main (export, optional)".
func (d dependencyView) String() string {
	target := d.Module
	if d.Kind == string(modules.DependencySystem) {
		target = "system " + strings.Join(d.Paths, ",")
	}
	var flags []string
	if d.Export {
		flags = append(flags, "export")
	}
	if d.Optional {
		flags = append(flags, "optional")
	}
	if d.Services != "" {
		flags = append(flags, "services="+d.Services)
	}
	if len(flags) == 0 {
		return target
	}
	return target + " (" + strings.Join(flags, ", ") + ")"
}
