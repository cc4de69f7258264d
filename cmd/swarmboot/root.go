// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/swarmboot/swarmboot/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "swarmboot",
		Short: "Inspect modules packed in bootstrap archives",
		Long: TitleStyle.Render("swarmboot") + SubtitleStyle.Render(" - inspect modules packed in bootstrap archives") + `

swarmboot finds module descriptors (module.xml) on a bootstrap classpath of
archives and directories, including archives nested inside other archives,
and resolves the module graph they describe.

` + SubtitleStyle.Render("Examples:") + `
  swarmboot module find org.example.app          Show a module and its dependencies
  swarmboot module graph org.example.app:main    Print the boot order
  swarmboot module cat org.example.app META-INF/MANIFEST.MF --digest
  swarmboot config show -o yaml                  Show the effective configuration
  swarmboot issues module-not-found              Explain a common problem`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is "+config.FilePath()+")")
	pf.StringVar(&app.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVarP(&app.flags.output, "output", "o", "", "output format: text, json, yaml or toml")
	pf.StringArrayVar(&app.flags.classpath, "classpath", nil, "archive or directory searched before the configured classpath (repeatable)")
	pf.BoolVar(&app.flags.metrics, "metrics", false, "print Prometheus metrics to stderr after the command")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "show the full error chain")

	root.AddCommand(newModuleCommand(app))
	root.AddCommand(newConfigCommand(app))
	root.AddCommand(newIssuesCommand(app))
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process on failure.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// run builds a session, runs fn and renders its error. Metrics are printed
// even when fn fails.
func (a *App) run(cmd *cobra.Command, op, resource string, fn func(context.Context, *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := a.newSession(ctx)
	if err != nil {
		return a.fail(classifyError(err, op, resource))
	}
	err = fn(ctx, s)
	if a.flags.metrics {
		if werr := s.metrics.WriteText(a.stderr); werr != nil {
			s.logger.Warn("failed to write metrics", "error", werr)
		}
	}
	if err != nil {
		return a.fail(classifyError(err, op, resource))
	}
	return nil
}

// fail prints err and converts it into an ExitError.
func (a *App) fail(err error) error {
	fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.flags.verbose))
	return &ExitError{Code: exitCode(err)}
}
