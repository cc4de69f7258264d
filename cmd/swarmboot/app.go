// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/swarmboot/swarmboot/internal/config"
	"github.com/swarmboot/swarmboot/internal/loader"
	"github.com/swarmboot/swarmboot/internal/logging"
	"github.com/swarmboot/swarmboot/internal/metrics"
	"github.com/swarmboot/swarmboot/pkg/extension"
	"github.com/swarmboot/swarmboot/pkg/modulefinder"
	"github.com/swarmboot/swarmboot/pkg/modules"
	"github.com/swarmboot/swarmboot/pkg/nestedjar"
)

var (
	errEmptyClasspath = errors.New("bootstrap classpath is empty")
	errNoRepositories = errors.New("no module repositories configured")
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; every command handler receives an App.
	App struct {
		Config    config.Provider
		NewLogger LoggerFactory
		stdout    io.Writer
		stderr    io.Writer
		flags     globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		// NewLogger builds the session logger. The default also installs it
		// as the slog default; tests pass logging.New to keep global state untouched.
		NewLogger LoggerFactory
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// LoggerFactory builds a logger writing to w.
	LoggerFactory func(w io.Writer, opts logging.Options) (*slog.Logger, error)

	globalFlags struct {
		configPath string
		logLevel   string
		output     string
		classpath  []string
		metrics    bool
		verbose    bool
	}

	// session holds the services built for one command invocation.
	session struct {
		cfg     *config.Config
		logger  *slog.Logger
		metrics *metrics.Collector
		opener  *nestedjar.Opener
		extra   []string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewLogger == nil {
		deps.NewLogger = logging.Install
	}
	return &App{
		Config:    deps.Config,
		NewLogger: deps.NewLogger,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}

// loadConfig loads the configuration and applies command-line overrides.
func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	cfg, path, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, "", err
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = config.LogLevel(a.flags.logLevel)
	}
	if a.flags.output != "" {
		cfg.Output.Format = config.OutputFormat(a.flags.output)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid command-line flags: %w", err)
	}
	return cfg, path, nil
}

// newSession loads configuration and builds the logger, metrics collector
// and archive opener shared by one command.
func (a *App) newSession(ctx context.Context) (*session, error) {
	cfg, _, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger, err := a.NewLogger(a.stderr, logging.Options{
		Level:  string(cfg.Log.Level),
		Prefix: config.AppName,
		JSON:   cfg.Output.Format == config.OutputJSON,
	})
	if err != nil {
		return nil, err
	}
	collector := metrics.NewCollector(metrics.DefaultNamespace)
	cache, err := nestedjar.NewIndexCache(cfg.IndexCache.Size)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		logger:  logger,
		metrics: collector,
		opener:  nestedjar.NewOpener(nestedjar.WithIndexCache(cache), nestedjar.WithObserver(collector)),
		extra:   slices.Clone(a.flags.classpath),
	}, nil
}

// classpathPaths returns --classpath entries followed by the configured
// classpath. With neither, the default classpath is used.
func (s *session) classpathPaths() []string {
	paths := append(slices.Clone(s.extra), s.cfg.ClasspathPaths()...)
	if len(paths) == 0 {
		return modulefinder.DefaultClasspathPaths()
	}
	return paths
}

// finders returns the registry of finders the "finders" setting can name.
func (s *session) finders() *extension.Registry[modules.Finder] {
	opts := []modulefinder.Option{
		modulefinder.WithLogger(s.logger),
		modulefinder.WithObserver(s.metrics),
	}
	reg := extension.NewRegistry[modules.Finder]("finder")
	reg.Register(config.FinderClasspath, func() (modules.Finder, error) {
		cp, err := modulefinder.NewClasspath(s.opener, s.classpathPaths()...)
		if err != nil {
			return nil, err
		}
		if len(cp.Entries()) == 0 {
			return nil, errEmptyClasspath
		}
		return modulefinder.NewBootstrapFinder(cp, opts...), nil
	})
	reg.Register(config.FinderRepository, func() (modules.Finder, error) {
		repos, err := modulefinder.NewClasspath(s.opener, s.cfg.Repositories...)
		if err != nil {
			return nil, err
		}
		if len(repos.Entries()) == 0 {
			return nil, errNoRepositories
		}
		return modulefinder.NewRepositoryFinder(repos, opts...), nil
	})
	return reg
}

// loader chains the configured finders under a caching module loader.
func (s *session) loader() (*loader.Loader, error) {
	finders, err := s.finders().ResolveAll(s.cfg.Finders)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("module finders resolved", "finders", s.cfg.Finders, "classpath", s.classpathPaths())
	return loader.New(modulefinder.Chain(finders),
		loader.WithLogger(s.logger),
		loader.WithObserver(s.metrics),
	), nil
}
