// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/swarmboot/swarmboot/internal/config"
)

// configView is the structured form of `config show`.
type configView struct {
	Path   string         `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Config *config.Config `json:"config" yaml:"config" toml:"config"`
}

// newConfigCommand creates the `swarmboot config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage swarmboot configuration",
		Long: `Manage swarmboot configuration.

Configuration is stored in:
  ` + CmdStyle.Render(config.FilePath()) + `

Every setting can be overridden with a ` + config.EnvPrefix + `_* environment variable,
where dots become underscores (` + config.EnvPrefix + `_INDEX_CACHE_SIZE=0).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(app.stdout, configFilePath(app))
			return err
		},
	})

	return cfgCmd
}

func runConfigShow(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, path, err := app.loadConfig(ctx)
	if err != nil {
		return app.fail(classifyError(err, "show configuration", app.flags.configPath))
	}
	if ok, err := writeStructured(app.stdout, cfg.Output.Format, configView{Path: path, Config: cfg}); ok {
		return err
	}
	if path == "" {
		path = "built-in defaults"
	}
	_, err = io.WriteString(app.stdout, SubtitleStyle.Render("// source: "+path)+"\n"+config.GenerateCUE(cfg))
	return err
}

func runConfigInit(app *App) error {
	path := configFilePath(app)
	written, err := config.CreateDefault(path)
	if err != nil {
		return app.fail(classifyError(err, "create configuration", path))
	}
	if !written {
		_, err = fmt.Fprintf(app.stdout, "%s already exists\n", CmdStyle.Render(path))
		return err
	}
	_, err = fmt.Fprintf(app.stdout, "Created %s\n", CmdStyle.Render(path))
	return err
}

func configFilePath(app *App) string {
	if app.flags.configPath != "" {
		return app.flags.configPath
	}
	return config.FilePath()
}
