// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/swarmboot/swarmboot/internal/issue"
	"github.com/swarmboot/swarmboot/pkg/cueutil"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "swarmboot"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides: SWARMBOOT_LOG_LEVEL sets log.level.
	EnvPrefix = "SWARMBOOT"
)

//go:embed config_schema.cue
var configSchema []byte

// Dir returns the user configuration directory, $XDG_CONFIG_HOME/swarmboot
// or its platform equivalent.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// FilePath returns the default config file path inside Dir.
func FilePath() string {
	return filepath.Join(Dir(), ConfigFileName+"."+ConfigFileExt)
}

// loadWithOptions loads defaults, then the config file, then environment
// overrides, and returns the config with the path of the file used ("" when
// none was found).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("classpath", defaults.Classpath)
	v.SetDefault("finders", defaults.Finders)
	v.SetDefault("repositories", defaults.Repositories)
	v.SetDefault("index_cache.size", defaults.IndexCache.Size)
	v.SetDefault("log.level", string(defaults.Log.Level))
	v.SetDefault("output.format", string(defaults.Output.Format))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Remove keys the schema does not know; see 'swarmboot config show'").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Log.Level = LogLevel(strings.ToLower(string(cfg.Log.Level)))
	cfg.Output.Format = OutputFormat(strings.ToLower(string(cfg.Output.Format)))

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables as well as the config file").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return &cfg, path, nil
}

// resolvePath picks the config file: an explicit file must exist, an
// explicit directory is used as is, otherwise the XDG config directories
// are searched.
func resolvePath(opts LoadOptions) (string, error) {
	rel := ConfigFileName + "." + ConfigFileExt
	switch {
	case opts.ConfigFilePath != "":
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'swarmboot config show' to see the default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fs.ErrNotExist).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	case opts.ConfigDirPath != "":
		if p := filepath.Join(opts.ConfigDirPath, rel); fileExists(p) {
			return p, nil
		}
		return "", nil
	default:
		p, err := xdg.SearchConfigFile(filepath.Join(AppName, rel))
		if err != nil {
			return "", nil
		}
		return p, nil
	}
}

// loadCUEIntoViper validates the file against #Config and merges it into v,
// keeping defaults for unset fields.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	values, err := cueutil.Decode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path), cueutil.WithConcrete(false))
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefault writes the default configuration to path unless a file
// already exists there. It reports whether a file was written.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// GenerateCUE renders cfg as a config.cue document.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	sb.WriteString("// swarmboot configuration\n\n")
	writeList(&sb, "classpath", cfg.Classpath)
	writeList(&sb, "finders", cfg.Finders)
	writeList(&sb, "repositories", cfg.Repositories)
	fmt.Fprintf(&sb, "\nindex_cache: size: %d\n", cfg.IndexCache.Size)
	fmt.Fprintf(&sb, "log: level: %q\n", cfg.Log.Level)
	fmt.Fprintf(&sb, "output: format: %q\n", cfg.Output.Format)
	return sb.String()
}

func writeList(sb *strings.Builder, key string, values []string) {
	if len(values) == 0 {
		fmt.Fprintf(sb, "%s: []\n", key)
		return
	}
	fmt.Fprintf(sb, "%s: [\n", key)
	for _, v := range values {
		fmt.Fprintf(sb, "\t%q,\n", v)
	}
	sb.WriteString("]\n")
}
