// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// FinderClasspath searches modules/ on the bootstrap classpath.
	FinderClasspath = "classpath"
	// FinderRepository searches local module repositories.
	FinderRepository = "repository"

	// DefaultIndexCacheSize is the default number of cached archive indexes.
	DefaultIndexCacheSize = 64

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
	OutputTOML OutputFormat = "toml"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidIndexCacheSize is returned for a negative cache size.
	ErrInvalidIndexCacheSize = errors.New("invalid index cache size")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level that is logged.
	LogLevel string

	// OutputFormat selects how commands print results.
	OutputFormat string

	// Config is the swarmboot configuration.
	Config struct {
		// Classpath lists archives and directories searched for modules/.
		// Each entry may itself be an OS path list.
		Classpath []string `json:"classpath" yaml:"classpath" toml:"classpath" mapstructure:"classpath"`
		// Finders names the finders to chain, in order.
		Finders []string `json:"finders" yaml:"finders" toml:"finders" mapstructure:"finders"`
		// Repositories lists local module repository roots for the repository finder.
		Repositories []string `json:"repositories" yaml:"repositories" toml:"repositories" mapstructure:"repositories"`
		// IndexCache configures the archive index cache.
		IndexCache IndexCacheConfig `json:"index_cache" yaml:"index_cache" toml:"index_cache" mapstructure:"index_cache"`
		// Log configures logging.
		Log LogConfig `json:"log" yaml:"log" toml:"log" mapstructure:"log"`
		// Output configures command output.
		Output OutputConfig `json:"output" yaml:"output" toml:"output" mapstructure:"output"`
	}

	// IndexCacheConfig configures the archive index cache.
	IndexCacheConfig struct {
		// Size is the number of cached indexes; 0 disables the cache.
		Size int `json:"size" yaml:"size" toml:"size" mapstructure:"size"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level LogLevel `json:"level" yaml:"level" toml:"level" mapstructure:"level"`
	}

	// OutputConfig configures command output.
	OutputConfig struct {
		Format OutputFormat `json:"format" yaml:"format" toml:"format" mapstructure:"format"`
	}

	// InvalidLogLevelError wraps ErrInvalidLogLevel.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidOutputFormatError wraps ErrInvalidOutputFormat.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// InvalidConfigError collects every field error of a Config.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Classpath:    []string{},
		Finders:      []string{FinderClasspath},
		Repositories: []string{},
		IndexCache:   IndexCacheConfig{Size: DefaultIndexCacheSize},
		Log:          LogConfig{Level: LogLevelWarn},
		Output:       OutputConfig{Format: OutputText},
	}
}

// ClasspathPaths flattens Classpath, splitting entries that are OS path
// lists and dropping empty elements.
func (c Config) ClasspathPaths() []string {
	var out []string
	for _, entry := range c.Classpath {
		for _, p := range filepath.SplitList(entry) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Output.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.IndexCache.Size < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidIndexCacheSize, c.IndexCache.Size))
	}
	for i, f := range c.Finders {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, fmt.Errorf("%w: finders[%d] is empty", ErrInvalidConfig, i))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate is IsValid returning a single error.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// String returns the level name.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the level is known.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// String returns the format name.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the format is known.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case OutputText, OutputJSON, OutputYAML, OutputTOML:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, json, yaml, toml)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap exposes the sentinel and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
