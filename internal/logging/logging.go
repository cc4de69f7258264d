// SPDX-License-Identifier: MPL-2.0

// Package logging builds the process logger: a charmbracelet/log handler
// installed behind log/slog so that library packages only see *slog.Logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// Level names accepted by ParseLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

type (
	// Options configures New.
	Options struct {
		// Level is one of LevelDebug, LevelInfo, LevelWarn or LevelError.
		// Empty means LevelWarn.
		Level string
		// Prefix is printed before every message.
		Prefix string
		// JSON switches to JSON lines instead of styled text.
		JSON bool
		// ReportTimestamp prefixes records with the time.
		ReportTimestamp bool
	}

	// InvalidLevelError is returned for an unknown level name.
	InvalidLevelError struct {
		Value string
	}
)

// ParseLevel maps a level name to a log.Level. Matching ignores case.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case LevelDebug:
		return log.DebugLevel, nil
	case LevelInfo:
		return log.InfoLevel, nil
	case "", LevelWarn, "warning":
		return log.WarnLevel, nil
	case LevelError:
		return log.ErrorLevel, nil
	default:
		return 0, &InvalidLevelError{Value: s}
	}
}

// New returns a *slog.Logger that writes to w through a charmbracelet/log handler.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	formatter := log.TextFormatter
	if opts.JSON {
		formatter = log.JSONFormatter
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.ReportTimestamp,
		Formatter:       formatter,
	})
	return slog.New(handler), nil
}

// Install builds a logger with New and makes it the slog default.
func Install(w io.Writer, opts Options) (*slog.Logger, error) {
	logger, err := New(w, opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (want %s, %s, %s or %s)", e.Value, LevelDebug, LevelInfo, LevelWarn, LevelError)
}
