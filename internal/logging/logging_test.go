// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{in: "debug", want: log.DebugLevel},
		{in: "INFO", want: log.InfoLevel},
		{in: "", want: log.WarnLevel},
		{in: "warning", want: log.WarnLevel},
		{in: " error ", want: log.ErrorLevel},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				var lvlErr *InvalidLevelError
				if !errors.As(err, &lvlErr) {
					t.Fatalf("ParseLevel(%q) error = %v, want *InvalidLevelError", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "info", Prefix: "swarmboot"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("hidden detail")
	logger.Info("module loaded", "module", "org.example.app:main")

	out := buf.String()
	if strings.Contains(out, "hidden detail") {
		t.Errorf("debug record written at info level:\n%s", out)
	}
	for _, want := range []string{"swarmboot", "module loaded", "org.example.app:main"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "error", JSON: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Error("descriptor malformed", "source", "modules/a/main/module.xml")
	if !strings.Contains(buf.String(), `"msg":"descriptor malformed"`) {
		t.Errorf("expected a JSON record, got %q", buf.String())
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	t.Parallel()

	if _, err := New(&bytes.Buffer{}, Options{Level: "trace"}); err == nil {
		t.Error("New() should reject unknown levels")
	}
}
