// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pelletier/go-toml/v2"

	"github.com/swarmboot/swarmboot/internal/config"
	"github.com/swarmboot/swarmboot/internal/issue"
)

func TestConfigShow(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Classpath = []string{"/opt/app/boot.jar"}

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		res := runCLIWith(t, staticConfig{cfg: *cfg, path: "/etc/swarmboot/config.cue"}, "config", "show")
		if res.err != nil {
			t.Fatalf("error = %v", res.err)
		}
		for _, want := range []string{"/etc/swarmboot/config.cue", `"/opt/app/boot.jar"`, `level: "warn"`} {
			if !strings.Contains(res.stdout, want) {
				t.Errorf("stdout missing %q:\n%s", want, res.stdout)
			}
		}
	})

	t.Run("flags override configuration", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, cfg, "config", "show", "-o", "json", "--log-level", "debug")
		if res.err != nil {
			t.Fatalf("error = %v", res.err)
		}
		var got configView
		if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
		}
		want := *cfg
		want.Log.Level = config.LogLevelDebug
		want.Output.Format = config.OutputJSON
		if diff := cmp.Diff(&want, got.Config, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("toml", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, cfg, "config", "show", "-o", "toml")
		if res.err != nil {
			t.Fatalf("error = %v", res.err)
		}
		var got configView
		if err := toml.Unmarshal([]byte(res.stdout), &got); err != nil {
			t.Fatalf("output is not TOML: %v\n%s", err, res.stdout)
		}
		if diff := cmp.Diff(cfg.Classpath, got.Config.Classpath); diff != "" {
			t.Errorf("classpath mismatch (-want +got):\n%s", diff)
		}
		if got.Config.Output.Format != config.OutputTOML {
			t.Errorf("output format = %q, want toml", got.Config.Output.Format)
		}
	})

	t.Run("invalid flag", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, cfg, "config", "show", "--log-level", "loud")
		if res.err == nil || !strings.Contains(res.stderr, "swarmboot issues config-load-failed") {
			t.Errorf("error = %v, stderr:\n%s", res.err, res.stderr)
		}
	})

	t.Run("load failure", func(t *testing.T) {
		t.Parallel()
		loadErr := issue.NewErrorContext().
			WithOperation("load configuration").
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.New("expected ']'")).
			BuildError()
		res := runCLIWith(t, staticConfig{err: loadErr}, "config", "show")
		if res.err == nil {
			t.Fatal("expected failure")
		}
		for _, want := range []string{"valid CUE syntax", "config-load-failed"} {
			if !strings.Contains(res.stderr, want) {
				t.Errorf("stderr missing %q:\n%s", want, res.stderr)
			}
		}
	})
}

func TestConfigInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "swarmboot", "config.cue")
	res := runCLI(t, config.DefaultConfig(), "config", "init", "--config", path)
	if res.err != nil || !strings.Contains(res.stdout, "Created") {
		t.Fatalf("first init = %q, %v", res.stdout, res.err)
	}
	res = runCLI(t, config.DefaultConfig(), "config", "init", "--config", path)
	if res.err != nil || !strings.Contains(res.stdout, "already exists") {
		t.Errorf("second init = %q, %v", res.stdout, res.err)
	}

	cfg, _, err := config.NewProvider().Load(t.Context(), config.LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated file does not load: %v", err)
	}
	if diff := cmp.Diff(config.DefaultConfig(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("generated config mismatch (-want +got):\n%s", diff)
	}

	res = runCLI(t, config.DefaultConfig(), "config", "path", "--config", path)
	if strings.TrimSpace(res.stdout) != path {
		t.Errorf("config path = %q, want %q", res.stdout, path)
	}
}
