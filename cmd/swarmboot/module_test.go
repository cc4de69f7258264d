// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opencontainers/go-digest"
	"gopkg.in/yaml.v3"

	"github.com/swarmboot/swarmboot/internal/config"
	"github.com/swarmboot/swarmboot/internal/testutil"
)

// writeRepoModule lays out org.example.repo in repository layout with an
// exploded resource root.
func writeRepoModule(t *testing.T, repo string) {
	t.Helper()
	dir := filepath.Join(repo, "org", "example", "repo", "main")
	testutil.MustWriteFile(t, filepath.Join(dir, "module.xml"), []byte(
		`<module xmlns="urn:jboss:module:1.9" name="org.example.repo"><resources><resource-root path="content"/></resources></module>`))
	testutil.MustWriteFile(t, filepath.Join(dir, "content", "hello.txt"), []byte("hello"))
}

func TestModuleFind(t *testing.T) {
	t.Parallel()

	cfg := bootConfig(writeBootJar(t))

	tests := []struct {
		name     string
		args     []string
		wantOut  []string
		wantCode int
		wantErr  []string
	}{
		{
			name: "module with dependencies",
			args: []string{"module", "find", "org.example.app"},
			wantOut: []string{
				"org.example.app:main",
				"org.example.app.Main",
				"app.mode=boot",
				"org.example.lib:main (export)",
				"app.jar",
			},
		},
		{
			name:    "alias resolves to its target",
			args:    []string{"module", "find", "org.example.alias:main"},
			wantOut: []string{"org.example.app:main", "org.example.alias:main"},
		},
		{
			name:     "missing module",
			args:     []string{"module", "find", "org.example.nothing"},
			wantCode: ExitNotFound,
			wantErr:  []string{"org.example.nothing:main", "swarmboot issues module-not-found"},
		},
		{
			name:     "malformed descriptor",
			args:     []string{"module", "find", "org.example.broken"},
			wantCode: ExitFailure,
			wantErr:  []string{"swarmboot issues descriptor-malformed"},
		},
		{
			name:     "invalid identifier",
			args:     []string{"module", "find", "org..example"},
			wantCode: ExitFailure,
			wantErr:  []string{"invalid module identifier", "name[:slot]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := runCLI(t, cfg, tt.args...)
			if tt.wantCode != 0 {
				if code := exitCodeOf(t, res.err); code != tt.wantCode {
					t.Errorf("exit code = %d, want %d", code, tt.wantCode)
				}
				for _, want := range tt.wantErr {
					if !strings.Contains(res.stderr, want) {
						t.Errorf("stderr missing %q:\n%s", want, res.stderr)
					}
				}
				return
			}
			if res.err != nil {
				t.Fatalf("error = %v\nstderr:\n%s", res.err, res.stderr)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(res.stdout, want) {
					t.Errorf("stdout missing %q:\n%s", want, res.stdout)
				}
			}
		})
	}
}

func TestModuleFind_YAML(t *testing.T) {
	t.Parallel()

	res := runCLI(t, bootConfig(writeBootJar(t)), "module", "find", "org.example.app", "-o", "yaml")
	if res.err != nil {
		t.Fatalf("error = %v\nstderr:\n%s", res.err, res.stderr)
	}
	var got moduleView
	if err := yaml.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, res.stdout)
	}
	want := []dependencyView{{Kind: "module", Module: "org.example.lib:main", Export: true}}
	if diff := cmp.Diff(want, got.Dependencies); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
	if got.MainClass != "org.example.app.Main" || len(got.Resources) != 1 {
		t.Errorf("module view = %+v", got)
	}
}

func TestModuleGraph(t *testing.T) {
	t.Parallel()

	cfg := bootConfig(writeBootJar(t))

	t.Run("dependency first", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, cfg, "module", "graph", "org.example.alias", "-o", "json")
		if res.err != nil {
			t.Fatalf("error = %v\nstderr:\n%s", res.err, res.stderr)
		}
		var got graphView
		if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
		}
		want := graphView{
			Module:    "org.example.alias:main",
			BootOrder: []string{"org.example.lib:main", "org.example.app:main"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("graph mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, cfg, "module", "graph", "org.example.cyc.a")
		if code := exitCodeOf(t, res.err); code != ExitFailure {
			t.Errorf("exit code = %d", code)
		}
		if !strings.Contains(res.stderr, "swarmboot issues dependency-cycle") {
			t.Errorf("stderr missing cycle issue:\n%s", res.stderr)
		}
	})
}

func TestModuleList(t *testing.T) {
	t.Parallel()

	res := runCLI(t, bootConfig(writeBootJar(t)), "module", "ls", "org.example.app")
	if res.err != nil {
		t.Fatalf("error = %v\nstderr:\n%s", res.err, res.stderr)
	}
	for _, want := range []string{"META-INF", "org/example/app"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}
	if strings.Contains(res.stdout, "org/example/lib") {
		t.Errorf("ls should list only the module's own paths:\n%s", res.stdout)
	}
}

func TestModuleCat(t *testing.T) {
	t.Parallel()

	cfg := bootConfig(writeBootJar(t))

	t.Run("own resource", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, cfg, "module", "cat", "org.example.app", "META-INF/MANIFEST.MF")
		if res.err != nil || res.stdout != "Manifest-Version: 1.0\n" {
			t.Errorf("cat = %q, %v\nstderr:\n%s", res.stdout, res.err, res.stderr)
		}
	})

	t.Run("class exported by a dependency", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, cfg, "module", "cat", "org.example.app", "org.example.lib.Util", "--class")
		if res.err != nil || res.stdout != "lib-util" {
			t.Errorf("cat = %q, %v\nstderr:\n%s", res.stdout, res.err, res.stderr)
		}
	})

	t.Run("digest", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, cfg, "module", "cat", "org.example.app", "org/example/app/Main.class", "--digest", "-o", "json")
		if res.err != nil {
			t.Fatalf("error = %v\nstderr:\n%s", res.err, res.stderr)
		}
		var got digestView
		if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
		}
		if want := digest.FromString("app-main"); got.Digest != want {
			t.Errorf("digest = %s, want %s", got.Digest, want)
		}
		if got.Size != int64(len("app-main")) || !strings.Contains(got.URL, "app.jar!/org/example/app/Main.class") {
			t.Errorf("digest view = %+v", got)
		}
	})

	t.Run("missing resource", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, cfg, "module", "cat", "org.example.app", "nope.txt")
		if code := exitCodeOf(t, res.err); code != ExitNotFound {
			t.Errorf("exit code = %d, want %d", code, ExitNotFound)
		}
		if !strings.Contains(res.stderr, "resource not found") {
			t.Errorf("stderr = %s", res.stderr)
		}
	})
}

func TestModuleCommands_FinderConfiguration(t *testing.T) {
	t.Parallel()

	jar := writeBootJar(t)

	tests := []struct {
		name      string
		cfg       func() *config.Config
		args      []string
		wantIssue string
	}{
		{
			name:      "empty classpath",
			cfg:       func() *config.Config { return bootConfig("") },
			wantIssue: "classpath-empty",
		},
		{
			name: "unknown finder",
			cfg: func() *config.Config {
				cfg := bootConfig(jar)
				cfg.Finders = []string{"maven"}
				return cfg
			},
			wantIssue: "unknown-finder",
		},
		{
			name: "repository finder without repositories",
			cfg: func() *config.Config {
				cfg := bootConfig(jar)
				cfg.Finders = []string{config.FinderClasspath, config.FinderRepository}
				return cfg
			},
			wantIssue: "classpath-empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := runCLI(t, tt.cfg(), "module", "find", "org.example.app", "--classpath", "")
			if res.err == nil {
				t.Fatalf("expected failure, stdout:\n%s", res.stdout)
			}
			if !strings.Contains(res.stderr, "swarmboot issues "+tt.wantIssue) {
				t.Errorf("stderr missing issue %q:\n%s", tt.wantIssue, res.stderr)
			}
		})
	}
}

func TestModuleFind_ClasspathFlagAndRepositories(t *testing.T) {
	t.Parallel()

	jar := writeBootJar(t)
	cfg := config.DefaultConfig()

	res := runCLI(t, cfg, "module", "find", "org.example.lib", "--classpath", jar)
	if res.err != nil || !strings.Contains(res.stdout, "org.example.lib:main") {
		t.Errorf("--classpath find = %q, %v\nstderr:\n%s", res.stdout, res.err, res.stderr)
	}

	repo := t.TempDir()
	writeRepoModule(t, repo)
	cfg = config.DefaultConfig()
	cfg.Finders = []string{config.FinderRepository}
	cfg.Repositories = []string{repo}
	res = runCLI(t, cfg, "module", "cat", "org.example.repo", "hello.txt")
	if res.err != nil || res.stdout != "hello" {
		t.Errorf("repository cat = %q, %v\nstderr:\n%s", res.stdout, res.err, res.stderr)
	}
}

func TestMetricsFlag(t *testing.T) {
	t.Parallel()

	res := runCLI(t, bootConfig(writeBootJar(t)), "module", "graph", "org.example.app", "--metrics")
	if res.err != nil {
		t.Fatalf("error = %v\nstderr:\n%s", res.err, res.stderr)
	}
	for _, want := range []string{
		`swarmboot_finder_lookups_total{outcome="found"} 2`,
		"swarmboot_archive_index_cache_requests_total",
	} {
		if !strings.Contains(res.stderr, want) {
			t.Errorf("metrics output missing %q:\n%s", want, res.stderr)
		}
	}
}
