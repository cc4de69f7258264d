// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/swarmboot/swarmboot/internal/config"
	"github.com/swarmboot/swarmboot/internal/logging"
	"github.com/swarmboot/swarmboot/internal/testutil"
)

type (
	// staticConfig returns a fresh copy of cfg on every Load.
	staticConfig struct {
		cfg  config.Config
		path string
		err  error
	}

	cliResult struct {
		stdout string
		stderr string
		err    error
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	cfg := s.cfg
	return &cfg, s.path, nil
}

// runCLI executes the command tree with args against cfg.
func runCLI(t *testing.T, cfg *config.Config, args ...string) cliResult {
	t.Helper()
	return runCLIWith(t, staticConfig{cfg: *cfg}, args...)
}

func runCLIWith(t *testing.T, provider config.Provider, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config:    provider,
		NewLogger: logging.New,
		Stdout:    &stdout,
		Stderr:    &stderr,
	})
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(t.Context())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// bootConfig returns the default configuration with jar as the only
// classpath entry.
func bootConfig(jar string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Classpath = []string{jar}
	return cfg
}

// writeBootJar writes a bootstrap archive holding:
//
//	org.example.app    main class, a property, exports org.example.lib, deflated app.jar
//	org.example.lib    stored lib.jar
//	org.example.alias  alias of org.example.app
//	org.example.cyc.a  depends on org.example.cyc.b, which depends back
//	org.example.broken name attribute does not match its path
func writeBootJar(t *testing.T) string {
	t.Helper()
	const ns = `xmlns="urn:jboss:module:1.9"`
	appJar := testutil.NewArchive().
		FileString("org/example/app/Main.class", "app-main").
		FileString("META-INF/MANIFEST.MF", "Manifest-Version: 1.0\n")
	libJar := testutil.NewArchive().
		FileString("org/example/lib/Util.class", "lib-util")

	return testutil.NewArchive().
		FileString("modules/org/example/app/main/module.xml", `<module `+ns+` name="org.example.app">
  <main-class name="org.example.app.Main"/>
  <properties><property name="app.mode" value="boot"/></properties>
  <resources><resource-root path="app.jar"/></resources>
  <dependencies><module name="org.example.lib" export="true"/></dependencies>
</module>`).
		DeflatedArchive("modules/org/example/app/main/app.jar", appJar).
		FileString("modules/org/example/lib/main/module.xml", `<module `+ns+` name="org.example.lib">
  <resources><resource-root path="lib.jar"/></resources>
</module>`).
		StoredArchive("modules/org/example/lib/main/lib.jar", libJar).
		FileString("modules/org/example/alias/main/module.xml",
			`<module-alias `+ns+` name="org.example.alias" target-name="org.example.app"/>`).
		FileString("modules/org/example/cyc/a/main/module.xml",
			`<module `+ns+` name="org.example.cyc.a"><dependencies><module name="org.example.cyc.b"/></dependencies></module>`).
		FileString("modules/org/example/cyc/b/main/module.xml",
			`<module `+ns+` name="org.example.cyc.b"><dependencies><module name="org.example.cyc.a"/></dependencies></module>`).
		FileString("modules/org/example/broken/main/module.xml",
			`<module `+ns+` name="org.example.other"/>`).
		WriteFile(t, t.TempDir(), "boot.jar")
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	return exitErr.Code
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got := getVersionString(); got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q", got)
		}
	})
}

func TestRootCommand_Help(t *testing.T) {
	t.Parallel()

	res := runCLI(t, config.DefaultConfig(), "--help")
	if res.err != nil {
		t.Fatalf("--help error = %v", res.err)
	}
	for _, want := range []string{"module", "config", "issues", "--metrics", "--classpath"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("help output missing %q:\n%s", want, res.stdout)
		}
	}
}
