// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"

	"github.com/swarmboot/swarmboot/internal/config"
	"github.com/swarmboot/swarmboot/internal/issue"
)

func TestIssuesCommand(t *testing.T) {
	t.Parallel()

	t.Run("list", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, config.DefaultConfig(), "issues")
		if res.err != nil {
			t.Fatalf("error = %v", res.err)
		}
		for _, is := range issue.Values() {
			if !strings.Contains(res.stdout, is.Slug()) {
				t.Errorf("list missing %q:\n%s", is.Slug(), res.stdout)
			}
		}
	})

	t.Run("render one", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, config.DefaultConfig(), "issues", "dependency-cycle", "--style", "notty")
		if res.err != nil {
			t.Fatalf("error = %v", res.err)
		}
		if !strings.Contains(res.stdout, "Circular module dependencies") {
			t.Errorf("rendered issue:\n%s", res.stdout)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, config.DefaultConfig(), "issues", "unknown-finder", "-o", "json")
		if res.err != nil {
			t.Fatalf("error = %v", res.err)
		}
		var got issueView
		if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
		}
		if got.Id != int(issue.UnknownFinderId) || !strings.Contains(got.Markdown, "Available finders") {
			t.Errorf("issue view = %+v", got)
		}
	})

	t.Run("unknown slug", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, config.DefaultConfig(), "issues", "nope")
		if code := exitCodeOf(t, res.err); code != ExitFailure {
			t.Errorf("exit code = %d", code)
		}
		if !strings.Contains(res.stderr, "swarmboot issues") {
			t.Errorf("stderr:\n%s", res.stderr)
		}
	})
}
