// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestCatalog_Complete(t *testing.T) {
	t.Parallel()

	all := Values()
	if len(all) != int(UnknownFinderId) {
		t.Fatalf("Values() returned %d issues, want %d", len(all), UnknownFinderId)
	}

	slugs := map[string]bool{}
	for i, is := range all {
		if is.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want ascending ids", i, is.Id())
		}
		if is.Slug() == "" || slugs[is.Slug()] {
			t.Errorf("issue %d has empty or duplicate slug %q", is.Id(), is.Slug())
		}
		slugs[is.Slug()] = true
		if len(is.DocLinks()) == 0 {
			t.Errorf("issue %s has no documentation link", is.Slug())
		}
		if !strings.HasPrefix(strings.TrimSpace(string(is.MarkdownMsg())), "# ") {
			t.Errorf("issue %s should start with a heading", is.Slug())
		}
		if BySlug(is.Slug()) != is || Get(is.Id()) != is {
			t.Errorf("lookups disagree for %s", is.Slug())
		}
	}

	if Get(0) != nil || BySlug("nope") != nil {
		t.Error("unknown lookups should return nil")
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	t.Parallel()

	is := Get(DescriptorMalformedId)
	links := is.DocLinks()
	links[0] = "modified"
	if is.DocLinks()[0] == "modified" {
		t.Error("DocLinks() should return a clone")
	}
	ext := is.ExtLinks()
	ext[0] = "modified"
	if is.ExtLinks()[0] == "modified" {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Markdown(t *testing.T) {
	t.Parallel()

	md := Get(ConfigLoadFailedId).Markdown()
	for _, want := range []string{"# Configuration could not be loaded", "## See also", DocsBaseURL + "config-load-failed", "https://cuelang.org/docs/"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q", want)
		}
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	out, err := Get(ModuleNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "Module not found") {
		t.Errorf("Render() output missing title:\n%s", out)
	}
}
