// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/swarmboot/swarmboot/internal/config"
	"github.com/swarmboot/swarmboot/internal/issue"
)

type (
	// issueView is the structured form of one catalog entry.
	issueView struct {
		Id       int      `json:"id" yaml:"id" toml:"id"`
		Slug     string   `json:"slug" yaml:"slug" toml:"slug"`
		Markdown string   `json:"markdown,omitempty" yaml:"markdown,omitempty" toml:"markdown,omitempty"`
		Docs     []string `json:"docs,omitempty" yaml:"docs,omitempty" toml:"docs,omitempty"`
	}

	issueList struct {
		Issues []issueView `json:"issues" yaml:"issues" toml:"issues"`
	}
)

// newIssuesCommand creates the `swarmboot issues` command.
func newIssuesCommand(app *App) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "issues [slug]",
		Short: "Explain common problems",
		Long: `List the troubleshooting catalog, or explain one entry.

Error messages name the entry that applies, for example:
  swarmboot issues module-not-found`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := config.OutputFormat(app.flags.output)
			if len(args) == 0 {
				return listIssues(app.stdout, format)
			}
			is := issue.BySlug(args[0])
			if is == nil {
				return app.fail(issue.NewErrorContext().
					WithOperation("show issue").
					WithResource(args[0]).
					WithSuggestion("Run 'swarmboot issues' to list known entries").
					Wrap(fmt.Errorf("no issue named %q", args[0])).
					BuildError())
			}
			return showIssue(app.stdout, format, style, is)
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style: dark, light, notty or a style file")
	return cmd
}

func newIssueView(is *issue.Issue, withMarkdown bool) issueView {
	v := issueView{Id: int(is.Id()), Slug: is.Slug()}
	for _, l := range is.DocLinks() {
		v.Docs = append(v.Docs, string(l))
	}
	if withMarkdown {
		v.Markdown = is.Markdown()
	}
	return v
}

func listIssues(w io.Writer, format config.OutputFormat) error {
	values := issue.Values()
	views := make([]issueView, len(values))
	for i, is := range values {
		views[i] = newIssueView(is, false)
	}
	if ok, err := writeStructured(w, format, issueList{Issues: views}); ok {
		return err
	}
	for _, v := range views {
		if _, err := fmt.Fprintf(w, "%3d  %s\n", v.Id, CmdStyle.Render(v.Slug)); err != nil {
			return err
		}
	}
	return nil
}

func showIssue(w io.Writer, format config.OutputFormat, style string, is *issue.Issue) error {
	if ok, err := writeStructured(w, format, newIssueView(is, true)); ok {
		return err
	}
	rendered, err := is.Render(style)
	if err != nil {
		return fmt.Errorf("failed to render issue %s: %w", is.Slug(), err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}
