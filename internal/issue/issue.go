// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// DocsBaseURL is the root of the published troubleshooting pages.
const DocsBaseURL = "https://swarmboot.dev/docs/troubleshooting/"

const (
	ModuleNotFoundId Id = iota + 1
	DescriptorMalformedId
	DescriptorReadFailedId
	ClasspathEmptyId
	ArchiveCorruptId
	DependencyCycleId
	ConfigLoadFailedId
	UnknownFinderId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the Markdown body of an issue.
	MarkdownMsg string

	// HttpLink is a documentation or external URL.
	HttpLink string

	// Issue is one catalog entry: a Markdown explanation of a failure class
	// plus the steps that usually fix it.
	Issue struct {
		id       Id
		slug     string
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id { return i.id }

// Slug returns the short stable name used on the command line.
func (i *Issue) Slug() string { return i.slug }

// MarkdownMsg returns the raw Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// DocLinks returns the documentation links.
func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// ExtLinks returns external links that might help.
func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Markdown returns the body followed by a "See also" list of links.
func (i *Issue) Markdown() string {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		b.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			b.WriteString("- <" + string(link) + ">\n")
		}
	}
	return b.String()
}

// Render renders the issue for a terminal. stylePath is a glamour style
// name ("dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id:   ModuleNotFoundId,
		slug: "module-not-found",
		mdMsg: `
# Module not found

No configured finder owns the requested module identifier.

## Things you can try
- Check the spelling of the module name and slot (` + "`org.example.app:main`" + `)
- List the classpath that was searched:
~~~
$ swarmboot config show
~~~
- Make sure the descriptor exists at ` + "`modules/<name with dots as slashes>/<slot>/module.xml`" + `
- Add the archive holding the module to ` + "`SWARMBOOT_CLASSPATH`",
		docLinks: []HttpLink{DocsBaseURL + "module-not-found"},
	}

	descriptorMalformedIssue = &Issue{
		id:   DescriptorMalformedId,
		slug: "descriptor-malformed",
		mdMsg: `
# Malformed module descriptor

A ` + "`module.xml`" + ` was found but could not be understood. The error above
names the file and, when known, the offending line.

## Common causes
- The ` + "`name`" + ` or ` + "`slot`" + ` attribute does not match the requested identifier
- An unknown element or attribute
- ` + "`artifact`" + ` or ` + "`native-artifact`" + ` resources, which bootstrap archives cannot resolve
- A ` + "`resource-root`" + ` path that climbs out of its archive with ` + "`..`",
		docLinks: []HttpLink{DocsBaseURL + "descriptor-malformed"},
		extLinks: []HttpLink{"https://docs.wildfly.org/jboss-modules/"},
	}

	descriptorReadFailedIssue = &Issue{
		id:   DescriptorReadFailedId,
		slug: "descriptor-read-failed",
		mdMsg: `
# Could not read a module descriptor

The descriptor exists but reading it failed. This is an I/O problem, not a
syntax problem.

## Things you can try
- Check that the archive is readable by the current user
- Make sure the archive was not modified while the process was running
- Re-run with ` + "`--log-level debug`" + ` to see which archive was opened`,
		docLinks: []HttpLink{DocsBaseURL + "descriptor-read-failed"},
	}

	classpathEmptyIssue = &Issue{
		id:   ClasspathEmptyId,
		slug: "classpath-empty",
		mdMsg: `
# Empty bootstrap classpath

There is nothing to search for modules.

## Things you can try
- Set ` + "`SWARMBOOT_CLASSPATH`" + ` to a list of archives or directories
- Add entries to ` + "`classpath`" + ` in your configuration file:
~~~cue
classpath: ["/opt/app/app.jar"]
~~~`,
		docLinks: []HttpLink{DocsBaseURL + "classpath-empty"},
	}

	archiveCorruptIssue = &Issue{
		id:   ArchiveCorruptId,
		slug: "archive-corrupt",
		mdMsg: `
# Corrupt or unsupported archive

An archive on the classpath, or an archive nested inside one, could not be
read.

## Common causes
- A truncated download
- A checksum mismatch while reading an entry
- A compression method other than stored or deflate
- A nested archive larger than the in-memory inflate limit`,
		docLinks: []HttpLink{DocsBaseURL + "archive-corrupt"},
	}

	dependencyCycleIssue = &Issue{
		id:   DependencyCycleId,
		slug: "dependency-cycle",
		mdMsg: `
# Circular module dependencies

Modules can resolve classes through a cycle, but there is no boot order in
which each module starts after everything it depends on.

## Things you can try
- Break the cycle by moving shared classes into a separate module
- Mark one edge ` + "`optional=\"true\"`" + ` if it is only needed at runtime`,
		docLinks: []HttpLink{DocsBaseURL + "dependency-cycle"},
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		slug: "config-load-failed",
		mdMsg: `
# Configuration could not be loaded

## Things you can try
- Check the CUE syntax of your configuration file
- Print the effective configuration:
~~~
$ swarmboot config show
~~~
- Remove unknown keys; the schema is closed`,
		docLinks: []HttpLink{DocsBaseURL + "config-load-failed"},
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	unknownFinderIssue = &Issue{
		id:   UnknownFinderId,
		slug: "unknown-finder",
		mdMsg: `
# Unknown module finder

The ` + "`finders`" + ` setting names a finder that is not registered.

## Available finders
- ` + "`classpath`" + `: descriptors under ` + "`modules/`" + ` on the bootstrap classpath
- ` + "`repository`" + `: local module repositories listed in ` + "`repositories`",
		docLinks: []HttpLink{DocsBaseURL + "unknown-finder"},
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():       moduleNotFoundIssue,
		descriptorMalformedIssue.Id():  descriptorMalformedIssue,
		descriptorReadFailedIssue.Id(): descriptorReadFailedIssue,
		classpathEmptyIssue.Id():       classpathEmptyIssue,
		archiveCorruptIssue.Id():       archiveCorruptIssue,
		dependencyCycleIssue.Id():      dependencyCycleIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		unknownFinderIssue.Id():        unknownFinderIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

// BySlug returns the entry with the given slug, or nil.
func BySlug(slug string) *Issue {
	for _, i := range issues {
		if i.slug == slug {
			return i
		}
	}
	return nil
}
