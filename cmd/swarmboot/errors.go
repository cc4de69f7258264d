// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"archive/zip"
	"errors"

	"github.com/swarmboot/swarmboot/internal/config"
	"github.com/swarmboot/swarmboot/internal/dag"
	"github.com/swarmboot/swarmboot/internal/issue"
	"github.com/swarmboot/swarmboot/internal/loader"
	"github.com/swarmboot/swarmboot/pkg/extension"
	"github.com/swarmboot/swarmboot/pkg/modules"
	"github.com/swarmboot/swarmboot/pkg/nestedjar"
)

var errResourceNotFound = errors.New("resource not found")

// classifyError maps a command failure to an ActionableError linked to the
// issue catalog. Errors that already are actionable are returned unchanged.
func classifyError(err error, op, resource string) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ctx := issue.NewErrorContext().WithOperation(op).WithResource(resource).Wrap(err)
	var (
		cycle     *dag.CycleError
		configErr *extension.ConfigError
	)
	switch {
	case errors.Is(err, errEmptyClasspath):
		ctx.WithIssue(issue.ClasspathEmptyId).
			WithSuggestion("Pass --classpath or set " + config.EnvPrefix + "_CLASSPATH to the archives to search")
	case errors.Is(err, errNoRepositories):
		ctx.WithIssue(issue.ClasspathEmptyId).
			WithSuggestion("List local module repositories under 'repositories' in the configuration")
	case errors.As(err, &configErr):
		ctx.WithIssue(issue.UnknownFinderId).
			WithSuggestion("Check the 'finders' setting; see 'swarmboot config show'")
	case errors.Is(err, loader.ErrNotFound):
		ctx.WithIssue(issue.ModuleNotFoundId).
			WithSuggestion("Check the module name and slot, for example org.example.app:main")
	case errors.Is(err, loader.ErrAliasLoop):
		ctx.WithIssue(issue.DescriptorMalformedId).
			WithSuggestion("Make sure module-alias targets do not point back at each other")
	case errors.As(err, &cycle):
		ctx.WithIssue(issue.DependencyCycleId)
	case isArchiveCorrupt(err):
		ctx.WithIssue(issue.ArchiveCorruptId)
	case errors.Is(err, modules.ErrMalformedDescriptor):
		ctx.WithIssue(issue.DescriptorMalformedId)
	case errors.Is(err, modules.ErrModuleLoad):
		ctx.WithIssue(issue.DescriptorReadFailedId)
	case errors.Is(err, modules.ErrInvalidIdentifier):
		ctx.WithSuggestion("Module identifiers look like name[:slot], for example org.example.app:main")
	case errors.Is(err, errResourceNotFound):
		ctx.WithSuggestion("Run 'swarmboot module ls' to list the directories the module serves")
	case errors.Is(err, config.ErrInvalidConfig):
		ctx.WithIssue(issue.ConfigLoadFailedId)
	}
	return ctx.BuildError()
}

func isArchiveCorrupt(err error) bool {
	return errors.Is(err, zip.ErrFormat) ||
		errors.Is(err, zip.ErrChecksum) ||
		errors.Is(err, zip.ErrAlgorithm) ||
		errors.Is(err, nestedjar.ErrChecksum) ||
		errors.Is(err, nestedjar.ErrUnsupportedMethod) ||
		errors.Is(err, nestedjar.ErrTooLarge)
}

// exitCode returns ExitNotFound for missing modules and resources.
func exitCode(err error) int {
	if errors.Is(err, loader.ErrNotFound) || errors.Is(err, errResourceNotFound) {
		return ExitNotFound
	}
	return ExitFailure
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
