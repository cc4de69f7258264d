// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the swarmboot command line.
//
// Commands that touch modules run against a session built from the effective
// configuration: the finder chain named by the "finders" setting, a caching
// module loader on top of it, and a private metrics registry that --metrics
// prints after the command finishes.
package cmd
