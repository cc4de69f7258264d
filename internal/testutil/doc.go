// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test fixtures and helpers that fail the test
// instead of returning errors.
//
// Archive builds zip files in memory, including stored and deflated nested
// archives, so loader and finder tests can lay out module trees without
// checked-in binaries. MustMkdirAll and MustWriteFile cover plain directory
// fixtures.
package testutil
