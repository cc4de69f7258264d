// SPDX-License-Identifier: MPL-2.0

// Package issue turns bootstrap failures into user-facing guidance.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The issue catalog holds one Markdown page per failure
// class, rendered for the terminal with glamour.
package issue
