// SPDX-License-Identifier: MPL-2.0

// Package config loads swarmboot configuration using Viper with CUE as the
// file format.
//
// Sources, lowest precedence first: built-in defaults, config.cue from the
// XDG config directory (or an explicit file), and SWARMBOOT_* environment
// variables, where dots in keys become underscores (SWARMBOOT_INDEX_CACHE_SIZE).
// Files are validated against the embedded #Config schema in config_schema.cue.
package config
