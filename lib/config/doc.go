// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the platform.
//
// Configuration is loaded from a single file specified by:
//   - the --config flag passed to the command, or
//   - the CAP_CONFIG environment variable
//
// There are no fallbacks or automatic discovery. YAML is the default
// format; files named *.json or *.jsonc are read as JSON with comments
// and trailing commas allowed.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when the environment
// matches. Path values expand ${VAR} and ${VAR:-default}.
//
// Durations are kept as strings in the file format and parsed by
// Validate; the typed accessors (RequestTimeout, DeliveryTimeout, ...)
// are only meaningful on a validated Config.
package config
