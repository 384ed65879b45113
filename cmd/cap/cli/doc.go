// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command tree behind the cap operator CLI.
//
// A [Command] either dispatches to Subcommands by its first positional
// argument or parses its pflag set and calls Run. Help is generated
// from the tree, and unknown commands and flags get "did you mean"
// suggestions by edit distance.
//
// [JSONOutput] gives a command a --json flag; [ExitError] lets a
// command exit non-zero without an extra error line.
package cli
