// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for the platform
// and CLI binaries:
//
//   - [NewLogger] builds the process-wide slog logger from the
//     configured level and format, picking text or JSON output by
//     whether stderr is a terminal.
//   - [Fatal] reports an error from run() to stderr and exits. It
//     writes raw output because the logger may not be initialized.
package process
