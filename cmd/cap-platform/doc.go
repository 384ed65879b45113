// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Cap-platform runs one agent platform: the AMS identity directory,
// the DF capability directory and the MTS message router, served on a
// single Unix socket. Agents on the same host bootstrap through that
// socket.
//
// Configuration comes from the file named by --config or $CAP_CONFIG.
// The process runs until SIGINT, SIGTERM or a terminate request, then
// writes a final directory snapshot when state.file is set.
package main
