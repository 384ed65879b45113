// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Cap is the operator CLI for a running agent platform. It speaks the
// same socket protocol agents use, so everything it shows is what an
// agent would see: the platform description, AMS lookups, DF searches
// and directory dumps. It can also deregister stale agents and ask the
// platform to terminate.
//
// Usage:
//
//	cap ping
//	cap describe [--json]
//	cap ams search <name> [--json]
//	cap df search [--owner <prefix>] [--ontology <o>]... [--json]
//	cap terminate
//
// Every command accepts --config, --socket-dir, --service and
// --timeout to locate the platform.
package main
