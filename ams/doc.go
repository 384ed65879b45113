// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ams implements the identity directory: the canonical
// registry of agent identifiers on a platform.
//
// Names are unique without regard to case and must carry the platform
// suffix "@<platform>". Lookups are linear scans; registries hold tens
// of agents, not thousands.
//
// A Directory does no locking of its own. The platform serializes every
// operation on the AMS, DF and MTS behind one lock so that the DF's
// authorization check and the router's fallback lookup observe the same
// state as the request that changed it.
package ams
