// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package acl defines the agent communication data model shared by the
// platform services and agent clients: agent identifiers, FIPA-ACL
// messages, transport envelopes, capability directory entries, and the
// platform description returned during bootstrap.
//
// The package also holds the protocol constants that both sides of the
// transport must agree on: the platform's well-known service name, the
// object paths of the AMS, DF and MTS endpoints, the verbs dispatched at
// each path, and the error kinds carried in simple replies.
//
// Optional string fields use the empty string for "absent". The wire
// codec (lib/wire) has no separate null marker, so a field explicitly
// set to "" and a field never set are indistinguishable after a round
// trip. Code in this package treats them identically.
//
// Names are compared ignoring ASCII case everywhere: the identity
// directory, the capability directory's matching, and the router's
// fallback resolution all use [EqualFold]. Non-ASCII letters are not
// folded.
package acl
