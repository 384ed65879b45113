// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package df implements the capability directory: per-agent service
// advertisements and the structural search over them.
//
// An agent may hold at most one entry, and only while the identity
// directory knows its name at the moment it registers. Modify replaces
// the entry whole and does not repeat the identity check, so an agent
// that leaves the identity directory can still update an entry it
// already holds.
//
// # Matching
//
// A search template is a partially filled [acl.DirectoryEntry]. Every
// empty field is a wildcard. Present fields are compared as follows:
//
//   - Strings compare without regard to case. The owner's name also
//     matches when the template is a prefix of it, so "alice" finds
//     "alice@platA".
//   - A string set in the template must be covered by the entry's set:
//     the entry needs at least as many elements, and every template
//     element must equal one of them. Elements are not consumed, so
//     {"x", "x"} is covered by {"x", "y"}.
//   - Services are matched with the same coverage rule, each template
//     service needing one entry service that matches it field by field.
//
// The predicates are pure functions of their arguments.
package df
