// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mts implements the message router.
//
// The router takes a transport envelope from a sending agent and
// delivers one copy per recipient listed in the envelope's To field,
// in list order, with the envelope's intended receiver set to that
// recipient. A recipient's address is the first address embedded in
// its identifier; when there is none, its name is qualified with the
// platform name and looked up in the identity directory.
//
// Delivery is one-way and best effort. A recipient that cannot be
// resolved, whose address does not parse, or whose endpoint cannot be
// reached is logged and skipped. Nothing is reported to the sender and
// nothing is retried; the remaining recipients are unaffected.
//
// Each destination process has its own circuit breaker. After repeated
// failures, deliveries to it are dropped without dialing until the
// breaker's cool-down expires. The platform handles one request at a
// time, so this bounds how long a dead agent can hold it up.
package mts
