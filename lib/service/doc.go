// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service is the platform's request/reply transport.
//
// Every endpoint is named by a four-field address,
// "<protocol>:<service>:<path>:<method>". The only protocol spoken is
// "unix": the service field names a socket file inside a shared socket
// directory, the path selects an object inside the listening process,
// and the method selects the verb.
//
// A connection carries one CBOR [Request] frame. Two-way requests get a
// [Reply] frame back; one-way requests get nothing, so the sender can
// never observe what the receiver did with them. Both frames carry
// positional argument lists built with package wire.
//
// [SocketServer] dispatches through a table keyed by (path, verb).
// [Client] provides Call (two-way, bounded by a fixed timeout) and
// Send (one-way). Neither retries.
//
// The kernel-reported peer process of each connection is attached to
// request logs. It is not used for authorization.
package service
