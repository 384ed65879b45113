// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the platform's standard CBOR encoding
// configuration.
//
// CBOR is used for everything that crosses a process boundary: the
// request and reply frames on platform sockets, the positional argument
// lists inside them, and the on-disk directory snapshot. Configuration
// files are YAML or JSON and never go through this package.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
//
// For buffer-oriented operations (snapshots):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Types that only ever travel as CBOR carry `cbor` struct tags.
// Configuration types carry `yaml` and `json` tags and are never
// encoded here.
package codec
