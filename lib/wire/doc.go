// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire encodes the platform data model as positional argument
// lists.
//
// A transport frame carries an ordered list of arguments, each of which
// is a string, an array of strings, or a 32-bit integer. Records are
// flattened into that list in a fixed field order with no names and no
// framing between records, so both sides must agree on the schema of
// every verb out of band.
//
// Two collection shapes coexist and are not interchangeable:
//
//   - A collection of strings is one string-array argument.
//   - A collection of records (identifiers, services, directory
//     entries) is an int32 count followed by that many flattened
//     records.
//
// Optional strings have no null marker. An absent field is written as
// "" and an empty value reads back as absent.
//
// [Writer] builds an argument list and [Reader] consumes one. The
// Encode and Decode functions apply the record layouts on top of them.
package wire
