// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"

	"github.com/bureau-foundation/cap/lib/acl"
)

// The functions below build and parse the argument lists of whole
// requests and replies. Decoders fail when arguments are left over,
// since a mismatched schema would otherwise go unnoticed.

// EncodeString encodes a single string argument: a name for
// deregister and AMS search, or a simple reply.
func EncodeString(value string) Args {
	w := NewWriter()
	w.String(value)
	return w.Args()
}

// DecodeString decodes a single string argument.
func DecodeString(args Args) (string, error) {
	r := NewReader(args)
	value, err := r.String()
	if err != nil {
		return "", err
	}
	return value, r.done()
}

// EncodeReply encodes the simple reply for err.
func EncodeReply(err error) Args {
	return EncodeString(acl.Reply(err))
}

// DecodeReply decodes a simple reply into nil or the error it names.
// A reply that is not a single string yields [acl.ErrInvalidReply].
func DecodeReply(args Args) error {
	reply, err := DecodeString(args)
	if err != nil {
		return fmt.Errorf("%w: %v", acl.ErrInvalidReply, err)
	}
	return acl.ParseReply(reply)
}

// EncodeIdentifier encodes a single identifier.
func EncodeIdentifier(id acl.AgentIdentifier) Args {
	w := NewWriter()
	w.WriteIdentifier(id)
	return w.Args()
}

// DecodeIdentifier decodes a single identifier.
func DecodeIdentifier(args Args) (acl.AgentIdentifier, error) {
	r := NewReader(args)
	id, err := r.ReadIdentifier()
	if err != nil {
		return id, err
	}
	return id, r.done()
}

// EncodeIdentifiers encodes a count-prefixed identifier collection.
func EncodeIdentifiers(ids []acl.AgentIdentifier) Args {
	w := NewWriter()
	w.WriteIdentifiers(ids)
	return w.Args()
}

// DecodeIdentifiers decodes a count-prefixed identifier collection.
func DecodeIdentifiers(args Args) ([]acl.AgentIdentifier, error) {
	r := NewReader(args)
	ids, err := r.ReadIdentifiers()
	if err != nil {
		return nil, err
	}
	return ids, r.done()
}

// EncodeEntry encodes a single directory entry.
func EncodeEntry(entry acl.DirectoryEntry) Args {
	w := NewWriter()
	w.WriteEntry(entry)
	return w.Args()
}

// DecodeEntry decodes a single directory entry.
func DecodeEntry(args Args) (acl.DirectoryEntry, error) {
	r := NewReader(args)
	entry, err := r.ReadEntry()
	if err != nil {
		return entry, err
	}
	return entry, r.done()
}

// EncodeEntries encodes a count-prefixed entry collection.
func EncodeEntries(entries []acl.DirectoryEntry) Args {
	w := NewWriter()
	w.WriteEntries(entries)
	return w.Args()
}

// DecodeEntries decodes a count-prefixed entry collection.
func DecodeEntries(args Args) ([]acl.DirectoryEntry, error) {
	r := NewReader(args)
	entries, err := r.ReadEntries()
	if err != nil {
		return nil, err
	}
	return entries, r.done()
}

// EncodeTransportEnvelope encodes an envelope and its message.
func EncodeTransportEnvelope(transport acl.TransportEnvelope) Args {
	w := NewWriter()
	w.WriteTransportEnvelope(transport)
	return w.Args()
}

// DecodeTransportEnvelope decodes an envelope and its message.
func DecodeTransportEnvelope(args Args) (acl.TransportEnvelope, error) {
	r := NewReader(args)
	transport, err := r.ReadTransportEnvelope()
	if err != nil {
		return transport, err
	}
	return transport, r.done()
}

// EncodePlatformDescription encodes a platform description.
func EncodePlatformDescription(description acl.PlatformDescription) Args {
	w := NewWriter()
	w.WritePlatformDescription(description)
	return w.Args()
}

// DecodePlatformDescription decodes a platform description. The pairs
// consume the whole list, so there is nothing left to check.
func DecodePlatformDescription(args Args) (acl.PlatformDescription, error) {
	return NewReader(args).ReadPlatformDescription()
}

func (r *Reader) done() error {
	if remaining := r.Remaining(); remaining != 0 {
		return fmt.Errorf("%d arguments left: %w", remaining, ErrTrailingArguments)
	}
	return nil
}
