// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"

	"github.com/bureau-foundation/cap/lib/acl"
)

// Minimum argument widths of each record, used to sanity-check counts
// before allocating.
const (
	identifierWidth = 2
	serviceWidth    = 5
	entryWidth      = identifierWidth + 4
)

// WriteIdentifier appends name then the address array.
func (w *Writer) WriteIdentifier(id acl.AgentIdentifier) {
	w.String(id.Name)
	w.Strings(id.Addresses)
}

// WriteIdentifiers appends a count-prefixed identifier collection.
func (w *Writer) WriteIdentifiers(ids []acl.AgentIdentifier) {
	w.Int32(int32(len(ids)))
	for _, id := range ids {
		w.WriteIdentifier(id)
	}
}

// WriteService appends name, type, protocols, ontologies, languages.
func (w *Writer) WriteService(service acl.ServiceDescription) {
	w.String(service.Name)
	w.String(service.Type)
	w.Strings(service.Protocols)
	w.Strings(service.Ontologies)
	w.Strings(service.Languages)
}

// WriteEntry appends the owner, the entry-level string sets, and the
// count-prefixed services.
func (w *Writer) WriteEntry(entry acl.DirectoryEntry) {
	w.WriteIdentifier(entry.Owner)
	w.Strings(entry.Protocols)
	w.Strings(entry.Ontologies)
	w.Strings(entry.Languages)
	w.Int32(int32(len(entry.Services)))
	for _, service := range entry.Services {
		w.WriteService(service)
	}
}

// WriteEntries appends a count-prefixed entry collection.
func (w *Writer) WriteEntries(entries []acl.DirectoryEntry) {
	w.Int32(int32(len(entries)))
	for _, entry := range entries {
		w.WriteEntry(entry)
	}
}

// WriteEnvelope appends from, to, the representation tag and the
// intended receiver.
func (w *Writer) WriteEnvelope(envelope acl.Envelope) {
	w.WriteIdentifier(envelope.From)
	w.WriteIdentifiers(envelope.To)
	w.String(envelope.Representation)
	w.WriteIdentifier(envelope.IntendedReceiver)
}

// WriteMessage appends the message fields in wire order. ReplyTo and
// Encoding have no wire slot and are not written.
func (w *Writer) WriteMessage(message acl.Message) {
	w.String(message.Performative)
	w.WriteIdentifier(message.Sender)
	w.WriteIdentifiers(message.Receivers)
	w.String(message.Language)
	w.String(message.Ontology)
	w.String(message.Protocol)
	w.String(message.ConversationID)
	w.String(message.ReplyWith)
	w.String(message.InReplyTo)
	w.String(message.ReplyBy)
	w.String(message.Content)
}

// WriteTransportEnvelope appends the envelope immediately followed by
// the message.
func (w *Writer) WriteTransportEnvelope(transport acl.TransportEnvelope) {
	w.WriteEnvelope(transport.Envelope)
	w.WriteMessage(transport.Message)
}

// WritePlatformDescription appends the platform name then one
// (name, address) string pair per service. There is no count; the
// pairs run to the end of the list.
func (w *Writer) WritePlatformDescription(description acl.PlatformDescription) {
	w.String(description.Name)
	for _, service := range description.Services {
		w.String(service.Name)
		w.String(service.Address)
	}
}

// ReadIdentifier reads an identifier. An empty name with no addresses
// reads as the zero identifier.
func (r *Reader) ReadIdentifier() (acl.AgentIdentifier, error) {
	name, err := r.String()
	if err != nil {
		return acl.AgentIdentifier{}, fmt.Errorf("identifier name: %w", err)
	}
	addresses, err := r.Strings()
	if err != nil {
		return acl.AgentIdentifier{}, fmt.Errorf("identifier addresses: %w", err)
	}
	return acl.AgentIdentifier{Name: name, Addresses: addresses}, nil
}

// ReadIdentifiers reads a count-prefixed identifier collection. An
// empty collection reads as nil.
func (r *Reader) ReadIdentifiers() ([]acl.AgentIdentifier, error) {
	n, err := r.count(identifierWidth)
	if err != nil {
		return nil, fmt.Errorf("identifier collection: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	ids := make([]acl.AgentIdentifier, n)
	for i := range ids {
		if ids[i], err = r.ReadIdentifier(); err != nil {
			return nil, fmt.Errorf("identifier %d: %w", i, err)
		}
	}
	return ids, nil
}

// ReadService reads a service description.
func (r *Reader) ReadService() (acl.ServiceDescription, error) {
	var service acl.ServiceDescription
	var err error
	if service.Name, err = r.String(); err != nil {
		return service, fmt.Errorf("service name: %w", err)
	}
	if service.Type, err = r.String(); err != nil {
		return service, fmt.Errorf("service type: %w", err)
	}
	if service.Protocols, err = r.Strings(); err != nil {
		return service, fmt.Errorf("service protocols: %w", err)
	}
	if service.Ontologies, err = r.Strings(); err != nil {
		return service, fmt.Errorf("service ontologies: %w", err)
	}
	if service.Languages, err = r.Strings(); err != nil {
		return service, fmt.Errorf("service languages: %w", err)
	}
	return service, nil
}

// ReadEntry reads a directory entry.
func (r *Reader) ReadEntry() (acl.DirectoryEntry, error) {
	var entry acl.DirectoryEntry
	var err error
	if entry.Owner, err = r.ReadIdentifier(); err != nil {
		return entry, fmt.Errorf("entry owner: %w", err)
	}
	if entry.Protocols, err = r.Strings(); err != nil {
		return entry, fmt.Errorf("entry protocols: %w", err)
	}
	if entry.Ontologies, err = r.Strings(); err != nil {
		return entry, fmt.Errorf("entry ontologies: %w", err)
	}
	if entry.Languages, err = r.Strings(); err != nil {
		return entry, fmt.Errorf("entry languages: %w", err)
	}
	n, err := r.count(serviceWidth)
	if err != nil {
		return entry, fmt.Errorf("entry services: %w", err)
	}
	if n > 0 {
		entry.Services = make([]acl.ServiceDescription, n)
		for i := range entry.Services {
			if entry.Services[i], err = r.ReadService(); err != nil {
				return entry, fmt.Errorf("entry service %d: %w", i, err)
			}
		}
	}
	return entry, nil
}

// ReadEntries reads a count-prefixed entry collection.
func (r *Reader) ReadEntries() ([]acl.DirectoryEntry, error) {
	n, err := r.count(entryWidth)
	if err != nil {
		return nil, fmt.Errorf("entry collection: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	entries := make([]acl.DirectoryEntry, n)
	for i := range entries {
		if entries[i], err = r.ReadEntry(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return entries, nil
}

// ReadEnvelope reads an envelope.
func (r *Reader) ReadEnvelope() (acl.Envelope, error) {
	var envelope acl.Envelope
	var err error
	if envelope.From, err = r.ReadIdentifier(); err != nil {
		return envelope, fmt.Errorf("envelope from: %w", err)
	}
	if envelope.To, err = r.ReadIdentifiers(); err != nil {
		return envelope, fmt.Errorf("envelope to: %w", err)
	}
	if envelope.Representation, err = r.String(); err != nil {
		return envelope, fmt.Errorf("envelope representation: %w", err)
	}
	if envelope.IntendedReceiver, err = r.ReadIdentifier(); err != nil {
		return envelope, fmt.Errorf("envelope intended receiver: %w", err)
	}
	return envelope, nil
}

// ReadMessage reads a message.
func (r *Reader) ReadMessage() (acl.Message, error) {
	var message acl.Message
	var err error
	if message.Performative, err = r.String(); err != nil {
		return message, fmt.Errorf("message performative: %w", err)
	}
	if message.Sender, err = r.ReadIdentifier(); err != nil {
		return message, fmt.Errorf("message sender: %w", err)
	}
	if message.Receivers, err = r.ReadIdentifiers(); err != nil {
		return message, fmt.Errorf("message receivers: %w", err)
	}
	for _, field := range []struct {
		name   string
		target *string
	}{
		{"language", &message.Language},
		{"ontology", &message.Ontology},
		{"protocol", &message.Protocol},
		{"conversation id", &message.ConversationID},
		{"reply with", &message.ReplyWith},
		{"in reply to", &message.InReplyTo},
		{"reply by", &message.ReplyBy},
		{"content", &message.Content},
	} {
		if *field.target, err = r.String(); err != nil {
			return message, fmt.Errorf("message %s: %w", field.name, err)
		}
	}
	return message, nil
}

// ReadTransportEnvelope reads an envelope followed by its message.
func (r *Reader) ReadTransportEnvelope() (acl.TransportEnvelope, error) {
	envelope, err := r.ReadEnvelope()
	if err != nil {
		return acl.TransportEnvelope{}, err
	}
	message, err := r.ReadMessage()
	if err != nil {
		return acl.TransportEnvelope{}, err
	}
	return acl.TransportEnvelope{Envelope: envelope, Message: message}, nil
}

// ReadPlatformDescription reads the platform name and every remaining
// (name, address) pair.
func (r *Reader) ReadPlatformDescription() (acl.PlatformDescription, error) {
	var description acl.PlatformDescription
	var err error
	if description.Name, err = r.String(); err != nil {
		return description, fmt.Errorf("platform name: %w", err)
	}
	for r.Remaining() > 0 {
		var service acl.PlatformServiceDescription
		if service.Name, err = r.String(); err != nil {
			return description, fmt.Errorf("platform service name: %w", err)
		}
		if service.Address, err = r.String(); err != nil {
			return description, fmt.Errorf("platform service %q address: %w", service.Name, err)
		}
		description.Services = append(description.Services, service)
	}
	return description, nil
}
