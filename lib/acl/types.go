// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package acl

// AgentIdentifier names an addressable agent endpoint. Name is
// globally unique once registered with the AMS and is conventionally
// suffixed with "@<platform>". Addresses are transport addresses in
// the "<protocol>:<service>:<path>:<method>" form, in preference
// order.
type AgentIdentifier struct {
	Name      string   `cbor:"name"`
	Addresses []string `cbor:"addresses,omitempty"`
}

// IsZero reports whether the identifier carries neither a name nor
// any address. Decoders produce the zero identifier for absent
// identifier fields.
func (id AgentIdentifier) IsZero() bool {
	return id.Name == "" && len(id.Addresses) == 0
}

// HasName reports whether id's name equals name, ignoring ASCII case.
func (id AgentIdentifier) HasName(name string) bool {
	return EqualFold(id.Name, name)
}

// FirstAddress returns the preferred transport address, or "" when
// the identifier has none.
func (id AgentIdentifier) FirstAddress() string {
	if len(id.Addresses) == 0 {
		return ""
	}
	return id.Addresses[0]
}

// Clone returns a deep copy of id.
func (id AgentIdentifier) Clone() AgentIdentifier {
	return AgentIdentifier{Name: id.Name, Addresses: cloneStrings(id.Addresses)}
}

// Message is a FIPA-ACL message. Performative is required for a send;
// every other string field is optional. Sender is overwritten with the
// sending agent's identifier on send.
type Message struct {
	Performative   string            `cbor:"performative"`
	Sender         AgentIdentifier   `cbor:"sender"`
	Receivers      []AgentIdentifier `cbor:"receivers,omitempty"`
	ReplyTo        []AgentIdentifier `cbor:"reply_to,omitempty"`
	Content        string            `cbor:"content,omitempty"`
	Language       string            `cbor:"language,omitempty"`
	Encoding       string            `cbor:"encoding,omitempty"`
	Ontology       string            `cbor:"ontology,omitempty"`
	Protocol       string            `cbor:"protocol,omitempty"`
	ConversationID string            `cbor:"conversation_id,omitempty"`
	ReplyWith      string            `cbor:"reply_with,omitempty"`
	InReplyTo      string            `cbor:"in_reply_to,omitempty"`
	ReplyBy        string            `cbor:"reply_by,omitempty"`
}

// Envelope carries the routing metadata for a message. To lists every
// recipient. IntendedReceiver is scratch state set by the router for
// each delivery attempt and is never persisted.
type Envelope struct {
	From             AgentIdentifier   `cbor:"from"`
	To               []AgentIdentifier `cbor:"to,omitempty"`
	Representation   string            `cbor:"representation,omitempty"`
	IntendedReceiver AgentIdentifier   `cbor:"intended_receiver"`
}

// TransportEnvelope is the unit exchanged with the MTS: an envelope
// and the message it wraps.
type TransportEnvelope struct {
	Envelope Envelope `cbor:"envelope"`
	Message  Message  `cbor:"message"`
}

// NewTransportEnvelope builds the envelope for message the way an
// agent does before handing it to the MTS: From is the message
// sender, To copies the receivers in order, and the representation is
// the platform's ACL representation tag.
func NewTransportEnvelope(message Message) TransportEnvelope {
	to := make([]AgentIdentifier, 0, len(message.Receivers))
	for _, receiver := range message.Receivers {
		to = append(to, receiver.Clone())
	}
	return TransportEnvelope{
		Envelope: Envelope{
			From:           message.Sender.Clone(),
			To:             to,
			Representation: RepresentationACL,
		},
		Message: message,
	}
}

// ServiceDescription advertises one capability of an agent in the DF.
type ServiceDescription struct {
	Name       string   `cbor:"name,omitempty"`
	Type       string   `cbor:"type,omitempty"`
	Protocols  []string `cbor:"protocols,omitempty"`
	Ontologies []string `cbor:"ontologies,omitempty"`
	Languages  []string `cbor:"languages,omitempty"`
}

// Clone returns a deep copy of the description.
func (s ServiceDescription) Clone() ServiceDescription {
	return ServiceDescription{
		Name:       s.Name,
		Type:       s.Type,
		Protocols:  cloneStrings(s.Protocols),
		Ontologies: cloneStrings(s.Ontologies),
		Languages:  cloneStrings(s.Languages),
	}
}

// DirectoryEntry is an agent's registration in the DF. When used as a
// search template, every empty field is a wildcard.
type DirectoryEntry struct {
	Owner      AgentIdentifier      `cbor:"owner"`
	Services   []ServiceDescription `cbor:"services,omitempty"`
	Protocols  []string             `cbor:"protocols,omitempty"`
	Ontologies []string             `cbor:"ontologies,omitempty"`
	Languages  []string             `cbor:"languages,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e DirectoryEntry) Clone() DirectoryEntry {
	var services []ServiceDescription
	if e.Services != nil {
		services = make([]ServiceDescription, len(e.Services))
		for i, service := range e.Services {
			services[i] = service.Clone()
		}
	}
	return DirectoryEntry{
		Owner:      e.Owner.Clone(),
		Services:   services,
		Protocols:  cloneStrings(e.Protocols),
		Ontologies: cloneStrings(e.Ontologies),
		Languages:  cloneStrings(e.Languages),
	}
}

// PlatformServiceDescription names one platform-internal service and
// the transport address it listens on.
type PlatformServiceDescription struct {
	Name    string `cbor:"name"`
	Address string `cbor:"address"`
}

// PlatformDescription is the AMS's getDescription reply: the platform
// name and the endpoints of its services.
type PlatformDescription struct {
	Name     string                       `cbor:"name"`
	Services []PlatformServiceDescription `cbor:"services,omitempty"`
}

// ServiceAddress returns the address of the named platform service,
// compared case-insensitively, or "" when the description lacks it.
func (p PlatformDescription) ServiceAddress(name string) string {
	for _, service := range p.Services {
		if EqualFold(service.Name, name) {
			return service.Address
		}
	}
	return ""
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
