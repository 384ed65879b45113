// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import "strings"

// The String methods render records in FIPA's s-expression style for
// logs and directory dumps. The output is for humans only; nothing
// parses it back.

// String renders the identifier as (agent-identifier :name ... :addresses (sequence ...)).
func (id AgentIdentifier) String() string {
	var builder strings.Builder
	writeIdentifier(&builder, id)
	return builder.String()
}

// String renders the service description.
func (s ServiceDescription) String() string {
	var builder strings.Builder
	writeService(&builder, s)
	return builder.String()
}

// String renders the directory entry.
func (e DirectoryEntry) String() string {
	var builder strings.Builder
	builder.WriteString("(df-agent-description :name ")
	writeIdentifier(&builder, e.Owner)
	builder.WriteString(" :services (set")
	for _, service := range e.Services {
		builder.WriteByte(' ')
		writeService(&builder, service)
	}
	builder.WriteByte(')')
	writeSet(&builder, "protocols", e.Protocols)
	writeSet(&builder, "ontologies", e.Ontologies)
	writeSet(&builder, "languages", e.Languages)
	builder.WriteByte(')')
	return builder.String()
}

// String renders the message with its performative first and only the
// fields that are present.
func (m Message) String() string {
	var builder strings.Builder
	builder.WriteByte('(')
	builder.WriteString(m.Performative)
	if !m.Sender.IsZero() {
		builder.WriteString("\n\t:sender ")
		writeIdentifier(&builder, m.Sender)
	}
	writeIdentifierSet(&builder, "receiver", m.Receivers)
	writeIdentifierSet(&builder, "reply-to", m.ReplyTo)
	for _, field := range []struct{ name, value string }{
		{"content", m.Content},
		{"language", m.Language},
		{"encoding", m.Encoding},
		{"ontology", m.Ontology},
		{"protocol", m.Protocol},
		{"conversation-id", m.ConversationID},
		{"reply-with", m.ReplyWith},
		{"in-reply-to", m.InReplyTo},
		{"reply-by", m.ReplyBy},
	} {
		if field.value == "" {
			continue
		}
		builder.WriteString("\n\t:")
		builder.WriteString(field.name)
		builder.WriteByte(' ')
		builder.WriteString(field.value)
	}
	builder.WriteByte(')')
	return builder.String()
}

// String renders the envelope.
func (e Envelope) String() string {
	var builder strings.Builder
	builder.WriteString("(envelope :from ")
	writeIdentifier(&builder, e.From)
	builder.WriteString(" :to (sequence")
	for _, id := range e.To {
		builder.WriteByte(' ')
		writeIdentifier(&builder, id)
	}
	builder.WriteString(") :acl-representation ")
	builder.WriteString(e.Representation)
	if !e.IntendedReceiver.IsZero() {
		builder.WriteString(" :intended-receiver ")
		writeIdentifier(&builder, e.IntendedReceiver)
	}
	builder.WriteByte(')')
	return builder.String()
}

// String renders the envelope followed by the message.
func (t TransportEnvelope) String() string {
	return t.Envelope.String() + "\n" + t.Message.String()
}

func writeIdentifier(builder *strings.Builder, id AgentIdentifier) {
	builder.WriteString("(agent-identifier :name ")
	builder.WriteString(id.Name)
	builder.WriteString(" :addresses (sequence")
	for _, address := range id.Addresses {
		builder.WriteByte(' ')
		builder.WriteString(address)
	}
	builder.WriteString("))")
}

func writeService(builder *strings.Builder, s ServiceDescription) {
	builder.WriteString("(service-description :name")
	if s.Name != "" {
		builder.WriteByte(' ')
		builder.WriteString(s.Name)
	}
	builder.WriteString(" :type")
	if s.Type != "" {
		builder.WriteByte(' ')
		builder.WriteString(s.Type)
	}
	writeSet(builder, "protocols", s.Protocols)
	writeSet(builder, "ontologies", s.Ontologies)
	writeSet(builder, "languages", s.Languages)
	builder.WriteByte(')')
}

func writeSet(builder *strings.Builder, name string, values []string) {
	builder.WriteString(" :")
	builder.WriteString(name)
	builder.WriteString(" (set")
	for _, value := range values {
		builder.WriteByte(' ')
		builder.WriteString(value)
	}
	builder.WriteByte(')')
}

func writeIdentifierSet(builder *strings.Builder, name string, ids []AgentIdentifier) {
	if len(ids) == 0 {
		return
	}
	builder.WriteString("\n\t:")
	builder.WriteString(name)
	builder.WriteString(" (set")
	for _, id := range ids {
		builder.WriteByte(' ')
		writeIdentifier(builder, id)
	}
	builder.WriteByte(')')
}
