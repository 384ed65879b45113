// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"github.com/google/uuid"

	"github.com/bureau-foundation/cap/lib/acl"
)

// NewConversationID returns a fresh conversation identifier for the
// first message of a conversation.
func NewConversationID() string {
	return uuid.NewString()
}

// NewReply starts a reply to received with the given performative.
// It addresses the reply-to set when present and the sender
// otherwise, and carries over the conversation, protocol, language,
// and ontology. InReplyTo takes the original's reply-with tag.
func NewReply(received acl.Message, performative string) acl.Message {
	receivers := received.ReplyTo
	if len(receivers) == 0 && !received.Sender.IsZero() {
		receivers = []acl.AgentIdentifier{received.Sender}
	}
	reply := acl.Message{
		Performative:   performative,
		Language:       received.Language,
		Ontology:       received.Ontology,
		Protocol:       received.Protocol,
		ConversationID: received.ConversationID,
		InReplyTo:      received.ReplyWith,
	}
	for _, receiver := range receivers {
		reply.Receivers = append(reply.Receivers, receiver.Clone())
	}
	return reply
}
