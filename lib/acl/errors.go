// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package acl

// Kind is a platform error kind. Its text is exactly what travels in a
// simple reply, so a Kind can be returned as an error by a directory,
// written to the wire verbatim, and recovered on the client with
// [ParseReply]. Kinds are comparable, so errors.Is works against the
// constants below.
type Kind string

// Error returns the wire text of the kind.
func (k Kind) Error() string { return string(k) }

// ReplyOK is the simple reply for a successful operation.
const ReplyOK = "ok"

// Error kinds surfaced by the platform services and the agent client.
const (
	ErrNullArgument            Kind = "Null pointer sent"
	ErrRequiredFieldMissing    Kind = "Required Field Missing"
	ErrInvalidAgentName        Kind = "Invalid agent name"
	ErrDuplicateAgent          Kind = "Agent already exists with that name"
	ErrAgentNotFound           Kind = "No agent with that name was found"
	ErrAgentDoesNotExist       Kind = "The given agent does not exist"
	ErrUnauthorized            Kind = "You don't have the authority to perform that action - not registered with AMS"
	ErrDuplicate               Kind = "Duplicate entries are not allowed"
	ErrEntryNotFound           Kind = "No entry was found for that agent"
	ErrCouldNotContactPlatform Kind = "The platform could not be contacted"
	ErrInvalidReply            Kind = "Invalid format of reply message"
	ErrMustHaveReceiver        Kind = "Message must have at least one receiver"
	ErrPerformativeRequired    Kind = "Performative required"
	ErrPlatformNotFound        Kind = "The platform could not be found"
	ErrMessageListener         Kind = "Unable to register agent message listener"
)

// knownKinds is the set of kinds ParseReply recognizes.
var knownKinds = map[string]Kind{}

func init() {
	for _, kind := range []Kind{
		ErrNullArgument,
		ErrRequiredFieldMissing,
		ErrInvalidAgentName,
		ErrDuplicateAgent,
		ErrAgentNotFound,
		ErrAgentDoesNotExist,
		ErrUnauthorized,
		ErrDuplicate,
		ErrEntryNotFound,
		ErrCouldNotContactPlatform,
		ErrInvalidReply,
		ErrMustHaveReceiver,
		ErrPerformativeRequired,
		ErrPlatformNotFound,
		ErrMessageListener,
	} {
		knownKinds[string(kind)] = kind
	}
}

// Reply converts the result of a directory operation into its simple
// reply text: "ok" for nil, the kind text for a Kind, and the error
// string for anything else.
func Reply(err error) string {
	if err == nil {
		return ReplyOK
	}
	return err.Error()
}

// ParseReply converts a simple reply back into an error. "ok" maps to
// nil. Unrecognized text is still returned as a Kind so callers see the
// server's message unchanged.
func ParseReply(reply string) error {
	if reply == ReplyOK {
		return nil
	}
	if kind, ok := knownKinds[reply]; ok {
		return kind
	}
	return Kind(reply)
}

// IsKnown reports whether k is one of the kinds defined above.
func (k Kind) IsKnown() bool {
	_, ok := knownKinds[string(k)]
	return ok
}
