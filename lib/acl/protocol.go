// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import "strings"

// PlatformService is the well-known transport service name of the
// platform process. Agents locate the AMS at this service during
// bootstrap, before they know anything else about the platform.
const PlatformService = "cap.platform"

// AgentServicePrefix prefixes the transport service name an agent
// listens on: agent "alice" listens as service "ap.alice".
const AgentServicePrefix = "ap."

// Object paths inside the platform process.
const (
	AMSPath       = "/ap/AMS"
	DFPath        = "/ap/DF"
	MTSPath       = "/ap/MTS"
	TerminatePath = "/ap/terminate"
)

// Object paths inside an agent process.
const (
	MessagePath    = "/ap/msg"
	ManagementPath = "/ap/management"
)

// Names of the platform services as they appear in the platform
// description and as the local part of their agent identifiers.
const (
	AMSName = "AMS"
	DFName  = "DF"
	MTSName = "MTS"
)

// Verb is a method name dispatched at an object path.
type Verb string

// Verbs understood by the platform services and agent endpoints.
const (
	VerbPing           Verb = "ping"
	VerbTerminate      Verb = "terminate"
	VerbPrintDirectory Verb = "printDirectory"
	VerbGetDescription Verb = "getDescription"
	VerbRegister       Verb = "register"
	VerbDeregister     Verb = "deregister"
	VerbModify         Verb = "modify"
	VerbSearch         Verb = "search"
	VerbAgentMessage   Verb = "agentMessage"

	// VerbServiceEndpoint is the method component of the platform
	// services' own identifier addresses. Nothing dispatches on it;
	// it keeps those addresses in the four-field form.
	VerbServiceEndpoint Verb = "msg"
)

// String returns the verb as it appears on the wire.
func (v Verb) String() string { return string(v) }

// RepresentationACL is the envelope representation tag agents set on
// outgoing messages.
const RepresentationACL = "cbor-acl"

// FIPA communicative acts (FIPA00037).
const (
	PerformativeAcceptProposal  = "accept-proposal"
	PerformativeAgree           = "agree"
	PerformativeCancel          = "cancel"
	PerformativeCallForProposal = "cfp"
	PerformativeConfirm         = "confirm"
	PerformativeDisconfirm      = "disconfirm"
	PerformativeFailure         = "failure"
	PerformativeInform          = "inform"
	PerformativeInformIf        = "inform-if"
	PerformativeInformRef       = "inform-ref"
	PerformativeNotUnderstood   = "not-understood"
	PerformativePropagate       = "propagate"
	PerformativePropose         = "propose"
	PerformativeProxy           = "proxy"
	PerformativeQueryIf         = "query-if"
	PerformativeQueryRef        = "query-ref"
	PerformativeRefuse          = "refuse"
	PerformativeRejectProposal  = "reject-proposal"
	PerformativeRequest         = "request"
	PerformativeRequestWhen     = "request-when"
	PerformativeRequestWhenever = "request-whenever"
	PerformativeSubscribe       = "subscribe"
)

// QualifyName returns name with "@platform" appended when name does
// not already contain an "@".
func QualifyName(name, platform string) string {
	if strings.Contains(name, "@") {
		return name
	}
	return name + "@" + platform
}

// HasPlatformSuffix reports whether name ends with "@platform",
// ignoring ASCII case.
func HasPlatformSuffix(name, platform string) bool {
	return HasSuffixFold(name, "@"+platform)
}

// BuildAddress joins the four address fields into the
// "<protocol>:<service>:<path>:<method>" form carried in identifier
// address lists.
func BuildAddress(protocol, service, path string, method Verb) string {
	return protocol + ":" + service + ":" + path + ":" + string(method)
}
