// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"reflect"
	"testing"

	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/codec"
)

// overCBOR pushes args through the socket encoding so decoders see the
// types a real peer produces.
func overCBOR(t *testing.T, args Args) Args {
	t.Helper()
	data, err := codec.Marshal(args)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Args
	if err := codec.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return decoded
}

func sampleEntry() acl.DirectoryEntry {
	return acl.DirectoryEntry{
		Owner: acl.AgentIdentifier{
			Name:      "alice@platA",
			Addresses: []string{"unix:ap.alice:/ap/msg:agentMessage"},
		},
		Services: []acl.ServiceDescription{
			{Name: "forecast", Type: "weather-service", Ontologies: []string{"weather"}, Languages: []string{"fipa-sl"}},
			{Name: "quotes", Protocols: []string{"fipa-request", "fipa-query"}},
		},
		Protocols:  []string{"fipa-request"},
		Ontologies: []string{"weather", "stocks"},
	}
}

func sampleTransport() acl.TransportEnvelope {
	alice := acl.AgentIdentifier{Name: "alice@platA", Addresses: []string{"unix:ap.alice:/ap/msg:agentMessage"}}
	bob := acl.AgentIdentifier{Name: "bob@platA"}
	return acl.TransportEnvelope{
		Envelope: acl.Envelope{
			From:             alice,
			To:               []acl.AgentIdentifier{bob, {Name: "carol@platB", Addresses: []string{"unix:ap.carol:/ap/msg:agentMessage"}}},
			Representation:   acl.RepresentationACL,
			IntendedReceiver: bob,
		},
		Message: acl.Message{
			Performative:   acl.PerformativeRequest,
			Sender:         alice,
			Receivers:      []acl.AgentIdentifier{bob},
			Content:        "(forecast :city Lisbon)",
			Language:       "fipa-sl",
			Ontology:       "weather",
			Protocol:       "fipa-request",
			ConversationID: "c-1",
			ReplyWith:      "r-1",
			InReplyTo:      "r-0",
			ReplyBy:        "20261019T120000000",
		},
	}
}

func TestIdentifierRoundTrip(t *testing.T) {
	for _, id := range []acl.AgentIdentifier{
		{Name: "alice@platA", Addresses: []string{"dbus:svc:/ap/msg:agentMessage", "unix:ap.alice:/ap/msg:agentMessage"}},
		{Name: "bob@platA"},
		{},
	} {
		got, err := DecodeIdentifier(overCBOR(t, EncodeIdentifier(id)))
		if err != nil {
			t.Fatalf("DecodeIdentifier(%v): %v", id, err)
		}
		if !reflect.DeepEqual(got, id) {
			t.Errorf("round trip: got %#v, want %#v", got, id)
		}
	}
}

func TestEntryRoundTrip(t *testing.T) {
	entry := sampleEntry()
	got, err := DecodeEntry(overCBOR(t, EncodeEntry(entry)))
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if !reflect.DeepEqual(got, entry) {
		t.Errorf("round trip:\n got %#v\nwant %#v", got, entry)
	}
}

func TestEntriesRoundTrip(t *testing.T) {
	entries := []acl.DirectoryEntry{sampleEntry(), {Owner: acl.AgentIdentifier{Name: "bob@platA"}}}
	got, err := DecodeEntries(overCBOR(t, EncodeEntries(entries)))
	if err != nil {
		t.Fatalf("DecodeEntries: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("round trip:\n got %#v\nwant %#v", got, entries)
	}

	got, err = DecodeEntries(EncodeEntries(nil))
	if err != nil {
		t.Fatalf("DecodeEntries(empty): %v", err)
	}
	if got != nil {
		t.Errorf("empty collection decoded as %#v", got)
	}
}

func TestTransportEnvelopeRoundTrip(t *testing.T) {
	transport := sampleTransport()
	got, err := DecodeTransportEnvelope(overCBOR(t, EncodeTransportEnvelope(transport)))
	if err != nil {
		t.Fatalf("DecodeTransportEnvelope: %v", err)
	}
	if !reflect.DeepEqual(got, transport) {
		t.Errorf("round trip:\n got %#v\nwant %#v", got, transport)
	}
}

func TestMessageFieldOrder(t *testing.T) {
	w := NewWriter()
	w.WriteMessage(sampleTransport().Message)
	args := w.Args()

	// performative, sender(2), receivers(1 + 2), then eight strings.
	if len(args) != 1+2+3+8 {
		t.Fatalf("message flattened to %d arguments, want 14", len(args))
	}
	want := []string{"fipa-sl", "weather", "fipa-request", "c-1", "r-1", "r-0", "20261019T120000000", "(forecast :city Lisbon)"}
	for i, value := range want {
		if args[6+i] != value {
			t.Errorf("argument %d = %v, want %q", 6+i, args[6+i], value)
		}
	}
}

func TestEmptyStringCollapsesToAbsent(t *testing.T) {
	transport := sampleTransport()
	transport.Message.Content = ""
	transport.Message.Language = ""

	got, err := DecodeTransportEnvelope(EncodeTransportEnvelope(transport))
	if err != nil {
		t.Fatalf("DecodeTransportEnvelope: %v", err)
	}
	// There is no null marker, so empty and absent are the same value.
	var absent acl.Message
	if got.Message.Content != absent.Content || got.Message.Language != absent.Language {
		t.Errorf("empty fields decoded as %q/%q, want absent", got.Message.Content, got.Message.Language)
	}
}

func TestUnwiredMessageFieldsDropped(t *testing.T) {
	transport := sampleTransport()
	transport.Message.Encoding = "utf-8"
	transport.Message.ReplyTo = []acl.AgentIdentifier{{Name: "dave@platA"}}

	got, err := DecodeTransportEnvelope(EncodeTransportEnvelope(transport))
	if err != nil {
		t.Fatalf("DecodeTransportEnvelope: %v", err)
	}
	if got.Message.Encoding != "" || got.Message.ReplyTo != nil {
		t.Errorf("encoding/reply-to survived the wire: %q %v", got.Message.Encoding, got.Message.ReplyTo)
	}
}

func TestCollectionShapesDiffer(t *testing.T) {
	w := NewWriter()
	w.Strings([]string{"a", "b"})
	w.WriteIdentifiers([]acl.AgentIdentifier{{Name: "a"}, {Name: "b"}})
	args := w.Args()

	if _, ok := args[0].([]string); !ok {
		t.Errorf("string collection is %T, want one array argument", args[0])
	}
	if count, ok := args[1].(int32); !ok || count != 2 {
		t.Errorf("record collection starts with %T(%v), want int32 count", args[1], args[1])
	}
	if len(args) != 1+1+2*identifierWidth {
		t.Errorf("got %d arguments", len(args))
	}
}

func TestPlatformDescriptionRoundTrip(t *testing.T) {
	description := acl.PlatformDescription{
		Name: "platA",
		Services: []acl.PlatformServiceDescription{
			{Name: acl.AMSName, Address: "unix:cap.platform:/ap/AMS:msg"},
			{Name: acl.DFName, Address: "unix:cap.platform:/ap/DF:msg"},
			{Name: acl.MTSName, Address: "unix:cap.platform:/ap/MTS:msg"},
		},
	}
	args := EncodePlatformDescription(description)
	if len(args) != 7 {
		t.Fatalf("description flattened to %d arguments, want 7 (no count)", len(args))
	}
	got, err := DecodePlatformDescription(overCBOR(t, args))
	if err != nil {
		t.Fatalf("DecodePlatformDescription: %v", err)
	}
	if !reflect.DeepEqual(got, description) {
		t.Errorf("round trip: got %#v, want %#v", got, description)
	}

	// A dangling name without an address is malformed.
	_, err = DecodePlatformDescription(append(args, "orphan"))
	if !errors.Is(err, ErrShortRead) {
		t.Errorf("dangling pair: got %v, want ErrShortRead", err)
	}
}

func TestReplyRoundTrip(t *testing.T) {
	if err := DecodeReply(overCBOR(t, EncodeReply(nil))); err != nil {
		t.Errorf("ok reply decoded as %v", err)
	}
	err := DecodeReply(overCBOR(t, EncodeReply(acl.ErrUnauthorized)))
	if !errors.Is(err, acl.ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}
	err = DecodeReply(Args{int32(1)})
	if !errors.Is(err, acl.ErrInvalidReply) {
		t.Errorf("non-string reply: got %v, want ErrInvalidReply", err)
	}
	err = DecodeReply(nil)
	if !errors.Is(err, acl.ErrInvalidReply) {
		t.Errorf("empty reply: got %v, want ErrInvalidReply", err)
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		args Args
		want error
	}{
		{"short", Args{"alice@platA"}, ErrShortRead},
		{"wrong type", Args{int32(3), []string{}}, ErrTypeMismatch},
		{"non-string element", Args{"alice", []any{"x", uint64(1)}}, ErrTypeMismatch},
		{"trailing", Args{"alice", []string{}, "extra"}, ErrTrailingArguments},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeIdentifier(test.args)
			if !errors.Is(err, test.want) {
				t.Errorf("got %v, want %v", err, test.want)
			}
		})
	}
}

func TestHostileCounts(t *testing.T) {
	for _, count := range []any{int32(-1), int32(1000), uint64(1 << 40)} {
		_, err := DecodeIdentifiers(Args{count, "a", []string{}})
		if err == nil {
			t.Errorf("count %v accepted", count)
		}
	}
}
