// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/cap/lib/acl"
)

func TestParseAddress(t *testing.T) {
	address, err := ParseAddress("unix:ap.alice:/ap/msg:agentMessage")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	want := Address{Protocol: "unix", Service: "ap.alice", Path: "/ap/msg", Method: acl.VerbAgentMessage}
	if address != want {
		t.Errorf("ParseAddress = %+v, want %+v", address, want)
	}
	if address.String() != "unix:ap.alice:/ap/msg:agentMessage" {
		t.Errorf("String() = %q", address.String())
	}
}

func TestParseAddressRejects(t *testing.T) {
	for _, input := range []string{
		"",
		"unix:ap.alice:/ap/msg",
		"unix:ap.alice:/ap/msg:agentMessage:extra",
		"unix::/ap/msg:agentMessage",
		"alice@platA",
		"unix:../elsewhere/victim:/x:poke",
		"unix:ap/alice:/ap/msg:agentMessage",
		"unix:..:/ap/msg:agentMessage",
		"unix:.:/ap/msg:agentMessage",
	} {
		if _, err := ParseAddress(input); err == nil {
			t.Errorf("ParseAddress(%q) succeeded", input)
		}
	}
}

func TestSocketPath(t *testing.T) {
	if got := SocketPath("/run/cap", acl.PlatformService); got != "/run/cap/cap.platform.sock" {
		t.Errorf("SocketPath = %q", got)
	}
}

func TestDialRejectsEscapingService(t *testing.T) {
	client := NewClient(t.TempDir(), 0)
	for _, serviceName := range []string{"../victim", "/tmp/victim", "a/b", ".."} {
		address := Address{Protocol: ProtocolUnix, Service: serviceName, Path: acl.MessagePath, Method: acl.VerbAgentMessage}
		if err := client.Send(context.Background(), address, nil); !errors.Is(err, ErrInvalidService) {
			t.Errorf("Send to service %q = %v, want ErrInvalidService", serviceName, err)
		}
	}
}
