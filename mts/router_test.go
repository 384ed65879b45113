// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/bureau-foundation/cap/ams"
	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/service"
	"github.com/bureau-foundation/cap/lib/testutil"
	"github.com/bureau-foundation/cap/lib/wire"
)

type delivery struct {
	address   service.Address
	transport acl.TransportEnvelope
}

// recordingDispatcher records every Send and fails for the services
// listed in failing.
type recordingDispatcher struct {
	mutex      sync.Mutex
	deliveries []delivery
	attempts   int
	failing    map[string]bool
}

func (d *recordingDispatcher) Send(ctx context.Context, address service.Address, args wire.Args) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.attempts++
	if d.failing[address.Service] {
		return errors.New("connection refused")
	}
	transport, err := wire.DecodeTransportEnvelope(args)
	if err != nil {
		return err
	}
	d.deliveries = append(d.deliveries, delivery{address: address, transport: transport})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, config Config) (*Router, *ams.Directory, *recordingDispatcher) {
	t.Helper()
	config.Platform = "platA"
	directory := ams.New("platA", testLogger())
	dispatcher := &recordingDispatcher{failing: map[string]bool{}}
	return New(directory, dispatcher, config, testLogger()), directory, dispatcher
}

func message(receivers ...acl.AgentIdentifier) acl.TransportEnvelope {
	return acl.NewTransportEnvelope(acl.Message{
		Performative: acl.PerformativeInform,
		Sender:       acl.AgentIdentifier{Name: "alice@platA", Addresses: []string{"unix:ap.alice:/ap/msg:agentMessage"}},
		Receivers:    receivers,
		Content:      "hello",
	})
}

func TestRoutePartialFailure(t *testing.T) {
	router, _, dispatcher := newTestRouter(t, Config{})

	bob := acl.AgentIdentifier{Name: "bob@platA", Addresses: []string{"unix:ap.bob:/ap/msg:agentMessage"}}
	ghost := acl.AgentIdentifier{Name: "ghost"}

	// Route has no error path; returning at all is the sender's
	// completion.
	router.Route(context.Background(), message(bob, ghost))

	if len(dispatcher.deliveries) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(dispatcher.deliveries))
	}
	got := dispatcher.deliveries[0]
	if got.address.Service != "ap.bob" || got.address.Path != acl.MessagePath || got.address.Method != acl.VerbAgentMessage {
		t.Errorf("delivered to %s", got.address)
	}
	if got.transport.Envelope.IntendedReceiver.Name != "bob@platA" {
		t.Errorf("intended receiver = %v", got.transport.Envelope.IntendedReceiver)
	}
	if len(got.transport.Envelope.To) != 2 {
		t.Errorf("To trimmed to %v", got.transport.Envelope.To)
	}
	if got.transport.Message.Content != "hello" {
		t.Errorf("content = %q", got.transport.Message.Content)
	}
}

func TestRouteDirectoryFallback(t *testing.T) {
	router, directory, dispatcher := newTestRouter(t, Config{})
	carol := acl.AgentIdentifier{Name: "carol@platA", Addresses: []string{"unix:ap.carol:/ap/msg:agentMessage"}}
	if err := directory.Register(&carol); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Bare name, no address: qualified and looked up.
	router.Route(context.Background(), message(acl.AgentIdentifier{Name: "carol"}))

	if len(dispatcher.deliveries) != 1 || dispatcher.deliveries[0].address.Service != "ap.carol" {
		t.Fatalf("deliveries = %+v, want one to ap.carol", dispatcher.deliveries)
	}
	// The intended receiver is the identifier from To, not the
	// directory's copy.
	if got := dispatcher.deliveries[0].transport.Envelope.IntendedReceiver; got.Name != "carol" || len(got.Addresses) != 0 {
		t.Errorf("intended receiver = %v", got)
	}
}

func TestRouteOrderFollowsTo(t *testing.T) {
	router, _, dispatcher := newTestRouter(t, Config{})
	var receivers []acl.AgentIdentifier
	for _, name := range []string{"a", "b", "c"} {
		receivers = append(receivers, acl.AgentIdentifier{
			Name:      name + "@platA",
			Addresses: []string{"unix:ap." + name + ":/ap/msg:agentMessage"},
		})
	}
	router.Route(context.Background(), message(receivers...))

	if len(dispatcher.deliveries) != 3 {
		t.Fatalf("got %d deliveries", len(dispatcher.deliveries))
	}
	for i, want := range []string{"ap.a", "ap.b", "ap.c"} {
		if dispatcher.deliveries[i].address.Service != want {
			t.Errorf("delivery %d to %s, want %s", i, dispatcher.deliveries[i].address.Service, want)
		}
	}
}

func TestResolve(t *testing.T) {
	router, directory, _ := newTestRouter(t, Config{})
	directory.Register(&acl.AgentIdentifier{Name: "dave@platA", Addresses: []string{"unix:ap.dave:/ap/msg:agentMessage"}})

	tests := []struct {
		name     string
		receiver acl.AgentIdentifier
		want     string
		wantErr  bool
	}{
		{"embedded address wins", acl.AgentIdentifier{Name: "dave@platA", Addresses: []string{"unix:x:/y:z"}}, "unix:x:/y:z", false},
		{"qualified lookup", acl.AgentIdentifier{Name: "dave@platA"}, "unix:ap.dave:/ap/msg:agentMessage", false},
		{"bare lookup", acl.AgentIdentifier{Name: "DAVE"}, "unix:ap.dave:/ap/msg:agentMessage", false},
		{"foreign platform not qualified", acl.AgentIdentifier{Name: "dave@platB"}, "", true},
		{"unknown", acl.AgentIdentifier{Name: "erin"}, "", true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := router.Resolve(test.receiver)
			if test.wantErr {
				if !errors.Is(err, ErrUnresolved) {
					t.Errorf("Resolve = %q, %v; want ErrUnresolved", got, err)
				}
				return
			}
			if err != nil || got != test.want {
				t.Errorf("Resolve = %q, %v; want %q", got, err, test.want)
			}
		})
	}
}

func TestRouteMalformedAddressDropped(t *testing.T) {
	router, _, dispatcher := newTestRouter(t, Config{})
	broken := acl.AgentIdentifier{Name: "x@platA", Addresses: []string{"not-an-address"}}
	ok := acl.AgentIdentifier{Name: "y@platA", Addresses: []string{"unix:ap.y:/ap/msg:agentMessage"}}

	router.Route(context.Background(), message(broken, ok))

	if len(dispatcher.deliveries) != 1 || dispatcher.deliveries[0].address.Service != "ap.y" {
		t.Errorf("deliveries = %+v, want only ap.y", dispatcher.deliveries)
	}
}

func TestRouteEscapingAddressDropped(t *testing.T) {
	router, directory, dispatcher := newTestRouter(t, Config{})
	mallory := acl.AgentIdentifier{Name: "mallory@platA", Addresses: []string{"unix:../elsewhere/victim:/x:poke"}}
	if err := directory.Register(&mallory); err != nil {
		t.Fatalf("Register: %v", err)
	}
	embedded := acl.AgentIdentifier{Name: "eve@platA", Addresses: []string{"unix:/run/other/victim:/x:poke"}}

	router.Route(context.Background(), message(embedded, acl.AgentIdentifier{Name: "mallory"}))

	if dispatcher.attempts != 0 {
		t.Errorf("dispatcher called %d times for addresses outside the socket directory", dispatcher.attempts)
	}
}

// TestRouteStaysInSocketDir routes through a real client to one
// address inside the socket directory and one that climbs out of it.
// Only the first may be dialed.
func TestRouteStaysInSocketDir(t *testing.T) {
	root := testutil.SocketDir(t)
	socketDir := filepath.Join(root, "sockets")
	elsewhere := filepath.Join(root, "elsewhere")
	for _, dir := range []string{socketDir, elsewhere} {
		if err := os.Mkdir(dir, 0o700); err != nil {
			t.Fatal(err)
		}
	}

	listen := func(socketPath string, path string, verb acl.Verb) <-chan struct{} {
		reached := make(chan struct{}, 1)
		server := service.NewSocketServer(socketPath, testLogger())
		server.Handle(path, verb, func(ctx context.Context, args wire.Args) (wire.Args, error) {
			reached <- struct{}{}
			return nil, nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- server.Serve(ctx) }()
		t.Cleanup(func() {
			cancel()
			testutil.RequireReceive(t, done, 5*time.Second, "Serve did not return")
		})
		testutil.RequireClosed(t, server.Ready(), 5*time.Second, "server ready")
		return reached
	}
	victim := listen(filepath.Join(elsewhere, "victim.sock"), "/x", acl.Verb("poke"))
	bob := listen(service.SocketPath(socketDir, "ap.bob"), acl.MessagePath, acl.VerbAgentMessage)

	router := New(ams.New("platA", testLogger()), service.NewClient(socketDir, time.Second), Config{Platform: "platA"}, testLogger())
	router.Route(context.Background(), message(
		acl.AgentIdentifier{Name: "mallory@platA", Addresses: []string{"unix:../elsewhere/victim:/x:poke"}},
		acl.AgentIdentifier{Name: "bob@platA", Addresses: []string{"unix:ap.bob:/ap/msg:agentMessage"}},
	))

	testutil.RequireReceive(t, bob, 5*time.Second, "delivery to bob")
	testutil.RequireNoReceive(t, victim, 200*time.Millisecond, "router dialed a socket outside the socket directory")
}

func TestBreakerOpensOnRepeatedFailure(t *testing.T) {
	router, _, dispatcher := newTestRouter(t, Config{Breaker: BreakerConfig{MaxFailures: 2, Timeout: time.Hour}})
	dispatcher.failing["ap.dead"] = true
	dead := acl.AgentIdentifier{Name: "dead@platA", Addresses: []string{"unix:ap.dead:/ap/msg:agentMessage"}}
	live := acl.AgentIdentifier{Name: "live@platA", Addresses: []string{"unix:ap.live:/ap/msg:agentMessage"}}

	for i := 0; i < 5; i++ {
		router.Route(context.Background(), message(dead, live))
	}

	// Two failures trip the breaker; the remaining three deliveries to
	// the dead agent never reach the dispatcher.
	if dispatcher.attempts != 2+5 {
		t.Errorf("dispatcher saw %d attempts, want 7", dispatcher.attempts)
	}
	if state := router.BreakerState("ap.dead"); state != gobreaker.StateOpen {
		t.Errorf("dead breaker %v, want open", state)
	}
	if state := router.BreakerState("ap.live"); state != gobreaker.StateClosed {
		t.Errorf("live breaker %v, want closed", state)
	}
	if len(dispatcher.deliveries) != 5 {
		t.Errorf("live agent got %d deliveries, want 5", len(dispatcher.deliveries))
	}
}

func TestRateLimitDrops(t *testing.T) {
	router, _, dispatcher := newTestRouter(t, Config{Limiter: rate.NewLimiter(rate.Every(time.Hour), 2)})
	var receivers []acl.AgentIdentifier
	for _, name := range []string{"a", "b", "c"} {
		receivers = append(receivers, acl.AgentIdentifier{
			Name:      name + "@platA",
			Addresses: []string{"unix:ap." + name + ":/ap/msg:agentMessage"},
		})
	}
	router.Route(context.Background(), message(receivers...))

	if len(dispatcher.deliveries) != 2 {
		t.Errorf("got %d deliveries with burst 2, want 2", len(dispatcher.deliveries))
	}
}
