// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/service"
	"github.com/bureau-foundation/cap/lib/wire"
)

// ErrTerminated is returned by Receive once a management terminate
// has arrived.
var ErrTerminated = errors.New("agent terminated")

// Config identifies the agent and the platform it joins.
type Config struct {
	// Name is the bare agent name. The agent registers as
	// "<Name>@<platform>" and listens as service "ap.<Name>".
	Name string

	// SocketDir is the directory holding the platform socket. The
	// agent's own socket is created there too.
	SocketDir string

	// PlatformService is the platform's transport service name.
	// Default: acl.PlatformService.
	PlatformService string

	// Timeout bounds every call to the platform. Default:
	// service.DefaultTimeout.
	Timeout time.Duration
}

// Agent is a connection to a running platform: a registered identity,
// a listener for incoming messages and management requests, and the
// client side of every platform conversation.
type Agent struct {
	logger *slog.Logger
	client *service.Client

	description acl.PlatformDescription
	amsAddress  service.Address
	dfAddress   service.Address
	mtsAddress  service.Address

	server        *service.SocketServer
	serverStop    context.CancelFunc
	serverDone    chan error
	closeOnce     sync.Once
	terminated    chan struct{}
	terminateOnce sync.Once

	mutex      sync.Mutex
	identifier acl.AgentIdentifier
	callback   func(acl.TransportEnvelope)
	queue      []acl.TransportEnvelope
	queued     chan struct{}
}

// New bootstraps an agent: it fetches the platform description from
// the AMS, starts listening on "ap.<name>", and registers the agent's
// identifier with the AMS. On failure nothing is left registered or
// listening.
//
// Errors carry the platform error kinds: ErrPlatformNotFound when no
// platform socket exists, ErrCouldNotContactPlatform when a call
// fails, ErrInvalidReply when the description is unusable,
// ErrMessageListener when the listener cannot start, and the AMS
// registration failure kinds.
func New(ctx context.Context, config Config, logger *slog.Logger) (*Agent, error) {
	if config.Name == "" || strings.ContainsAny(config.Name, "@:/") {
		return nil, fmt.Errorf("%w: invalid agent name %q", acl.ErrInvalidAgentName, config.Name)
	}
	if config.PlatformService == "" {
		config.PlatformService = acl.PlatformService
	}

	agent := &Agent{
		logger:     logger.With("agent", config.Name),
		client:     service.NewClient(config.SocketDir, config.Timeout),
		terminated: make(chan struct{}),
		queued:     make(chan struct{}, 1),
	}

	if _, err := os.Stat(service.SocketPath(config.SocketDir, config.PlatformService)); err != nil {
		return nil, fmt.Errorf("%w: %v", acl.ErrPlatformNotFound, err)
	}

	agent.logger.Info("obtaining platform description")
	if err := agent.fetchDescription(ctx, config.PlatformService); err != nil {
		return nil, err
	}

	serviceName := acl.AgentServicePrefix + config.Name
	agent.identifier = acl.AgentIdentifier{
		Name:      acl.QualifyName(config.Name, agent.description.Name),
		Addresses: []string{acl.BuildAddress(service.ProtocolUnix, serviceName, acl.MessagePath, acl.VerbAgentMessage)},
	}
	agent.logger = agent.logger.With("identifier", agent.identifier.Name)

	if err := agent.listen(config.SocketDir, serviceName); err != nil {
		return nil, err
	}

	agent.logger.Info("registering with AMS")
	if err := agent.simpleCall(ctx, agent.amsAddress, acl.VerbRegister, wire.EncodeIdentifier(agent.identifier)); err != nil {
		agent.Close()
		return nil, fmt.Errorf("registering %s: %w", agent.identifier.Name, err)
	}
	agent.logger.Info("agent ready", "address", agent.identifier.FirstAddress())
	return agent, nil
}

// fetchDescription runs the getDescription conversation and resolves
// the service addresses it names.
func (a *Agent) fetchDescription(ctx context.Context, platformService string) error {
	ams := service.Address{Protocol: service.ProtocolUnix, Service: platformService, Path: acl.AMSPath}
	reply, err := a.call(ctx, ams, acl.VerbGetDescription, nil)
	if err != nil {
		return err
	}
	description, err := wire.DecodePlatformDescription(reply)
	if err != nil {
		return fmt.Errorf("%w: platform description: %v", acl.ErrInvalidReply, err)
	}
	a.description = description

	for _, target := range []struct {
		name    string
		address *service.Address
	}{
		{acl.AMSName, &a.amsAddress},
		{acl.DFName, &a.dfAddress},
		{acl.MTSName, &a.mtsAddress},
	} {
		text := description.ServiceAddress(target.name)
		if text == "" {
			return fmt.Errorf("%w: platform description lacks %s", acl.ErrInvalidReply, target.name)
		}
		address, err := service.ParseAddress(text)
		if err != nil {
			return fmt.Errorf("%w: %s address: %v", acl.ErrInvalidReply, target.name, err)
		}
		*target.address = address
		a.logger.Info("platform service found", "service", target.name, "address", text)
	}
	return nil
}

// listen starts the agent's socket server. An existing live listener
// for the same service means another process holds the name.
func (a *Agent) listen(socketDir, serviceName string) error {
	socketPath := service.SocketPath(socketDir, serviceName)
	if conn, err := net.DialTimeout("unix", socketPath, time.Second); err == nil {
		conn.Close()
		return fmt.Errorf("%w: service %s is already in use", acl.ErrMessageListener, serviceName)
	}

	a.server = service.NewSocketServer(socketPath, a.logger)
	a.server.Handle(acl.MessagePath, acl.VerbAgentMessage, a.handleMessage)
	a.server.Handle(acl.ManagementPath, acl.VerbPing, a.handlePing)
	a.server.Handle(acl.ManagementPath, acl.VerbTerminate, a.handleTerminate)

	ctx, cancel := context.WithCancel(context.Background())
	a.serverStop = cancel
	a.serverDone = make(chan error, 1)
	go func() {
		a.serverDone <- a.server.Serve(ctx)
	}()

	select {
	case <-a.server.Ready():
		a.logger.Info("listening", "path", acl.MessagePath, "socket", socketPath)
		return nil
	case err := <-a.serverDone:
		cancel()
		// Close must not wait on a server that already returned.
		a.serverDone <- err
		return fmt.Errorf("%w: %v", acl.ErrMessageListener, err)
	}
}

// Identifier returns the agent's registered identifier.
func (a *Agent) Identifier() acl.AgentIdentifier {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.identifier.Clone()
}

// Platform returns the name of the platform the agent joined.
func (a *Agent) Platform() string {
	return a.description.Name
}

// Description returns the platform description fetched at bootstrap.
func (a *Agent) Description() acl.PlatformDescription {
	description := a.description
	description.Services = append([]acl.PlatformServiceDescription(nil), a.description.Services...)
	return description
}

// Send hands message to the MTS for delivery. The sender is always
// overwritten with this agent's identifier. Delivery is one-way:
// a nil error means the MTS accepted the message, not that any
// receiver got it.
func (a *Agent) Send(ctx context.Context, message acl.Message) error {
	if len(message.Receivers) == 0 {
		return acl.ErrMustHaveReceiver
	}
	if message.Performative == "" {
		return acl.ErrPerformativeRequired
	}
	message.Sender = a.Identifier()
	transport := acl.NewTransportEnvelope(message)
	a.logger.Debug("sending message", "message", transport.String())

	address := a.mtsAddress
	address.Method = acl.VerbAgentMessage
	if err := a.client.Send(ctx, address, wire.EncodeTransportEnvelope(transport)); err != nil {
		return fmt.Errorf("%w: %w", acl.ErrCouldNotContactPlatform, err)
	}
	return nil
}

// SearchAMS looks up an agent by name. A bare name is qualified with
// the platform name first. The result is empty when no agent matches.
func (a *Agent) SearchAMS(ctx context.Context, name string) ([]acl.AgentIdentifier, error) {
	reply, err := a.call(ctx, a.amsAddress, acl.VerbSearch, wire.EncodeString(acl.QualifyName(name, a.description.Name)))
	if err != nil {
		return nil, err
	}
	results, err := wire.DecodeIdentifiers(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", acl.ErrInvalidReply, err)
	}
	return results, nil
}

// ModifyAMS replaces the agent's registered addresses. The local
// identifier follows only when the AMS accepts the change.
func (a *Agent) ModifyAMS(ctx context.Context, addresses []string) error {
	modified := acl.AgentIdentifier{Name: a.Identifier().Name, Addresses: addresses}
	if err := a.simpleCall(ctx, a.amsAddress, acl.VerbModify, wire.EncodeIdentifier(modified)); err != nil {
		return err
	}
	a.mutex.Lock()
	a.identifier = modified.Clone()
	a.mutex.Unlock()
	return nil
}

// DeregisterAMS removes the agent from the AMS. Messages addressed to
// it by name stop resolving.
func (a *Agent) DeregisterAMS(ctx context.Context) error {
	return a.simpleCall(ctx, a.amsAddress, acl.VerbDeregister, wire.EncodeString(a.Identifier().Name))
}

// RegisterDF advertises entry in the DF. The owner is always set to
// this agent.
func (a *Agent) RegisterDF(ctx context.Context, entry acl.DirectoryEntry) error {
	entry.Owner = a.Identifier()
	return a.simpleCall(ctx, a.dfAddress, acl.VerbRegister, wire.EncodeEntry(entry))
}

// ModifyDF replaces the agent's DF entry with entry as a whole.
func (a *Agent) ModifyDF(ctx context.Context, entry acl.DirectoryEntry) error {
	entry.Owner = a.Identifier()
	return a.simpleCall(ctx, a.dfAddress, acl.VerbModify, wire.EncodeEntry(entry))
}

// DeregisterDF removes the agent's DF entry.
func (a *Agent) DeregisterDF(ctx context.Context) error {
	return a.simpleCall(ctx, a.dfAddress, acl.VerbDeregister, wire.EncodeString(a.Identifier().Name))
}

// SearchDF returns the DF entries matching template. Empty template
// fields are wildcards.
func (a *Agent) SearchDF(ctx context.Context, template acl.DirectoryEntry) ([]acl.DirectoryEntry, error) {
	reply, err := a.call(ctx, a.dfAddress, acl.VerbSearch, wire.EncodeEntry(template))
	if err != nil {
		return nil, err
	}
	results, err := wire.DecodeEntries(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", acl.ErrInvalidReply, err)
	}
	return results, nil
}

// Run blocks until ctx is cancelled or the platform sends a
// management terminate. It returns nil on terminate.
func (a *Agent) Run(ctx context.Context) error {
	select {
	case <-a.terminated:
		a.logger.Info("terminate received")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Terminated returns a channel closed when a management terminate
// arrives.
func (a *Agent) Terminated() <-chan struct{} {
	return a.terminated
}

// Finish leaves the platform: it deregisters from the DF, then from
// the AMS, then stops listening. A DF failure is logged and does not
// stop the AMS deregistration; the AMS result is returned.
func (a *Agent) Finish(ctx context.Context) error {
	defer a.Close()

	if err := a.DeregisterDF(ctx); err != nil {
		if errors.Is(err, acl.ErrEntryNotFound) {
			a.logger.Debug("no DF entry to remove")
		} else {
			a.logger.Warn("DF deregistration failed", "error", err)
		}
	}
	if err := a.DeregisterAMS(ctx); err != nil {
		a.logger.Warn("AMS deregistration failed", "error", err)
		return err
	}
	a.logger.Info("deregistered from platform")
	return nil
}

// Close stops the listener without deregistering. Safe to call more
// than once.
func (a *Agent) Close() {
	a.closeOnce.Do(func() {
		a.serverStop()
		if err := <-a.serverDone; err != nil {
			a.logger.Warn("listener stopped with error", "error", err)
		}
	})
}

func (a *Agent) call(ctx context.Context, address service.Address, verb acl.Verb, args wire.Args) (wire.Args, error) {
	address.Method = verb
	reply, err := a.client.Call(ctx, address, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", acl.ErrCouldNotContactPlatform, err)
	}
	return reply, nil
}

// simpleCall runs a conversation whose reply is "ok" or an error kind.
func (a *Agent) simpleCall(ctx context.Context, address service.Address, verb acl.Verb, args wire.Args) error {
	reply, err := a.call(ctx, address, verb, args)
	if err != nil {
		return err
	}
	return wire.DecodeReply(reply)
}
