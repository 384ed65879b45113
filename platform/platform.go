// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/cap/ams"
	"github.com/bureau-foundation/cap/df"
	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/clock"
	"github.com/bureau-foundation/cap/lib/service"
	"github.com/bureau-foundation/cap/lib/snapshot"
	"github.com/bureau-foundation/cap/mts"
)

// DefaultFlushInterval is how often a dirty directory state is written
// to the snapshot file when Config leaves FlushInterval zero.
const DefaultFlushInterval = 30 * time.Second

// Config holds the settings of one platform process.
type Config struct {
	// Name is the platform name. Registered agent names must end
	// with "@<Name>".
	Name string

	// Service is the transport service name the platform listens
	// as. Default: acl.PlatformService.
	Service string

	// SocketDir holds the platform socket and every agent socket.
	SocketDir string

	// RequestTimeout bounds the router's dial to an agent.
	RequestTimeout time.Duration

	// Router configures delivery. Its Platform field is set from
	// Name.
	Router mts.Config

	// StateFile is the snapshot path. Empty disables persistence.
	StateFile string

	// Compression is applied to the snapshot payload.
	Compression snapshot.Compression

	// FlushInterval is the period of the snapshot flush loop.
	FlushInterval time.Duration

	// Clock drives the flush loop and snapshot timestamps. Default:
	// clock.Real().
	Clock clock.Clock
}

// Platform hosts the identity directory, the capability directory,
// and the message router behind one socket.
//
// Every request handler runs under a single mutex: a request is
// handled to completion, including any deliveries it triggers, before
// the next one starts.
type Platform struct {
	config Config
	logger *slog.Logger

	mutex        sync.Mutex
	identities   *ams.Directory
	capabilities *df.Directory
	router       *mts.Router
	// dirty is set by every successful directory mutation and
	// cleared when a snapshot is written.
	dirty bool

	description acl.PlatformDescription
	server      *service.SocketServer

	terminated    chan struct{}
	terminateOnce sync.Once
}

// New constructs a platform, registers its own services in the
// identity directory, and restores the snapshot named by
// config.StateFile if one exists. A snapshot that fails verification
// is an error; a snapshot written by a differently named platform is
// ignored with a warning.
func New(config Config, logger *slog.Logger) (*Platform, error) {
	if config.Name == "" {
		return nil, errors.New("platform name is required")
	}
	if strings.Contains(config.Name, "@") {
		return nil, fmt.Errorf("platform name %q must not contain '@'", config.Name)
	}
	if config.SocketDir == "" {
		return nil, errors.New("socket directory is required")
	}
	if config.Service == "" {
		config.Service = acl.PlatformService
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultFlushInterval
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	config.Router.Platform = config.Name

	logger = logger.With("platform", config.Name)
	identities := ams.New(config.Name, logger.With("service", acl.AMSName))
	p := &Platform{
		config:       config,
		logger:       logger,
		identities:   identities,
		capabilities: df.New(identities, logger.With("service", acl.DFName)),
		router: mts.New(identities,
			service.NewClient(config.SocketDir, config.RequestTimeout),
			config.Router,
			logger.With("service", acl.MTSName)),
		server:     service.NewSocketServer(service.SocketPath(config.SocketDir, config.Service), logger),
		terminated: make(chan struct{}),
	}

	if err := p.registerServices(); err != nil {
		return nil, err
	}
	if err := p.restore(); err != nil {
		return nil, err
	}
	p.registerHandlers()
	return p, nil
}

// registerServices adds the AMS, DF and MTS to the identity directory
// as "<service>@<platform>" and builds the platform description from
// the same addresses.
func (p *Platform) registerServices() error {
	for _, entry := range []struct {
		name string
		path string
	}{
		{acl.AMSName, acl.AMSPath},
		{acl.DFName, acl.DFPath},
		{acl.MTSName, acl.MTSPath},
	} {
		address := acl.BuildAddress(service.ProtocolUnix, p.config.Service, entry.path, acl.VerbServiceEndpoint)
		id := acl.AgentIdentifier{
			Name:      acl.QualifyName(entry.name, p.config.Name),
			Addresses: []string{address},
		}
		if err := p.identities.Register(&id); err != nil {
			return fmt.Errorf("registering platform service %s: %w", entry.name, err)
		}
		p.description.Services = append(p.description.Services, acl.PlatformServiceDescription{
			Name:    entry.name,
			Address: address,
		})
	}
	p.description.Name = p.config.Name
	return nil
}

// Description returns the platform description served by
// getDescription.
func (p *Platform) Description() acl.PlatformDescription {
	description := p.description
	description.Services = append([]acl.PlatformServiceDescription(nil), p.description.Services...)
	return description
}

// SocketPath returns the path of the platform socket.
func (p *Platform) SocketPath() string {
	return p.server.SocketPath()
}

// Ready returns a channel closed once the platform accepts requests.
func (p *Platform) Ready() <-chan struct{} {
	return p.server.Ready()
}

// Terminate asks Run to stop. It is safe to call more than once and
// from any goroutine.
func (p *Platform) Terminate() {
	p.terminateOnce.Do(func() { close(p.terminated) })
}

// Run serves requests until ctx is cancelled or a terminate request
// arrives. When persistence is enabled it flushes the snapshot
// periodically while running and once more before returning.
func (p *Platform) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-p.terminated:
			p.logger.Info("terminate requested")
			cancel()
		case <-ctx.Done():
		}
	}()

	var flushDone chan struct{}
	if p.config.StateFile != "" {
		flushDone = make(chan struct{})
		go func() {
			defer close(flushDone)
			p.flushLoop(ctx)
		}()
	}

	p.logger.Info("platform running",
		"socket", p.server.SocketPath(),
		"identities", p.identities.Len(),
		"entries", p.capabilities.Len(),
	)
	err := p.server.Serve(ctx)
	cancel()

	if flushDone != nil {
		<-flushDone
		if saveErr := p.Save(); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
	}
	p.logger.Info("platform stopped")
	return err
}

// Save writes the current directory state to the snapshot file. It is
// a no-op when persistence is disabled.
func (p *Platform) Save() error {
	if p.config.StateFile == "" {
		return nil
	}

	p.mutex.Lock()
	state := snapshot.Snapshot{
		SavedAt:    p.config.Clock.Now(),
		Platform:   p.config.Name,
		Identities: p.identities.Entries(),
		Entries:    p.capabilities.Entries(),
	}
	p.dirty = false
	p.mutex.Unlock()

	if err := snapshot.Save(p.config.StateFile, state, p.config.Compression); err != nil {
		p.mutex.Lock()
		p.dirty = true
		p.mutex.Unlock()
		return fmt.Errorf("saving snapshot: %w", err)
	}
	p.logger.Debug("snapshot saved",
		"path", p.config.StateFile,
		"identities", len(state.Identities),
		"entries", len(state.Entries),
	)
	return nil
}

func (p *Platform) flushLoop(ctx context.Context) {
	ticker := p.config.Clock.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mutex.Lock()
			dirty := p.dirty
			p.mutex.Unlock()
			if !dirty {
				continue
			}
			if err := p.Save(); err != nil {
				p.logger.Error("periodic snapshot failed", "error", err)
			}
		}
	}
}

// restore loads the snapshot, if any, into the directories. The
// platform's own service identities are already registered and are
// skipped.
func (p *Platform) restore() error {
	if p.config.StateFile == "" {
		return nil
	}
	state, err := snapshot.Load(p.config.StateFile)
	if errors.Is(err, os.ErrNotExist) {
		p.logger.Info("no snapshot to restore", "path", p.config.StateFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	if state.Platform != p.config.Name {
		p.logger.Warn("ignoring snapshot from another platform",
			"path", p.config.StateFile,
			"snapshot_platform", state.Platform,
		)
		return nil
	}

	var identities []acl.AgentIdentifier
	for _, id := range state.Identities {
		if _, exists := p.identities.Exists(id.Name); exists {
			continue
		}
		identities = append(identities, id)
	}
	restoredIdentities := p.identities.Restore(identities)
	restoredEntries := p.capabilities.Restore(state.Entries)
	p.logger.Info("snapshot restored",
		"path", p.config.StateFile,
		"saved_at", state.SavedAt,
		"identities", restoredIdentities,
		"entries", restoredEntries,
	)
	return nil
}
