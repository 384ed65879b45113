// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cap/cmd/cap/cli"
	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/config"
	"github.com/bureau-foundation/cap/lib/service"
	"github.com/bureau-foundation/cap/lib/wire"
)

// connectionFlags locate the platform. Every command that talks to a
// running platform registers them.
type connectionFlags struct {
	ConfigFile string
	SocketDir  string
	Service    string
	Timeout    time.Duration
}

// AddFlags registers the connection flags on flagSet.
func (c *connectionFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.ConfigFile, "config", "", "platform config file (socket directory and service are read from it)")
	flagSet.StringVar(&c.SocketDir, "socket-dir", "", "directory holding the platform socket (overrides the config file)")
	flagSet.StringVar(&c.Service, "service", "", "platform transport service name (default "+acl.PlatformService+")")
	flagSet.DurationVar(&c.Timeout, "timeout", 0, "per-call timeout (default from config, else 5s)")
	for _, name := range []string{"config", "socket-dir", "service", "timeout"} {
		flagSet.SetAnnotation(name, cli.FlagGroupAnnotation, []string{"Connection flags"})
	}
}

// platformConnection is a client bound to one platform's services.
type platformConnection struct {
	client  *service.Client
	service string
}

// connect resolves the connection flags. A --config file supplies the
// defaults; without one the built-in socket directory is used. No
// socket is dialed until the first call.
func (c *connectionFlags) connect() (*platformConnection, error) {
	socketDir := config.DefaultSocketDir()
	serviceName := acl.PlatformService
	timeout := service.DefaultTimeout

	if c.ConfigFile != "" {
		loaded, err := config.LoadFile(c.ConfigFile)
		if err != nil {
			return nil, err
		}
		socketDir = loaded.Platform.SocketDir
		if loaded.Platform.Service != "" {
			serviceName = loaded.Platform.Service
		}
		if configured := loaded.RequestTimeout(); configured > 0 {
			timeout = configured
		}
	}
	if c.SocketDir != "" {
		socketDir = c.SocketDir
	}
	if c.Service != "" {
		serviceName = c.Service
	}
	if c.Timeout > 0 {
		timeout = c.Timeout
	}

	return &platformConnection{
		client:  service.NewClient(socketDir, timeout),
		service: serviceName,
	}, nil
}

func (p *platformConnection) address(path string, verb acl.Verb) service.Address {
	return service.Address{Protocol: service.ProtocolUnix, Service: p.service, Path: path, Method: verb}
}

// call runs one conversation with a platform service.
func (p *platformConnection) call(ctx context.Context, path string, verb acl.Verb, args wire.Args) (wire.Args, error) {
	reply, err := p.client.Call(ctx, p.address(path, verb), args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", acl.ErrCouldNotContactPlatform, err)
	}
	return reply, nil
}

// simpleCall runs a conversation whose reply is "ok" or an error kind.
func (p *platformConnection) simpleCall(ctx context.Context, path string, verb acl.Verb, args wire.Args) error {
	reply, err := p.call(ctx, path, verb, args)
	if err != nil {
		return err
	}
	return wire.DecodeReply(reply)
}

// description fetches the platform description from the AMS.
func (p *platformConnection) description(ctx context.Context) (acl.PlatformDescription, error) {
	reply, err := p.call(ctx, acl.AMSPath, acl.VerbGetDescription, nil)
	if err != nil {
		return acl.PlatformDescription{}, err
	}
	description, err := wire.DecodePlatformDescription(reply)
	if err != nil {
		return acl.PlatformDescription{}, fmt.Errorf("%w: %v", acl.ErrInvalidReply, err)
	}
	return description, nil
}

// qualify appends the platform name to a bare agent name, asking the
// AMS for it only when needed.
func (p *platformConnection) qualify(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("agent name is required")
	}
	if strings.Contains(name, "@") {
		return name, nil
	}
	description, err := p.description(ctx)
	if err != nil {
		return "", err
	}
	return acl.QualifyName(name, description.Name), nil
}
