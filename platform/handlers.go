// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/service"
	"github.com/bureau-foundation/cap/lib/wire"
)

func (p *Platform) registerHandlers() {
	for _, path := range []string{acl.AMSPath, acl.DFPath, acl.MTSPath} {
		p.handle(path, acl.VerbPing, p.handlePing(path))
	}

	p.handle(acl.AMSPath, acl.VerbPrintDirectory, p.handleAMSPrintDirectory)
	p.handle(acl.AMSPath, acl.VerbRegister, p.handleAMSRegister)
	p.handle(acl.AMSPath, acl.VerbDeregister, p.handleAMSDeregister)
	p.handle(acl.AMSPath, acl.VerbModify, p.handleAMSModify)
	p.handle(acl.AMSPath, acl.VerbSearch, p.handleAMSSearch)
	p.handle(acl.AMSPath, acl.VerbGetDescription, p.handleGetDescription)

	p.handle(acl.DFPath, acl.VerbPrintDirectory, p.handleDFPrintDirectory)
	p.handle(acl.DFPath, acl.VerbRegister, p.handleDFRegister)
	p.handle(acl.DFPath, acl.VerbDeregister, p.handleDFDeregister)
	p.handle(acl.DFPath, acl.VerbModify, p.handleDFModify)
	p.handle(acl.DFPath, acl.VerbSearch, p.handleDFSearch)

	p.handle(acl.MTSPath, acl.VerbAgentMessage, p.handleAgentMessage)

	p.handle(acl.TerminatePath, acl.VerbTerminate, p.handleTerminate)
}

// handle registers handler behind the platform mutex.
func (p *Platform) handle(path string, verb acl.Verb, handler service.HandlerFunc) {
	p.server.Handle(path, verb, func(ctx context.Context, args wire.Args) (wire.Args, error) {
		p.mutex.Lock()
		defer p.mutex.Unlock()
		return handler(ctx, args)
	})
}

// mutationReply encodes the simple reply for a directory mutation and
// marks the state dirty when it succeeded.
func (p *Platform) mutationReply(err error) wire.Args {
	if err == nil {
		p.dirty = true
	}
	return wire.EncodeReply(err)
}

// malformedReply answers a mutation whose arguments did not decode.
// No record could be built from them, which the directories report as
// a null argument.
func (p *Platform) malformedReply(verb acl.Verb, path string, err error) wire.Args {
	p.logger.Warn("malformed request", "path", path, "method", verb, "error", err)
	return wire.EncodeReply(acl.ErrNullArgument)
}

func (p *Platform) handlePing(path string) service.HandlerFunc {
	return func(ctx context.Context, args wire.Args) (wire.Args, error) {
		p.logger.Info("ping received", "path", path)
		return nil, nil
	}
}

func (p *Platform) handleAMSPrintDirectory(ctx context.Context, args wire.Args) (wire.Args, error) {
	var builder strings.Builder
	fmt.Fprintf(&builder, "AMS directory of %s (%d identities)", p.config.Name, p.identities.Len())
	for _, id := range p.identities.Entries() {
		builder.WriteString("\n")
		builder.WriteString(id.String())
	}
	p.logger.Info("directory dump", "service", acl.AMSName, "directory", builder.String())
	return wire.EncodeString(builder.String()), nil
}

func (p *Platform) handleAMSRegister(ctx context.Context, args wire.Args) (wire.Args, error) {
	id, err := wire.DecodeIdentifier(args)
	if err != nil {
		return p.malformedReply(acl.VerbRegister, acl.AMSPath, err), nil
	}
	return p.mutationReply(p.identities.Register(&id)), nil
}

func (p *Platform) handleAMSDeregister(ctx context.Context, args wire.Args) (wire.Args, error) {
	name, err := wire.DecodeString(args)
	if err != nil {
		return p.malformedReply(acl.VerbDeregister, acl.AMSPath, err), nil
	}
	return p.mutationReply(p.identities.Deregister(name)), nil
}

func (p *Platform) handleAMSModify(ctx context.Context, args wire.Args) (wire.Args, error) {
	id, err := wire.DecodeIdentifier(args)
	if err != nil {
		return p.malformedReply(acl.VerbModify, acl.AMSPath, err), nil
	}
	return p.mutationReply(p.identities.Modify(&id)), nil
}

func (p *Platform) handleAMSSearch(ctx context.Context, args wire.Args) (wire.Args, error) {
	name, err := wire.DecodeString(args)
	if err != nil {
		return nil, fmt.Errorf("decoding AMS search: %w", err)
	}
	return wire.EncodeIdentifiers(p.identities.Search(name)), nil
}

func (p *Platform) handleGetDescription(ctx context.Context, args wire.Args) (wire.Args, error) {
	return wire.EncodePlatformDescription(p.description), nil
}

func (p *Platform) handleDFPrintDirectory(ctx context.Context, args wire.Args) (wire.Args, error) {
	var builder strings.Builder
	fmt.Fprintf(&builder, "DF directory of %s (%d entries)", p.config.Name, p.capabilities.Len())
	for _, entry := range p.capabilities.Entries() {
		builder.WriteString("\n")
		builder.WriteString(entry.String())
	}
	p.logger.Info("directory dump", "service", acl.DFName, "directory", builder.String())
	return wire.EncodeString(builder.String()), nil
}

func (p *Platform) handleDFRegister(ctx context.Context, args wire.Args) (wire.Args, error) {
	entry, err := wire.DecodeEntry(args)
	if err != nil {
		return p.malformedReply(acl.VerbRegister, acl.DFPath, err), nil
	}
	return p.mutationReply(p.capabilities.Register(&entry)), nil
}

func (p *Platform) handleDFDeregister(ctx context.Context, args wire.Args) (wire.Args, error) {
	name, err := wire.DecodeString(args)
	if err != nil {
		return p.malformedReply(acl.VerbDeregister, acl.DFPath, err), nil
	}
	return p.mutationReply(p.capabilities.Deregister(name)), nil
}

func (p *Platform) handleDFModify(ctx context.Context, args wire.Args) (wire.Args, error) {
	entry, err := wire.DecodeEntry(args)
	if err != nil {
		return p.malformedReply(acl.VerbModify, acl.DFPath, err), nil
	}
	return p.mutationReply(p.capabilities.Modify(&entry)), nil
}

func (p *Platform) handleDFSearch(ctx context.Context, args wire.Args) (wire.Args, error) {
	template, err := wire.DecodeEntry(args)
	if err != nil {
		return nil, fmt.Errorf("decoding DF search template: %w", err)
	}
	return wire.EncodeEntries(p.capabilities.Search(template)), nil
}

// handleAgentMessage routes a message. Sent one-way by agents, so the
// result is only ever logged.
func (p *Platform) handleAgentMessage(ctx context.Context, args wire.Args) (wire.Args, error) {
	transport, err := wire.DecodeTransportEnvelope(args)
	if err != nil {
		return nil, fmt.Errorf("decoding agent message: %w", err)
	}
	p.router.Route(ctx, transport)
	return nil, nil
}

func (p *Platform) handleTerminate(ctx context.Context, args wire.Args) (wire.Args, error) {
	p.Terminate()
	return wire.EncodeReply(nil), nil
}
