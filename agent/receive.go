// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/wire"
)

// OnMessage installs a callback invoked for every received message,
// replacing the queue. The callback runs on the listener's connection
// goroutine and may be called concurrently. Passing nil restores
// queueing.
func (a *Agent) OnMessage(callback func(acl.TransportEnvelope)) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.callback = callback
}

// Receive returns the oldest queued message, waiting until one
// arrives, ctx is cancelled, or the agent is terminated. It is meant
// for a single consumer goroutine.
func (a *Agent) Receive(ctx context.Context) (acl.TransportEnvelope, error) {
	for {
		a.mutex.Lock()
		if len(a.queue) > 0 {
			message := a.queue[0]
			a.queue = a.queue[1:]
			a.mutex.Unlock()
			return message, nil
		}
		a.mutex.Unlock()

		select {
		case <-a.queued:
		case <-a.terminated:
			return acl.TransportEnvelope{}, ErrTerminated
		case <-ctx.Done():
			return acl.TransportEnvelope{}, ctx.Err()
		}
	}
}

// Pending returns the number of queued messages.
func (a *Agent) Pending() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return len(a.queue)
}

func (a *Agent) handleMessage(ctx context.Context, args wire.Args) (wire.Args, error) {
	transport, err := wire.DecodeTransportEnvelope(args)
	if err != nil {
		return nil, fmt.Errorf("decoding agent message: %w", err)
	}
	a.logger.Debug("message received",
		"from", transport.Envelope.From.Name,
		"performative", transport.Message.Performative,
	)

	a.mutex.Lock()
	callback := a.callback
	if callback == nil {
		a.queue = append(a.queue, transport)
	}
	a.mutex.Unlock()

	if callback != nil {
		callback(transport)
		return nil, nil
	}
	select {
	case a.queued <- struct{}{}:
	default:
	}
	return nil, nil
}

func (a *Agent) handlePing(ctx context.Context, args wire.Args) (wire.Args, error) {
	a.logger.Info("management ping received")
	return nil, nil
}

func (a *Agent) handleTerminate(ctx context.Context, args wire.Args) (wire.Args, error) {
	a.terminateOnce.Do(func() { close(a.terminated) })
	return wire.EncodeReply(nil), nil
}
