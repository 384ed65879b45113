// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/cap/lib/codec"
	"github.com/bureau-foundation/cap/lib/wire"
)

// DefaultTimeout bounds a two-way call when the client is built without
// an explicit timeout.
const DefaultTimeout = 5 * time.Second

// maxReplySize matches the server's maxRequestSize for symmetry.
const maxReplySize = 1024 * 1024

// ServiceError is returned by Call when the server answers with an
// error reply: an unknown verb or arguments it could not decode.
type ServiceError struct {
	Address Address
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error on %s %s: %s", e.Address.Path, e.Address.Method, e.Message)
}

// Client sends requests to platform and agent sockets. Each request
// opens a new connection, matching the server's one-request-per-
// connection model.
type Client struct {
	socketDir string
	timeout   time.Duration
}

// NewClient creates a client resolving unix addresses inside
// socketDir. A zero timeout selects DefaultTimeout.
func NewClient(socketDir string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{socketDir: socketDir, timeout: timeout}
}

// SocketDir returns the directory the client resolves services in.
func (c *Client) SocketDir() string {
	return c.socketDir
}

// Call sends a two-way request and waits for the reply, bounded by the
// client timeout. An error reply is returned as *ServiceError;
// connection, timeout and decoding failures are returned wrapped.
func (c *Client) Call(ctx context.Context, address Address, args wire.Args) (wire.Args, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx, address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := c.write(ctx, conn, Request{Path: address.Path, Method: string(address.Method), Args: args}); err != nil {
		return nil, fmt.Errorf("calling %s: %w", address, err)
	}

	var reply Reply
	if err := codec.NewDecoder(io.LimitReader(conn, maxReplySize)).Decode(&reply); err != nil {
		return nil, fmt.Errorf("calling %s: reading reply: %w", address, err)
	}
	if !reply.OK {
		return nil, &ServiceError{Address: address, Message: reply.Error}
	}
	return reply.Args, nil
}

// Send delivers a one-way request. It returns once the request is
// written; the server sends nothing back.
func (c *Client) Send(ctx context.Context, address Address, args wire.Args) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx, address)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := c.write(ctx, conn, Request{Path: address.Path, Method: string(address.Method), OneWay: true, Args: args}); err != nil {
		return fmt.Errorf("sending to %s: %w", address, err)
	}
	return nil
}

func (c *Client) dial(ctx context.Context, address Address) (net.Conn, error) {
	if address.Protocol != ProtocolUnix {
		return nil, fmt.Errorf("dialing %s: %w: %q", address, ErrUnsupportedProtocol, address.Protocol)
	}
	if err := ValidateService(address.Service); err != nil {
		return nil, fmt.Errorf("dialing %s: %w", address, err)
	}
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", SocketPath(c.socketDir, address.Service))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", address, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	return conn, nil
}

// write encodes the request and half-closes the write side so the
// server's read sees EOF cleanly.
func (c *Client) write(ctx context.Context, conn net.Conn, request Request) error {
	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return fmt.Errorf("writing request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}
	return ctx.Err()
}
