// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/codec"
	"github.com/bureau-foundation/cap/lib/wire"
)

// HandlerFunc processes one request dispatched to an object path and
// verb. The returned arguments become the reply. A non-nil error is a
// transport-level failure and is sent as an error reply; directory
// outcomes such as "duplicate agent" are ordinary reply arguments, not
// errors.
//
// For one-way requests the returned arguments are discarded and an
// error is only logged.
type HandlerFunc func(ctx context.Context, args wire.Args) (wire.Args, error)

// Request is the frame a client writes: the object path and verb to
// dispatch, whether a reply is expected, and the positional arguments.
type Request struct {
	Path   string    `cbor:"path"`
	Method string    `cbor:"method"`
	OneWay bool      `cbor:"one_way,omitempty"`
	Args   wire.Args `cbor:"args,omitempty"`
}

// Reply is the frame the server writes for a two-way request.
type Reply struct {
	OK    bool      `cbor:"ok"`
	Error string    `cbor:"error,omitempty"`
	Args  wire.Args `cbor:"args,omitempty"`
}

// SocketServer serves the request/reply protocol on a Unix socket.
// Each connection carries exactly one request: the client writes a
// CBOR Request, the server dispatches it and, unless the request is
// one-way, writes a CBOR Reply, then the connection closes.
//
// Handlers are registered with Handle before calling Serve. Requests
// for an unregistered (path, verb) pair receive an error reply.
type SocketServer struct {
	socketPath string
	handlers   map[string]HandlerFunc
	logger     *slog.Logger
	ready      chan struct{}

	// activeConnections tracks in-flight handlers so Serve can wait for
	// them before returning.
	activeConnections sync.WaitGroup
}

// NewSocketServer creates a server that will listen on socketPath.
func NewSocketServer(socketPath string, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		handlers:   make(map[string]HandlerFunc),
		logger:     logger,
		ready:      make(chan struct{}),
	}
}

// dispatchKey folds the verb to lower case: verbs match without regard
// to case, paths match exactly.
func dispatchKey(path string, verb string) string {
	return path + "\x00" + strings.ToLower(verb)
}

// Handle registers a handler for verb at path. Panics if the pair is
// already registered.
func (s *SocketServer) Handle(path string, verb acl.Verb, handler HandlerFunc) {
	key := dispatchKey(path, string(verb))
	if _, exists := s.handlers[key]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for %s %s", path, verb))
	}
	s.handlers[key] = handler
}

// SocketPath returns the path the server listens on.
func (s *SocketServer) SocketPath() string {
	return s.socketPath
}

// Ready returns a channel that is closed once the socket is accepting
// connections.
func (s *SocketServer) Ready() <-chan struct{} {
	return s.ready
}

// Serve accepts connections and dispatches requests until ctx is
// cancelled, then stops accepting and waits for in-flight handlers.
//
// Any existing socket file at the configured path is removed before
// listening. The socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)
	close(s.ready)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout is how long we wait for the client to send its request.
const readTimeout = 30 * time.Second

// writeTimeout is how long we wait for the reply to be written.
const writeTimeout = 10 * time.Second

// maxRequestSize caps a single CBOR request. A directory search
// template or an agent message is a few kilobytes at most.
const maxRequestSize = 1024 * 1024

// handleConnection processes one request.
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var request Request
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			// Client connected but sent nothing.
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	logger := s.logger.With("path", request.Path, "method", request.Method)
	if peer, ok := peerCredentials(conn); ok {
		logger = logger.With("peer_pid", peer.PID, "peer_uid", peer.UID)
	}

	handler, exists := s.handlers[dispatchKey(request.Path, request.Method)]
	if !exists {
		logger.Warn("no handler for request")
		if !request.OneWay {
			s.writeError(conn, fmt.Sprintf("unknown method %q at %s", request.Method, request.Path))
		}
		return
	}

	logger.Debug("dispatching request", "one_way", request.OneWay, "args", len(request.Args))
	result, err := handler(ctx, request.Args)
	if request.OneWay {
		if err != nil {
			logger.Warn("one-way request failed", "error", err)
		}
		return
	}
	if err != nil {
		logger.Debug("request failed", "error", err)
		s.writeError(conn, err.Error())
		return
	}
	s.writeReply(conn, Reply{OK: true, Args: result})
}

// writeError sends a failure reply. Write failures are logged at debug
// level; the connection is closing regardless.
func (s *SocketServer) writeError(conn net.Conn, message string) {
	s.writeReply(conn, Reply{OK: false, Error: message})
}

func (s *SocketServer) writeReply(conn net.Conn, reply Reply) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(reply); err != nil {
		s.logger.Debug("failed to write reply", "error", err)
	}
}
