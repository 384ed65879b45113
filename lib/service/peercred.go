// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"net"

	"golang.org/x/sys/unix"
)

// Peer is the kernel-reported identity of the process on the other end
// of a Unix socket connection. It is informational: requests are not
// authorized on it, and it is only attached to request logs.
type Peer struct {
	PID int32
	UID uint32
	GID uint32
}

// peerCredentials reads SO_PEERCRED from conn. The second return is
// false for non-Unix connections or when the kernel refuses the query.
func peerCredentials(conn net.Conn) (Peer, bool) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return Peer{}, false
	}
	raw, err := unixConn.SyscallConn()
	if err != nil {
		return Peer{}, false
	}
	var credentials *unix.Ucred
	var credentialsErr error
	if err := raw.Control(func(fd uintptr) {
		credentials, credentialsErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil || credentialsErr != nil {
		return Peer{}, false
	}
	return Peer{PID: credentials.Pid, UID: credentials.Uid, GID: credentials.Gid}, true
}
