// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/cap/lib/acl"
)

// ProtocolUnix is the only transport protocol this package can dial.
// Addresses with any other protocol parse fine but fail at dispatch.
const ProtocolUnix = "unix"

// ErrUnsupportedProtocol is returned when dialing an address whose
// protocol this transport does not speak.
var ErrUnsupportedProtocol = errors.New("unsupported transport protocol")

// ErrInvalidService is returned for an address whose service field is
// not a single file name inside the socket directory.
var ErrInvalidService = errors.New("invalid service name")

// Address is a parsed "<protocol>:<service>:<path>:<method>" transport
// address. Service names a listening process, Path an object inside
// it, and Method the verb dispatched at that object.
type Address struct {
	Protocol string
	Service  string
	Path     string
	Method   acl.Verb
}

// ParseAddress splits an address string into its four fields. The
// string must have exactly four colon-separated, non-empty fields, and
// the service must pass ValidateService.
func ParseAddress(address string) (Address, error) {
	fields := strings.Split(address, ":")
	if len(fields) != 4 {
		return Address{}, fmt.Errorf("address %q has %d fields, want 4", address, len(fields))
	}
	for i, field := range fields {
		if field == "" {
			return Address{}, fmt.Errorf("address %q has empty field %d", address, i)
		}
	}
	if err := ValidateService(fields[1]); err != nil {
		return Address{}, fmt.Errorf("address %q: %w", address, err)
	}
	return Address{
		Protocol: fields[0],
		Service:  fields[1],
		Path:     fields[2],
		Method:   acl.Verb(fields[3]),
	}, nil
}

// String returns the address in its four-field form.
func (a Address) String() string {
	return acl.BuildAddress(a.Protocol, a.Service, a.Path, a.Method)
}

// SocketPath returns the Unix socket a service listens on inside
// socketDir.
func SocketPath(socketDir, service string) string {
	return filepath.Join(socketDir, service+".sock")
}

// ValidateService checks that service names a socket directly inside
// the socket directory: one local path element, no separators, no
// "..". Agents supply addresses, so this is what keeps a dial inside
// the socket directory.
func ValidateService(service string) error {
	if service == "" || service == "." || strings.ContainsRune(service, '/') || !filepath.IsLocal(service) {
		return fmt.Errorf("%w: %q", ErrInvalidService, service)
	}
	return nil
}
