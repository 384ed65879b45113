// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ams

import (
	"log/slog"
	"slices"

	"github.com/bureau-foundation/cap/lib/acl"
)

// Directory is the identity registry of one platform.
type Directory struct {
	platform string
	entries  []acl.AgentIdentifier
	logger   *slog.Logger
}

// New returns an empty directory for the named platform.
func New(platform string, logger *slog.Logger) *Directory {
	return &Directory{platform: platform, logger: logger}
}

// Platform returns the platform name registered names must end with.
func (d *Directory) Platform() string {
	return d.platform
}

// Register adds id. It fails with ErrNullArgument for a nil id,
// ErrRequiredFieldMissing when the name or the address list is empty,
// ErrInvalidAgentName when the name lacks the "@<platform>" suffix,
// and ErrDuplicateAgent when the name is already taken.
func (d *Directory) Register(id *acl.AgentIdentifier) error {
	if id == nil {
		return acl.ErrNullArgument
	}
	if id.Name == "" || len(id.Addresses) == 0 {
		return acl.ErrRequiredFieldMissing
	}
	if !acl.HasPlatformSuffix(id.Name, d.platform) {
		return acl.ErrInvalidAgentName
	}
	if _, exists := d.Exists(id.Name); exists {
		return acl.ErrDuplicateAgent
	}
	d.entries = append(d.entries, id.Clone())
	d.logger.Info("agent registered", "name", id.Name, "address", id.FirstAddress())
	return nil
}

// Deregister removes the identifier with the given name.
func (d *Directory) Deregister(name string) error {
	index, exists := d.Exists(name)
	if !exists {
		return acl.ErrAgentNotFound
	}
	d.entries = slices.Delete(d.entries, index, index+1)
	d.logger.Info("agent deregistered", "name", name)
	return nil
}

// Modify replaces the identifier registered under id's name. The old
// entry is removed and the replacement appended whole; fields are not
// merged.
func (d *Directory) Modify(id *acl.AgentIdentifier) error {
	if id == nil {
		return acl.ErrNullArgument
	}
	index, exists := d.Exists(id.Name)
	if !exists {
		return acl.ErrAgentDoesNotExist
	}
	d.entries = slices.Delete(d.entries, index, index+1)
	d.entries = append(d.entries, id.Clone())
	d.logger.Info("agent modified", "name", id.Name, "addresses", len(id.Addresses))
	return nil
}

// Exists returns the index of the identifier named name, compared
// without regard to case.
func (d *Directory) Exists(name string) (int, bool) {
	for i := range d.entries {
		if d.entries[i].HasName(name) {
			return i, true
		}
	}
	return -1, false
}

// Lookup returns a copy of the identifier named name.
func (d *Directory) Lookup(name string) (acl.AgentIdentifier, bool) {
	index, exists := d.Exists(name)
	if !exists {
		return acl.AgentIdentifier{}, false
	}
	return d.entries[index].Clone(), true
}

// Search returns the identifiers named name: at most one today. The
// result is a collection so the reply shape can grow to pattern
// matches without changing the wire format.
func (d *Directory) Search(name string) []acl.AgentIdentifier {
	id, exists := d.Lookup(name)
	if !exists {
		return nil
	}
	return []acl.AgentIdentifier{id}
}

// Entries returns a copy of every registered identifier in
// registration order.
func (d *Directory) Entries() []acl.AgentIdentifier {
	out := make([]acl.AgentIdentifier, len(d.entries))
	for i, id := range d.entries {
		out[i] = id.Clone()
	}
	return out
}

// Len returns the number of registered identifiers.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Restore re-registers entries loaded from a snapshot. Entries that no
// longer validate (wrong platform suffix, duplicates) are skipped and
// logged. It returns the number restored.
func (d *Directory) Restore(entries []acl.AgentIdentifier) int {
	restored := 0
	for i := range entries {
		if err := d.Register(&entries[i]); err != nil {
			d.logger.Warn("skipping snapshot identity", "name", entries[i].Name, "error", err)
			continue
		}
		restored++
	}
	return restored
}
