// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package df

import (
	"log/slog"
	"slices"

	"github.com/bureau-foundation/cap/lib/acl"
)

// IdentityChecker answers whether a name is present in the identity
// directory. *ams.Directory satisfies it.
type IdentityChecker interface {
	Exists(name string) (int, bool)
}

// Directory is the capability registry of one platform.
type Directory struct {
	identities IdentityChecker
	entries    []acl.DirectoryEntry
	logger     *slog.Logger
}

// New returns an empty directory that authorizes registrations against
// identities.
func New(identities IdentityChecker, logger *slog.Logger) *Directory {
	return &Directory{identities: identities, logger: logger}
}

// Register adds entry. It fails with ErrUnauthorized when the owner is
// not in the identity directory and ErrDuplicate when the owner already
// holds an entry.
func (d *Directory) Register(entry *acl.DirectoryEntry) error {
	if entry == nil {
		return acl.ErrNullArgument
	}
	if _, known := d.identities.Exists(entry.Owner.Name); !known {
		return acl.ErrUnauthorized
	}
	if _, exists := d.find(entry.Owner.Name); exists {
		return acl.ErrDuplicate
	}
	d.entries = append(d.entries, entry.Clone())
	d.logger.Info("capabilities registered", "owner", entry.Owner.Name, "services", len(entry.Services))
	return nil
}

// Deregister removes the entry owned by name.
func (d *Directory) Deregister(name string) error {
	index, exists := d.find(name)
	if !exists {
		return acl.ErrEntryNotFound
	}
	d.entries = slices.Delete(d.entries, index, index+1)
	d.logger.Info("capabilities deregistered", "owner", name)
	return nil
}

// Modify replaces the entry owned by entry's owner. The identity
// directory is not consulted.
func (d *Directory) Modify(entry *acl.DirectoryEntry) error {
	if entry == nil {
		return acl.ErrNullArgument
	}
	index, exists := d.find(entry.Owner.Name)
	if !exists {
		return acl.ErrEntryNotFound
	}
	d.entries = slices.Delete(d.entries, index, index+1)
	d.entries = append(d.entries, entry.Clone())
	d.logger.Info("capabilities modified", "owner", entry.Owner.Name, "services", len(entry.Services))
	return nil
}

// Search returns a copy of every entry matching template, in directory
// order.
func (d *Directory) Search(template acl.DirectoryEntry) []acl.DirectoryEntry {
	var matches []acl.DirectoryEntry
	for _, entry := range d.entries {
		if Match(entry, template) {
			matches = append(matches, entry.Clone())
		}
	}
	return matches
}

// Entries returns a copy of every entry in directory order.
func (d *Directory) Entries() []acl.DirectoryEntry {
	out := make([]acl.DirectoryEntry, len(d.entries))
	for i, entry := range d.entries {
		out[i] = entry.Clone()
	}
	return out
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Restore re-registers entries loaded from a snapshot, skipping any
// whose owner the identity directory no longer knows. It returns the
// number restored.
func (d *Directory) Restore(entries []acl.DirectoryEntry) int {
	restored := 0
	for i := range entries {
		if err := d.Register(&entries[i]); err != nil {
			d.logger.Warn("skipping snapshot entry", "owner", entries[i].Owner.Name, "error", err)
			continue
		}
		restored++
	}
	return restored
}

func (d *Directory) find(name string) (int, bool) {
	for i := range d.entries {
		if d.entries[i].Owner.HasName(name) {
			return i, true
		}
	}
	return -1, false
}
