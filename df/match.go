// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package df

import "github.com/bureau-foundation/cap/lib/acl"

// Match reports whether entry satisfies template. Every dimension the
// template leaves empty is a wildcard; every present one must pass.
func Match(entry, template acl.DirectoryEntry) bool {
	return matchIdentifier(entry.Owner, template.Owner) &&
		matchCollection(entry.Services, template.Services, matchService) &&
		matchSet(entry.Protocols, template.Protocols) &&
		matchSet(entry.Ontologies, template.Ontologies) &&
		matchSet(entry.Languages, template.Languages)
}

// matchScalar compares one string. An empty template matches anything,
// an empty entry value matches only an empty template. Case is folded
// for ASCII only. With allowPartial the template may also be a prefix
// of the entry value.
func matchScalar(entry, template string, allowPartial bool) bool {
	if template == "" {
		return true
	}
	if entry == "" {
		return false
	}
	if acl.EqualFold(entry, template) {
		return true
	}
	return allowPartial && acl.HasPrefixFold(entry, template)
}

func matchString(entry, template string) bool {
	return matchScalar(entry, template, false)
}

// matchSet reports whether the entry's strings cover the template's.
func matchSet(entry, template []string) bool {
	return matchCollection(entry, template, matchString)
}

// matchCollection is the coverage rule shared by string sets and
// service lists: an empty template matches, a smaller entry does not,
// and otherwise each template element needs some entry element that
// matches it. Entry elements may be reused across template elements.
func matchCollection[T any](entry, template []T, match func(entry, template T) bool) bool {
	if len(template) == 0 {
		return true
	}
	if len(entry) < len(template) {
		return false
	}
	for _, wanted := range template {
		found := false
		for _, candidate := range entry {
			if match(candidate, wanted) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// matchIdentifier compares owners. The zero template identifier
// matches any owner.
func matchIdentifier(entry, template acl.AgentIdentifier) bool {
	if template.IsZero() {
		return true
	}
	return matchScalar(entry.Name, template.Name, true) &&
		matchSet(entry.Addresses, template.Addresses)
}

// matchService compares one service description. A zero template
// service matches any service because each of its fields is a
// wildcard.
func matchService(entry, template acl.ServiceDescription) bool {
	return matchString(entry.Name, template.Name) &&
		matchString(entry.Type, template.Type) &&
		matchSet(entry.Protocols, template.Protocols) &&
		matchSet(entry.Ontologies, template.Ontologies) &&
		matchSet(entry.Languages, template.Languages)
}
