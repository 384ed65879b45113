// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package df

import (
	"testing"

	"github.com/bureau-foundation/cap/lib/acl"
)

func TestMatchScalar(t *testing.T) {
	tests := []struct {
		entry, template string
		partial         bool
		want            bool
	}{
		{"anything", "", false, true},
		{"", "", false, true},
		{"", "x", false, false},
		{"Weather", "weather", false, true},
		{"weather-service", "weather", false, false},
		{"alice@platA", "ALICE", true, true},
		{"alice@platA", "alicia", true, false},
		{"al", "alice", true, false},
		// Only ASCII letters fold; equality and prefix agree.
		{"\u017fervice", "service", false, false},
		{"\u017fervice", "se", true, false},
		{"\u212aelvin", "kelvin", false, false},
		{"SERVICE", "se", true, true},
	}
	for _, test := range tests {
		if got := matchScalar(test.entry, test.template, test.partial); got != test.want {
			t.Errorf("matchScalar(%q, %q, %v) = %v, want %v", test.entry, test.template, test.partial, got, test.want)
		}
	}
}

func TestMatchSet(t *testing.T) {
	tests := []struct {
		name            string
		entry, template []string
		want            bool
	}{
		{"empty template", []string{"p1"}, nil, true},
		{"empty both", nil, nil, true},
		{"insufficient cardinality", []string{"p1"}, []string{"p1", "p2"}, false},
		{"superset", []string{"p1", "p2", "p3"}, []string{"p1", "p2"}, true},
		{"case-insensitive", []string{"WEATHER"}, []string{"weather"}, true},
		{"missing element", []string{"p1", "p3"}, []string{"p1", "p2"}, false},
		// Elements are not consumed: one "x" covers both template "x"s
		// once the cardinality check passes.
		{"repeated template element", []string{"x", "y"}, []string{"x", "x"}, true},
		{"no partial in sets", []string{"weather-service"}, []string{"weather"}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := matchSet(test.entry, test.template); got != test.want {
				t.Errorf("matchSet(%v, %v) = %v, want %v", test.entry, test.template, got, test.want)
			}
		})
	}
}

func TestMatchIdentifier(t *testing.T) {
	owner := acl.AgentIdentifier{Name: "alice@platA", Addresses: []string{"unix:ap.alice:/ap/msg:agentMessage"}}
	tests := []struct {
		name     string
		template acl.AgentIdentifier
		want     bool
	}{
		{"zero template", acl.AgentIdentifier{}, true},
		{"exact name", acl.AgentIdentifier{Name: "alice@platA"}, true},
		{"name prefix", acl.AgentIdentifier{Name: "ali"}, true},
		{"other name", acl.AgentIdentifier{Name: "bob"}, false},
		{"address only", acl.AgentIdentifier{Addresses: []string{"unix:ap.alice:/ap/msg:agentMessage"}}, true},
		{"wrong address", acl.AgentIdentifier{Name: "alice", Addresses: []string{"unix:ap.bob:/ap/msg:agentMessage"}}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := matchIdentifier(owner, test.template); got != test.want {
				t.Errorf("matchIdentifier(%v) = %v, want %v", test.template, got, test.want)
			}
		})
	}
}

func TestMatchService(t *testing.T) {
	service := acl.ServiceDescription{
		Name:       "forecast",
		Type:       "weather-service",
		Protocols:  []string{"fipa-request"},
		Ontologies: []string{"weather"},
		Languages:  []string{"fipa-sl"},
	}
	tests := []struct {
		name     string
		template acl.ServiceDescription
		want     bool
	}{
		{"zero template", acl.ServiceDescription{}, true},
		{"name", acl.ServiceDescription{Name: "FORECAST"}, true},
		{"name is not partial", acl.ServiceDescription{Name: "fore"}, false},
		{"type", acl.ServiceDescription{Type: "weather-service"}, true},
		{"wrong type", acl.ServiceDescription{Type: "stock-service"}, false},
		{"ontology", acl.ServiceDescription{Ontologies: []string{"weather"}}, true},
		{"extra language", acl.ServiceDescription{Languages: []string{"fipa-sl", "kif"}}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := matchService(service, test.template); got != test.want {
				t.Errorf("matchService(%+v) = %v, want %v", test.template, got, test.want)
			}
		})
	}
}

func TestMatchEntry(t *testing.T) {
	entry := acl.DirectoryEntry{
		Owner: acl.AgentIdentifier{Name: "alice@platA", Addresses: []string{"unix:ap.alice:/ap/msg:agentMessage"}},
		Services: []acl.ServiceDescription{
			{Name: "forecast", Type: "weather-service", Ontologies: []string{"weather"}},
			{Name: "quotes", Type: "stock-service", Ontologies: []string{"stocks"}},
		},
		Protocols:  []string{"fipa-request", "fipa-query"},
		Ontologies: []string{"weather", "stocks"},
		Languages:  []string{"fipa-sl"},
	}
	tests := []struct {
		name     string
		template acl.DirectoryEntry
		want     bool
	}{
		{"empty template matches", acl.DirectoryEntry{}, true},
		{"ontology present", acl.DirectoryEntry{Ontologies: []string{"Weather"}}, true},
		{"ontology absent", acl.DirectoryEntry{Ontologies: []string{"sports"}}, false},
		{"owner prefix", acl.DirectoryEntry{Owner: acl.AgentIdentifier{Name: "alice"}}, true},
		{"owner mismatch", acl.DirectoryEntry{Owner: acl.AgentIdentifier{Name: "bob"}}, false},
		{"one service", acl.DirectoryEntry{Services: []acl.ServiceDescription{{Type: "stock-service"}}}, true},
		{"two services", acl.DirectoryEntry{Services: []acl.ServiceDescription{{Name: "quotes"}, {Name: "forecast"}}}, true},
		{"too many services", acl.DirectoryEntry{Services: []acl.ServiceDescription{{}, {}, {}}}, false},
		{"missing service", acl.DirectoryEntry{Services: []acl.ServiceDescription{{Name: "news"}}}, false},
		{"all dimensions", acl.DirectoryEntry{
			Owner:      acl.AgentIdentifier{Name: "alice@platA"},
			Services:   []acl.ServiceDescription{{Ontologies: []string{"weather"}}},
			Protocols:  []string{"fipa-query"},
			Ontologies: []string{"stocks"},
			Languages:  []string{"FIPA-SL"},
		}, true},
		{"one dimension fails", acl.DirectoryEntry{
			Owner:     acl.AgentIdentifier{Name: "alice@platA"},
			Languages: []string{"kif"},
		}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Match(entry, test.template); got != test.want {
				t.Errorf("Match = %v, want %v", got, test.want)
			}
		})
	}
}

func TestMatchEntryWithoutFields(t *testing.T) {
	bare := acl.DirectoryEntry{Owner: acl.AgentIdentifier{Name: "bob@platA"}}
	if !Match(bare, acl.DirectoryEntry{}) {
		t.Error("empty template rejected an entry with no optional fields")
	}
	if Match(bare, acl.DirectoryEntry{Protocols: []string{"fipa-request"}}) {
		t.Error("protocol template matched an entry with no protocols")
	}
}
