// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cap/cmd/cap/cli"
	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/wire"
)

func dfCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "df",
		Summary: "Capability directory operations",
		Description: `Query and manage the Directory Facilitator: the yellow pages where
agents advertise the services they offer.`,
		Subcommands: []*cli.Command{
			dfSearchCommand(out),
			printDirectoryCommand(out, "df", acl.DFName, acl.DFPath),
			dfDeregisterCommand(out),
		},
	}
}

// dfSearchParams are the template fields a search can constrain.
// Unset fields are wildcards.
type dfSearchParams struct {
	Owner       string
	ServiceName string
	ServiceType string
	Protocols   []string
	Ontologies  []string
	Languages   []string
}

// template builds the search template. The service name and type form
// a single service description; the sets constrain the entry itself.
func (p dfSearchParams) template() acl.DirectoryEntry {
	var template acl.DirectoryEntry
	if p.Owner != "" {
		template.Owner = acl.AgentIdentifier{Name: p.Owner}
	}
	if p.ServiceName != "" || p.ServiceType != "" {
		template.Services = []acl.ServiceDescription{{Name: p.ServiceName, Type: p.ServiceType}}
	}
	template.Protocols = p.Protocols
	template.Ontologies = p.Ontologies
	template.Languages = p.Languages
	return template
}

// dfSearchRow is one line of search output.
type dfSearchRow struct {
	Owner      string   `json:"owner"`
	Services   []string `json:"services"`
	Ontologies []string `json:"ontologies"`
	Languages  []string `json:"languages"`
	Protocols  []string `json:"protocols"`
}

func dfSearchCommand(out io.Writer) *cli.Command {
	var connection connectionFlags
	var output cli.JSONOutput
	var params dfSearchParams

	return &cli.Command{
		Name:    "search",
		Summary: "Find agents by advertised capability",
		Description: `Search the DF with a template built from the flags. Every flag left
unset is a wildcard, so with no flags every entry is listed. The owner
matches by case-insensitive prefix; everything else matches exactly,
ignoring case. Repeated set flags must all be advertised.`,
		Usage: "cap df search [flags]",
		Examples: []cli.Example{
			{Description: "List every entry", Command: "cap df search"},
			{Description: "Agents speaking the weather ontology in English", Command: "cap df search --ontology weather --language en"},
			{Description: "Entries owned by agents whose name starts with bob", Command: "cap df search --owner bob"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("search", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			output.AddFlag(flagSet)
			flagSet.StringVar(&params.Owner, "owner", "", "owner name prefix")
			flagSet.StringVar(&params.ServiceName, "service-name", "", "advertised service name")
			flagSet.StringVar(&params.ServiceType, "type", "", "advertised service type")
			flagSet.StringArrayVar(&params.Protocols, "protocol", nil, "required protocol (repeatable)")
			flagSet.StringArrayVar(&params.Ontologies, "ontology", nil, "required ontology (repeatable)")
			flagSet.StringArrayVar(&params.Languages, "language", nil, "required content language (repeatable)")
			return flagSet
		},
		Run: func(args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			platform, err := connection.connect()
			if err != nil {
				return err
			}
			reply, err := platform.call(context.Background(), acl.DFPath, acl.VerbSearch, wire.EncodeEntry(params.template()))
			if err != nil {
				return err
			}
			entries, err := wire.DecodeEntries(reply)
			if err != nil {
				return fmt.Errorf("%w: %v", acl.ErrInvalidReply, err)
			}

			rows := make([]dfSearchRow, len(entries))
			for i, entry := range entries {
				row := dfSearchRow{
					Owner:      entry.Owner.Name,
					Ontologies: entry.Ontologies,
					Languages:  entry.Languages,
					Protocols:  entry.Protocols,
				}
				for _, service := range entry.Services {
					label := service.Name
					if service.Type != "" {
						label += "/" + service.Type
					}
					row.Services = append(row.Services, label)
				}
				rows[i] = row
			}

			if done, err := output.EmitJSON(out, rows); done {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "no matching entries")
				return nil
			}
			writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "OWNER\tSERVICES\tONTOLOGIES\tLANGUAGES")
			for _, row := range rows {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", row.Owner,
					strings.Join(row.Services, ","), strings.Join(row.Ontologies, ","), strings.Join(row.Languages, ","))
			}
			return writer.Flush()
		},
	}
}

func dfDeregisterCommand(out io.Writer) *cli.Command {
	var connection connectionFlags

	return &cli.Command{
		Name:    "deregister",
		Summary: "Remove an agent's DF entry",
		Usage:   "cap df deregister <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("deregister", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			name, err := oneArg(args, "agent name")
			if err != nil {
				return err
			}
			platform, err := connection.connect()
			if err != nil {
				return err
			}
			ctx := context.Background()
			name, err = platform.qualify(ctx, name)
			if err != nil {
				return err
			}
			if err := platform.simpleCall(ctx, acl.DFPath, acl.VerbDeregister, wire.EncodeString(name)); err != nil {
				return fmt.Errorf("deregistering %s: %w", name, err)
			}
			fmt.Fprintf(out, "deregistered %s\n", name)
			return nil
		},
	}
}
