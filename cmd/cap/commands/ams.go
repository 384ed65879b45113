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

func amsCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "ams",
		Summary: "Identity directory operations",
		Description: `Query and manage the Agent Management Service: the directory of
agent identifiers registered on the platform.`,
		Subcommands: []*cli.Command{
			amsSearchCommand(out),
			printDirectoryCommand(out, "ams", acl.AMSName, acl.AMSPath),
			amsDeregisterCommand(out),
		},
	}
}

func amsSearchCommand(out io.Writer) *cli.Command {
	var connection connectionFlags
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "search",
		Summary: "Look up an agent identifier by name",
		Description: `Look up a registered agent. A bare name is qualified with the
platform name before the search. Exits 1 when no agent matches.`,
		Usage: "cap ams search <name> [flags]",
		Examples: []cli.Example{
			{Description: "Find alice on the local platform", Command: "cap ams search alice"},
			{Description: "Search with a fully qualified name", Command: "cap ams search alice@workstation"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("search", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			output.AddFlag(flagSet)
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
			reply, err := platform.call(ctx, acl.AMSPath, acl.VerbSearch, wire.EncodeString(name))
			if err != nil {
				return err
			}
			identities, err := wire.DecodeIdentifiers(reply)
			if err != nil {
				return fmt.Errorf("%w: %v", acl.ErrInvalidReply, err)
			}

			if done, err := output.EmitJSON(out, identities); done {
				if err == nil && len(identities) == 0 {
					return &cli.ExitError{Code: 1}
				}
				return err
			}
			if len(identities) == 0 {
				fmt.Fprintf(out, "no agent named %s\n", name)
				return &cli.ExitError{Code: 1}
			}
			writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "NAME\tADDRESSES")
			for _, id := range identities {
				fmt.Fprintf(writer, "%s\t%s\n", id.Name, strings.Join(id.Addresses, ","))
			}
			return writer.Flush()
		},
	}
}

func amsDeregisterCommand(out io.Writer) *cli.Command {
	var connection connectionFlags

	return &cli.Command{
		Name:    "deregister",
		Summary: "Remove an agent identifier",
		Description: `Remove a registered agent from the AMS. This does not stop the
agent process or remove its DF entry; messages to it stop resolving.`,
		Usage: "cap ams deregister <name> [flags]",
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
			if err := platform.simpleCall(ctx, acl.AMSPath, acl.VerbDeregister, wire.EncodeString(name)); err != nil {
				return fmt.Errorf("deregistering %s: %w", name, err)
			}
			fmt.Fprintf(out, "deregistered %s\n", name)
			return nil
		},
	}
}

// printDirectoryCommand asks a directory service to dump its contents.
// The platform logs the dump and returns the same text.
func printDirectoryCommand(out io.Writer, parent, serviceName, path string) *cli.Command {
	var connection connectionFlags

	return &cli.Command{
		Name:    "print",
		Summary: "Print the " + serviceName + " directory",
		Usage:   "cap " + parent + " print [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("print", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
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
			reply, err := platform.call(context.Background(), path, acl.VerbPrintDirectory, nil)
			if err != nil {
				return err
			}
			text, err := wire.DecodeString(reply)
			if err != nil {
				return fmt.Errorf("%w: %v", acl.ErrInvalidReply, err)
			}
			fmt.Fprintln(out, text)
			return nil
		},
	}
}
