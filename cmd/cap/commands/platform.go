// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cap/cmd/cap/cli"
	"github.com/bureau-foundation/cap/lib/acl"
)

func pingCommand(out io.Writer) *cli.Command {
	var connection connectionFlags

	return &cli.Command{
		Name:    "ping",
		Summary: "Check the platform services are answering",
		Description: `Send a ping to the AMS, DF and MTS objects of the platform. Each
ping is a full round trip through the platform socket, so a success
means the platform is accepting and dispatching requests.`,
		Usage: "cap ping [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ping", pflag.ContinueOnError)
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
			ctx := context.Background()
			for _, target := range []struct{ name, path string }{
				{acl.AMSName, acl.AMSPath},
				{acl.DFName, acl.DFPath},
				{acl.MTSName, acl.MTSPath},
			} {
				if _, err := platform.call(ctx, target.path, acl.VerbPing, nil); err != nil {
					return fmt.Errorf("ping %s: %w", target.name, err)
				}
				fmt.Fprintf(out, "%s ok\n", target.name)
			}
			return nil
		},
	}
}

func describeCommand(out io.Writer) *cli.Command {
	var connection connectionFlags
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "describe",
		Summary: "Show the platform description",
		Description: `Print the platform name and the transport address of each platform
service, as returned by the AMS getDescription conversation.`,
		Usage: "cap describe [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("describe", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			output.AddFlag(flagSet)
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
			description, err := platform.description(context.Background())
			if err != nil {
				return err
			}
			if done, err := output.EmitJSON(out, description); done {
				return err
			}

			fmt.Fprintf(out, "platform: %s\n\n", description.Name)
			writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "SERVICE\tADDRESS")
			for _, service := range description.Services {
				fmt.Fprintf(writer, "%s\t%s\n", service.Name, service.Address)
			}
			return writer.Flush()
		},
	}
}

func terminateCommand(out io.Writer) *cli.Command {
	var connection connectionFlags

	return &cli.Command{
		Name:    "terminate",
		Summary: "Stop the platform",
		Description: `Ask the platform process to shut down. The platform replies before
it stops, writes its final snapshot when persistence is configured,
and removes its socket.`,
		Usage: "cap terminate [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("terminate", pflag.ContinueOnError)
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
			if err := platform.simpleCall(context.Background(), acl.TerminatePath, acl.VerbTerminate, nil); err != nil {
				return fmt.Errorf("terminate: %w", err)
			}
			fmt.Fprintln(out, "platform terminating")
			return nil
		},
	}
}
