// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the cap operator CLI: a thin client for the
// conversations a running platform serves on its AMS, DF and
// terminate endpoints.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/cap/cmd/cap/cli"
	"github.com/bureau-foundation/cap/lib/version"
)

// Root builds the complete cap command tree writing to stdout.
func Root() *cli.Command {
	return RootWith(os.Stdout)
}

// RootWith builds the command tree with command output written to out.
// Help text still goes to stderr unless the caller sets HelpOutput.
func RootWith(out io.Writer) *cli.Command {
	return &cli.Command{
		Name: "cap",
		Description: `cap: operator tool for a running agent platform.

Queries and manages the platform's identity directory (AMS) and
capability directory (DF) over the platform socket.`,
		Subcommands: []*cli.Command{
			pingCommand(out),
			describeCommand(out),
			amsCommand(out),
			dfCommand(out),
			terminateCommand(out),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Fprintf(out, "cap %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check the platform is up",
				Command:     "cap ping",
			},
			{
				Description: "Show the platform name and service addresses",
				Command:     "cap describe --json",
			},
			{
				Description: "Look up an agent's addresses",
				Command:     "cap ams search alice",
			},
			{
				Description: "Find agents offering a weather service",
				Command:     "cap df search --ontology weather",
			},
			{
				Description: "Talk to a platform using a non-default socket directory",
				Command:     "cap ping --socket-dir /run/cap",
			},
		},
	}
}

// noArgs rejects positional arguments for commands that take none.
func noArgs(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}
	return nil
}

// oneArg returns the single positional argument named what.
func oneArg(args []string, what string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%s is required", what)
	}
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected argument: %s", args[1])
	}
	return args[0], nil
}
