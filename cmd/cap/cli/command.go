// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// FlagGroupAnnotation is the pflag annotation key that places a flag
// under its own heading in help output. Flags without it are listed
// under "Flags:".
const FlagGroupAnnotation = "cap_help_group"

// Command is one node of the cap command tree. A node either runs
// (Run) or dispatches to Subcommands by the first positional argument.
type Command struct {
	Name        string
	Summary     string // one line, shown in the parent's command list
	Description string // shown at the top of the command's own help
	Usage       string // synthesized from the command path when empty
	Examples    []Example

	// Flags builds the command's flag set. It is called once per
	// Execute and once per help rendering, so it must return a fresh
	// set bound to the command's variables.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run receives the positional arguments left after flag parsing.
	Run func(args []string) error

	// HelpOutput receives help text for this command and every
	// command below it that does not set its own. Default: stderr.
	HelpOutput io.Writer

	parent *Command
}

// Example is a command line shown in help output.
type Example struct {
	Description string
	Command     string
}

// Execute dispatches args through the tree and runs the selected
// command. "help" or -h/--help in first position prints help instead;
// "help" followed by command names prints help for that command.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 && args[0] == "help" && len(args) > 1 {
		return c.helpFor(args[1:])
	}
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(c.helpOutput())
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, err := c.subcommand(args[0])
		if err != nil {
			return err
		}
		return sub.Execute(args[1:])
	}

	if c.Run == nil {
		c.PrintHelp(c.helpOutput())
		if len(args) == 0 {
			return fmt.Errorf("subcommand required")
		}
		return fmt.Errorf("subcommand required (got flag %q)", args[0])
	}

	if c.Flags != nil {
		flagSet := c.Flags()
		flagSet.SetOutput(io.Discard)
		if err := flagSet.Parse(args); err != nil {
			return c.flagError(err, args)
		}
		args = flagSet.Args()
	}
	return c.Run(args)
}

// subcommand finds the child named name and links it to c, or returns
// an unknown-command error with the closest name as a suggestion.
func (c *Command) subcommand(name string) (*Command, error) {
	names := make([]string, 0, len(c.Subcommands))
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			sub.parent = c
			return sub, nil
		}
		names = append(names, sub.Name)
	}
	message := fmt.Sprintf("unknown command %q", name)
	if suggestion := closest(name, names); suggestion != "" {
		message += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return nil, fmt.Errorf("%s\n\nRun '%s --help' for usage.", message, c.fullName())
}

// helpFor prints help for the command reached by path.
func (c *Command) helpFor(path []string) error {
	target := c
	for _, name := range path {
		sub, err := target.subcommand(name)
		if err != nil {
			return err
		}
		target = sub
	}
	target.PrintHelp(target.helpOutput())
	return nil
}

// flagError formats a flag parse failure. Unknown flags get the
// closest defined flag as a suggestion.
func (c *Command) flagError(err error, args []string) error {
	message := err.Error()
	if strings.Contains(message, "unknown flag") || strings.Contains(message, "unknown shorthand flag") {
		if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
			message += fmt.Sprintf(" (did you mean %s?)", suggestion)
		}
	}
	return fmt.Errorf("%s\n\nRun '%s --help' for usage.", message, c.fullName())
}

// PrintHelp writes the command's help to w: description, usage,
// subcommands, flags grouped by FlagGroupAnnotation, and examples.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	switch {
	case c.Description != "":
		fmt.Fprintf(w, "%s\n\n", c.Description)
	case c.Summary != "":
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	usage := c.Usage
	if usage == "" {
		usage = name + " [flags]"
		if len(c.Subcommands) > 0 {
			usage = name + " <command> [flags]"
		}
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", usage)

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		writer := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(writer, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		writer.Flush()
	}

	if c.Flags != nil {
		for _, group := range groupFlags(c.Flags()) {
			fmt.Fprintf(w, "\n%s:\n%s", group.heading, group.flags.FlagUsages())
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
			if example.Description != "" {
				fmt.Fprintln(w)
			}
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

type flagGroup struct {
	heading string
	flags   *pflag.FlagSet
}

// groupFlags splits flagSet by FlagGroupAnnotation. Ungrouped flags
// come first under "Flags"; groups follow in order of first use.
// Empty groups are omitted.
func groupFlags(flagSet *pflag.FlagSet) []flagGroup {
	groups := []flagGroup{{heading: "Flags", flags: pflag.NewFlagSet("Flags", pflag.ContinueOnError)}}
	index := map[string]int{"": 0}
	flagSet.VisitAll(func(flag *pflag.Flag) {
		heading := ""
		if values := flag.Annotations[FlagGroupAnnotation]; len(values) > 0 {
			heading = values[0]
		}
		position, exists := index[heading]
		if !exists {
			position = len(groups)
			index[heading] = position
			groups = append(groups, flagGroup{heading: heading, flags: pflag.NewFlagSet(heading, pflag.ContinueOnError)})
		}
		groups[position].flags.AddFlag(flag)
	})

	var populated []flagGroup
	for _, group := range groups {
		if group.flags.HasFlags() {
			populated = append(populated, group)
		}
	}
	return populated
}

// helpOutput returns the nearest HelpOutput up the tree, or stderr.
func (c *Command) helpOutput() io.Writer {
	for command := c; command != nil; command = command.parent {
		if command.HelpOutput != nil {
			return command.HelpOutput
		}
	}
	return os.Stderr
}

// fullName returns the command path from the root, e.g. "cap df search".
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
