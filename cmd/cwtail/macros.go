package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/yoskmr/cwtail/internal/macro"
)

func newAddCommand(a *app) *cobra.Command {
	flags := &tailFlags{}

	cmd := &cobra.Command{
		Use:   "add <log-group>",
		Short: "Save a tail invocation as a macro without starting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx, flags.region)
			if err != nil {
				return err
			}
			name, err := store.Put(ctx, flags.macro(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved macro %q\n", displayName(name))
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all saved macros",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx, "")
			if err != nil {
				return err
			}
			macros, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(macros) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No macros saved.")
				return nil
			}
			printMacros(cmd, macros)
			return nil
		},
	}
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <macro-name>",
		Short: "Delete a saved macro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx, "")
			if err != nil {
				return err
			}
			m, err := findMacro(ctx, store, args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(ctx, m.Name()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed macro %q\n", displayName(m.Name()))
			return nil
		},
	}
}

// findMacro resolves a user-supplied name. Derived names contain tabs,
// which are painful to type, so a plain log group name is accepted as
// long as it matches exactly one macro.
func findMacro(ctx context.Context, store *macro.Store, name string) (macro.Macro, error) {
	m, err := store.Get(ctx, name)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, macro.ErrNotFound) {
		return macro.Macro{}, err
	}

	macros, err := store.List(ctx)
	if err != nil {
		return macro.Macro{}, err
	}
	var matches []macro.Macro
	for _, candidate := range macros {
		if candidate.LogGroupName == name {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return macro.Macro{}, fmt.Errorf("%q: %w", name, macro.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, candidate := range matches {
		names[i] = displayName(candidate.Name())
	}
	return macro.Macro{}, fmt.Errorf("%q matches %d macros (%s); use the full name",
		name, len(matches), strings.Join(names, ", "))
}

// displayName renders a derived macro name with its tab separators made
// visible.
func displayName(name string) string {
	return strings.ReplaceAll(name, "\t", " / ")
}

func printMacros(cmd *cobra.Command, macros []macro.Macro) {
	out := cmd.OutOrStdout()

	if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		for _, m := range macros {
			fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%s\t%s\n",
				m.LogGroupName, m.Region, m.LogStreamName,
				m.RefreshIntervalMs, m.OutputFormat, m.TimeFormat)
		}
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Log Group", "Region", "Stream", "Interval (ms)", "Format", "Time Format"})
	for _, m := range macros {
		interval := ""
		if m.RefreshIntervalMs > 0 {
			interval = strconv.Itoa(m.RefreshIntervalMs)
		}
		tw.AppendRow(table.Row{m.LogGroupName, m.Region, m.LogStreamName, interval, m.OutputFormat, m.TimeFormat})
	}
	fmt.Fprintln(out, tw.Render())
}
