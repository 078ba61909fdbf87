package main

import (
	"context"
	"fmt"

	"github.com/newthinker/swingdesk/internal/watchlist"
	"github.com/spf13/cobra"
)

var watchlistCmd = &cobra.Command{
	Use:     "watchlist",
	Aliases: []string{"wl"},
	Short:   "Manage the swing, dividend and portfolio watchlists",
}

var watchlistListCmd = &cobra.Command{
	Use:   "list <swing|dividend|portfolio>",
	Short: "List a watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := watchlist.ParseKind(args[0])
		if err != nil {
			return err
		}
		p, err := newPrinter(outputFormat, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		rt, err := setup(commandContext(cmd), false)
		if err != nil {
			return err
		}
		defer rt.Close()

		entries := rt.app.Entries(kind)
		return p.print(entries, entriesTable(kind, entries))
	},
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add <swing|dividend|portfolio> <ticker>",
	Short: "Add a ticker to a watchlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := watchlist.ParseKind(args[0])
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		rt, err := setup(ctx, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if _, err := rt.app.Add(ctx, kind, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", args[1], kind)
		return nil
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:     "remove <swing|dividend|portfolio> <ticker>",
	Aliases: []string{"rm"},
	Short:   "Remove a ticker from a watchlist",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := watchlist.ParseKind(args[0])
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		rt, err := setup(ctx, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.app.Remove(ctx, kind, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", args[1], kind)
		return nil
	},
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	watchlistListCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	watchlistCmd.AddCommand(watchlistListCmd, watchlistAddCmd, watchlistRemoveCmd)
	rootCmd.AddCommand(watchlistCmd)
}
