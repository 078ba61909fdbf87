package main

import (
	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run the large-cap swing screener",
	RunE:  runScreen,
}

func init() {
	screenCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(outputFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	rt, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	snaps := rt.app.Screen(ctx)
	return p.print(snaps, snapshotTable(snaps))
}
