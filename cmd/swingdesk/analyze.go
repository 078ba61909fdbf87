package main

import (
	"errors"

	"github.com/newthinker/swingdesk/internal/analysis"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker...]",
	Short: "Classify tickers, or the swing watchlist when none are given",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	var snaps []analysis.Snapshot
	if len(args) == 0 {
		snaps, err = rt.app.RefreshSwing(ctx)
		if err != nil && snaps == nil {
			return err
		}
	} else {
		snaps = rt.app.Analyzer().AnalyzeAll(ctx, args)
	}

	if err := p.print(snaps, snapshotTable(snaps)); err != nil {
		return err
	}
	for _, s := range snaps {
		if s.Failed() {
			return errors.New("some tickers could not be analyzed")
		}
	}
	return nil
}
