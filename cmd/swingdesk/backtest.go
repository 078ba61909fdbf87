package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/swingdesk/internal/backtest"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/spf13/cobra"
)

var backtestYears int

var backtestCmd = &cobra.Command{
	Use:   "backtest <ticker>",
	Short: "Replay the swing classifier over a ticker's history",
	Long: `Replay the swing classifier over daily history and score the long trades
its buy and sell signals would have produced against buy-and-hold.`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().IntVar(&backtestYears, "years", 2, "years of history to replay")
	backtestCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
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

	res, err := rt.app.Backtest(ctx, args[0], backtestYears)
	if err != nil {
		return err
	}
	return p.print(res, backtestTable(res))
}

func backtestTable(res *backtest.Result) func(w *tabwriter.Writer) {
	pct := func(v float64) string { return humanize.FormatFloat("#,###.##", v) + "%" }
	return func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%s\t%d sessions\n\n", res.Symbol, res.Sessions)
		fmt.Fprintln(w, "DATE\tSIGNAL\tPRICE")
		for _, s := range res.Signals {
			if s.Action == core.ActionHold || s.Action == core.ActionUnavailable {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.GeneratedAt.Format("2006-01-02"), s.Action.Label(),
				humanize.FormatFloat("#,###.##", s.Price))
		}
		st := res.Stats
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Trades\t%d (%d won, %d lost)\n", st.TotalTrades, st.WinningTrades, st.LosingTrades)
		fmt.Fprintf(w, "Win rate\t%s\n", pct(st.WinRate))
		fmt.Fprintf(w, "Total return\t%s\n", pct(st.TotalReturn))
		fmt.Fprintf(w, "Max drawdown\t%s\n", pct(st.MaxDrawdown))
		fmt.Fprintf(w, "Buy and hold\t%s\n", pct(st.BuyAndHold))
	}
}
