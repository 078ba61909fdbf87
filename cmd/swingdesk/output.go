package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/swingdesk/internal/analysis"
	"github.com/newthinker/swingdesk/internal/projection"
	"github.com/newthinker/swingdesk/internal/watchlist"
	"gopkg.in/yaml.v3"
)

var outputFormat string

// printer writes command results as an aligned table, JSON or YAML.
type printer struct {
	format string
	out    io.Writer
}

func newPrinter(format string, out io.Writer) (*printer, error) {
	switch format {
	case "", "table":
		format = "table"
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
	return &printer{format: format, out: out}, nil
}

// print encodes v for json and yaml, or calls table otherwise.
func (p *printer) print(v any, table func(w *tabwriter.Writer)) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	table(w)
	return w.Flush()
}

func snapshotTable(snaps []analysis.Snapshot) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "TICKER\tCOMPANY\tPRICE\t1D\t52W\tRSI\tMACD\tSIGNAL\tCONCLUSION")
		for _, s := range snaps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				s.Ticker, s.Company, s.PriceText(), s.DayChangeText(), s.YearChangeText(),
				s.RSIText(), s.MACDLineText(), s.SignalText(), s.Conclusion)
		}
	}
}

func projectionTable(res *projection.Result) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%s\tCAGR %s%%\n\n", res.Holding.Ticker, humanize.FormatFloat("#,###.##", res.CAGR*100))
		fmt.Fprintln(w, "YEAR\tSHARE PRICE\tSHARES\tVALUE")
		for _, y := range res.Years {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", y.Year,
				humanize.FormatFloat("#,###.##", y.SharePrice),
				humanize.FormatFloat("#,###.####", y.SharesOwned),
				humanize.FormatFloat("#,###.##", y.PortfolioValue))
		}
	}
}

func entriesTable(kind watchlist.Kind, entries any) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		switch list := entries.(type) {
		case []watchlist.SwingEntry:
			fmt.Fprintln(w, "TICKER\tCOMPANY\tPRICE\tSIGNAL")
			for _, e := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Ticker, e.Company,
					humanize.FormatFloat("#,###.##", e.Price), e.Signal.Label())
			}
		case []watchlist.DividendEntry:
			fmt.Fprintln(w, "TICKER\tCOMPANY\tEX-DIV DATE\tPAY DATE")
			for _, e := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Ticker, e.Company, e.ExDividendDate, e.PayDate)
			}
		case []watchlist.Holding:
			fmt.Fprintln(w, "TICKER\tCOST/SHARE\tSHARES\tMONTHLY")
			for _, h := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", h.Ticker,
					humanize.FormatFloat("#,###.##", h.CostPerShare),
					humanize.FormatFloat("#,###.####", h.SharesOwned),
					humanize.FormatFloat("#,###.##", h.MonthlyContribution))
			}
		default:
			fmt.Fprintf(w, "%s: %v\n", kind, entries)
		}
	}
}
