// Package backtest replays the swing classifier over a ticker's history and
// scores the long trades its signals would have produced.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/swingdesk/internal/collector"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/indicator"
	"github.com/newthinker/swingdesk/internal/strategy"
)

// Backtester runs classifier replays against historical data
type Backtester struct {
	source     collector.Collector
	engine     *indicator.Engine
	classifier *strategy.Classifier
}

// New creates a Backtester that reads prices from source.
func New(source collector.Collector, engine *indicator.Engine, classifier *strategy.Classifier) *Backtester {
	return &Backtester{
		source:     source,
		engine:     engine,
		classifier: classifier,
	}
}

// Run classifies every complete indicator row between start and end. Only
// changes of action are kept as signals.
func (b *Backtester) Run(ctx context.Context, symbol string, start, end time.Time) (*Result, error) {
	ticker, err := core.NormalizeTicker(symbol)
	if err != nil {
		return nil, err
	}

	ohlcv, err := b.source.FetchHistory(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	if len(ohlcv) == 0 {
		return nil, core.WrapError(core.ErrMissingData, fmt.Errorf("no price history for %s", ticker))
	}

	var (
		signals []core.Signal
		marks   []mark
		last    core.Action
	)
	for row := range b.engine.Rows(ohlcv) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		marks = append(marks, mark{time: row.Time, close: row.Close})

		sig := b.classifier.Classify(ticker, row)
		if sig.Action == last {
			continue
		}
		last = sig.Action
		sig.GeneratedAt = row.Time
		signals = append(signals, sig)
	}

	if len(marks) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%s has %d sessions, needs at least %d", ticker, len(ohlcv), b.engine.Params().LongWindow))
	}

	trades := signalsToTrades(signals, marks[len(marks)-1])

	return &Result{
		Symbol:    ticker,
		StartDate: start,
		EndDate:   end,
		Sessions:  len(marks),
		Signals:   signals,
		Trades:    trades,
		Stats:     summarize(trades, marks),
	}, nil
}

// signalsToTrades converts a series of signals into long trades. A position
// still open at the end is marked to final.
func signalsToTrades(signals []core.Signal, final mark) []Trade {
	var trades []Trade
	var openTrade *Trade

	for _, sig := range signals {
		switch sig.Action {
		case core.ActionBuy, core.ActionStrongBuy:
			// Only open a new trade if not already in a position
			if openTrade == nil {
				openTrade = &Trade{
					EntrySignal: sig,
					EntryPrice:  sig.Price,
				}
			}
		case core.ActionSell, core.ActionStrongSell:
			if openTrade != nil {
				sigCopy := sig
				openTrade.ExitSignal = &sigCopy
				openTrade.ExitPrice = sig.Price
				openTrade.Return = tradeReturn(openTrade.EntryPrice, openTrade.ExitPrice)
				openTrade.HeldDays = heldDays(openTrade.EntrySignal.GeneratedAt, sig.GeneratedAt)
				trades = append(trades, *openTrade)
				openTrade = nil
			}
		}
	}

	if openTrade != nil {
		openTrade.ExitPrice = final.close
		openTrade.Return = tradeReturn(openTrade.EntryPrice, final.close)
		openTrade.HeldDays = heldDays(openTrade.EntrySignal.GeneratedAt, final.time)
		trades = append(trades, *openTrade)
	}

	return trades
}

func heldDays(from, to time.Time) int {
	if from.IsZero() || to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

func tradeReturn(entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	return (exit - entry) / entry
}
