// Package analysis runs the per-ticker swing pipeline: fetch history and
// fundamentals, compute indicators, classify the latest row and build the
// dashboard snapshot.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/swingdesk/internal/collector"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/indicator"
	"github.com/newthinker/swingdesk/internal/metrics"
	"github.com/newthinker/swingdesk/internal/storage/signal"
	"github.com/newthinker/swingdesk/internal/strategy"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// yearWindow is the trailing window of the 52-week change.
const yearWindow = 365 * 24 * time.Hour

// Analyzer wires a market data source to the indicator engine and classifier.
type Analyzer struct {
	source      collector.Source
	engine      *indicator.Engine
	classifier  *strategy.Classifier
	signals     signal.Store
	metrics     *metrics.Registry
	logger      *zap.Logger
	lookback    int
	concurrency int
	now         func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSignalStore records every classified signal.
func WithSignalStore(s signal.Store) Option {
	return func(a *Analyzer) { a.signals = s }
}

// WithMetrics reports signals, failures and durations.
func WithMetrics(m *metrics.Registry) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithLookbackDays sets how much history is fetched per ticker.
func WithLookbackDays(days int) Option {
	return func(a *Analyzer) {
		if days > 0 {
			a.lookback = days
		}
	}
}

// WithConcurrency bounds the number of tickers analyzed at once.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// New creates an analyzer.
func New(source collector.Source, engine *indicator.Engine, classifier *strategy.Classifier, opts ...Option) *Analyzer {
	a := &Analyzer{
		source:      source,
		engine:      engine,
		classifier:  classifier,
		logger:      zap.NewNop(),
		lookback:    730,
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Source returns the market data source.
func (a *Analyzer) Source() collector.Source {
	return a.source
}

// Engine returns the indicator engine.
func (a *Analyzer) Engine() *indicator.Engine {
	return a.engine
}

// result is everything one pipeline run produced.
type result struct {
	ticker      string
	fundamental *core.Fundamental
	points      []core.OHLCV
	rows        []indicator.Row
	signal      core.Signal
}

// run executes the pipeline for one ticker. Only runs with record set add
// the signal to history; chart reads do not.
func (a *Analyzer) run(ctx context.Context, raw string, record bool) (*result, error) {
	ticker, err := core.NormalizeTicker(raw)
	if err != nil {
		return nil, err
	}
	res := &result{ticker: ticker}

	res.fundamental, err = a.source.FetchFundamental(ctx, ticker)
	if err != nil {
		a.upstreamFailure("fundamental", ticker, err)
	}
	if res.fundamental == nil {
		res.fundamental = &core.Fundamental{Symbol: ticker}
	}

	end := a.now()
	start := end.AddDate(0, 0, -a.lookback)
	res.points, err = a.source.FetchHistory(ctx, ticker, start, end)
	if err != nil {
		a.upstreamFailure("history", ticker, err)
		return nil, err
	}
	if len(res.points) == 0 {
		return nil, core.WrapError(core.ErrMissingData, fmt.Errorf("no price history for %s", ticker))
	}

	res.rows = a.engine.Compute(res.points)
	if len(res.rows) == 0 {
		res.signal = a.classifier.Unavailable(ticker)
		a.logger.Debug("not enough history for indicators",
			zap.String("ticker", ticker),
			zap.Int("sessions", len(res.points)),
		)
	} else {
		res.signal = a.classifier.Classify(ticker, res.rows[len(res.rows)-1])
	}
	if record {
		a.record(ctx, &res.signal)
	}
	return res, nil
}

func (a *Analyzer) upstreamFailure(op, ticker string, err error) {
	if a.metrics != nil {
		a.metrics.RecordUpstreamFailure(op)
	}
	a.logger.Warn("market data request failed",
		zap.String("operation", op),
		zap.String("ticker", ticker),
		zap.Error(err),
	)
}

func (a *Analyzer) record(ctx context.Context, sig *core.Signal) {
	if a.metrics != nil {
		a.metrics.RecordSignal(string(sig.Action))
	}
	if a.signals == nil || sig.Action == core.ActionUnavailable {
		return
	}
	id, err := a.signals.Save(ctx, *sig)
	if err != nil {
		a.logger.Error("failed to record signal",
			zap.String("ticker", sig.Symbol),
			zap.Error(err),
		)
		return
	}
	sig.ID = id
}

func (a *Analyzer) snapshot(res *result) Snapshot {
	company := res.fundamental.CompanyName()
	if company == "" {
		company = res.ticker
	}
	currency := res.fundamental.Currency
	if currency == "" {
		currency = "USD"
	}

	last := res.points[len(res.points)-1]
	s := Snapshot{
		Ticker:         res.ticker,
		Company:        company,
		Currency:       currency,
		CurrencySymbol: CurrencySymbol(currency),
		Price:          last.Close,
		HasPrice:       true,
		YearChange:     last.Close - yearLow(res.points, last.Time),
		Action:         res.signal.Action,
		Strength:       res.signal.Strength,
		Conclusion:     strategy.Conclusion(res.signal.Action),
		AsOf:           last.Time,
	}
	if n := len(res.points); n > 1 {
		s.DayChange = last.Close - res.points[n-2].Close
	}
	if n := len(res.rows); n > 0 {
		row := res.rows[n-1]
		s.RSI = row.RSI
		s.MACDLine = row.MACDLine
		s.MACDSignal = row.MACDSignal
		s.EMAShort = row.EMAShort
	}
	return s
}

// yearLow is the lowest close in the trailing 52 weeks ending at asOf.
func yearLow(points []core.OHLCV, asOf time.Time) float64 {
	cutoff := asOf.Add(-yearWindow)
	low := points[len(points)-1].Close
	for _, p := range points {
		if p.Time.Before(cutoff) {
			continue
		}
		if p.Close < low {
			low = p.Close
		}
	}
	return low
}

// Analyze builds the snapshot for one ticker. Failures produce a placeholder
// snapshot, never an error.
func (a *Analyzer) Analyze(ctx context.Context, ticker string) Snapshot {
	res, err := a.run(ctx, ticker, true)
	if err != nil {
		return Placeholder(ticker, err)
	}
	return a.snapshot(res)
}

// AnalyzeAll analyzes tickers concurrently and returns snapshots in input
// order.
func (a *Analyzer) AnalyzeAll(ctx context.Context, tickers []string) []Snapshot {
	start := time.Now()
	mapper := iter.Mapper[string, Snapshot]{MaxGoroutines: a.concurrency}
	out := mapper.Map(tickers, func(t *string) Snapshot {
		return a.Analyze(ctx, *t)
	})
	if a.metrics != nil {
		a.metrics.RecordAnalysis("batch", time.Since(start).Seconds())
	}
	a.logger.Info("analysis complete",
		zap.Int("tickers", len(tickers)),
		zap.Duration("duration", time.Since(start)),
	)
	return out
}

// Detail runs the pipeline for the symbol page and keeps the full series.
// Unlike Analyze it returns the pipeline error.
func (a *Analyzer) Detail(ctx context.Context, ticker string) (*Detail, error) {
	start := time.Now()
	res, err := a.run(ctx, ticker, true)
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.RecordAnalysis("detail", time.Since(start).Seconds())
	}
	return &Detail{
		Snapshot:    a.snapshot(res),
		Signal:      res.signal,
		Fundamental: res.fundamental,
		Rows:        res.rows,
	}, nil
}

// Indicators returns only the indicator series for a ticker. It does not
// add to signal history.
func (a *Analyzer) Indicators(ctx context.Context, ticker string) ([]indicator.Row, error) {
	res, err := a.run(ctx, ticker, false)
	if err != nil {
		return nil, err
	}
	if len(res.rows) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%s needs at least %d sessions", res.ticker, a.engine.Params().LongWindow))
	}
	return res.rows, nil
}

// IsPipelineError reports whether err came from the data pipeline rather than
// user input.
func IsPipelineError(err error) bool {
	return errors.Is(err, core.ErrUpstreamFailure) ||
		errors.Is(err, core.ErrCollectorTimeout) ||
		errors.Is(err, core.ErrMissingData) ||
		errors.Is(err, core.ErrInsufficientData)
}
