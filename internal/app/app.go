package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/newthinker/swingdesk/internal/analysis"
	"github.com/newthinker/swingdesk/internal/backtest"
	"github.com/newthinker/swingdesk/internal/collector"
	"github.com/newthinker/swingdesk/internal/config"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/dividend"
	"github.com/newthinker/swingdesk/internal/indicator"
	"github.com/newthinker/swingdesk/internal/llm"
	"github.com/newthinker/swingdesk/internal/metrics"
	"github.com/newthinker/swingdesk/internal/narrative"
	"github.com/newthinker/swingdesk/internal/notifier"
	"github.com/newthinker/swingdesk/internal/projection"
	"github.com/newthinker/swingdesk/internal/router"
	"github.com/newthinker/swingdesk/internal/storage/archive"
	"github.com/newthinker/swingdesk/internal/storage/signal"
	"github.com/newthinker/swingdesk/internal/strategy"
	"github.com/newthinker/swingdesk/internal/watchlist"
	"go.uber.org/zap"
)

// App owns the three watchlists and the analysis components. Lists are
// loaded once by Load and saved after every mutation.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	source    collector.Source
	store     *watchlist.Store
	signals   signal.Store
	analyzer  *analysis.Analyzer
	screener  *analysis.Screener
	dividends *dividend.Service
	projector *projection.Projector
	tester    *backtest.Backtester
	narrator  *narrative.Narrator
	notifiers *notifier.Registry
	router    *router.Router
	metrics   *metrics.Registry

	mu        sync.RWMutex
	swing     *watchlist.List[watchlist.SwingEntry]
	dividend  *watchlist.List[watchlist.DividendEntry]
	portfolio *watchlist.List[watchlist.Holding]
	lastRun   time.Time
}

// Option configures optional App components.
type Option func(*App)

// WithMetrics enables business metrics.
func WithMetrics(m *metrics.Registry) Option {
	return func(a *App) { a.metrics = m }
}

// WithLLM enables narrative commentary on the symbol page.
func WithLLM(p llm.Provider) Option {
	return func(a *App) {
		if p != nil {
			a.narrator = narrative.New(p, a.cfg.LLM.Timeout, a.logger.Named("narrative"))
		}
	}
}

// New creates the application. source serves prices and fundamentals,
// storage holds the watchlist CSV files and signals records signal history.
func New(cfg *config.Config, source collector.Source, storage archive.Storage, signals signal.Store, logger *zap.Logger, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if signals == nil {
		signals = signal.NewMemoryStore(0)
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		source:    source,
		store:     watchlist.NewStore(storage, logger.Named("watchlist")),
		signals:   signals,
		notifiers: notifier.NewRegistry(),
		narrator:  narrative.New(nil, 0, nil),
		swing:     watchlist.NewList[watchlist.SwingEntry](),
		dividend:  watchlist.NewList[watchlist.DividendEntry](),
		portfolio: watchlist.NewList[watchlist.Holding](),
	}
	for _, opt := range opts {
		opt(a)
	}

	engine := indicator.NewEngine(cfg.Analysis.Indicators)
	classifier := strategy.NewClassifier(cfg.Analysis.Thresholds)
	a.analyzer = analysis.New(source, engine, classifier,
		analysis.WithLogger(logger.Named("analysis")),
		analysis.WithSignalStore(signals),
		analysis.WithMetrics(a.metrics),
		analysis.WithLookbackDays(cfg.Analysis.LookbackDays),
		analysis.WithConcurrency(cfg.Analysis.MaxConcurrency),
	)
	a.screener = analysis.NewScreener(a.analyzer, analysis.ScreenerConfig{
		Universe:     cfg.Screener.Universe,
		Size:         cfg.Screener.Size,
		MinVolume:    cfg.Screener.MinVolume,
		LookbackDays: cfg.Screener.LookbackDays,
		BBWindow:     cfg.Analysis.Indicators.BBWindow,
		BBDeviations: cfg.Analysis.Indicators.BBDeviations,
	})
	a.dividends = dividend.NewService(source, cfg.Analysis.MaxConcurrency, logger.Named("dividend"))
	a.projector = projection.NewProjector(source, cfg.Portfolio.CAGRYears, logger.Named("projection"))
	a.tester = backtest.New(source, engine, classifier)

	actions := make([]core.Action, 0, len(cfg.Router.Actions))
	for _, s := range cfg.Router.Actions {
		if act, ok := core.ParseAction(s); ok {
			actions = append(actions, act)
		}
	}
	a.router = router.New(router.Config{
		MinStrength: cfg.Router.MinStrength,
		Cooldown:    time.Duration(cfg.Router.CooldownHours) * time.Hour,
		Actions:     actions,
	}, a.notifiers, logger.Named("router"))
	if a.metrics != nil {
		a.router.SetMetrics(a.metrics)
	}

	return a
}

// RegisterNotifier adds a notifier used by scheduled refreshes.
func (a *App) RegisterNotifier(n notifier.Notifier) error {
	return a.notifiers.Register(n)
}

// Analyzer returns the swing analyzer.
func (a *App) Analyzer() *analysis.Analyzer { return a.analyzer }

// Signals returns the signal history store.
func (a *App) Signals() signal.Store { return a.signals }

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Load reads all three watchlists from storage.
func (a *App) Load(ctx context.Context) error {
	swing, err := watchlist.Load(ctx, a.store, watchlist.KindSwing, watchlist.SwingCodec)
	if err != nil {
		return err
	}
	div, err := watchlist.Load(ctx, a.store, watchlist.KindDividend, watchlist.DividendCodec)
	if err != nil {
		return err
	}
	port, err := watchlist.Load(ctx, a.store, watchlist.KindPortfolio, watchlist.HoldingCodec)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.swing, a.dividend, a.portfolio = swing, div, port
	a.mu.Unlock()

	a.reportSizes()
	a.logger.Info("watchlists loaded",
		zap.Int("swing", swing.Len()),
		zap.Int("dividend", div.Len()),
		zap.Int("portfolio", port.Len()),
	)
	return nil
}

func (a *App) reportSizes() {
	if a.metrics == nil {
		return
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	a.metrics.SetWatchlistSize(string(watchlist.KindSwing), a.swing.Len())
	a.metrics.SetWatchlistSize(string(watchlist.KindDividend), a.dividend.Len())
	a.metrics.SetWatchlistSize(string(watchlist.KindPortfolio), a.portfolio.Len())
}

// Tickers returns the tickers of one watchlist in display order.
func (a *App) Tickers(kind watchlist.Kind) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	switch kind {
	case watchlist.KindSwing:
		return a.swing.Tickers()
	case watchlist.KindDividend:
		return a.dividend.Tickers()
	case watchlist.KindPortfolio:
		return a.portfolio.Tickers()
	}
	return nil
}

// Entries returns the rows of one watchlist.
func (a *App) Entries(kind watchlist.Kind) any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	switch kind {
	case watchlist.KindSwing:
		return a.swing.Items()
	case watchlist.KindDividend:
		return a.dividend.Items()
	case watchlist.KindPortfolio:
		return a.portfolio.Items()
	}
	return nil
}

// Add validates raw and adds it to the watchlist of the given kind.
func (a *App) Add(ctx context.Context, kind watchlist.Kind, raw string) (any, error) {
	switch kind {
	case watchlist.KindSwing:
		return a.AddSwing(ctx, raw)
	case watchlist.KindDividend:
		return a.AddDividend(ctx, raw)
	case watchlist.KindPortfolio:
		ticker, err := core.NormalizeTicker(raw)
		if err != nil {
			return nil, err
		}
		h := a.DefaultHolding(ticker)
		return h, a.AddHolding(ctx, h)
	}
	return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("unknown watchlist %q", kind))
}

// Remove deletes a ticker from the watchlist of the given kind.
func (a *App) Remove(ctx context.Context, kind watchlist.Kind, raw string) error {
	ticker, err := core.NormalizeTicker(raw)
	if err != nil {
		return err
	}

	a.mu.Lock()
	switch kind {
	case watchlist.KindSwing:
		err = removeAndSave(ctx, a.store, kind, watchlist.SwingCodec, a.swing, ticker)
	case watchlist.KindDividend:
		err = removeAndSave(ctx, a.store, kind, watchlist.DividendCodec, a.dividend, ticker)
	case watchlist.KindPortfolio:
		err = removeAndSave(ctx, a.store, kind, watchlist.HoldingCodec, a.portfolio, ticker)
	default:
		err = core.WrapError(core.ErrInvalidInput, fmt.Errorf("unknown watchlist %q", kind))
	}
	a.mu.Unlock()

	if err != nil {
		return err
	}
	a.reportSizes()
	a.logger.Info("ticker removed", zap.String("watchlist", string(kind)), zap.String("ticker", ticker))
	return nil
}

func removeAndSave[T watchlist.Entry](ctx context.Context, s *watchlist.Store, kind watchlist.Kind, codec watchlist.Codec[T], l *watchlist.List[T], ticker string) error {
	pos := slices.Index(l.Tickers(), ticker)
	old, _ := l.Get(ticker)
	if err := l.Remove(ticker); err != nil {
		return err
	}
	if err := watchlist.Save(ctx, s, kind, codec, l); err != nil {
		_ = l.Insert(pos, old)
		return err
	}
	return nil
}

func addAndSave[T watchlist.Entry](ctx context.Context, s *watchlist.Store, kind watchlist.Kind, codec watchlist.Codec[T], l *watchlist.List[T], e T) error {
	if err := l.Add(e); err != nil {
		return err
	}
	if err := watchlist.Save(ctx, s, kind, codec, l); err != nil {
		_ = l.Remove(e.Key())
		return err
	}
	return nil
}

// checkNew normalizes raw and rejects tickers already on the list.
func (a *App) checkNew(raw string, contains func(string) bool) (string, error) {
	ticker, err := core.NormalizeTicker(raw)
	if err != nil {
		return "", err
	}
	a.mu.RLock()
	dup := contains(ticker)
	a.mu.RUnlock()
	if dup {
		return "", core.WrapError(core.ErrDuplicateTicker, fmt.Errorf("%s is already in the watchlist", ticker))
	}
	return ticker, nil
}

// --- swing ---

// AddSwing adds a ticker to the swing list, caching its first snapshot.
func (a *App) AddSwing(ctx context.Context, raw string) (watchlist.SwingEntry, error) {
	ticker, err := a.checkNew(raw, func(t string) bool { return a.swing.Contains(t) })
	if err != nil {
		return watchlist.SwingEntry{}, err
	}

	entry := swingEntry(a.analyzer.Analyze(ctx, ticker))

	a.mu.Lock()
	err = addAndSave(ctx, a.store, watchlist.KindSwing, watchlist.SwingCodec, a.swing, entry)
	a.mu.Unlock()
	if err != nil {
		return watchlist.SwingEntry{}, err
	}
	a.reportSizes()
	a.logger.Info("ticker added", zap.String("watchlist", "swing"), zap.String("ticker", ticker))
	return entry, nil
}

func swingEntry(s analysis.Snapshot) watchlist.SwingEntry {
	e := watchlist.SwingEntry{Ticker: s.Ticker, Company: s.Company}
	if s.Failed() {
		return e
	}
	e.Currency = s.Currency
	e.Price = s.Price
	e.Signal = s.Action
	e.Strength = s.Strength
	e.UpdatedAt = s.AsOf
	return e
}

// RefreshSwing analyzes every swing ticker, caches the results in the list
// and returns the snapshots in list order.
func (a *App) RefreshSwing(ctx context.Context) ([]analysis.Snapshot, error) {
	tickers := a.Tickers(watchlist.KindSwing)
	snaps := a.analyzer.AnalyzeAll(ctx, tickers)

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range snaps {
		if s.Failed() || !a.swing.Contains(s.Ticker) {
			continue
		}
		_ = a.swing.Update(swingEntry(s))
	}
	a.lastRun = time.Now()
	if err := watchlist.Save(ctx, a.store, watchlist.KindSwing, watchlist.SwingCodec, a.swing); err != nil {
		return snaps, err
	}
	return snaps, nil
}

// Detail builds the symbol page, with LLM commentary when enabled.
func (a *App) Detail(ctx context.Context, ticker string) (*analysis.Detail, error) {
	d, err := a.analyzer.Detail(ctx, ticker)
	if err != nil {
		return nil, err
	}
	d.Narrative = d.Snapshot.Conclusion
	if row, ok := d.LatestRow(); ok && a.narrator.Enabled() {
		d.Narrative = a.narrator.Commentary(ctx, d.Snapshot.Company, d.Signal, row)
	}
	return d, nil
}

// Indicators returns the full indicator series for charting.
func (a *App) Indicators(ctx context.Context, ticker string) ([]indicator.Row, error) {
	return a.analyzer.Indicators(ctx, ticker)
}

// Screen runs the top-N screener.
func (a *App) Screen(ctx context.Context) []analysis.Snapshot {
	return a.screener.Run(ctx)
}

// --- dividend ---

// AddDividend fetches the dividend calendar for raw and adds it.
func (a *App) AddDividend(ctx context.Context, raw string) (watchlist.DividendEntry, error) {
	ticker, err := a.checkNew(raw, func(t string) bool { return a.dividend.Contains(t) })
	if err != nil {
		return watchlist.DividendEntry{}, err
	}

	entry, err := a.dividends.Fetch(ctx, ticker)
	if err != nil {
		if !analysis.IsPipelineError(err) {
			return watchlist.DividendEntry{}, err
		}
		a.logger.Warn("dividend data unavailable, adding placeholder",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
		entry = dividend.Info(ticker, nil)
	}

	a.mu.Lock()
	err = addAndSave(ctx, a.store, watchlist.KindDividend, watchlist.DividendCodec, a.dividend, entry)
	a.mu.Unlock()
	if err != nil {
		return watchlist.DividendEntry{}, err
	}
	a.reportSizes()
	a.logger.Info("ticker added", zap.String("watchlist", "dividend"), zap.String("ticker", ticker))
	return entry, nil
}

// RefreshDividends re-fetches every dividend row, merges the results into
// the list by ticker and saves it. Tickers added or removed while the fetch
// runs are kept as they are.
func (a *App) RefreshDividends(ctx context.Context) ([]watchlist.DividendEntry, error) {
	a.mu.RLock()
	current := a.dividend.Items()
	a.mu.RUnlock()

	fresh := a.dividends.Refresh(ctx, current)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.dividend.Merge(fresh)
	if err := watchlist.Save(ctx, a.store, watchlist.KindDividend, watchlist.DividendCodec, a.dividend); err != nil {
		return a.dividend.Items(), err
	}
	return a.dividend.Items(), nil
}

// --- portfolio ---

// DefaultHolding returns a holding with the configured default amounts.
func (a *App) DefaultHolding(ticker string) watchlist.Holding {
	return watchlist.Holding{
		Ticker:              ticker,
		CostPerShare:        a.cfg.Portfolio.DefaultCost,
		SharesOwned:         a.cfg.Portfolio.DefaultShares,
		MonthlyContribution: a.cfg.Portfolio.DefaultContribution,
	}
}

// AddHolding adds a long-term holding.
func (a *App) AddHolding(ctx context.Context, h watchlist.Holding) error {
	ticker, err := a.checkNew(h.Ticker, func(t string) bool { return a.portfolio.Contains(t) })
	if err != nil {
		return err
	}
	h.Ticker = ticker
	if err := h.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	err = addAndSave(ctx, a.store, watchlist.KindPortfolio, watchlist.HoldingCodec, a.portfolio, h)
	a.mu.Unlock()
	if err != nil {
		return err
	}
	a.reportSizes()
	a.logger.Info("ticker added", zap.String("watchlist", "portfolio"), zap.String("ticker", ticker))
	return nil
}

// UpdateHolding replaces the amounts of an existing holding.
func (a *App) UpdateHolding(ctx context.Context, h watchlist.Holding) error {
	ticker, err := core.NormalizeTicker(h.Ticker)
	if err != nil {
		return err
	}
	h.Ticker = ticker
	if err := h.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.portfolio.Update(h); err != nil {
		return err
	}
	return watchlist.Save(ctx, a.store, watchlist.KindPortfolio, watchlist.HoldingCodec, a.portfolio)
}

// Holdings returns the portfolio in display order.
func (a *App) Holdings() []watchlist.Holding {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.portfolio.Items()
}

// Holding returns one holding.
func (a *App) Holding(raw string) (watchlist.Holding, error) {
	ticker, err := core.NormalizeTicker(raw)
	if err != nil {
		return watchlist.Holding{}, err
	}
	a.mu.RLock()
	h, ok := a.portfolio.Get(ticker)
	a.mu.RUnlock()
	if !ok {
		return watchlist.Holding{}, core.WrapError(core.ErrTickerNotFound, fmt.Errorf("%s is not in the portfolio", ticker))
	}
	return h, nil
}

// Project projects a holding forward. years <= 0 uses the configured default.
func (a *App) Project(ctx context.Context, ticker string, years int) (*projection.Result, error) {
	h, err := a.Holding(ticker)
	if err != nil {
		return nil, err
	}
	if years <= 0 {
		years = a.cfg.Portfolio.DefaultYears
	}
	if years > a.cfg.Portfolio.MaxYears {
		return nil, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("years must be at most %d", a.cfg.Portfolio.MaxYears))
	}
	return a.projector.Run(ctx, h, years)
}

// MaxBacktestYears bounds the replay window.
const MaxBacktestYears = 10

// Backtest replays the classifier over the last years of history plus the
// warm-up the long moving average needs. years <= 0 means two years.
func (a *App) Backtest(ctx context.Context, ticker string, years int) (*backtest.Result, error) {
	if years <= 0 {
		years = 2
	}
	if years > MaxBacktestYears {
		return nil, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("years must be at most %d", MaxBacktestYears))
	}

	end := time.Now()
	// calendar days for LongWindow sessions, with room for holidays
	warmup := a.cfg.Analysis.Indicators.LongWindow * 3 / 2
	start := end.AddDate(-years, 0, -warmup)

	res, err := a.tester.Run(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	a.logger.Info("backtest complete",
		zap.String("ticker", res.Symbol),
		zap.Int("sessions", res.Sessions),
		zap.Int("trades", res.Stats.TotalTrades),
	)
	return res, nil
}

// --- scheduled refresh ---

// Refresh is the scheduled cycle: refresh the swing list, route actionable
// signals, refresh dividends and prune old signal history.
func (a *App) Refresh(ctx context.Context) error {
	start := time.Now()
	var errs []error

	snaps, err := a.RefreshSwing(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("swing: %w", err))
	}

	var sigs []core.Signal
	for _, s := range snaps {
		if !s.Failed() && s.HasIndicators() {
			sigs = append(sigs, s.Signal())
		}
	}
	routed := a.router.RouteBatch(ctx, sigs)

	if _, err := a.RefreshDividends(ctx); err != nil {
		errs = append(errs, fmt.Errorf("dividends: %w", err))
	}

	if days := a.cfg.Storage.Signals.RetentionDays; days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		if n, err := a.signals.Prune(ctx, cutoff); err != nil {
			errs = append(errs, fmt.Errorf("prune signals: %w", err))
		} else if n > 0 {
			a.logger.Debug("pruned signal history", zap.Int("removed", n))
		}
	}
	a.router.CleanupExpiredCooldowns()

	if a.metrics != nil {
		a.metrics.RecordRefreshCycle()
	}
	a.logger.Info("refresh complete",
		zap.Int("swing", len(snaps)),
		zap.Int("routed", routed),
		zap.Duration("duration", time.Since(start)),
	)
	return errors.Join(errs...)
}

// Stats returns application statistics
func (a *App) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"source":    a.source.Name(),
		"swing":     a.swing.Len(),
		"dividend":  a.dividend.Len(),
		"portfolio": a.portfolio.Len(),
		"narrative": a.narrator.Enabled(),
		"router":    a.router.Stats(),
	}
	if !a.lastRun.IsZero() {
		stats["last_refresh"] = a.lastRun
	}
	return stats
}
