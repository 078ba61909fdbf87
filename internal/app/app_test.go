package app

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/swingdesk/internal/collector"
	"github.com/newthinker/swingdesk/internal/config"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/metrics"
	"github.com/newthinker/swingdesk/internal/storage/archive"
	"github.com/newthinker/swingdesk/internal/storage/signal"
	"github.com/newthinker/swingdesk/internal/watchlist"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	history      map[string][]core.OHLCV
	fundamentals map[string]*core.Fundamental
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) SupportedMarkets() []core.Market { return []core.Market{core.MarketUS} }

func (m *mockSource) Init(cfg collector.Config) error { return nil }

func (m *mockSource) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.OHLCV, error) {
	h, ok := m.history[symbol]
	if !ok {
		return nil, core.WrapError(core.ErrUpstreamFailure, errors.New("unknown symbol"))
	}
	return h, nil
}

func (m *mockSource) FetchFundamental(ctx context.Context, symbol string) (*core.Fundamental, error) {
	f, ok := m.fundamentals[symbol]
	if !ok {
		return nil, core.WrapError(core.ErrUpstreamFailure, errors.New("unknown symbol"))
	}
	return f, nil
}

type mockNotifier struct {
	received []core.Signal
}

func (m *mockNotifier) Name() string { return "mock" }

func (m *mockNotifier) Send(ctx context.Context, signal core.Signal) error {
	m.received = append(m.received, signal)
	return nil
}

func (m *mockNotifier) SendBatch(ctx context.Context, signals []core.Signal) error {
	m.received = append(m.received, signals...)
	return nil
}

func history(n int) []core.OHLCV {
	start := time.Now().AddDate(0, 0, -n)
	bars := make([]core.OHLCV, n)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/7) + float64(i)*0.05
		bars[i] = core.OHLCV{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1_000_000, Time: start.AddDate(0, 0, i)}
	}
	return bars
}

func newMockSource() *mockSource {
	return &mockSource{
		history: map[string][]core.OHLCV{
			"AAPL": history(260),
			"MSFT": history(260),
			"KO":   history(30),
			"VTI":  history(800),
		},
		fundamentals: map[string]*core.Fundamental{
			"AAPL": {Symbol: "AAPL", ShortName: "Apple Inc.", Currency: "USD"},
			"KO": {
				Symbol:         "KO",
				ShortName:      "Coca-Cola",
				ExDividendDate: time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
			},
		},
	}
}

func newTestApp(t *testing.T, opts ...Option) (*App, archive.Storage) {
	t.Helper()
	storage := archive.NewFS(afero.NewMemMapFs())
	return newAppWith(t, newMockSource(), storage, opts...), storage
}

func newAppWith(t *testing.T, src collector.Source, storage archive.Storage, opts ...Option) *App {
	t.Helper()
	a := New(config.Defaults(), src, storage, signal.NewMemoryStore(0), nil, opts...)
	require.NoError(t, a.Load(context.Background()))
	return a
}

// flakyStorage fails every write while failWrites is set.
type flakyStorage struct {
	archive.Storage
	failWrites bool
}

func (f *flakyStorage) Write(ctx context.Context, path string, data []byte) error {
	if f.failWrites {
		return errors.New("disk full")
	}
	return f.Storage.Write(ctx, path, data)
}

// gatedSource holds fundamentals requests for one ticker until released.
type gatedSource struct {
	*mockSource
	ticker  string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) FetchFundamental(ctx context.Context, symbol string) (*core.Fundamental, error) {
	if symbol == g.ticker && g.entered != nil {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.mockSource.FetchFundamental(ctx, symbol)
}

func TestApp_LoadEmpty(t *testing.T) {
	a, _ := newTestApp(t)
	for _, k := range watchlist.Kinds {
		assert.Empty(t, a.Tickers(k))
	}
	assert.Equal(t, 0, a.Stats()["swing"])
}

func TestApp_AddSwing(t *testing.T) {
	a, storage := newTestApp(t)
	ctx := context.Background()

	entry, err := a.AddSwing(ctx, " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", entry.Ticker)
	assert.Equal(t, "Apple Inc.", entry.Company)
	assert.NotEmpty(t, entry.Signal)

	ok, err := storage.Exists(ctx, "swing_watchlist.csv")
	require.NoError(t, err)
	assert.True(t, ok, "adding must save the list")

	_, err = a.AddSwing(ctx, "AAPL")
	assert.True(t, errors.Is(err, core.ErrDuplicateTicker))
	assert.Equal(t, []string{"AAPL"}, a.Tickers(watchlist.KindSwing))

	_, err = a.AddSwing(ctx, "not valid!")
	assert.True(t, errors.Is(err, core.ErrInvalidTicker))
}

func TestApp_AddSwingUnknownTickerKeepsPlaceholder(t *testing.T) {
	a, _ := newTestApp(t)

	entry, err := a.AddSwing(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Equal(t, "ZZZZ", entry.Company)
	assert.Empty(t, entry.Signal)
}

func TestApp_RemoveAndReload(t *testing.T) {
	a, storage := newTestApp(t)
	ctx := context.Background()

	_, err := a.AddSwing(ctx, "AAPL")
	require.NoError(t, err)
	_, err = a.AddSwing(ctx, "MSFT")
	require.NoError(t, err)

	require.NoError(t, a.Remove(ctx, watchlist.KindSwing, "aapl"))
	err = a.Remove(ctx, watchlist.KindSwing, "AAPL")
	assert.True(t, errors.Is(err, core.ErrTickerNotFound))

	reloaded := New(config.Defaults(), a.source, storage, nil, nil)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, []string{"MSFT"}, reloaded.Tickers(watchlist.KindSwing))
}

func TestApp_RefreshSwing(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	_, err := a.AddSwing(ctx, "MSFT")
	require.NoError(t, err)
	_, err = a.AddSwing(ctx, "AAPL")
	require.NoError(t, err)

	snaps, err := a.RefreshSwing(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "MSFT", snaps[0].Ticker)
	assert.Equal(t, "AAPL", snaps[1].Ticker)

	entries := a.Entries(watchlist.KindSwing).([]watchlist.SwingEntry)
	assert.Equal(t, snaps[1].Price, entries[1].Price)
	assert.Contains(t, a.Stats(), "last_refresh")
}

func TestApp_Dividends(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	entry, err := a.AddDividend(ctx, "ko")
	require.NoError(t, err)
	assert.Equal(t, "Coca-Cola", entry.Company)
	assert.Equal(t, "2024-06-14", entry.ExDividendDate)
	assert.Equal(t, "No upcoming pay date", entry.PayDate)

	_, err = a.AddDividend(ctx, "KO")
	assert.True(t, errors.Is(err, core.ErrDuplicateTicker))
	_, err = a.AddDividend(ctx, "not valid!")
	assert.True(t, errors.Is(err, core.ErrInvalidTicker))
	assert.Equal(t, []string{"KO"}, a.Tickers(watchlist.KindDividend))

	rows, err := a.RefreshDividends(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "KO", rows[0].Ticker)
}

func TestApp_AddDividendUpstreamFailureKeepsPlaceholder(t *testing.T) {
	a, storage := newTestApp(t)
	ctx := context.Background()

	entry, err := a.AddDividend(ctx, "zzzz")
	require.NoError(t, err)
	assert.Equal(t, watchlist.DividendEntry{
		Ticker:         "ZZZZ",
		Company:        "ZZZZ",
		ExDividendDate: "No upcoming ex-date",
		PayDate:        "No upcoming pay date",
	}, entry)
	assert.Equal(t, []string{"ZZZZ"}, a.Tickers(watchlist.KindDividend))

	reloaded := newAppWith(t, newMockSource(), storage)
	assert.Equal(t, []string{"ZZZZ"}, reloaded.Tickers(watchlist.KindDividend))
}

func TestApp_RefreshDividendsKeepsConcurrentChanges(t *testing.T) {
	src := &gatedSource{mockSource: newMockSource(), ticker: "KO"}
	a := newAppWith(t, src, archive.NewFS(afero.NewMemMapFs()))
	ctx := context.Background()

	_, err := a.AddDividend(ctx, "KO")
	require.NoError(t, err)
	_, err = a.AddDividend(ctx, "MSFT")
	require.NoError(t, err)

	src.entered = make(chan struct{})
	src.release = make(chan struct{})
	done := make(chan []watchlist.DividendEntry)
	go func() {
		rows, _ := a.RefreshDividends(ctx)
		done <- rows
	}()

	<-src.entered
	require.NoError(t, a.Remove(ctx, watchlist.KindDividend, "MSFT"))
	_, err = a.AddDividend(ctx, "AAPL")
	require.NoError(t, err)
	close(src.release)

	rows := <-done
	require.Len(t, rows, 2)
	assert.Equal(t, "KO", rows[0].Ticker)
	assert.Equal(t, "Coca-Cola", rows[0].Company)
	assert.Equal(t, "AAPL", rows[1].Ticker)
	assert.Equal(t, []string{"KO", "AAPL"}, a.Tickers(watchlist.KindDividend))
}

func TestApp_RemoveRollsBackWhenSaveFails(t *testing.T) {
	storage := &flakyStorage{Storage: archive.NewFS(afero.NewMemMapFs())}
	a := newAppWith(t, newMockSource(), storage)
	ctx := context.Background()

	for _, ticker := range []string{"AAPL", "MSFT", "VTI"} {
		_, err := a.Add(ctx, watchlist.KindPortfolio, ticker)
		require.NoError(t, err)
	}

	storage.failWrites = true
	err := a.Remove(ctx, watchlist.KindPortfolio, "MSFT")
	require.Error(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "VTI"}, a.Tickers(watchlist.KindPortfolio))

	storage.failWrites = false
	require.NoError(t, a.Remove(ctx, watchlist.KindPortfolio, "MSFT"))
	assert.Equal(t, []string{"AAPL", "VTI"}, a.Tickers(watchlist.KindPortfolio))
}

func TestApp_Portfolio(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	added, err := a.Add(ctx, watchlist.KindPortfolio, "vti")
	require.NoError(t, err)
	h := added.(watchlist.Holding)
	assert.Equal(t, watchlist.Holding{Ticker: "VTI", CostPerShare: 100, SharesOwned: 10, MonthlyContribution: 200}, h)

	h.SharesOwned = 25
	require.NoError(t, a.UpdateHolding(ctx, h))
	got, err := a.Holding("VTI")
	require.NoError(t, err)
	assert.Equal(t, 25.0, got.SharesOwned)
	assert.Equal(t, []watchlist.Holding{got}, a.Holdings())

	err = a.AddHolding(ctx, watchlist.Holding{Ticker: "BND", SharesOwned: -1})
	assert.True(t, errors.Is(err, core.ErrInvalidInput))

	res, err := a.Project(ctx, "VTI", 0)
	require.NoError(t, err)
	assert.Len(t, res.Years, 10)

	_, err = a.Project(ctx, "VTI", 26)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))

	_, err = a.Project(ctx, "MISSING", 5)
	assert.True(t, errors.Is(err, core.ErrTickerNotFound))
}

func TestApp_Detail(t *testing.T) {
	a, _ := newTestApp(t)

	d, err := a.Detail(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.NotEmpty(t, d.Rows)
	assert.Equal(t, d.Snapshot.Conclusion, d.Narrative, "without an LLM the conclusion is the commentary")

	_, err = a.Detail(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestApp_Indicators(t *testing.T) {
	a, _ := newTestApp(t)

	rows, err := a.Indicators(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, rows, 61)

	_, err = a.Indicators(context.Background(), "KO")
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestApp_Backtest(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	res, err := a.Backtest(ctx, "aapl", 0)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, 61, res.Sessions)
	assert.NotEmpty(t, res.Signals)
	assert.Equal(t, len(res.Trades), res.Stats.TotalTrades)

	_, err = a.Backtest(ctx, "AAPL", MaxBacktestYears+1)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = a.Backtest(ctx, "KO", 1)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = a.Backtest(ctx, "NOPE", 1)
	assert.ErrorIs(t, err, core.ErrUpstreamFailure)
}

func TestApp_Refresh(t *testing.T) {
	m := metrics.NewRegistry()
	a, _ := newTestApp(t, WithMetrics(m))
	ctx := context.Background()
	n := &mockNotifier{}
	require.NoError(t, a.RegisterNotifier(n))

	_, err := a.AddSwing(ctx, "AAPL")
	require.NoError(t, err)
	_, err = a.AddDividend(ctx, "KO")
	require.NoError(t, err)

	require.NoError(t, a.Refresh(ctx))

	for _, sig := range n.received {
		assert.True(t, sig.IsActionable(), "only actionable signals are routed")
	}

	count, err := a.Signals().Count(ctx, signal.ListFilter{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1, "every classification is recorded")
}

func TestApp_UnknownKind(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.Add(context.Background(), watchlist.Kind("crypto"), "BTC")
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
	err = a.Remove(context.Background(), watchlist.Kind("crypto"), "BTC")
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}
