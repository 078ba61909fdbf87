package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/swingdesk/internal/analysis"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/indicator"
	"github.com/newthinker/swingdesk/internal/projection"
	"github.com/newthinker/swingdesk/internal/storage/signal"
	"github.com/newthinker/swingdesk/internal/watchlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubApp struct {
	swing     []analysis.Snapshot
	detail    *analysis.Detail
	detailErr error
	dividends []watchlist.DividendEntry
	holdings  []watchlist.Holding
	added     []string
	removed   []string
}

func (s *stubApp) RefreshSwing(ctx context.Context) ([]analysis.Snapshot, error) {
	return s.swing, nil
}

func (s *stubApp) Detail(ctx context.Context, ticker string) (*analysis.Detail, error) {
	return s.detail, s.detailErr
}

func (s *stubApp) Screen(ctx context.Context) []analysis.Snapshot { return s.swing }

func (s *stubApp) RefreshDividends(ctx context.Context) ([]watchlist.DividendEntry, error) {
	return s.dividends, nil
}

func (s *stubApp) Holdings() []watchlist.Holding { return s.holdings }

func (s *stubApp) Project(ctx context.Context, ticker string, years int) (*projection.Result, error) {
	i := slices.IndexFunc(s.holdings, func(h watchlist.Holding) bool { return h.Ticker == ticker })
	if i < 0 {
		return nil, core.WrapError(core.ErrTickerNotFound, errors.New(ticker))
	}
	if years == 0 {
		years = 10
	}
	h := s.holdings[i]
	rows, err := projection.Project(h.CostPerShare, h.SharesOwned, h.MonthlyContribution, years, 0.07)
	if err != nil {
		return nil, err
	}
	return &projection.Result{Holding: h, CAGR: 0.07, Years: rows}, nil
}

func (s *stubApp) Add(ctx context.Context, kind watchlist.Kind, raw string) (any, error) {
	ticker, err := core.NormalizeTicker(raw)
	if err != nil {
		return nil, err
	}
	s.added = append(s.added, string(kind)+":"+ticker)
	return nil, nil
}

func (s *stubApp) Remove(ctx context.Context, kind watchlist.Kind, raw string) error {
	s.removed = append(s.removed, string(kind)+":"+raw)
	return nil
}

func (s *stubApp) DefaultHolding(ticker string) watchlist.Holding {
	return watchlist.Holding{Ticker: ticker, CostPerShare: 100, SharesOwned: 10, MonthlyContribution: 200}
}

func (s *stubApp) AddHolding(ctx context.Context, h watchlist.Holding) error {
	if err := h.Validate(); err != nil {
		return err
	}
	s.holdings = append(s.holdings, h)
	return nil
}

func newTestHandler(t *testing.T, app *stubApp) (*Handler, *signal.MemoryStore) {
	t.Helper()
	store := signal.NewMemoryStore(100)
	h, err := NewHandler("", app, store, nil)
	require.NoError(t, err)
	return h, store
}

func get(h http.HandlerFunc, pattern, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

func postForm(h http.HandlerFunc, pattern, target string, form url.Values) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestNewHandler_ParsesEveryPage(t *testing.T) {
	h, _ := newTestHandler(t, &stubApp{})
	for _, page := range pages {
		assert.Contains(t, h.pageTemplates, page)
	}
}

func TestDashboard(t *testing.T) {
	app := &stubApp{swing: []analysis.Snapshot{
		{Ticker: "AAPL", Company: "Apple Inc.", CurrencySymbol: "$", Price: 1234.5, HasPrice: true,
			RSI: 42.123, Action: core.ActionBuy, Strength: 55},
		analysis.Placeholder("NOPE", errors.New("no data")),
	}}
	h, _ := newTestHandler(t, app)

	w := get(h.Dashboard, "GET /{$}", "/")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "$1,234.50")
	assert.Contains(t, body, "42.12")
	assert.Contains(t, body, "💡 BUY")
	assert.Contains(t, body, "N/A", "failed tickers render placeholders")
	assert.Contains(t, body, `href="/symbols/AAPL"`)
}

func TestDashboard_Empty(t *testing.T) {
	h, _ := newTestHandler(t, &stubApp{})

	w := get(h.Dashboard, "GET /{$}", "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No tickers yet")
}

func TestAddTicker_RedirectsWithNotice(t *testing.T) {
	app := &stubApp{}
	h, _ := newTestHandler(t, app)

	w := postForm(h.AddTicker, "POST /watchlists/{kind}", "/watchlists/dividend", url.Values{"ticker": {"ko"}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dividends?notice=Added+KO", w.Header().Get("Location"))
	assert.Equal(t, []string{"dividend:KO"}, app.added)
}

func TestAddTicker_InvalidShowsError(t *testing.T) {
	h, _ := newTestHandler(t, &stubApp{})

	w := postForm(h.AddTicker, "POST /watchlists/{kind}", "/watchlists/swing", url.Values{"ticker": {"not a ticker"}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	assert.Contains(t, loc.Query().Get("error"), "invalid ticker")
}

func TestAddTicker_Holding(t *testing.T) {
	app := &stubApp{}
	h, _ := newTestHandler(t, app)

	form := url.Values{"ticker": {"vti"}, "cost_per_share": {"210.5"}, "shares_owned": {""}}
	w := postForm(h.AddTicker, "POST /watchlists/{kind}", "/watchlists/portfolio", form)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, app.holdings, 1)
	assert.Equal(t, watchlist.Holding{Ticker: "VTI", CostPerShare: 210.5, SharesOwned: 10, MonthlyContribution: 200}, app.holdings[0])
}

func TestRemoveTicker(t *testing.T) {
	app := &stubApp{}
	h, _ := newTestHandler(t, app)

	w := postForm(h.RemoveTicker, "POST /watchlists/{kind}/{ticker}/delete", "/watchlists/portfolio/VTI/delete", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"portfolio:VTI"}, app.removed)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/portfolio?"))
}

func TestSymbolDetail(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	rows := make([]indicator.Row, 30)
	for i := range rows {
		rows[i] = indicator.Row{Time: day.AddDate(0, 0, i), Close: 100 + float64(i), RSI: 50, Trend: core.TrendUp}
	}
	marketCap := 2.9e12
	app := &stubApp{detail: &analysis.Detail{
		Snapshot:    analysis.Snapshot{Ticker: "AAPL", Company: "Apple Inc.", CurrencySymbol: "$", HasPrice: true, Price: 129, Action: core.ActionStrongBuy},
		Signal:      core.Signal{Symbol: "AAPL", Action: core.ActionStrongBuy, Strength: 90},
		Fundamental: &core.Fundamental{Symbol: "AAPL", MarketCap: &marketCap},
		Rows:        rows,
		Narrative:   "Strong momentum with volume behind it.",
	}}
	h, _ := newTestHandler(t, app)

	w := get(h.SymbolDetail, "GET /symbols/{ticker}", "/symbols/aapl")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Strong momentum with volume behind it.")
	assert.Contains(t, body, "🔥 STRONG BUY")
	assert.Contains(t, body, "2024-07-02", "newest session is listed")
	assert.NotContains(t, body, "2024-06-03", "only the recent sessions are listed")
	assert.Contains(t, body, "/api/v1/symbols/AAPL/indicators")
}

func TestSymbolDetail_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.WrapError(core.ErrInvalidTicker, errors.New("bad")), http.StatusBadRequest},
		{core.ErrMissingData, http.StatusNotFound},
		{core.WrapError(core.ErrUpstreamFailure, errors.New("timeout")), http.StatusBadGateway},
	}
	for _, tt := range tests {
		h, _ := newTestHandler(t, &stubApp{detailErr: tt.err})

		w := get(h.SymbolDetail, "GET /symbols/{ticker}", "/symbols/AAPL")

		assert.Equal(t, tt.want, w.Code)
		assert.Contains(t, w.Body.String(), "bg-red-100")
	}
}

func TestDividends(t *testing.T) {
	app := &stubApp{dividends: []watchlist.DividendEntry{
		{Ticker: "KO", Company: "Coca-Cola", ExDividendDate: "2024-06-14", PayDate: "No upcoming pay date"},
	}}
	h, _ := newTestHandler(t, app)

	w := get(h.Dividends, "GET /dividends", "/dividends")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2024-06-14")
	assert.Contains(t, w.Body.String(), "No upcoming pay date")
}

func TestPortfolioAndProjection(t *testing.T) {
	app := &stubApp{holdings: []watchlist.Holding{{Ticker: "VTI", CostPerShare: 100, SharesOwned: 10, MonthlyContribution: 200}}}
	h, _ := newTestHandler(t, app)

	w := get(h.Portfolio, "GET /portfolio", "/portfolio")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/portfolio/VTI"`)

	w = get(h.Projection, "GET /portfolio/{ticker}", "/portfolio/VTI?years=3")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "7.00%")
	assert.Contains(t, body, "122.50", "year-3 share price")

	w = get(h.Projection, "GET /portfolio/{ticker}", "/portfolio/MSFT")
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestSignalsPage(t *testing.T) {
	h, store := newTestHandler(t, &stubApp{})
	ctx := context.Background()
	store.Save(ctx, core.Signal{Symbol: "AAPL", Action: core.ActionBuy, Strength: 55, GeneratedAt: time.Now()})
	store.Save(ctx, core.Signal{Symbol: "MSFT", Action: core.ActionSell, Strength: -55, GeneratedAt: time.Now()})

	w := get(h.Signals, "GET /signals", "/signals?action=sell")

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `href="/symbols/MSFT"`)
	assert.NotContains(t, body, `href="/symbols/AAPL"`)
	assert.Contains(t, body, "1 recorded signals")
}

func TestStaticPages(t *testing.T) {
	h, _ := newTestHandler(t, &stubApp{})

	w := get(h.Education, "GET /education", "/education")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bollinger Bands")

	w = get(h.Legal, "GET /legal", "/legal")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Disclaimer of liability")
}

func TestTop25(t *testing.T) {
	app := &stubApp{swing: []analysis.Snapshot{{Ticker: "NVDA", Company: "NVIDIA", Action: core.ActionHold}}}
	h, _ := newTestHandler(t, app)

	w := get(h.Top25, "GET /top25", "/top25")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "NVIDIA")
}
