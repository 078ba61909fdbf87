package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/newthinker/swingdesk/internal/analysis"
	"github.com/newthinker/swingdesk/internal/api/response"
	"github.com/newthinker/swingdesk/internal/backtest"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/indicator"
	"github.com/newthinker/swingdesk/internal/projection"
	"github.com/newthinker/swingdesk/internal/watchlist"
	"github.com/stretchr/testify/require"
)

// fakeApp implements every handler interface with canned answers.
type fakeApp struct {
	lists    map[watchlist.Kind][]string
	holdings []watchlist.Holding

	snaps      []analysis.Snapshot
	refreshErr error
	detail     *analysis.Detail
	rows       []indicator.Row
	err        error

	dividends []watchlist.DividendEntry

	projectedTicker string
	projectedYears  int
	projection      *projection.Result

	screened chan struct{}

	backtestYears int
	backtest      *backtest.Result
}

func (f *fakeApp) Backtest(ctx context.Context, ticker string, years int) (*backtest.Result, error) {
	f.backtestYears = years
	if f.err != nil {
		return nil, f.err
	}
	return f.backtest, nil
}

func newFakeApp() *fakeApp {
	return &fakeApp{lists: map[watchlist.Kind][]string{}}
}

func (f *fakeApp) Tickers(kind watchlist.Kind) []string { return f.lists[kind] }

func (f *fakeApp) Entries(kind watchlist.Kind) any { return f.lists[kind] }

func (f *fakeApp) Add(ctx context.Context, kind watchlist.Kind, raw string) (any, error) {
	ticker, err := core.NormalizeTicker(raw)
	if err != nil {
		return nil, err
	}
	if slices.Contains(f.lists[kind], ticker) {
		return nil, core.ErrDuplicateTicker
	}
	if f.err != nil {
		return nil, f.err
	}
	f.lists[kind] = append(f.lists[kind], ticker)
	return map[string]string{"ticker": ticker}, nil
}

func (f *fakeApp) Remove(ctx context.Context, kind watchlist.Kind, raw string) error {
	ticker, err := core.NormalizeTicker(raw)
	if err != nil {
		return err
	}
	i := slices.Index(f.lists[kind], ticker)
	if i < 0 {
		return core.ErrTickerNotFound
	}
	f.lists[kind] = slices.Delete(f.lists[kind], i, i+1)
	return nil
}

func (f *fakeApp) DefaultHolding(ticker string) watchlist.Holding {
	return watchlist.Holding{Ticker: ticker, CostPerShare: 100, SharesOwned: 10, MonthlyContribution: 200}
}

func (f *fakeApp) AddHolding(ctx context.Context, h watchlist.Holding) error {
	if err := h.Validate(); err != nil {
		return err
	}
	f.holdings = append(f.holdings, h)
	f.lists[watchlist.KindPortfolio] = append(f.lists[watchlist.KindPortfolio], h.Ticker)
	return nil
}

func (f *fakeApp) RefreshSwing(ctx context.Context) ([]analysis.Snapshot, error) {
	return f.snaps, f.refreshErr
}

func (f *fakeApp) Detail(ctx context.Context, ticker string) (*analysis.Detail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakeApp) Indicators(ctx context.Context, ticker string) ([]indicator.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeApp) RefreshDividends(ctx context.Context) ([]watchlist.DividendEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.dividends, nil
}

func (f *fakeApp) Project(ctx context.Context, ticker string, years int) (*projection.Result, error) {
	f.projectedTicker = ticker
	f.projectedYears = years
	if f.err != nil {
		return nil, f.err
	}
	return f.projection, nil
}

func (f *fakeApp) Screen(ctx context.Context) []analysis.Snapshot {
	if f.screened != nil {
		<-f.screened
	}
	return f.snaps
}

// serve routes one request through a ServeMux so path values are populated.
func serve(pattern string, h http.HandlerFunc, method, target string, body io.Reader) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data should be an object: %s", w.Body.String())
	return data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}
