// internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/swingdesk/internal/app"
	"github.com/newthinker/swingdesk/internal/collector"
	"github.com/newthinker/swingdesk/internal/config"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/metrics"
	"github.com/newthinker/swingdesk/internal/storage/archive"
	"github.com/newthinker/swingdesk/internal/storage/signal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct{}

func (stubSource) Name() string { return "stub" }

func (stubSource) SupportedMarkets() []core.Market { return []core.Market{core.MarketUS} }

func (stubSource) Init(cfg collector.Config) error { return nil }

func (stubSource) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.OHLCV, error) {
	if symbol != "AAPL" {
		return nil, core.WrapError(core.ErrUpstreamFailure, errors.New("unknown symbol"))
	}
	from := time.Now().AddDate(0, 0, -260)
	bars := make([]core.OHLCV, 260)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/7)
		bars[i] = core.OHLCV{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1_000_000, Time: from.AddDate(0, 0, i)}
	}
	return bars, nil
}

func (stubSource) FetchFundamental(ctx context.Context, symbol string) (*core.Fundamental, error) {
	return &core.Fundamental{Symbol: symbol, ShortName: symbol + " Inc.", Currency: "USD"}, nil
}

func newTestServer(t *testing.T, cfg Config) (*Server, *metrics.Registry) {
	t.Helper()
	store := signal.NewMemoryStore(100)
	a := app.New(config.Defaults(), stubSource{}, archive.NewFS(afero.NewMemMapFs()), store, zap.NewNop())
	require.NoError(t, a.Load(context.Background()))

	reg := metrics.NewRegistry()
	srv, err := NewServer(cfg, Dependencies{App: a, SignalStore: store, Metrics: reg}, zap.NewNop())
	require.NoError(t, err)
	return srv, reg
}

func do(srv *Server, method, target, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, Config{Host: "localhost"})

	w := do(srv, "GET", "/api/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Status string         `json:"status"`
			Stats  map[string]any `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data.Status)
	assert.Equal(t, "stub", resp.Data.Stats["source"])
}

func TestServer_RequiresApp(t *testing.T) {
	_, err := NewServer(Config{}, Dependencies{}, nil)
	assert.Error(t, err)
}

func TestServer_APIAuth_Required(t *testing.T) {
	srv, _ := newTestServer(t, Config{APIKey: "test-key"})

	w := do(srv, "GET", "/api/v1/signals", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_APIAuth_ValidKey(t *testing.T) {
	srv, _ := newTestServer(t, Config{APIKey: "test-key"})

	w := do(srv, "GET", "/api/v1/signals", "", "X-API-Key", "test-key")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_APIAuth_Disabled(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := do(srv, "GET", "/api/v1/signals", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_WebIsNotBehindAPIKey(t *testing.T) {
	srv, _ := newTestServer(t, Config{APIKey: "test-key"})

	w := do(srv, "GET", "/education", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestServer_WatchlistRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := do(srv, "POST", "/api/v1/watchlists/swing", `{"ticker":"aapl"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(srv, "POST", "/api/v1/watchlists/swing", `{"ticker":"AAPL"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(srv, "GET", "/api/v1/watchlists/swing", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"AAPL"`)

	w = do(srv, "GET", "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/symbols/AAPL"`)

	w = do(srv, "DELETE", "/api/v1/watchlists/swing/AAPL", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(srv, "DELETE", "/api/v1/watchlists/swing/AAPL", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_UnknownPage(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := do(srv, "GET", "/nope", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t, Config{MetricsPath: "/metrics"})

	do(srv, "GET", "/api/health", "")
	w := do(srv, "GET", "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="GET /api/health"`)
}

func TestServer_SymbolRoutes(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	for _, target := range []string{
		"/api/v1/symbols/AAPL/analysis",
		"/api/v1/symbols/AAPL/indicators",
		"/api/v1/symbols/AAPL/backtest?years=1",
		"/symbols/AAPL",
	} {
		w := do(srv, "GET", target, "")
		assert.Equal(t, http.StatusOK, w.Code, target)
	}

	w := do(srv, "GET", "/api/v1/symbols/MSFT/indicators", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
