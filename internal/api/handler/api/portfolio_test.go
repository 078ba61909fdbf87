package api

import (
	"net/http"
	"testing"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/projection"
	"github.com/newthinker/swingdesk/internal/watchlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolioHandler_Dividends(t *testing.T) {
	app := newFakeApp()
	app.dividends = []watchlist.DividendEntry{
		{Ticker: "KO", Company: "Coca-Cola", ExDividendDate: "2024-06-14", PayDate: "No upcoming pay date"},
	}
	handler := NewPortfolioHandler(app)

	w := serve("GET /api/v1/dividends", handler.Dividends, "GET", "/api/v1/dividends", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	rows := data["dividends"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-06-14", rows[0].(map[string]any)["ex_div_date"])
}

func TestPortfolioHandler_Projection(t *testing.T) {
	app := newFakeApp()
	years, err := projection.Project(100, 10, 200, 2, 0.1)
	require.NoError(t, err)
	app.projection = &projection.Result{
		Holding: watchlist.Holding{Ticker: "VTI", CostPerShare: 100, SharesOwned: 10, MonthlyContribution: 200},
		CAGR:    0.1,
		Years:   years,
	}
	handler := NewPortfolioHandler(app)

	w := serve("GET /api/v1/portfolio/{ticker}/projection", handler.Projection, "GET", "/api/v1/portfolio/VTI/projection?years=2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "VTI", app.projectedTicker)
	assert.Equal(t, 2, app.projectedYears)
	data := decodeData(t, w)
	assert.Len(t, data["years"], 2)
	assert.InDelta(t, 0.1, data["cagr"], 1e-9)
}

func TestPortfolioHandler_Projection_DefaultYears(t *testing.T) {
	app := newFakeApp()
	app.projection = &projection.Result{}
	handler := NewPortfolioHandler(app)

	w := serve("GET /api/v1/portfolio/{ticker}/projection", handler.Projection, "GET", "/api/v1/portfolio/VTI/projection", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, app.projectedYears, "zero asks the app for its default")
}

func TestPortfolioHandler_Projection_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"not a number", "/api/v1/portfolio/VTI/projection?years=ten", nil, http.StatusBadRequest},
		{"zero years", "/api/v1/portfolio/VTI/projection?years=0", nil, http.StatusBadRequest},
		{"too many years", "/api/v1/portfolio/VTI/projection?years=40", core.ErrInvalidInput, http.StatusBadRequest},
		{"not in portfolio", "/api/v1/portfolio/AAPL/projection", core.ErrTickerNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newFakeApp()
			app.err = tt.err
			handler := NewPortfolioHandler(app)

			w := serve("GET /api/v1/portfolio/{ticker}/projection", handler.Projection, "GET", tt.target, nil)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
