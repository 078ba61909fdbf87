// internal/api/handler/api/backtest.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/newthinker/swingdesk/internal/api/response"
	"github.com/newthinker/swingdesk/internal/backtest"
	"github.com/newthinker/swingdesk/internal/core"
)

// BacktestApp defines the interface needed from app.App.
type BacktestApp interface {
	Backtest(ctx context.Context, ticker string, years int) (*backtest.Result, error)
}

// BacktestHandler replays the swing classifier over a ticker's history.
type BacktestHandler struct {
	app BacktestApp
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(app BacktestApp) *BacktestHandler {
	return &BacktestHandler{app: app}
}

// Run handles GET /api/v1/symbols/{ticker}/backtest?years=N. Replays are
// bounded to a few years of daily bars, so they run inline.
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	years := 0
	if raw := r.URL.Query().Get("years"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidInput, fmt.Errorf("years must be a positive integer, got %q", raw)))
			return
		}
		years = n
	}

	res, err := h.app.Backtest(r.Context(), r.PathValue("ticker"), years)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, res)
}
