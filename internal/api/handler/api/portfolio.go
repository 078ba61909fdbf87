// internal/api/handler/api/portfolio.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/newthinker/swingdesk/internal/api/response"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/projection"
	"github.com/newthinker/swingdesk/internal/watchlist"
)

// PortfolioApp defines the interface needed from app.App.
type PortfolioApp interface {
	RefreshDividends(ctx context.Context) ([]watchlist.DividendEntry, error)
	Project(ctx context.Context, ticker string, years int) (*projection.Result, error)
}

// PortfolioHandler serves the dividend calendar and long-term projections.
type PortfolioHandler struct {
	app PortfolioApp
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(app PortfolioApp) *PortfolioHandler {
	return &PortfolioHandler{app: app}
}

// Dividends handles GET /api/v1/dividends. The calendar is re-fetched on
// every call and saved back to the list.
func (h *PortfolioHandler) Dividends(w http.ResponseWriter, r *http.Request) {
	entries, err := h.app.RefreshDividends(r.Context())
	if err != nil && entries == nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"dividends": entries,
		"count":     len(entries),
	})
}

// Projection handles GET /api/v1/portfolio/{ticker}/projection?years=N
func (h *PortfolioHandler) Projection(w http.ResponseWriter, r *http.Request) {
	years := 0
	if raw := r.URL.Query().Get("years"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < projection.MinYears {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidInput, fmt.Errorf("years must be an integer >= %d, got %q", projection.MinYears, raw)))
			return
		}
		years = n
	}

	res, err := h.app.Project(r.Context(), r.PathValue("ticker"), years)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, res)
}
