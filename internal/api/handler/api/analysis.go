// internal/api/handler/api/analysis.go
package api

import (
	"context"
	"net/http"

	"github.com/newthinker/swingdesk/internal/analysis"
	"github.com/newthinker/swingdesk/internal/api/response"
	"github.com/newthinker/swingdesk/internal/indicator"
)

// AnalysisApp defines the interface needed from app.App.
type AnalysisApp interface {
	RefreshSwing(ctx context.Context) ([]analysis.Snapshot, error)
	Detail(ctx context.Context, ticker string) (*analysis.Detail, error)
	Indicators(ctx context.Context, ticker string) ([]indicator.Row, error)
}

// AnalysisHandler serves the swing table and per-symbol analysis.
type AnalysisHandler struct {
	app AnalysisApp
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(app AnalysisApp) *AnalysisHandler {
	return &AnalysisHandler{app: app}
}

// Swing handles GET /api/v1/swing. Every ticker on the swing list is
// re-analyzed; failed tickers come back as placeholder rows.
func (h *AnalysisHandler) Swing(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.app.RefreshSwing(r.Context())
	if err != nil && snaps == nil {
		response.Fail(w, err)
		return
	}

	body := map[string]any{
		"snapshots": snaps,
		"count":     len(snaps),
	}
	if err != nil {
		body["warning"] = err.Error()
	}
	response.JSON(w, http.StatusOK, body)
}

// Symbol handles GET /api/v1/symbols/{ticker}/analysis
func (h *AnalysisHandler) Symbol(w http.ResponseWriter, r *http.Request) {
	d, err := h.app.Detail(r.Context(), r.PathValue("ticker"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"snapshot":    d.Snapshot,
		"signal":      d.Signal,
		"fundamental": d.Fundamental,
		"narrative":   d.Narrative,
	})
}

// Indicators handles GET /api/v1/symbols/{ticker}/indicators and returns the
// full series for charting.
func (h *AnalysisHandler) Indicators(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	rows, err := h.app.Indicators(r.Context(), ticker)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"ticker": ticker,
		"rows":   rows,
		"count":  len(rows),
	})
}
