// internal/api/handler/api/watchlist.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/newthinker/swingdesk/internal/api/response"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/watchlist"
)

// WatchlistApp defines the interface needed from app.App.
type WatchlistApp interface {
	Tickers(kind watchlist.Kind) []string
	Entries(kind watchlist.Kind) any
	Add(ctx context.Context, kind watchlist.Kind, raw string) (any, error)
	Remove(ctx context.Context, kind watchlist.Kind, raw string) error
	DefaultHolding(ticker string) watchlist.Holding
	AddHolding(ctx context.Context, h watchlist.Holding) error
}

// WatchlistHandler handles watchlist API requests.
type WatchlistHandler struct {
	app WatchlistApp
}

// NewWatchlistHandler creates a new watchlist handler.
func NewWatchlistHandler(app WatchlistApp) *WatchlistHandler {
	return &WatchlistHandler{app: app}
}

// AddRequest is the request body for adding a ticker. The amounts only apply
// to the portfolio list; omitted amounts take the configured defaults.
type AddRequest struct {
	Ticker              string   `json:"ticker"`
	CostPerShare        *float64 `json:"cost_per_share,omitempty"`
	SharesOwned         *float64 `json:"shares_owned,omitempty"`
	MonthlyContribution *float64 `json:"monthly_contribution,omitempty"`
}

// List handles GET /api/v1/watchlists/{kind}
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := watchlist.ParseKind(r.PathValue("kind"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"kind":  kind,
		"items": h.app.Entries(kind),
		"count": len(h.app.Tickers(kind)),
	})
}

// Add handles POST /api/v1/watchlists/{kind}
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	kind, err := watchlist.ParseKind(r.PathValue("kind"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidInput, err))
		return
	}
	if req.Ticker == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidTicker, errors.New("ticker is required")))
		return
	}

	var entry any
	if kind == watchlist.KindPortfolio {
		entry, err = h.addHolding(r.Context(), req)
	} else {
		entry, err = h.app.Add(r.Context(), kind, req.Ticker)
	}
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"kind":  kind,
		"entry": entry,
	})
}

func (h *WatchlistHandler) addHolding(ctx context.Context, req AddRequest) (watchlist.Holding, error) {
	ticker, err := core.NormalizeTicker(req.Ticker)
	if err != nil {
		return watchlist.Holding{}, err
	}
	holding := h.app.DefaultHolding(ticker)
	if req.CostPerShare != nil {
		holding.CostPerShare = *req.CostPerShare
	}
	if req.SharesOwned != nil {
		holding.SharesOwned = *req.SharesOwned
	}
	if req.MonthlyContribution != nil {
		holding.MonthlyContribution = *req.MonthlyContribution
	}
	if err := h.app.AddHolding(ctx, holding); err != nil {
		return watchlist.Holding{}, err
	}
	return holding, nil
}

// Remove handles DELETE /api/v1/watchlists/{kind}/{ticker}
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	kind, err := watchlist.ParseKind(r.PathValue("kind"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	ticker := r.PathValue("ticker")
	if err := h.app.Remove(r.Context(), kind, ticker); err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"kind":    kind,
		"ticker":  ticker,
		"removed": true,
	})
}
