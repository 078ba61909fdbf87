// internal/api/handler/web/dashboard.go
package web

import (
	"net/http"

	"github.com/newthinker/swingdesk/internal/analysis"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/watchlist"
)

// DashboardData holds data for the swing dashboard template
type DashboardData struct {
	Snapshots      []analysis.Snapshot
	BuySignals     int
	SellSignals    int
	WatchlistCount int
}

// Dashboard renders the swing table. Every ticker is re-analyzed on load.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page := Page{Title: "Swing Trading", Active: "swing"}
	snaps, err := h.app.RefreshSwing(r.Context())
	if err != nil {
		page.Error = message(err)
	}

	data := DashboardData{
		Snapshots:      snaps,
		WatchlistCount: len(snaps),
	}
	for _, s := range snaps {
		switch s.Action {
		case core.ActionStrongBuy, core.ActionBuy:
			data.BuySignals++
		case core.ActionSell, core.ActionStrongSell:
			data.SellSignals++
		}
	}
	page.Body = data

	h.render(w, r, "dashboard.html", page)
}

// AddTicker handles the add form on the watchlist pages.
func (h *Handler) AddTicker(w http.ResponseWriter, r *http.Request) {
	kind, err := watchlist.ParseKind(r.PathValue("kind"))
	if err != nil {
		http.Error(w, message(err), http.StatusBadRequest)
		return
	}
	back := pageFor(kind)

	if err := r.ParseForm(); err != nil {
		redirect(w, r, back, err, "")
		return
	}
	raw := r.PostForm.Get("ticker")

	if kind == watchlist.KindPortfolio {
		h.addHolding(w, r, raw)
		return
	}

	if _, err := h.app.Add(r.Context(), kind, raw); err != nil {
		redirect(w, r, back, err, "")
		return
	}
	redirect(w, r, back, nil, "Added "+normalized(raw))
}

// RemoveTicker handles the remove button on the watchlist pages.
func (h *Handler) RemoveTicker(w http.ResponseWriter, r *http.Request) {
	kind, err := watchlist.ParseKind(r.PathValue("kind"))
	if err != nil {
		http.Error(w, message(err), http.StatusBadRequest)
		return
	}
	ticker := r.PathValue("ticker")

	if err := h.app.Remove(r.Context(), kind, ticker); err != nil {
		redirect(w, r, pageFor(kind), err, "")
		return
	}
	redirect(w, r, pageFor(kind), nil, "Removed "+normalized(ticker))
}

// pageFor is the page that lists a watchlist.
func pageFor(kind watchlist.Kind) string {
	switch kind {
	case watchlist.KindDividend:
		return "/dividends"
	case watchlist.KindPortfolio:
		return "/portfolio"
	}
	return "/"
}

func normalized(raw string) string {
	if t, err := core.NormalizeTicker(raw); err == nil {
		return t
	}
	return raw
}
