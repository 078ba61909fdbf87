package web

import (
	"context"
	"net/http"
	"time"
)

const top25Timeout = 2 * time.Minute

// Top25 renders the screener table. The screen runs while the page loads.
func (h *Handler) Top25(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), top25Timeout)
	defer cancel()

	page := Page{Title: "Top 25 Stocks", Active: "top25"}
	snaps := h.app.Screen(ctx)
	if err := ctx.Err(); err != nil {
		page.Error = "screen timed out: " + err.Error()
	}
	page.Body = DashboardData{Snapshots: snaps, WatchlistCount: len(snaps)}

	h.render(w, r, "top25.html", page)
}

// Education renders the static education hub.
func (h *Handler) Education(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "education.html", Page{Title: "Education Hub", Active: "education"})
}

// Legal renders the legal disclaimer.
func (h *Handler) Legal(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "legal.html", Page{Title: "Legal Disclaimer", Active: "legal"})
}
