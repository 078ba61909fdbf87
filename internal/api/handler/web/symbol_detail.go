// internal/api/handler/web/symbol_detail.go
package web

import (
	"errors"
	"net/http"

	"github.com/newthinker/swingdesk/internal/analysis"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/indicator"
)

// recentRows is how many sessions the detail table shows.
const recentRows = 20

// SymbolDetailData holds data for the symbol detail page template
type SymbolDetailData struct {
	Detail *analysis.Detail
	Latest indicator.Row
	Recent []indicator.Row
}

// SymbolDetail renders the symbol detail page. The chart series is loaded by
// the page from the indicators endpoint.
func (h *Handler) SymbolDetail(w http.ResponseWriter, r *http.Request) {
	ticker := normalized(r.PathValue("ticker"))

	d, err := h.app.Detail(r.Context(), ticker)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, core.ErrInvalidTicker):
			status = http.StatusBadRequest
		case errors.Is(err, core.ErrMissingData):
			status = http.StatusNotFound
		}
		h.renderStatus(w, r, status, "symbol.html", Page{Title: ticker, Active: "swing", Error: message(err)})
		return
	}

	data := SymbolDetailData{Detail: d}
	if row, ok := d.LatestRow(); ok {
		data.Latest = row
	}
	recent := d.Rows
	if len(recent) > recentRows {
		recent = recent[len(recent)-recentRows:]
	}
	// newest first
	for i := len(recent) - 1; i >= 0; i-- {
		data.Recent = append(data.Recent, recent[i])
	}

	h.render(w, r, "symbol.html", Page{
		Title:  d.Snapshot.Ticker + " - " + d.Snapshot.Company,
		Active: "swing",
		Body:   data,
	})
}
