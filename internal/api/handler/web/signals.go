// internal/api/handler/web/signals.go
package web

import (
	"net/http"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/storage/signal"
)

const signalsPageSize = 100

// SignalsData holds data for the signal history template
type SignalsData struct {
	Signals []core.Signal
	Total   int
	Symbol  string
	Action  core.Action
	Actions []core.Action
}

// Signals renders the recorded signal history, optionally filtered by symbol
// and action.
func (h *Handler) Signals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := signal.ListFilter{
		Symbol: normalized(q.Get("symbol")),
		Limit:  signalsPageSize,
	}
	if action, ok := core.ParseAction(q.Get("action")); ok {
		filter.Action = action
	}

	page := Page{Title: "Signals", Active: "signals"}
	data := SignalsData{
		Symbol:  filter.Symbol,
		Action:  filter.Action,
		Actions: core.Actions,
	}

	signals, err := h.signals.List(r.Context(), filter)
	if err != nil {
		page.Error = message(err)
	}
	data.Signals = signals
	data.Total, _ = h.signals.Count(r.Context(), filter)
	page.Body = data

	h.render(w, r, "signals.html", page)
}
