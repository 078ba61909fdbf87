// internal/api/handler/api/signals.go
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/swingdesk/internal/api/response"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/storage/signal"
)

const (
	defaultSignalLimit = 50
	maxSignalLimit     = 500
)

// SignalsHandler handles signal-history API requests.
type SignalsHandler struct {
	store signal.Store
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(store signal.Store) *SignalsHandler {
	return &SignalsHandler{store: store}
}

// ParseFilter reads symbol, action, from, to, limit and offset from the query.
// Dates accept RFC 3339 or YYYY-MM-DD.
func ParseFilter(r *http.Request) (signal.ListFilter, error) {
	q := r.URL.Query()

	filter := signal.ListFilter{
		Symbol:   strings.ToUpper(strings.TrimSpace(q.Get("symbol"))),
		Strategy: q.Get("strategy"),
		Limit:    defaultSignalLimit,
	}

	if raw := q.Get("action"); raw != "" {
		action, ok := core.ParseAction(raw)
		if !ok {
			return filter, core.WrapError(core.ErrInvalidInput, fmt.Errorf("unknown action %q", raw))
		}
		filter.Action = action
	}

	var err error
	if filter.From, err = parseTime(q.Get("from")); err != nil {
		return filter, err
	}
	if filter.To, err = parseTime(q.Get("to")); err != nil {
		return filter, err
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return filter, core.WrapError(core.ErrInvalidInput, fmt.Errorf("invalid limit %q", raw))
		}
		filter.Limit = min(n, maxSignalLimit)
	}

	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, core.WrapError(core.ErrInvalidInput, fmt.Errorf("invalid offset %q", raw))
		}
		filter.Offset = n
	}

	return filter, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, core.WrapError(core.ErrInvalidInput, fmt.Errorf("invalid date %q", raw))
}

// List handles GET /api/v1/signals
func (h *SignalsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	signals, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	count, _ := h.store.Count(r.Context(), filter)

	response.JSON(w, http.StatusOK, map[string]any{
		"signals": signals,
		"total":   count,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// GetByID handles GET /api/v1/signals/{id}
func (h *SignalsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	sig, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, sig)
}
