package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/projection"
	"github.com/newthinker/swingdesk/internal/watchlist"
)

// DividendsData holds data for the dividend tracker template
type DividendsData struct {
	Entries []watchlist.DividendEntry
}

// Dividends renders the dividend calendar, re-fetched on every load.
func (h *Handler) Dividends(w http.ResponseWriter, r *http.Request) {
	page := Page{Title: "Dividend Tracker", Active: "dividends"}
	entries, err := h.app.RefreshDividends(r.Context())
	if err != nil {
		page.Error = message(err)
	}
	page.Body = DividendsData{Entries: entries}
	h.render(w, r, "dividends.html", page)
}

// PortfolioData holds data for the long-term portfolio template
type PortfolioData struct {
	Holdings []watchlist.Holding
	Defaults watchlist.Holding
}

// Portfolio renders the long-term holdings with the add form.
func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "portfolio.html", Page{
		Title:  "Long-Term Investments",
		Active: "portfolio",
		Body: PortfolioData{
			Holdings: h.app.Holdings(),
			Defaults: h.app.DefaultHolding(""),
		},
	})
}

func (h *Handler) addHolding(w http.ResponseWriter, r *http.Request, raw string) {
	ticker, err := core.NormalizeTicker(raw)
	if err != nil {
		redirect(w, r, "/portfolio", err, "")
		return
	}

	holding := h.app.DefaultHolding(ticker)
	for field, dst := range map[string]*float64{
		"cost_per_share":       &holding.CostPerShare,
		"shares_owned":         &holding.SharesOwned,
		"monthly_contribution": &holding.MonthlyContribution,
	} {
		v := strings.TrimSpace(r.PostForm.Get(field))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			redirect(w, r, "/portfolio", core.WrapError(core.ErrInvalidInput, err), "")
			return
		}
		*dst = f
	}

	if err := h.app.AddHolding(r.Context(), holding); err != nil {
		redirect(w, r, "/portfolio", err, "")
		return
	}
	redirect(w, r, "/portfolio", nil, "Added "+ticker+" to portfolio")
}

// ProjectionData holds data for the projection template
type ProjectionData struct {
	Result   *projection.Result
	Years    int
	MinYears int
	MaxYears int
}

// Final is the last projected year, or the zero value.
func (d ProjectionData) Final() projection.Year {
	if d.Result == nil || len(d.Result.Years) == 0 {
		return projection.Year{}
	}
	return d.Result.Years[len(d.Result.Years)-1]
}

// Projection renders the year-by-year projection for one holding.
func (h *Handler) Projection(w http.ResponseWriter, r *http.Request) {
	ticker := normalized(r.PathValue("ticker"))
	page := Page{Title: ticker + " Projection", Active: "portfolio"}

	years, _ := strconv.Atoi(r.URL.Query().Get("years"))
	res, err := h.app.Project(r.Context(), ticker, years)
	if err != nil {
		redirect(w, r, "/portfolio", err, "")
		return
	}

	page.Body = ProjectionData{
		Result:   res,
		Years:    len(res.Years),
		MinYears: projection.MinYears,
		MaxYears: projection.MaxYears,
	}
	h.render(w, r, "projection.html", page)
}
