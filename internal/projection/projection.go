// Package projection estimates the future value of a long-term holding from
// its historical growth rate.
package projection

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/newthinker/swingdesk/internal/collector"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/watchlist"
	"go.uber.org/zap"
)

const (
	MinYears = 1
	MaxYears = 25

	// minHistoryYears is the shortest history a growth rate is computed from.
	minHistoryYears = 0.5
)

// CAGR returns the compound annual growth rate between the first and last
// close. Empty input or less than half a year of history yields 0.
func CAGR(points []core.OHLCV) float64 {
	if len(points) < 2 {
		return 0
	}
	first, last := points[0], points[len(points)-1]
	years := last.Time.Sub(first.Time).Hours() / 24 / 365
	if years < minHistoryYears || first.Close <= 0 || last.Close <= 0 {
		return 0
	}
	return math.Pow(last.Close/first.Close, 1/years) - 1
}

// Year is one row of a projection table.
type Year struct {
	Year           int     `json:"year" yaml:"year"`
	SharePrice     float64 `json:"share_price" yaml:"share_price"`
	SharesOwned    float64 `json:"shares_owned" yaml:"shares_owned"`
	PortfolioValue float64 `json:"portfolio_value" yaml:"portfolio_value"`
}

// Project grows the price by cagr each year and invests twelve monthly
// contributions at the year-end price.
func Project(cost, shares, monthly float64, years int, cagr float64) ([]Year, error) {
	if years < MinYears || years > MaxYears {
		return nil, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("years must be between %d and %d, got %d", MinYears, MaxYears, years))
	}
	if cost < 0 || shares < 0 || monthly < 0 {
		return nil, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("cost, shares and contribution must be non-negative"))
	}

	rows := make([]Year, 0, years)
	price := cost
	total := shares
	for y := 1; y <= years; y++ {
		price *= 1 + cagr
		if price > 0 {
			total += monthly * 12 / price
		}
		rows = append(rows, Year{
			Year:           y,
			SharePrice:     round(price, 2),
			SharesOwned:    round(total, 4),
			PortfolioValue: round(total*price, 2),
		})
	}
	return rows, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Result is a projection for one holding.
type Result struct {
	Holding watchlist.Holding `json:"holding" yaml:"holding"`
	CAGR    float64           `json:"cagr" yaml:"cagr"`
	Years   []Year            `json:"years" yaml:"years"`
}

// Projector fetches history and runs projections.
type Projector struct {
	source       collector.Collector
	historyYears int
	logger       *zap.Logger
	now          func() time.Time
}

// NewProjector creates a projector that estimates growth over historyYears.
func NewProjector(source collector.Collector, historyYears int, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if historyYears <= 0 {
		historyYears = 5
	}
	return &Projector{source: source, historyYears: historyYears, logger: logger, now: time.Now}
}

// HistoricalCAGR fetches the history window and returns its growth rate.
// A failed fetch yields 0 so the projection still renders.
func (p *Projector) HistoricalCAGR(ctx context.Context, ticker string) float64 {
	end := p.now()
	start := end.AddDate(-p.historyYears, 0, 0)
	points, err := p.source.FetchHistory(ctx, ticker, start, end)
	if err != nil {
		p.logger.Warn("growth history unavailable",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
		return 0
	}
	return CAGR(points)
}

// Run projects a holding forward for the given number of years.
func (p *Projector) Run(ctx context.Context, h watchlist.Holding, years int) (*Result, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	cagr := p.HistoricalCAGR(ctx, h.Ticker)
	rows, err := Project(h.CostPerShare, h.SharesOwned, h.MonthlyContribution, years, cagr)
	if err != nil {
		return nil, err
	}
	return &Result{Holding: h, CAGR: cagr, Years: rows}, nil
}
