package projection

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/swingdesk/internal/collector"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/watchlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

func bars(closes map[int]float64) []core.OHLCV {
	var out []core.OHLCV
	for d := 0; d <= 5000; d++ {
		if c, ok := closes[d]; ok {
			out = append(out, core.OHLCV{Close: c, Time: day0.AddDate(0, 0, d)})
		}
	}
	return out
}

func TestCAGR(t *testing.T) {
	tests := []struct {
		name   string
		points []core.OHLCV
		want   float64
	}{
		{"empty", nil, 0},
		{"single", bars(map[int]float64{0: 10}), 0},
		{"under half a year", bars(map[int]float64{0: 10, 100: 20}), 0},
		{"doubled in one year", bars(map[int]float64{0: 10, 365: 20}), 1},
		{"flat", bars(map[int]float64{0: 10, 730: 10}), 0},
		{"quadrupled in two years", bars(map[int]float64{0: 10, 200: 15, 730: 40}), 1},
		{"halved in one year", bars(map[int]float64{0: 10, 365: 5}), -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CAGR(tt.points), 1e-9)
		})
	}
}

func TestProject(t *testing.T) {
	rows, err := Project(100, 10, 200, 2, 0.10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// year 1: price 110, buys 2400/110 shares
	y1Shares := 10 + 2400.0/110
	assert.Equal(t, Year{
		Year:           1,
		SharePrice:     110,
		SharesOwned:    math.Round(y1Shares*1e4) / 1e4,
		PortfolioValue: math.Round(y1Shares*110*100) / 100,
	}, rows[0])

	y2Shares := y1Shares + 2400.0/121
	assert.Equal(t, 2, rows[1].Year)
	assert.InDelta(t, 121.0, rows[1].SharePrice, 1e-9)
	assert.InDelta(t, math.Round(y2Shares*1e4)/1e4, rows[1].SharesOwned, 1e-9)
	assert.InDelta(t, math.Round(y2Shares*121*100)/100, rows[1].PortfolioValue, 1e-9)
}

func TestProject_ZeroPriceBuysNothing(t *testing.T) {
	rows, err := Project(0, 5, 200, 3, 0.2)
	require.NoError(t, err)
	for _, r := range rows {
		assert.Equal(t, 0.0, r.SharePrice)
		assert.Equal(t, 5.0, r.SharesOwned)
		assert.Equal(t, 0.0, r.PortfolioValue)
	}
}

func TestProject_YearBounds(t *testing.T) {
	for _, years := range []int{0, -1, 26} {
		_, err := Project(100, 1, 0, years, 0.05)
		assert.True(t, errors.Is(err, core.ErrInvalidInput), "years=%d", years)
	}
	rows, err := Project(100, 1, 0, 25, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 25)
	assert.Equal(t, 100.0, rows[24].PortfolioValue)
}

func TestProject_NegativeInput(t *testing.T) {
	_, err := Project(-1, 1, 1, 5, 0)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

type historyStub struct {
	points []core.OHLCV
	err    error
}

func (h *historyStub) Name() string { return "stub" }
func (h *historyStub) SupportedMarkets() []core.Market { return []core.Market{core.MarketUS} }
func (h *historyStub) Init(collector.Config) error { return nil }
func (h *historyStub) FetchHistory(_ context.Context, _ string, _, _ time.Time) ([]core.OHLCV, error) {
	return h.points, h.err
}

func TestProjector_Run(t *testing.T) {
	p := NewProjector(&historyStub{points: bars(map[int]float64{0: 10, 365: 11})}, 5, nil)

	res, err := p.Run(context.Background(), watchlist.Holding{Ticker: "VTI", CostPerShare: 100, SharesOwned: 10, MonthlyContribution: 200}, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, res.CAGR, 1e-9)
	assert.Len(t, res.Years, 10)
	assert.Equal(t, "VTI", res.Holding.Ticker)
}

func TestProjector_FetchFailureUsesZeroGrowth(t *testing.T) {
	p := NewProjector(&historyStub{err: core.ErrUpstreamFailure}, 5, nil)

	res, err := p.Run(context.Background(), watchlist.Holding{Ticker: "VTI", CostPerShare: 50, SharesOwned: 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.CAGR)
	assert.Equal(t, 100.0, res.Years[2].PortfolioValue)
}

func TestProjector_InvalidHolding(t *testing.T) {
	p := NewProjector(&historyStub{}, 5, nil)
	_, err := p.Run(context.Background(), watchlist.Holding{Ticker: "VTI", SharesOwned: -3}, 3)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}
