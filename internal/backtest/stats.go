package backtest

import (
	"math"
	"time"
)

// mark is the close of one replayed session.
type mark struct {
	time  time.Time
	close float64
}

// summarize scores trades against the replayed sessions. Win rate counts
// settled trades only; total return and Sharpe include a position still
// open, marked to the final close.
func summarize(trades []Trade, marks []mark) Stats {
	st := Stats{TotalTrades: len(trades)}
	if n := len(marks); n > 0 && marks[0].close > 0 {
		st.BuyAndHold = (marks[n-1].close/marks[0].close - 1) * 100
	}
	if len(trades) == 0 {
		return st
	}

	growth := 1.0
	returns := make([]float64, 0, len(trades))
	for _, t := range trades {
		growth *= 1 + t.Return
		returns = append(returns, t.Return)
		switch {
		case !t.IsClosed():
		case t.IsWin():
			st.WinningTrades++
		default:
			st.LosingTrades++
		}
	}
	if settled := st.WinningTrades + st.LosingTrades; settled > 0 {
		st.WinRate = float64(st.WinningTrades) / float64(settled) * 100
	}
	st.TotalReturn = (growth - 1) * 100
	st.MaxDrawdown = maxDrawdown(equityCurve(trades, marks)) * 100
	st.SharpeRatio = sharpe(returns)
	return st
}

// equityCurve follows one unit of capital through the trades, one point per
// session. Sessions out of the market keep the previous value.
func equityCurve(trades []Trade, marks []mark) []float64 {
	curve := make([]float64, len(marks))
	equity := 1.0
	for i, m := range marks {
		if i > 0 && marks[i-1].close > 0 && inMarket(trades, m.time) {
			equity *= m.close / marks[i-1].close
		}
		curve[i] = equity
	}
	return curve
}

// inMarket reports whether a position was held into the session closing at t.
// Entries and exits happen at the signal session's close.
func inMarket(trades []Trade, t time.Time) bool {
	for _, tr := range trades {
		if !tr.EntrySignal.GeneratedAt.Before(t) {
			continue
		}
		if tr.ExitSignal == nil || !t.After(tr.ExitSignal.GeneratedAt) {
			return true
		}
	}
	return false
}

// maxDrawdown is the largest fall from a running peak, as a fraction.
func maxDrawdown(curve []float64) float64 {
	var peak, worst float64
	for _, v := range curve {
		peak = math.Max(peak, v)
		if peak > 0 {
			worst = math.Max(worst, (peak-v)/peak)
		}
	}
	return worst
}

// sharpe is the mean trade return over its sample standard deviation, with
// a zero risk-free rate. Trades are irregular, so it is not annualized.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	sd := math.Sqrt(ss / float64(len(returns)-1))
	if sd == 0 {
		return 0
	}
	return mean / sd
}
