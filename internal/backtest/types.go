package backtest

import (
	"time"

	"github.com/newthinker/swingdesk/internal/core"
)

// Result holds the complete replay output
type Result struct {
	Symbol    string        `json:"symbol" yaml:"symbol"`
	StartDate time.Time     `json:"start_date" yaml:"start_date"`
	EndDate   time.Time     `json:"end_date" yaml:"end_date"`
	Sessions  int           `json:"sessions" yaml:"sessions"`
	Signals   []core.Signal `json:"signals" yaml:"signals"`
	Trades    []Trade       `json:"trades" yaml:"trades"`
	Stats     Stats         `json:"stats" yaml:"stats"`
}

// Trade represents a simulated long position from a buy signal to the next
// sell signal.
type Trade struct {
	EntrySignal core.Signal  `json:"entry" yaml:"entry"`
	ExitSignal  *core.Signal `json:"exit,omitempty" yaml:"exit,omitempty"` // nil if position still open
	EntryPrice  float64      `json:"entry_price" yaml:"entry_price"`
	ExitPrice   float64      `json:"exit_price" yaml:"exit_price"`
	Return      float64      `json:"return" yaml:"return"` // fraction, 0.05 is 5%
	HeldDays    int          `json:"held_days" yaml:"held_days"`
}

// Stats holds performance statistics. Percentages are 0-100.
type Stats struct {
	TotalTrades   int     `json:"total_trades" yaml:"total_trades"`
	WinningTrades int     `json:"winning_trades" yaml:"winning_trades"`
	LosingTrades  int     `json:"losing_trades" yaml:"losing_trades"`
	WinRate       float64 `json:"win_rate" yaml:"win_rate"`
	TotalReturn   float64 `json:"total_return" yaml:"total_return"`
	MaxDrawdown   float64 `json:"max_drawdown" yaml:"max_drawdown"`
	SharpeRatio   float64 `json:"sharpe_ratio" yaml:"sharpe_ratio"` // per trade
	BuyAndHold    float64 `json:"buy_and_hold" yaml:"buy_and_hold"`
}

// IsWin reports a positive return.
func (t Trade) IsWin() bool {
	return t.Return > 0
}

// IsClosed reports whether a sell signal ended the trade.
func (t Trade) IsClosed() bool {
	return t.ExitSignal != nil
}

// Outcome is "open" for a position still held, else "won" or "lost".
func (t Trade) Outcome() string {
	switch {
	case !t.IsClosed():
		return "open"
	case t.IsWin():
		return "won"
	default:
		return "lost"
	}
}
