package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Market represents a trading market
type Market string

const (
	MarketUS Market = "US"
	MarketUK Market = "UK"
	MarketEU Market = "EU"
	MarketHK Market = "HK"
)

// DetectMarket guesses the listing market from the ticker suffix.
func DetectMarket(ticker string) Market {
	upper := strings.ToUpper(ticker)
	switch {
	case strings.HasSuffix(upper, ".L"):
		return MarketUK
	case strings.HasSuffix(upper, ".HK"):
		return MarketHK
	case strings.HasSuffix(upper, ".PA"), strings.HasSuffix(upper, ".DE"),
		strings.HasSuffix(upper, ".AS"), strings.HasSuffix(upper, ".MI"):
		return MarketEU
	default:
		return MarketUS
	}
}

// validTicker matches symbols like AAPL, BRK-B, VOD.L, ^GSPC
var validTicker = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9-]{0,9}(\.[A-Z]{1,4})?$`)

// NormalizeTicker trims and upper-cases user input and checks its format.
func NormalizeTicker(raw string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if ticker == "" {
		return "", WrapError(ErrInvalidTicker, fmt.Errorf("ticker cannot be empty"))
	}
	if !validTicker.MatchString(ticker) {
		return "", WrapError(ErrInvalidTicker, fmt.Errorf("invalid ticker format: %s", raw))
	}
	return ticker, nil
}

// OHLCV is one trading session.
type OHLCV struct {
	Symbol string    `json:"symbol"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	Time   time.Time `json:"time"`
}

// NormalizeSeries sorts bars chronologically and keeps the last bar seen for
// each calendar date. The input slice is not modified.
func NormalizeSeries(bars []OHLCV) []OHLCV {
	if len(bars) == 0 {
		return nil
	}
	sorted := make([]OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	out := make([]OHLCV, 0, len(sorted))
	for _, bar := range sorted {
		if n := len(out); n > 0 && sameDate(out[n-1].Time, bar.Time) {
			out[n-1] = bar
			continue
		}
		out = append(out, bar)
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Fundamental is a normalized fundamentals record. Nil pointers and zero
// times mean the provider did not report the field.
type Fundamental struct {
	Symbol         string    `json:"symbol"`
	ShortName      string    `json:"short_name,omitempty"`
	LongName       string    `json:"long_name,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	MarketCap      *float64  `json:"market_cap,omitempty"`
	TrailingPE     *float64  `json:"trailing_pe,omitempty"`
	ForwardPE      *float64  `json:"forward_pe,omitempty"`
	DividendYield  *float64  `json:"dividend_yield,omitempty"`
	ExDividendDate time.Time `json:"ex_dividend_date,omitempty"`
	DividendDate   time.Time `json:"dividend_date,omitempty"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// CompanyName returns the short name, then the long name, then the ticker.
func (f *Fundamental) CompanyName() string {
	if f == nil {
		return ""
	}
	if f.ShortName != "" {
		return f.ShortName
	}
	if f.LongName != "" {
		return f.LongName
	}
	return f.Symbol
}

// Trend is the long-term direction of a series
type Trend string

const (
	TrendUp   Trend = "Uptrend"
	TrendDown Trend = "Downtrend"
)

// Action represents a trading signal action
type Action string

const (
	ActionStrongBuy   Action = "strong_buy"
	ActionBuy         Action = "buy"
	ActionStrongHold  Action = "strong_hold"
	ActionHold        Action = "hold"
	ActionSell        Action = "sell"
	ActionStrongSell  Action = "strong_sell"
	ActionUnavailable Action = "unavailable"
)

// Actions lists every action in display order.
var Actions = []Action{
	ActionStrongBuy, ActionBuy, ActionStrongHold, ActionHold,
	ActionSell, ActionStrongSell, ActionUnavailable,
}

// Label returns the dashboard label for an action.
func (a Action) Label() string {
	switch a {
	case ActionStrongBuy:
		return "🔥 STRONG BUY"
	case ActionBuy:
		return "💡 BUY"
	case ActionStrongHold:
		return "📈 STRONG HOLD"
	case ActionHold:
		return "⚖️ HOLD"
	case ActionSell:
		return "🚫 SELL"
	case ActionStrongSell:
		return "🔴 STRONG SELL"
	default:
		return "N/A"
	}
}

// ParseAction accepts either the action code or its dashboard label.
func ParseAction(s string) (Action, bool) {
	for _, a := range Actions {
		if s == string(a) || s == a.Label() {
			return a, true
		}
	}
	return "", false
}

// Signal represents a classified trading signal
type Signal struct {
	ID          string         `json:"id,omitempty"`
	Symbol      string         `json:"symbol"`
	Action      Action         `json:"action"`
	Strength    int            `json:"strength"`
	Price       float64        `json:"price"`
	Reason      string         `json:"reason"`
	Strategy    string         `json:"strategy,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// IsActionable reports whether the signal suggests opening or closing a position.
func (s Signal) IsActionable() bool {
	switch s.Action {
	case ActionStrongBuy, ActionBuy, ActionSell, ActionStrongSell:
		return true
	}
	return false
}
