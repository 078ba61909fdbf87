package analysis

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/indicator"
	"github.com/newthinker/swingdesk/internal/strategy"
)

// NA is rendered for any value the pipeline could not produce.
const NA = "N/A"

var currencySymbols = map[string]string{
	"USD": "$",
	"GBP": "£",
	"GBp": "£",
	"GBX": "£",
	"EUR": "€",
}

// CurrencySymbol maps an ISO currency code to its display symbol. Unknown
// codes fall back to "£".
func CurrencySymbol(code string) string {
	if sym, ok := currencySymbols[code]; ok {
		return sym
	}
	if sym, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return sym
	}
	return "£"
}

// Snapshot is one row of the swing table.
type Snapshot struct {
	Ticker         string      `json:"ticker" yaml:"ticker"`
	Company        string      `json:"company" yaml:"company"`
	Currency       string      `json:"currency" yaml:"currency"`
	CurrencySymbol string      `json:"currency_symbol" yaml:"currency_symbol"`
	Price          float64     `json:"price" yaml:"price"`
	DayChange      float64     `json:"day_change" yaml:"day_change"`
	YearChange     float64     `json:"year_change" yaml:"year_change"`
	RSI            float64     `json:"rsi" yaml:"rsi"`
	MACDLine       float64     `json:"macd_line" yaml:"macd_line"`
	MACDSignal     float64     `json:"macd_signal" yaml:"macd_signal"`
	EMAShort       float64     `json:"ema_short" yaml:"ema_short"`
	Action         core.Action `json:"signal" yaml:"signal"`
	Strength       int         `json:"strength" yaml:"strength"`
	Conclusion     string      `json:"conclusion" yaml:"conclusion"`
	AsOf           time.Time   `json:"as_of,omitempty" yaml:"as_of,omitempty"`
	// HasPrice is false when no price history could be fetched.
	HasPrice bool   `json:"has_price" yaml:"has_price"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Placeholder is the snapshot shown for a ticker whose pipeline failed.
func Placeholder(ticker string, err error) Snapshot {
	s := Snapshot{
		Ticker:     ticker,
		Company:    ticker,
		Action:     core.ActionUnavailable,
		Conclusion: strategy.Conclusion(core.ActionUnavailable),
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// Signal rebuilds the classified signal the snapshot was made from.
func (s Snapshot) Signal() core.Signal {
	return core.Signal{
		Symbol:      s.Ticker,
		Action:      s.Action,
		Strength:    s.Strength,
		Price:       s.Price,
		Reason:      s.Conclusion,
		Strategy:    strategy.Name,
		GeneratedAt: s.AsOf,
	}
}

// Failed reports whether the pipeline produced nothing usable.
func (s Snapshot) Failed() bool {
	return s.Error != ""
}

// HasIndicators reports whether the indicator columns are populated.
func (s Snapshot) HasIndicators() bool {
	return s.Action != core.ActionUnavailable && s.Action != ""
}

// PriceText renders the current price, e.g. "$1,234.50".
func (s Snapshot) PriceText() string {
	if !s.HasPrice {
		return NA
	}
	return money(s.CurrencySymbol, s.Price)
}

// DayChangeText renders the one-day change.
func (s Snapshot) DayChangeText() string {
	if !s.HasPrice {
		return NA
	}
	return money(s.CurrencySymbol, s.DayChange)
}

// YearChangeText renders the 52-week change.
func (s Snapshot) YearChangeText() string {
	if !s.HasPrice {
		return NA
	}
	return money(s.CurrencySymbol, s.YearChange)
}

func (s Snapshot) RSIText() string        { return s.indicatorText(s.RSI) }
func (s Snapshot) MACDLineText() string   { return s.indicatorText(s.MACDLine) }
func (s Snapshot) MACDSignalText() string { return s.indicatorText(s.MACDSignal) }
func (s Snapshot) EMAShortText() string   { return s.indicatorText(s.EMAShort) }

// SignalText is the dashboard label for the signal.
func (s Snapshot) SignalText() string {
	return s.Action.Label()
}

func (s Snapshot) indicatorText(v float64) string {
	if !s.HasIndicators() || math.IsNaN(v) {
		return NA
	}
	return humanize.FormatFloat("#,###.##", v)
}

func money(sym string, v float64) string {
	if v < 0 {
		return "-" + sym + humanize.FormatFloat("#,###.##", -v)
	}
	return sym + humanize.FormatFloat("#,###.##", v)
}

// FormatVolume renders a share volume with SI suffixes, e.g. "12 M".
func FormatVolume(v float64) string {
	if math.IsNaN(v) {
		return NA
	}
	return humanize.SIWithDigits(v, 1, "")
}

// FormatMarketCap renders an optional market cap, e.g. "$2.9 T".
func FormatMarketCap(sym string, v *float64) string {
	if v == nil {
		return NA
	}
	return sym + humanize.SIWithDigits(*v, 1, "")
}

// Detail is the symbol detail page: snapshot, fundamentals and the full
// indicator series for charting.
type Detail struct {
	Snapshot    Snapshot          `json:"snapshot" yaml:"snapshot"`
	Signal      core.Signal       `json:"signal" yaml:"signal"`
	Fundamental *core.Fundamental `json:"fundamental,omitempty" yaml:"fundamental,omitempty"`
	Rows        []indicator.Row   `json:"rows" yaml:"-"`
	Narrative   string            `json:"narrative,omitempty" yaml:"narrative,omitempty"`
}

// LatestRow returns the row the signal was classified from.
func (d *Detail) LatestRow() (indicator.Row, bool) {
	if len(d.Rows) == 0 {
		return indicator.Row{}, false
	}
	return d.Rows[len(d.Rows)-1], true
}
