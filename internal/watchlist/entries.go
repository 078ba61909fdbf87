package watchlist

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
)

// SwingEntry caches the last rendered swing snapshot for a ticker.
type SwingEntry struct {
	Ticker    string      `json:"ticker" yaml:"ticker"`
	Company   string      `json:"company" yaml:"company"`
	Currency  string      `json:"currency,omitempty" yaml:"currency,omitempty"`
	Price     float64     `json:"price" yaml:"price"`
	Signal    core.Action `json:"signal,omitempty" yaml:"signal,omitempty"`
	Strength  int         `json:"strength" yaml:"strength"`
	UpdatedAt time.Time   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func (e SwingEntry) Key() string { return e.Ticker }

// DividendEntry holds the upcoming dividend calendar for a ticker. Dates are
// YYYY-MM-DD or a "No upcoming ..." message.
type DividendEntry struct {
	Ticker         string `json:"ticker" yaml:"ticker"`
	Company        string `json:"company" yaml:"company"`
	ExDividendDate string `json:"ex_div_date" yaml:"ex_div_date"`
	PayDate        string `json:"pay_date" yaml:"pay_date"`
}

func (e DividendEntry) Key() string { return e.Ticker }

// Holding is a long-term position with a monthly contribution plan.
type Holding struct {
	Ticker              string  `json:"ticker" yaml:"ticker"`
	CostPerShare        float64 `json:"cost_per_share" yaml:"cost_per_share"`
	SharesOwned         float64 `json:"shares_owned" yaml:"shares_owned"`
	MonthlyContribution float64 `json:"monthly_contribution" yaml:"monthly_contribution"`
}

func (h Holding) Key() string { return h.Ticker }

// Validate rejects negative amounts.
func (h Holding) Validate() error {
	if h.CostPerShare < 0 || h.SharesOwned < 0 || h.MonthlyContribution < 0 {
		return core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("cost, shares and contribution must be non-negative"))
	}
	return nil
}

// Codec maps an entry type to CSV columns.
type Codec[T Entry] struct {
	Header []string
	Encode func(T) []string
	// Decode receives the row keyed by normalized header name.
	Decode func(row map[string]string) (T, error)
}

// SwingCodec stores swing entries.
var SwingCodec = Codec[SwingEntry]{
	Header: []string{"ticker", "company", "currency", "price", "signal", "strength", "updated_at"},
	Encode: func(e SwingEntry) []string {
		updated := ""
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.UTC().Format(time.RFC3339)
		}
		return []string{
			e.Ticker, e.Company, e.Currency, formatFloat(e.Price),
			string(e.Signal), strconv.Itoa(e.Strength), updated,
		}
	},
	Decode: func(row map[string]string) (SwingEntry, error) {
		e := SwingEntry{
			Ticker:   row["ticker"],
			Company:  row["company"],
			Currency: row["currency"],
		}
		e.Price, _ = parseFloat(first(row, "price", "current_price"))
		if a, ok := core.ParseAction(row["signal"]); ok {
			e.Signal = a
		}
		if s, err := strconv.Atoi(row["strength"]); err == nil {
			e.Strength = s
		}
		if ts := row["updated_at"]; ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				e.UpdatedAt = t
			}
		}
		return e, nil
	},
}

// DividendCodec stores dividend entries.
var DividendCodec = Codec[DividendEntry]{
	Header: []string{"ticker", "company", "ex_div_date", "pay_date"},
	Encode: func(e DividendEntry) []string {
		return []string{e.Ticker, e.Company, e.ExDividendDate, e.PayDate}
	},
	Decode: func(row map[string]string) (DividendEntry, error) {
		return DividendEntry{
			Ticker:         row["ticker"],
			Company:        row["company"],
			ExDividendDate: first(row, "ex_div_date", "ex_dividend_date"),
			PayDate:        row["pay_date"],
		}, nil
	},
}

// HoldingCodec stores long-term holdings.
var HoldingCodec = Codec[Holding]{
	Header: []string{"ticker", "cost_per_share", "shares_owned", "monthly_contribution"},
	Encode: func(h Holding) []string {
		return []string{h.Ticker, formatFloat(h.CostPerShare), formatFloat(h.SharesOwned), formatFloat(h.MonthlyContribution)}
	},
	Decode: func(row map[string]string) (Holding, error) {
		h := Holding{Ticker: row["ticker"]}
		var err error
		if h.CostPerShare, err = parseFloat(row["cost_per_share"]); err != nil {
			return h, fmt.Errorf("cost_per_share: %w", err)
		}
		if h.SharesOwned, err = parseFloat(row["shares_owned"]); err != nil {
			return h, fmt.Errorf("shares_owned: %w", err)
		}
		if h.MonthlyContribution, err = parseFloat(row["monthly_contribution"]); err != nil {
			return h, fmt.Errorf("monthly_contribution: %w", err)
		}
		return h, nil
	},
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseFloat treats blank and "N/A" cells as zero and ignores a leading
// currency symbol.
func parseFloat(s string) (float64, error) {
	s = strings.TrimLeft(strings.TrimSpace(s), "$£€")
	if s == "" || s == "N/A" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func first(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}
