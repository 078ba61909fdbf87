package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/indicator"
)

// Name identifies signals produced by the classifier.
const Name = "swing"

// Thresholds holds the RSI bands used by the classifier.
type Thresholds struct {
	// RSI bands; the *Band variants apply when close is outside the Bollinger bands.
	Overbought          float64 `mapstructure:"overbought"`
	OverboughtAboveBand float64 `mapstructure:"overbought_above_band"`
	Oversold            float64 `mapstructure:"oversold"`
	OversoldBelowBand   float64 `mapstructure:"oversold_below_band"`
	Neutral             float64 `mapstructure:"neutral"`

	StrongBuyDeep  float64 `mapstructure:"strong_buy_deep"`
	BuyDeep        float64 `mapstructure:"buy_deep"`
	StrongSellHigh float64 `mapstructure:"strong_sell_high"`
	SellHigh       float64 `mapstructure:"sell_high"`
}

// DefaultThresholds returns the standard swing bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Overbought:          65,
		OverboughtAboveBand: 70,
		Oversold:            35,
		OversoldBelowBand:   30,
		Neutral:             50,
		StrongBuyDeep:       25,
		BuyDeep:             40,
		StrongSellHigh:      75,
		SellHigh:            60,
	}
}

// Validate checks the bands are ordered sensibly.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"overbought":            t.Overbought,
		"overbought_above_band": t.OverboughtAboveBand,
		"oversold":              t.Oversold,
		"oversold_below_band":   t.OversoldBelowBand,
		"neutral":               t.Neutral,
		"strong_buy_deep":       t.StrongBuyDeep,
		"buy_deep":              t.BuyDeep,
		"strong_sell_high":      t.StrongSellHigh,
		"sell_high":             t.SellHigh,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be within 0..100, got %.1f", name, v)
		}
	}
	if t.Oversold >= t.Overbought || t.OversoldBelowBand >= t.OverboughtAboveBand {
		return fmt.Errorf("oversold thresholds must be below overbought thresholds")
	}
	return nil
}

// Classifier maps an indicator row to a trading signal.
type Classifier struct {
	thresholds Thresholds
	now        func() time.Time
}

// NewClassifier creates a classifier with the given bands.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t, now: time.Now}
}

// Thresholds returns the classifier configuration.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Overbought returns the RSI level above which the row counts as overbought.
// Closing above the upper band raises the bar.
func (c *Classifier) Overbought(row indicator.Row) float64 {
	if row.Close > row.BBHigh {
		return c.thresholds.OverboughtAboveBand
	}
	return c.thresholds.Overbought
}

// Oversold returns the RSI level below which the row counts as oversold.
func (c *Classifier) Oversold(row indicator.Row) float64 {
	if row.Close < row.BBLow {
		return c.thresholds.OversoldBelowBand
	}
	return c.thresholds.Oversold
}

// Decide returns the action and strength for a row. It is a pure function of
// the row and the thresholds.
func (c *Classifier) Decide(row indicator.Row) (core.Action, int) {
	for _, v := range []float64{row.Close, row.EMAShort, row.RSI, row.MACDLine, row.MACDSignal, row.Volume, row.VolumeSMA} {
		if math.IsNaN(v) {
			return core.ActionUnavailable, 0
		}
	}

	t := c.thresholds
	volumeConfirmed := row.Volume > row.VolumeSMA
	overbought := c.Overbought(row)
	oversold := c.Oversold(row)

	switch {
	case row.Trend == core.TrendUp && row.Close > row.EMAShort && row.MACDLine > row.MACDSignal:
		switch {
		case row.RSI < oversold && volumeConfirmed:
			if row.RSI < t.StrongBuyDeep {
				return core.ActionStrongBuy, 90
			}
			return core.ActionStrongBuy, 75
		case row.RSI < t.Neutral && volumeConfirmed:
			if row.RSI < t.BuyDeep {
				return core.ActionBuy, 60
			}
			return core.ActionBuy, 50
		case row.RSI > overbought:
			return core.ActionStrongHold, 25
		}
	case row.Trend == core.TrendDown && row.Close < row.EMAShort && row.MACDLine < row.MACDSignal:
		switch {
		case row.RSI > overbought && volumeConfirmed:
			if row.RSI > t.StrongSellHigh {
				return core.ActionStrongSell, -90
			}
			return core.ActionStrongSell, -75
		case row.RSI > t.Neutral && volumeConfirmed:
			if row.RSI > t.SellHigh {
				return core.ActionSell, -60
			}
			return core.ActionSell, -50
		}
	}
	return core.ActionHold, 0
}

// Classify builds a full signal for symbol from its latest row.
func (c *Classifier) Classify(symbol string, row indicator.Row) core.Signal {
	action, strength := c.Decide(row)

	sig := core.Signal{
		Symbol:      symbol,
		Action:      action,
		Strength:    strength,
		Price:       row.Close,
		Reason:      Conclusion(action),
		Strategy:    Name,
		GeneratedAt: c.now(),
	}
	if action == core.ActionUnavailable {
		return sig
	}
	sig.Metadata = map[string]any{
		"rsi":              row.RSI,
		"ema_short":        row.EMAShort,
		"macd_line":        row.MACDLine,
		"macd_signal":      row.MACDSignal,
		"trend":            string(row.Trend),
		"overbought":       c.Overbought(row),
		"oversold":         c.Oversold(row),
		"volume_confirmed": row.Volume > row.VolumeSMA,
		"as_of":            row.Time,
	}
	return sig
}

// Unavailable returns the placeholder signal for a ticker without usable data.
func (c *Classifier) Unavailable(symbol string) core.Signal {
	return core.Signal{
		Symbol:      symbol,
		Action:      core.ActionUnavailable,
		Reason:      Conclusion(core.ActionUnavailable),
		Strategy:    Name,
		GeneratedAt: c.now(),
	}
}
