package indicator

import (
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
)

// Params configures the indicator windows.
type Params struct {
	LongWindow   int     `mapstructure:"long_window"`
	EMAWindow    int     `mapstructure:"ema_window"`
	RSIWindow    int     `mapstructure:"rsi_window"`
	MACDFast     int     `mapstructure:"macd_fast"`
	MACDSlow     int     `mapstructure:"macd_slow"`
	MACDSignal   int     `mapstructure:"macd_signal"`
	BBWindow     int     `mapstructure:"bb_window"`
	BBDeviations float64 `mapstructure:"bb_deviations"`
	VolumeWindow int     `mapstructure:"volume_window"`
}

// DefaultParams returns the standard swing-trading windows.
func DefaultParams() Params {
	return Params{
		LongWindow:   200,
		EMAWindow:    20,
		RSIWindow:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		BBWindow:     20,
		BBDeviations: 2,
		VolumeWindow: 20,
	}
}

// Validate checks that every window is usable.
func (p Params) Validate() error {
	windows := map[string]int{
		"long_window":   p.LongWindow,
		"ema_window":    p.EMAWindow,
		"rsi_window":    p.RSIWindow,
		"macd_fast":     p.MACDFast,
		"macd_slow":     p.MACDSlow,
		"macd_signal":   p.MACDSignal,
		"bb_window":     p.BBWindow,
		"volume_window": p.VolumeWindow,
	}
	for name, w := range windows {
		if w <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, w)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd_fast (%d) must be shorter than macd_slow (%d)", p.MACDFast, p.MACDSlow)
	}
	if p.BBDeviations <= 0 {
		return fmt.Errorf("bb_deviations must be positive, got %f", p.BBDeviations)
	}
	return nil
}

// Row is the indicator snapshot for one session. NaN marks an undefined value.
type Row struct {
	Time       time.Time  `json:"time"`
	Close      float64    `json:"close"`
	SMALong    float64    `json:"sma_long"`
	EMAShort   float64    `json:"ema_short"`
	RSI        float64    `json:"rsi"`
	MACDLine   float64    `json:"macd_line"`
	MACDSignal float64    `json:"macd_signal"`
	BBHigh     float64    `json:"bb_high"`
	BBLow      float64    `json:"bb_low"`
	Volume     float64    `json:"volume"`
	VolumeSMA  float64    `json:"volume_sma"`
	Trend      core.Trend `json:"trend"`
}

// Complete reports whether every numeric field is defined.
func (r Row) Complete() bool {
	for _, v := range []float64{
		r.Close, r.SMALong, r.EMAShort, r.RSI, r.MACDLine,
		r.MACDSignal, r.BBHigh, r.BBLow, r.Volume, r.VolumeSMA,
	} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Engine derives indicator rows from a price series.
type Engine struct {
	params Params
}

// NewEngine creates an engine with the given windows.
func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// Params returns the engine configuration.
func (e *Engine) Params() Params {
	return e.params
}

// Compute returns one row per session that has full history for every
// indicator. Fewer than LongWindow sessions yield an empty slice.
func (e *Engine) Compute(points []core.OHLCV) []Row {
	rows := []Row{}
	for row := range e.Rows(points) {
		rows = append(rows, row)
	}
	return rows
}

// Rows yields the same rows as Compute. The sequence can be ranged over
// any number of times.
func (e *Engine) Rows(points []core.OHLCV) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		n := len(points)
		if n == 0 || n < e.params.LongWindow {
			return
		}

		closes := make([]float64, n)
		volumes := make([]float64, n)
		for i, p := range points {
			closes[i] = p.Close
			volumes[i] = float64(p.Volume)
		}

		smaLong := SMA(closes, e.params.LongWindow)
		emaShort := EMA(closes, e.params.EMAWindow)
		rsi := RSI(closes, e.params.RSIWindow)
		macdLine, macdSignal := MACD(closes, e.params.MACDFast, e.params.MACDSlow, e.params.MACDSignal)
		bands := Bollinger(closes, e.params.BBWindow, e.params.BBDeviations)
		volumeSMA := SMA(volumes, e.params.VolumeWindow)

		for i := 0; i < n; i++ {
			row := Row{
				Time:       points[i].Time,
				Close:      closes[i],
				SMALong:    at(smaLong, n, i),
				EMAShort:   at(emaShort, n, i),
				RSI:        at(rsi, n, i),
				MACDLine:   at(macdLine, n, i),
				MACDSignal: at(macdSignal, n, i),
				BBHigh:     at(bands.Upper, n, i),
				BBLow:      at(bands.Lower, n, i),
				Volume:     volumes[i],
				VolumeSMA:  at(volumeSMA, n, i),
			}
			if !row.Complete() {
				continue
			}
			row.Trend = core.TrendDown
			if row.Close > row.SMALong {
				row.Trend = core.TrendUp
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Latest returns the most recent complete row.
func (e *Engine) Latest(points []core.OHLCV) (Row, bool) {
	rows := e.Compute(points)
	if len(rows) == 0 {
		return Row{}, false
	}
	return rows[len(rows)-1], true
}

// at maps input index i onto a series aligned to the end of the input.
func at(series []float64, total, i int) float64 {
	offset := total - len(series)
	if len(series) == 0 || i < offset {
		return math.NaN()
	}
	return series[i-offset]
}
