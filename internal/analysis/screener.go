package analysis

import (
	"context"
	"math"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/indicator"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// ScreenerConfig configures the top-N screener.
type ScreenerConfig struct {
	Universe     []string
	Size         int
	MinVolume    float64
	LookbackDays int
	BBWindow     int
	BBDeviations float64
}

// Screener picks liquid, volatile tickers from a fixed universe and analyzes
// them.
type Screener struct {
	analyzer *Analyzer
	cfg      ScreenerConfig
	logger   *zap.Logger
}

// NewScreener creates a screener on top of an analyzer.
func NewScreener(a *Analyzer, cfg ScreenerConfig) *Screener {
	if cfg.Size <= 0 {
		cfg.Size = 25
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	if cfg.BBWindow <= 0 {
		cfg.BBWindow = 20
	}
	if cfg.BBDeviations <= 0 {
		cfg.BBDeviations = 2
	}
	return &Screener{analyzer: a, cfg: cfg, logger: a.logger.Named("screener")}
}

// Qualifies reports whether a short price window is liquid and volatile
// enough: mean volume above minVolume and mean band width times the close
// deviation above the close deviation.
func Qualifies(points []core.OHLCV, minVolume float64, window int, k float64) bool {
	if len(points) == 0 {
		return false
	}
	closes := make([]float64, len(points))
	var volume float64
	for i, p := range points {
		closes[i] = p.Close
		volume += float64(p.Volume)
	}
	if volume/float64(len(points)) <= minVolume {
		return false
	}

	widths := indicator.BandWidth(closes, window, k)
	if len(widths) == 0 {
		return false
	}
	sigma := sampleStdDev(closes)
	if math.IsNaN(sigma) {
		return false
	}
	return mean(widths)*sigma > sigma
}

// Select returns the first Size qualifying tickers of the universe, or the
// first Size tickers of the universe when fewer qualify.
func (s *Screener) Select(ctx context.Context) []string {
	end := s.analyzer.now()
	start := end.AddDate(0, 0, -s.cfg.LookbackDays)

	mapper := iter.Mapper[string, bool]{MaxGoroutines: s.analyzer.concurrency}
	ok := mapper.Map(s.cfg.Universe, func(t *string) bool {
		points, err := s.analyzer.source.FetchHistory(ctx, *t, start, end)
		if err != nil {
			s.logger.Debug("screen fetch failed", zap.String("ticker", *t), zap.Error(err))
			return false
		}
		return Qualifies(points, s.cfg.MinVolume, s.cfg.BBWindow, s.cfg.BBDeviations)
	})

	selected := make([]string, 0, s.cfg.Size)
	for i, t := range s.cfg.Universe {
		if ok[i] {
			selected = append(selected, t)
		}
		if len(selected) == s.cfg.Size {
			return selected
		}
	}

	s.logger.Info("not enough tickers qualified, using universe head",
		zap.Int("qualified", len(selected)),
		zap.Int("size", s.cfg.Size),
	)
	n := min(s.cfg.Size, len(s.cfg.Universe))
	return append([]string(nil), s.cfg.Universe[:n]...)
}

// Run selects and analyzes the top tickers. Tickers whose pipeline failed are
// left out.
func (s *Screener) Run(ctx context.Context) []Snapshot {
	started := time.Now()
	tickers := s.Select(ctx)
	snaps := s.analyzer.AnalyzeAll(ctx, tickers)

	out := make([]Snapshot, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Failed() {
			continue
		}
		out = append(out, snap)
	}
	if s.analyzer.metrics != nil {
		s.analyzer.metrics.RecordAnalysis("screen", time.Since(started).Seconds())
	}
	s.logger.Info("screen complete",
		zap.Int("selected", len(tickers)),
		zap.Int("analyzed", len(out)),
	)
	return out
}
