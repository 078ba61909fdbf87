package collector

import (
	"context"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
)

// HistoryOnly adapts a price collector that has no fundamentals feed into a
// Source. Fundamentals come back with only the symbol set.
type HistoryOnly struct {
	Collector
}

func (h HistoryOnly) FetchFundamental(_ context.Context, symbol string) (*core.Fundamental, error) {
	return &core.Fundamental{Symbol: symbol, FetchedAt: time.Now()}, nil
}

// AsSource returns c as a Source, wrapping it when it lacks fundamentals.
func AsSource(c Collector) Source {
	if s, ok := c.(Source); ok {
		return s
	}
	return HistoryOnly{Collector: c}
}
