package collector

import (
	"context"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
)

// Config holds collector configuration
type Config struct {
	Enabled bool
	Timeout time.Duration
	Extra   map[string]any
}

// Collector defines the interface for price history sources
type Collector interface {
	// Metadata
	Name() string
	SupportedMarkets() []core.Market

	// Lifecycle
	Init(cfg Config) error

	// Data fetching. The returned series is chronological and may be empty.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.OHLCV, error)
}

// FundamentalCollector is implemented by sources that also serve company data.
type FundamentalCollector interface {
	Name() string
	FetchFundamental(ctx context.Context, symbol string) (*core.Fundamental, error)
}

// Source is a collector that serves both prices and fundamentals.
type Source interface {
	Collector
	FetchFundamental(ctx context.Context, symbol string) (*core.Fundamental, error)
}
