// Package dividend builds the upcoming dividend calendar for the dividend
// watchlist from provider fundamentals.
package dividend

import (
	"context"
	"time"

	"github.com/newthinker/swingdesk/internal/collector"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/watchlist"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

const (
	NoExDate  = "No upcoming ex-date"
	NoPayDate = "No upcoming pay date"

	dateLayout = "2006-01-02"
)

// Info converts fundamentals into a dividend watchlist row.
func Info(ticker string, f *core.Fundamental) watchlist.DividendEntry {
	e := watchlist.DividendEntry{
		Ticker:         ticker,
		Company:        ticker,
		ExDividendDate: NoExDate,
		PayDate:        NoPayDate,
	}
	if f == nil {
		return e
	}
	if name := f.CompanyName(); name != "" {
		e.Company = name
	}
	if d := formatDate(f.ExDividendDate); d != "" {
		e.ExDividendDate = d
	}
	if d := formatDate(f.DividendDate); d != "" {
		e.PayDate = d
	}
	return e
}

// formatDate renders timestamps after the epoch as a UTC calendar date.
func formatDate(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// Service fetches dividend rows.
type Service struct {
	source      collector.FundamentalCollector
	concurrency int
	logger      *zap.Logger
}

// NewService creates a service. concurrency <= 0 means one fetch at a time.
func NewService(source collector.FundamentalCollector, concurrency int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{source: source, concurrency: concurrency, logger: logger}
}

// Fetch returns the current row for one ticker.
func (s *Service) Fetch(ctx context.Context, ticker string) (watchlist.DividendEntry, error) {
	f, err := s.source.FetchFundamental(ctx, ticker)
	if err != nil {
		return watchlist.DividendEntry{}, err
	}
	return Info(ticker, f), nil
}

// Refresh re-fetches every entry, preserving order. An entry whose fetch
// fails keeps its previous values.
func (s *Service) Refresh(ctx context.Context, entries []watchlist.DividendEntry) []watchlist.DividendEntry {
	mapper := iter.Mapper[watchlist.DividendEntry, watchlist.DividendEntry]{MaxGoroutines: s.concurrency}
	return mapper.Map(entries, func(old *watchlist.DividendEntry) watchlist.DividendEntry {
		fresh, err := s.Fetch(ctx, old.Ticker)
		if err != nil {
			s.logger.Warn("dividend refresh failed",
				zap.String("ticker", old.Ticker),
				zap.Error(err),
			)
			return *old
		}
		return fresh
	})
}
