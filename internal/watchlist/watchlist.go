// Package watchlist keeps the user's ticker lists as CSV files: one ticker per
// row, header = field names, read whole and rewritten whole on every change.
package watchlist

import (
	"fmt"
	"slices"

	"github.com/newthinker/swingdesk/internal/core"
)

// Kind names one of the three watchlists.
type Kind string

const (
	KindSwing     Kind = "swing"
	KindDividend  Kind = "dividend"
	KindPortfolio Kind = "portfolio"
)

// Kinds lists every watchlist kind.
var Kinds = []Kind{KindSwing, KindDividend, KindPortfolio}

// File returns the CSV file name backing the list.
func (k Kind) File() string {
	switch k {
	case KindSwing:
		return "swing_watchlist.csv"
	case KindDividend:
		return "dividend_watchlist.csv"
	case KindPortfolio:
		return "lti_watchlist.csv"
	}
	return string(k) + "_watchlist.csv"
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if slices.Contains(Kinds, k) {
		return k, nil
	}
	return "", core.WrapError(core.ErrInvalidInput, fmt.Errorf("unknown watchlist %q", s))
}

// Entry is one row of a watchlist.
type Entry interface {
	Key() string
}

// List is an ordered set of entries keyed by ticker. Display order is
// insertion order. List is not safe for concurrent use.
type List[T Entry] struct {
	items []T
}

// NewList builds a list from entries, keeping the first of any duplicates.
func NewList[T Entry](entries ...T) *List[T] {
	l := &List[T]{items: make([]T, 0, len(entries))}
	for _, e := range entries {
		if l.index(e.Key()) < 0 {
			l.items = append(l.items, e)
		}
	}
	return l
}

func (l *List[T]) index(ticker string) int {
	return slices.IndexFunc(l.items, func(e T) bool { return e.Key() == ticker })
}

// Len returns the number of entries.
func (l *List[T]) Len() int { return len(l.items) }

// Items returns a copy of the entries in display order.
func (l *List[T]) Items() []T {
	return slices.Clone(l.items)
}

// Tickers returns the keys in display order.
func (l *List[T]) Tickers() []string {
	out := make([]string, len(l.items))
	for i, e := range l.items {
		out[i] = e.Key()
	}
	return out
}

// Get returns the entry for ticker.
func (l *List[T]) Get(ticker string) (T, bool) {
	if i := l.index(ticker); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Contains reports whether ticker is present.
func (l *List[T]) Contains(ticker string) bool {
	return l.index(ticker) >= 0
}

// Add appends e. A ticker already present is rejected and the list is unchanged.
func (l *List[T]) Add(e T) error {
	if l.Contains(e.Key()) {
		return core.WrapError(core.ErrDuplicateTicker, fmt.Errorf("%s is already in the watchlist", e.Key()))
	}
	l.items = append(l.items, e)
	return nil
}

// Remove deletes ticker.
func (l *List[T]) Remove(ticker string) error {
	i := l.index(ticker)
	if i < 0 {
		return core.WrapError(core.ErrTickerNotFound, fmt.Errorf("%s is not in the watchlist", ticker))
	}
	l.items = slices.Delete(l.items, i, i+1)
	return nil
}

// Update replaces the entry with the same key in place.
func (l *List[T]) Update(e T) error {
	i := l.index(e.Key())
	if i < 0 {
		return core.WrapError(core.ErrTickerNotFound, fmt.Errorf("%s is not in the watchlist", e.Key()))
	}
	l.items[i] = e
	return nil
}

// Insert puts e at position i, clamped to the list bounds.
func (l *List[T]) Insert(i int, e T) error {
	if l.Contains(e.Key()) {
		return core.WrapError(core.ErrDuplicateTicker, fmt.Errorf("%s is already in the watchlist", e.Key()))
	}
	i = max(0, min(i, len(l.items)))
	l.items = slices.Insert(l.items, i, e)
	return nil
}

// Merge updates the entries whose ticker is still present and returns how
// many were updated. Entries for tickers removed meanwhile are dropped.
func (l *List[T]) Merge(entries []T) int {
	n := 0
	for _, e := range entries {
		if i := l.index(e.Key()); i >= 0 {
			l.items[i] = e
			n++
		}
	}
	return n
}
