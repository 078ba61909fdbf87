// internal/storage/signal/interface.go
package signal

import (
	"context"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
)

// Store defines the interface for signal persistence.
type Store interface {
	// Save persists a signal and returns its ID. An empty ID is assigned one.
	Save(ctx context.Context, signal core.Signal) (string, error)

	// GetByID retrieves a signal by its ID.
	GetByID(ctx context.Context, id string) (*core.Signal, error)

	// List retrieves signals matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]core.Signal, error)

	// Count returns the number of signals matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)

	// Prune deletes signals generated before the cutoff.
	Prune(ctx context.Context, before time.Time) (int, error)

	Close() error
}

// ListFilter defines criteria for listing signals.
type ListFilter struct {
	Symbol   string
	Strategy string
	Action   core.Action
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
