package signal

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/swingdesk/internal/core"
)

const defaultMemoryCapacity = 1000

// MemoryStore keeps the most recent signals in memory. It backs the desk
// when no signal database is configured and is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	signals  []core.Signal // insertion order
	capacity int
}

// NewMemoryStore creates a store that keeps at most capacity signals,
// dropping the earliest saved first.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{
		signals:  make([]core.Signal, 0, capacity),
		capacity: capacity,
	}
}

func (m *MemoryStore) Save(_ context.Context, signal core.Signal) (string, error) {
	if signal.ID == "" {
		signal.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, signal)
	if over := len(m.signals) - m.capacity; over > 0 {
		m.signals = slices.Delete(m.signals, 0, over)
	}
	return signal.ID, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := slices.IndexFunc(m.signals, func(s core.Signal) bool { return s.ID == id })
	if i < 0 {
		return nil, core.ErrNotFound
	}
	sig := m.signals[i]
	return &sig, nil
}

// List orders like the SQLite store: newest generated first, later saves
// first on ties.
func (m *MemoryStore) List(_ context.Context, filter ListFilter) ([]core.Signal, error) {
	m.mu.RLock()
	var out []core.Signal
	for _, sig := range slices.Backward(m.signals) {
		if matches(sig, filter) {
			out = append(out, sig)
		}
	}
	m.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b core.Signal) int {
		return b.GeneratedAt.Compare(a.GeneratedAt)
	})
	return page(out, filter.Offset, filter.Limit), nil
}

// page applies offset then limit; zero values mean unbounded.
func page(sigs []core.Signal, offset, limit int) []core.Signal {
	if offset >= len(sigs) {
		return []core.Signal{}
	}
	sigs = sigs[max(offset, 0):]
	if limit > 0 && limit < len(sigs) {
		sigs = sigs[:limit]
	}
	return sigs
}

func (m *MemoryStore) Count(_ context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, sig := range m.signals {
		if matches(sig, filter) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Prune(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.signals)
	m.signals = slices.DeleteFunc(m.signals, func(s core.Signal) bool {
		return s.GeneratedAt.Before(before)
	})
	return n - len(m.signals), nil
}

func (m *MemoryStore) Close() error { return nil }

func matches(sig core.Signal, f ListFilter) bool {
	switch {
	case f.Symbol != "" && sig.Symbol != f.Symbol:
		return false
	case f.Strategy != "" && sig.Strategy != f.Strategy:
		return false
	case f.Action != "" && sig.Action != f.Action:
		return false
	case !f.From.IsZero() && sig.GeneratedAt.Before(f.From):
		return false
	case !f.To.IsZero() && sig.GeneratedAt.After(f.To):
		return false
	}
	return true
}
