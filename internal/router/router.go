package router

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/metrics"
	"github.com/newthinker/swingdesk/internal/notifier"
	"go.uber.org/zap"
)

// Config holds router configuration
type Config struct {
	MinStrength int
	Cooldown    time.Duration
	Actions     []core.Action
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		MinStrength: 50,
		Cooldown:    4 * time.Hour,
		Actions:     []core.Action{core.ActionStrongBuy, core.ActionBuy, core.ActionSell, core.ActionStrongSell},
	}
}

// Router routes signals to notifiers with filtering
type Router struct {
	cfg       Config
	registry  *notifier.Registry
	metrics   *metrics.Registry
	logger    *zap.Logger
	cooldowns map[string]time.Time // symbol -> last routed time
	now       func() time.Time
	mu        sync.RWMutex
}

// New creates a new signal router. registry may be nil.
func New(cfg Config, registry *notifier.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:       cfg,
		registry:  registry,
		logger:    logger,
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetMetrics reports delivery results per notifier.
func (r *Router) SetMetrics(m *metrics.Registry) {
	r.metrics = m
}

// Route sends a signal to every notifier when it passes the filters. It
// reports whether the signal was routed.
func (r *Router) Route(ctx context.Context, signal core.Signal) bool {
	if !r.accept(signal) {
		r.logger.Debug("signal filtered out",
			zap.String("symbol", signal.Symbol),
			zap.String("action", string(signal.Action)),
			zap.Int("strength", signal.Strength),
		)
		return false
	}
	if r.registry == nil {
		return true
	}

	results := r.registry.NotifyAll(ctx, signal)
	r.report(results)

	r.logger.Info("signal routed",
		zap.String("symbol", signal.Symbol),
		zap.String("action", string(signal.Action)),
		zap.Int("strength", signal.Strength),
		zap.Int("notifiers", len(results)),
	)
	return true
}

// RouteBatch filters signals and sends the survivors as one batch per
// notifier. It returns the number of signals routed.
func (r *Router) RouteBatch(ctx context.Context, signals []core.Signal) int {
	var filtered []core.Signal
	for _, signal := range signals {
		if r.accept(signal) {
			filtered = append(filtered, signal)
		}
	}

	if len(filtered) == 0 || r.registry == nil {
		return len(filtered)
	}

	results := r.registry.NotifyAllBatch(ctx, filtered)
	r.report(results)

	r.logger.Info("batch routed",
		zap.Int("total", len(signals)),
		zap.Int("routed", len(filtered)),
		zap.Int("notifiers", len(results)),
	)
	return len(filtered)
}

func (r *Router) report(results map[string]error) {
	for name, err := range results {
		status := "sent"
		if err != nil {
			status = "failed"
			r.logger.Error("notifier failed",
				zap.String("notifier", name),
				zap.Error(err),
			)
		}
		if r.metrics != nil {
			r.metrics.RecordSignalRouted(name, status)
		}
	}
}

// accept applies the filters and starts the symbol's cooldown on success.
func (r *Router) accept(signal core.Signal) bool {
	if !r.passesFilters(signal) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if last, ok := r.cooldowns[signal.Symbol]; ok && r.now().Sub(last) < r.cfg.Cooldown {
		return false
	}
	r.cooldowns[signal.Symbol] = r.now()
	return true
}

// passesFilters checks strength and action; the cooldown is checked in accept.
func (r *Router) passesFilters(signal core.Signal) bool {
	if math.Abs(float64(signal.Strength)) < float64(r.cfg.MinStrength) {
		return false
	}
	if len(r.cfg.Actions) > 0 && !slices.Contains(r.cfg.Actions, signal.Action) {
		return false
	}
	return true
}

// ClearCooldown removes cooldown for a specific symbol
func (r *Router) ClearCooldown(symbol string) {
	r.mu.Lock()
	delete(r.cooldowns, symbol)
	r.mu.Unlock()
}

// ClearAllCooldowns removes all cooldowns
func (r *Router) ClearAllCooldowns() {
	r.mu.Lock()
	r.cooldowns = make(map[string]time.Time)
	r.mu.Unlock()
}

// CleanupExpiredCooldowns removes cooldown entries older than 2x the cooldown duration.
func (r *Router) CleanupExpiredCooldowns() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	expiry := r.cfg.Cooldown * 2
	removed := 0

	for symbol, lastTime := range r.cooldowns {
		if now.Sub(lastTime) > expiry {
			delete(r.cooldowns, symbol)
			removed++
		}
	}

	return removed
}

// Stats returns router statistics
func (r *Router) Stats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notifiers := []string{}
	if r.registry != nil {
		notifiers = r.registry.Names()
	}
	return map[string]any{
		"cooldowns_active": len(r.cooldowns),
		"min_strength":     r.cfg.MinStrength,
		"cooldown_seconds": r.cfg.Cooldown.Seconds(),
		"actions":          r.cfg.Actions,
		"notifiers":        notifiers,
	}
}
