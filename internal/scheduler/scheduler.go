// Package scheduler runs the periodic watchlist refresh.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is the work run on every tick.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler wraps a cron runner with a single refresh job.
type Scheduler struct {
	cron    *cron.Cron
	target  Refresher
	timeout time.Duration
	logger  *zap.Logger
	ctx     context.Context
	enabled bool
	runs    atomic.Int64
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout bounds a single refresh run.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// New builds a scheduler for spec, a cron expression with a leading seconds
// field. An empty spec yields a disabled scheduler whose Start and Stop are
// no-ops.
func New(ctx context.Context, spec, timezone string, target Refresher, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		target:  target,
		timeout: 10 * time.Minute,
		logger:  zap.NewNop(),
		ctx:     ctx,
	}
	for _, opt := range opts {
		opt(s)
	}

	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("schedule timezone: %w", err))
		}
		loc = l
	}

	logger := cronLogger{s.logger.Sugar()}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if spec == "" {
		return s, nil
	}
	if _, err := s.cron.AddFunc(spec, s.RunNow); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("schedule %q: %w", spec, err))
	}
	s.enabled = true
	return s, nil
}

// Enabled reports whether a refresh job is registered.
func (s *Scheduler) Enabled() bool { return s.enabled }

// Runs is the number of refreshes started so far.
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

// Start starts the cron runner in the background.
func (s *Scheduler) Start() {
	if !s.enabled {
		s.logger.Info("scheduler disabled")
		return
	}
	s.cron.Start()
	next := s.cron.Entries()[0].Next
	s.logger.Info("scheduler started", zap.Time("next_run", next))
}

// Stop stops the runner and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	if !s.enabled {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow executes one refresh synchronously.
func (s *Scheduler) RunNow() {
	s.runs.Add(1)
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.target.Refresh(ctx); err != nil {
		s.logger.Warn("scheduled refresh finished with errors",
			zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	s.logger.Info("scheduled refresh complete", zap.Duration("duration", time.Since(start)))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
