// Package sweep periodically drops phone numbers that have been idle past the
// retention period.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cdr.dev/slog/v3"
	"github.com/coder/quartz"

	"smsgate/internal/metrics"
	"smsgate/internal/usage"
)

const (
	// DefaultRetention is how long a number may stay idle before removal.
	DefaultRetention = 30 * 24 * time.Hour
	// DefaultInterval is the time between sweeps.
	DefaultInterval = 24 * time.Hour
)

// Config wires dependencies for a Sweeper. Zero durations take the defaults.
type Config struct {
	Store     *usage.Store
	Clock     quartz.Clock
	Retention time.Duration
	Interval  time.Duration
	Logger    slog.Logger
	Metrics   *metrics.Metrics
}

// Sweeper removes idle numbers from a usage store.
type Sweeper struct {
	store     *usage.Store
	clock     quartz.Clock
	retention time.Duration
	interval  time.Duration
	logger    slog.Logger
	metrics   *metrics.Metrics
}

// Result summarizes one sweep.
type Result struct {
	Cutoff  time.Time
	Scanned int
	Removed int
}

// New validates cfg and returns a Sweeper.
func New(cfg Config) (*Sweeper, error) {
	if cfg.Store == nil {
		return nil, errors.New("sweep: usage store is required")
	}
	if cfg.Retention < 0 || cfg.Interval < 0 {
		return nil, fmt.Errorf("sweep: durations must not be negative (retention=%s interval=%s)", cfg.Retention, cfg.Interval)
	}
	s := &Sweeper{
		store:     cfg.Store,
		clock:     cfg.Clock,
		retention: cfg.Retention,
		interval:  cfg.Interval,
		logger:    cfg.Logger.Named("sweep"),
		metrics:   cfg.Metrics,
	}
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	if s.retention == 0 {
		s.retention = DefaultRetention
	}
	if s.interval == 0 {
		s.interval = DefaultInterval
	}
	return s, nil
}

// Run sweeps every interval until ctx is canceled. The first sweep happens
// one interval after Run starts.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info(ctx, "sweeper started",
		slog.F("interval", s.interval),
		slog.F("retention", s.retention),
	)
	err := s.clock.TickerFunc(ctx, s.interval, func() error {
		s.SweepOnce(ctx)
		return nil
	}, "sweep").Wait()
	if ctx.Err() != nil {
		s.logger.Info(ctx, "sweeper stopped")
		return nil
	}
	return err
}

// SweepOnce removes every number whose newest send is at or before
// now minus the retention period. Selection scans a snapshot so the store
// lock is held only for removal.
func (s *Sweeper) SweepOnce(ctx context.Context) Result {
	cutoff := s.clock.Now("sweep", "cutoff").Add(-s.retention)
	activity := s.store.LastActivity()

	idle := make([]string, 0)
	for number, last := range activity {
		if !last.After(cutoff) {
			idle = append(idle, number)
		}
	}
	removed := s.store.RemoveIdle(idle, cutoff)

	s.metrics.Sweep(removed)
	s.logger.Info(ctx, "sweep complete",
		slog.F("scanned", len(activity)),
		slog.F("removed", removed),
		slog.F("cutoff", cutoff),
	)
	return Result{Cutoff: cutoff, Scanned: len(activity), Removed: removed}
}
