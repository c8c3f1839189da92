// Package scheduler runs periodic maintenance for the delivery log.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	defaultInterval = time.Hour
	pruneTimeout    = 30 * time.Second
)

// Pruner deletes delivery log entries older than a cutoff.
type Pruner interface {
	PruneBefore(ctx context.Context, t time.Time) (int64, error)
}

// Config holds the scheduler configuration.
type Config struct {
	Store     Pruner
	Retention time.Duration
	// Interval between prune runs. Defaults to one hour.
	Interval time.Duration
	Logger   *slog.Logger
	// Now is overridable in tests.
	Now func() time.Time
}

// Scheduler prunes the delivery log on a fixed interval using gocron.
type Scheduler struct {
	cron   gocron.Scheduler
	cfg    Config
	mu     sync.Mutex
	logger *slog.Logger
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("scheduler: store is required")
	}
	if cfg.Retention <= 0 {
		return nil, fmt.Errorf("scheduler: retention must be positive, got %s", cfg.Retention)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &Scheduler{cron: cron, cfg: cfg, logger: cfg.Logger}, nil
}

// Start schedules the prune job, runs it once immediately and starts gocron.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.cron.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
			defer cancel()
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Warn("delivery log prune failed", "error", err)
			}
		}),
		gocron.WithName("delivery-log-retention"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduling retention job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("retention scheduler started",
		"retention", s.cfg.Retention.String(), "interval", s.cfg.Interval.String())
	return nil
}

// Stop shuts down the gocron scheduler.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// RunOnce prunes entries older than the retention window.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.cfg.Now().Add(-s.cfg.Retention)
	n, err := s.cfg.Store.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n > 0 {
		s.logger.Info("pruned delivery log", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}
