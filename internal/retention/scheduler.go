package retention

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"resume-portal/internal/shared/metrics"
	"resume-portal/internal/shared/telemetry"
)

const (
	DefaultSpec      = "0 2 * * *"
	DefaultDays      = 180
	DefaultPruneSpec = "@every 1h"
	sweepTimeout     = 10 * time.Minute
)

// Sweeper deletes resumes older than the retention window.
type Sweeper interface {
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// Pruner drops idle download sessions.
type Pruner interface {
	Prune() int
}

type Config struct {
	Spec      string
	Days      int
	PruneSpec string
}

// Scheduler runs the retention sweep and the download-session prune on cron
// schedules evaluated in UTC.
type Scheduler struct {
	cfg     Config
	sweeper Sweeper
	pruner  Pruner
	cron    *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewScheduler validates the schedules and registers both jobs. A nil pruner
// skips the prune job.
func NewScheduler(cfg Config, sweeper Sweeper, pruner Pruner) (*Scheduler, error) {
	if sweeper == nil {
		return nil, errors.New("retention sweeper is required")
	}
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if cfg.PruneSpec == "" {
		cfg.PruneSpec = DefaultPruneSpec
	}
	if cfg.Days <= 0 {
		cfg.Days = DefaultDays
	}

	s := &Scheduler{
		cfg:     cfg,
		sweeper: sweeper,
		pruner:  pruner,
		cron:    cron.New(cron.WithLocation(time.UTC)),
	}
	if _, err := s.cron.AddFunc(cfg.Spec, s.runScheduled); err != nil {
		return nil, fmt.Errorf("retention schedule %q: %w", cfg.Spec, err)
	}
	if pruner != nil {
		if _, err := s.cron.AddFunc(cfg.PruneSpec, s.prune); err != nil {
			return nil, fmt.Errorf("prune schedule %q: %w", cfg.PruneSpec, err)
		}
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	telemetry.Info("retention scheduler started", map[string]any{
		"schedule": s.cfg.Spec,
		"days":     s.cfg.Days,
		"prune":    s.cfg.PruneSpec,
	})
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce performs a single sweep and returns how many resumes were deleted.
// A sweep already in progress makes it return zero without deleting.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		telemetry.Warn("retention sweep skipped", map[string]any{"reason": "already running"})
		return 0, nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	started := time.Now()
	deleted, err := s.sweeper.DeleteOlderThan(ctx, s.cfg.Days)
	if err != nil {
		telemetry.Error("retention sweep failed", map[string]any{"days": s.cfg.Days, "error": err.Error()})
		return 0, err
	}
	metrics.RetentionDeleted.Add(float64(deleted))
	telemetry.Info("retention sweep complete", map[string]any{
		"days":        s.cfg.Days,
		"deleted":     deleted,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return deleted, nil
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	_, _ = s.RunOnce(ctx)
}

func (s *Scheduler) prune() {
	if n := s.pruner.Prune(); n > 0 {
		telemetry.Info("download sessions pruned", map[string]any{"pruned": n})
	}
}
