package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	applog "bollette/internal/log"
)

// SchedulerConfig holds configuration for the periodic scheduler
type SchedulerConfig struct {
	// Interval is how often reconciliation and notification run (default: 1h)
	Interval time.Duration

	// CleanupInterval is how often the cleanup hook runs (default: 10m)
	CleanupInterval time.Duration
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:        time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// Scheduler runs a reconciliation pass followed by a notification pass on a
// fixed interval, starting with one pass immediately.
type Scheduler struct {
	reconciler *Reconciler
	notifier   *Notifier
	config     SchedulerConfig
	now        func() time.Time
	cleanup    func()

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a scheduler. notifier may be nil to only reconcile.
func NewScheduler(reconciler *Reconciler, notifier *Notifier, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultSchedulerConfig().CleanupInterval
	}
	return &Scheduler{
		reconciler: reconciler,
		notifier:   notifier,
		config:     config,
		now:        time.Now,
	}
}

// WithClock replaces the time source passed to each pass.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// OnCleanup registers a hook run every CleanupInterval, e.g. a cache sweep.
func (s *Scheduler) OnCleanup(fn func()) *Scheduler {
	s.cleanup = fn
	return s
}

// Start begins the processing loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	s.stopCh, s.doneCh = stopCh, doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Scheduler started", "interval", s.config.Interval)
	return nil
}

// Stop signals the loop to exit and waits for the pass in flight. After a
// timeout the loop still exits once that pass ends, and Stop may be called
// again to wait for it.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh = nil
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(doneCh)
	}()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(s.config.CleanupInterval)
	defer cleanupTicker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-cleanupTicker.C:
			if s.cleanup != nil {
				s.cleanup()
			}
		}
	}
}

// RunOnce performs one reconciliation and notification pass as of the
// scheduler's clock. Errors are logged; the next pass retries.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, Summary) {
	now := s.now()
	start := time.Now()

	report, err := s.reconciler.ReconcileAll(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "Reconciliation pass failed", applog.FieldOperation, applog.OpReconcile, applog.FieldError, err)
	}

	var summary Summary
	if s.notifier != nil {
		summary, err = s.notifier.Run(ctx, now)
		if err != nil {
			slog.ErrorContext(ctx, "Notification pass failed", applog.FieldOperation, applog.OpNotify, applog.FieldError, err)
		}
	}

	fields := applog.NewFields().WithDuration(time.Since(start).Milliseconds())
	slog.InfoContext(ctx, "Scheduler pass complete", append(fields.ToSlice(),
		"instances_created", report.Created,
		"reminders", summary.Reminders,
		"alerts", summary.Alerts,
		"next_check", now.Add(s.config.Interval).Format("15:04:05"))...)
	return report, summary
}
