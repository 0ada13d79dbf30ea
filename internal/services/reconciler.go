package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bollette/internal/core"
	applog "bollette/internal/log"
	"bollette/internal/schedule"
)

// ReconcilerConfig holds the tunables of a Reconciler.
type ReconcilerConfig struct {
	// HorizonSize is how many future occurrences are kept materialized (default: 6)
	HorizonSize int

	// Concurrency bounds how many obligations ReconcileAll handles at once (default: 4)
	Concurrency int
}

func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		HorizonSize: schedule.DefaultHorizon,
		Concurrency: 4,
	}
}

// Report summarizes a ReconcileAll pass.
type Report struct {
	Obligations int
	Created     int
	Failed      int
}

// Reconciler keeps the persisted payment instances of each obligation in
// line with its recurrence rule.
type Reconciler struct {
	obligations ObligationStore
	instances   InstanceStore
	config      ReconcilerConfig

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewReconciler(obligations ObligationStore, instances InstanceStore, config ReconcilerConfig) *Reconciler {
	if config.HorizonSize <= 0 {
		config.HorizonSize = schedule.DefaultHorizon
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Reconciler{
		obligations: obligations,
		instances:   instances,
		config:      config,
		locks:       make(map[int64]*sync.Mutex),
	}
}

// lock serializes work on a single obligation inside this process.
func (r *Reconciler) lock(obligationID int64) func() {
	r.mu.Lock()
	l, ok := r.locks[obligationID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[obligationID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Reconcile creates the horizon instances of o that are not stored yet and
// returns how many were created. Running it again without elapsed time or a
// schedule change creates nothing.
func (r *Reconciler) Reconcile(ctx context.Context, o core.Obligation, now time.Time) (int, error) {
	unlock := r.lock(o.ID)
	defer unlock()
	return r.reconcile(ctx, o, now)
}

func (r *Reconciler) reconcile(ctx context.Context, o core.Obligation, now time.Time) (int, error) {
	if !o.IsActive {
		return 0, nil
	}

	existing, err := r.instances.ListInstances(ctx, o.ID)
	if err != nil {
		return 0, fmt.Errorf("list instances of obligation %d: %w", o.ID, err)
	}
	if o.Rule.Cadence == core.OneTime && len(existing) > 0 {
		return 0, nil
	}

	stored := make(map[string]struct{}, len(existing))
	for _, inst := range existing {
		stored[inst.DueDate.String()] = struct{}{}
	}

	created := 0
	for _, occ := range schedule.GenerateHorizon(o.Rule, o.Amount, r.config.HorizonSize, now) {
		if _, ok := stored[occ.DueDate.String()]; ok {
			continue
		}
		ok, err := r.instances.CreateInstance(ctx, core.PaymentInstance{
			ObligationID: o.ID,
			DueDate:      occ.DueDate,
			Amount:       occ.Amount,
			Lifecycle:    core.Upcoming,
		})
		if err != nil {
			return created, fmt.Errorf("create instance of obligation %d on %s: %w", o.ID, occ.DueDate, err)
		}
		if ok {
			created++
		}
	}

	if created > 0 {
		slog.InfoContext(ctx, "Payment instances created",
			applog.FieldObligationID, o.ID,
			"name", o.Name,
			"created", created)
	}
	return created, nil
}

// Reschedule discards the open instances of o due today or later and
// regenerates the horizon from the current rule. Paid, cancelled and past
// instances are left alone.
func (r *Reconciler) Reschedule(ctx context.Context, o core.Obligation, now time.Time) (deleted, created int, err error) {
	unlock := r.lock(o.ID)
	defer unlock()

	deleted, err = r.instances.DeleteOpenInstancesFrom(ctx, o.ID, core.Today(now))
	if err != nil {
		return 0, 0, fmt.Errorf("discard open instances of obligation %d: %w", o.ID, err)
	}
	created, err = r.reconcile(ctx, o, now)
	if err != nil {
		return deleted, created, err
	}

	slog.InfoContext(ctx, "Obligation rescheduled",
		applog.FieldObligationID, o.ID,
		"deleted", deleted,
		"created", created)
	return deleted, created, nil
}

// UpdateObligation stores updated and reschedules it when a
// schedule-affecting field differs from old.
func (r *Reconciler) UpdateObligation(ctx context.Context, old, updated core.Obligation, now time.Time) error {
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("invalid obligation: %w", err)
	}
	updated.ID = old.ID
	if _, err := r.obligations.SaveObligation(ctx, updated); err != nil {
		return fmt.Errorf("save obligation %d: %w", updated.ID, err)
	}

	if !core.ScheduleChanged(old, updated) && old.IsActive == updated.IsActive {
		return nil
	}
	if _, _, err := r.Reschedule(ctx, updated, now); err != nil {
		return err
	}
	return nil
}

// ReconcileAll reconciles every active obligation. Failures of single
// obligations are logged and counted in the report.
func (r *Reconciler) ReconcileAll(ctx context.Context, now time.Time) (Report, error) {
	active, err := r.obligations.ListActiveObligations(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list active obligations: %w", err)
	}

	slog.InfoContext(ctx, "Reconciling obligations",
		"total_active", len(active),
		"processing_date", core.Today(now).String())

	var (
		mu     sync.Mutex
		report = Report{Obligations: len(active)}
		g      errgroup.Group
	)
	g.SetLimit(r.config.Concurrency)

	for _, o := range active {
		o := o
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n, err := r.Reconcile(ctx, o, now)

			mu.Lock()
			defer mu.Unlock()
			report.Created += n
			if err != nil {
				report.Failed++
				slog.ErrorContext(ctx, "Failed to reconcile obligation",
					applog.FieldOperation, applog.OpReconcile,
					applog.FieldObligationID, o.ID,
					applog.FieldError, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	slog.InfoContext(ctx, "Reconciliation complete",
		"created", report.Created,
		"failed", report.Failed,
		"total_checked", report.Obligations)
	return report, nil
}
