package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bollette/internal/core"
	applog "bollette/internal/log"
	"bollette/internal/schedule"
)

// Summary counts what one Notifier.Run emitted.
type Summary struct {
	Open      int
	Reminders int
	Alerts    int
}

// Notifier turns open payments into reminder and overdue events, at most
// one per instance and event type every 24 hours.
type Notifier struct {
	instances InstanceStore
	events    EventLog
	insights  InsightWriter
	publisher Publisher
}

// NewNotifier builds a Notifier. insights and publisher may be nil; events
// are then only returned to the caller.
func NewNotifier(instances InstanceStore, events EventLog, insights InsightWriter, publisher Publisher) *Notifier {
	return &Notifier{
		instances: instances,
		events:    events,
		insights:  insights,
		publisher: publisher,
	}
}

// GenerateReminders emits a reminder for each payment inside its reminder
// window that was never reminded. Dispatch flags the instance as reminded
// once the reminder is delivered, so it is sent once however many days
// remain in the window.
func (n *Notifier) GenerateReminders(ctx context.Context, payments []core.ScheduledPayment, now time.Time) ([]core.ReminderEvent, error) {
	var (
		out  []core.ReminderEvent
		errs []error
	)
	for _, p := range payments {
		if !schedule.ShouldRemind(p.Instance, now, p.ReminderDaysBefore) {
			continue
		}
		recorded, err := n.events.Record(ctx, p.Instance.ID, core.EventReminder, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to record reminder", instanceFields(p.Instance, err)...)
			errs = append(errs, fmt.Errorf("record reminder for instance %d: %w", p.Instance.ID, err))
			continue
		}
		if !recorded {
			continue
		}

		out = append(out, core.ReminderEvent{
			ID:             uuid.NewString(),
			InstanceID:     p.Instance.ID,
			ObligationID:   p.Instance.ObligationID,
			ObligationName: p.ObligationName,
			UserID:         p.UserID,
			Amount:         p.Instance.Amount,
			DueDate:        p.Instance.DueDate,
			DaysUntilDue:   schedule.DaysUntilDue(p.Instance, now),
			CreatedAt:      now,
		})
	}
	return out, errors.Join(errs...)
}

// GenerateOverdueAlerts emits an alert for each overdue payment. Alerts are
// not single-shot: they fire again once the 24 hour window has passed.
func (n *Notifier) GenerateOverdueAlerts(ctx context.Context, payments []core.ScheduledPayment, now time.Time) ([]core.AlertEvent, error) {
	var (
		out  []core.AlertEvent
		errs []error
	)
	for _, p := range payments {
		if !schedule.IsOverdue(p.Instance, now) {
			continue
		}
		recorded, err := n.events.Record(ctx, p.Instance.ID, core.EventOverdue, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to record overdue alert", instanceFields(p.Instance, err)...)
			errs = append(errs, fmt.Errorf("record alert for instance %d: %w", p.Instance.ID, err))
			continue
		}
		if !recorded {
			continue
		}

		out = append(out, core.AlertEvent{
			ID:             uuid.NewString(),
			InstanceID:     p.Instance.ID,
			ObligationID:   p.Instance.ObligationID,
			ObligationName: p.ObligationName,
			UserID:         p.UserID,
			Amount:         p.Instance.Amount,
			DueDate:        p.Instance.DueDate,
			DaysOverdue:    -schedule.DaysUntilDue(p.Instance, now),
			CreatedAt:      now,
		})
	}
	return out, errors.Join(errs...)
}

// Dispatch persists each event as an insight and publishes it. Publish
// failures are logged; the insight is already stored. A reminder whose
// insight cannot be saved leaves its instance unflagged and is emitted
// again once the dedup window has passed.
func (n *Notifier) Dispatch(ctx context.Context, reminders []core.ReminderEvent, alerts []core.AlertEvent) error {
	var errs []error
	deliver := func(in core.Insight) bool {
		if n.insights != nil {
			if err := n.insights.SaveInsight(ctx, in); err != nil {
				slog.ErrorContext(ctx, "Failed to save insight", "insight_id", in.ID, applog.FieldError, err)
				errs = append(errs, err)
				return false
			}
		}
		if n.publisher != nil {
			if err := n.publisher.PublishInsight(ctx, in); err != nil {
				slog.WarnContext(ctx, "Failed to publish insight", "insight_id", in.ID, applog.FieldEventType, in.Type, applog.FieldError, err)
			}
		}
		return true
	}

	for _, ev := range reminders {
		if !deliver(ReminderInsight(ev)) {
			continue
		}
		if err := n.instances.MarkReminderSent(ctx, ev.InstanceID, ev.CreatedAt); err != nil {
			slog.ErrorContext(ctx, "Failed to flag reminder as sent", applog.FieldInstanceID, ev.InstanceID, applog.FieldError, err)
			errs = append(errs, fmt.Errorf("mark reminder sent for instance %d: %w", ev.InstanceID, err))
		}
	}
	for _, ev := range alerts {
		deliver(AlertInsight(ev))
	}
	return errors.Join(errs...)
}

// Run loads the open payments, generates reminders and alerts as of now and
// dispatches them.
func (n *Notifier) Run(ctx context.Context, now time.Time) (Summary, error) {
	payments, err := n.instances.ListOpenPayments(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list open payments: %w", err)
	}

	reminders, remErr := n.GenerateReminders(ctx, payments, now)
	alerts, alertErr := n.GenerateOverdueAlerts(ctx, payments, now)
	dispatchErr := n.Dispatch(ctx, reminders, alerts)

	summary := Summary{Open: len(payments), Reminders: len(reminders), Alerts: len(alerts)}
	slog.InfoContext(ctx, "Notification pass complete",
		applog.FieldOperation, applog.OpNotify,
		"open", summary.Open,
		"reminders", summary.Reminders,
		"alerts", summary.Alerts)
	return summary, errors.Join(remErr, alertErr, dispatchErr)
}

func instanceFields(inst core.PaymentInstance, err error) []any {
	return applog.NewFields().
		WithOperation(applog.OpNotify).
		WithInstance(inst.ObligationID, inst.ID, inst.DueDate.String()).
		WithError(err).
		ToSlice()
}

func ReminderInsight(ev core.ReminderEvent) core.Insight {
	title := fmt.Sprintf("%s due in %d days", ev.ObligationName, ev.DaysUntilDue)
	switch ev.DaysUntilDue {
	case 0:
		title = ev.ObligationName + " due today"
	case 1:
		title = ev.ObligationName + " due tomorrow"
	}
	return core.Insight{
		ID:          ev.ID,
		UserID:      ev.UserID,
		Type:        core.EventReminder,
		Title:       title,
		Description: fmt.Sprintf("%s of %s is due on %s.", ev.Amount, ev.ObligationName, ev.DueDate),
		StructuredData: map[string]any{
			"instance_id":    ev.InstanceID,
			"obligation_id":  ev.ObligationID,
			"amount_cents":   ev.Amount.Cents,
			"due_date":       ev.DueDate.String(),
			"days_until_due": ev.DaysUntilDue,
		},
		CreatedAt: ev.CreatedAt,
	}
}

func AlertInsight(ev core.AlertEvent) core.Insight {
	title := fmt.Sprintf("%s overdue by %d days", ev.ObligationName, ev.DaysOverdue)
	if ev.DaysOverdue == 1 {
		title = ev.ObligationName + " overdue by 1 day"
	}
	return core.Insight{
		ID:          ev.ID,
		UserID:      ev.UserID,
		Type:        core.EventOverdue,
		Title:       title,
		Description: fmt.Sprintf("%s of %s was due on %s and is still unpaid.", ev.Amount, ev.ObligationName, ev.DueDate),
		StructuredData: map[string]any{
			"instance_id":   ev.InstanceID,
			"obligation_id": ev.ObligationID,
			"amount_cents":  ev.Amount.Cents,
			"due_date":      ev.DueDate.String(),
			"days_overdue":  ev.DaysOverdue,
		},
		CreatedAt: ev.CreatedAt,
	}
}
