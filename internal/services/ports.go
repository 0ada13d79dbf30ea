package services

import (
	"context"
	"time"

	"bollette/internal/core"
)

// Ports for the storage and messaging adapters the engine runs against.
type (
	ObligationStore interface {
		// SaveObligation inserts o when o.ID is zero, otherwise updates it.
		SaveObligation(ctx context.Context, o core.Obligation) (int64, error)
		GetObligation(ctx context.Context, id int64) (core.Obligation, error)
		ListActiveObligations(ctx context.Context) ([]core.Obligation, error)
		// DeleteObligation removes the obligation and, by cascade, its instances.
		DeleteObligation(ctx context.Context, id int64) error
	}

	InstanceStore interface {
		ListInstances(ctx context.Context, obligationID int64) ([]core.PaymentInstance, error)
		// CreateInstance reports created=false, without error, when an instance
		// for the same obligation and due day already exists.
		CreateInstance(ctx context.Context, inst core.PaymentInstance) (created bool, err error)
		// DeleteOpenInstancesFrom removes upcoming and due-soon instances due on or after from.
		DeleteOpenInstancesFrom(ctx context.Context, obligationID int64, from core.Date) (int, error)
		// ListOpenPayments returns every instance that is neither paid nor cancelled.
		ListOpenPayments(ctx context.Context) ([]core.ScheduledPayment, error)
		MarkReminderSent(ctx context.Context, instanceID int64, at time.Time) error
		MarkPaid(ctx context.Context, instanceID int64, paidDate core.Date) error
		MarkCancelled(ctx context.Context, instanceID int64) error
	}

	// EventLog deduplicates notifications. Record stores the event and returns
	// true unless one of the same type was recorded for the instance in the
	// 24 hours before at.
	EventLog interface {
		Record(ctx context.Context, instanceID int64, eventType core.EventType, at time.Time) (bool, error)
	}

	InsightWriter interface {
		SaveInsight(ctx context.Context, in core.Insight) error
	}

	BudgetStore interface {
		// ListBudgets returns the budgets of userID, or all budgets when userID is empty.
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	}

	// ExpenseAggregator sums a user's expenses in a category over [start, end).
	ExpenseAggregator interface {
		SumExpenses(ctx context.Context, userID, categoryID string, start, end core.Date) (core.Money, error)
	}

	Publisher interface {
		PublishInsight(ctx context.Context, in core.Insight) error
	}
)

// DedupWindow is how long an emitted event suppresses another of the same type.
const DedupWindow = 24 * time.Hour
