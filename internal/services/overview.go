package services

import (
	"context"
	"fmt"
	"time"

	"bollette/internal/core"
	"bollette/internal/schedule"
)

// ObligationSummary is the dashboard view of one obligation.
type ObligationSummary struct {
	Obligation core.Obligation
	NextDue    core.Date // zero when the schedule is exhausted
	NextStatus core.Lifecycle
	Open       int
	Overdue    int
}

// Overview summarizes every active obligation as of now. The next due date
// comes from the earliest open instance not yet overdue, or from the rule
// when none is stored.
func Overview(ctx context.Context, obligations ObligationStore, instances InstanceStore, now time.Time) ([]ObligationSummary, error) {
	active, err := obligations.ListActiveObligations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active obligations: %w", err)
	}

	out := make([]ObligationSummary, 0, len(active))
	for _, o := range active {
		list, err := instances.ListInstances(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("list instances of obligation %d: %w", o.ID, err)
		}

		sum := ObligationSummary{Obligation: o}
		var next *core.PaymentInstance
		for i := range list {
			inst := list[i]
			if inst.Lifecycle.Terminal() {
				continue
			}
			sum.Open++
			if schedule.IsOverdue(inst, now) {
				sum.Overdue++
				continue
			}
			if next == nil || inst.DueDate.Before(next.DueDate.Time) {
				next = &list[i]
			}
		}

		switch {
		case next != nil:
			sum.NextDue = next.DueDate
			sum.NextStatus = schedule.Classify(*next, now, o.ReminderDaysBefore)
		default:
			if d, ok := schedule.NextOccurrence(o.Rule, now); ok {
				sum.NextDue = d
				sum.NextStatus = schedule.Classify(core.PaymentInstance{DueDate: d}, now, o.ReminderDaysBefore)
			}
		}
		out = append(out, sum)
	}
	return out, nil
}
