package schedule

import (
	"time"

	"bollette/internal/core"
)

// DefaultDueSoonWindow is the due-soon threshold for views that have no
// obligation-specific reminder setting.
const DefaultDueSoonWindow = 7

// DaysUntilDue returns whole days from now's day to the due date, negative once overdue.
func DaysUntilDue(inst core.PaymentInstance, now time.Time) int {
	return core.DaysBetween(now, inst.DueDate.Time)
}

// Classify returns the displayed lifecycle of inst as of now. Paid and
// cancelled are returned unchanged; the other states are recomputed from the
// due date, with window days (inclusive) counting as due soon.
func Classify(inst core.PaymentInstance, now time.Time, window int) core.Lifecycle {
	if inst.Lifecycle.Terminal() {
		return inst.Lifecycle
	}
	if window < 0 {
		window = 0
	}
	days := DaysUntilDue(inst, now)
	switch {
	case days < 0:
		return core.Overdue
	case days <= window:
		return core.DueSoon
	default:
		return core.Upcoming
	}
}

// ClassifyDefault classifies with DefaultDueSoonWindow.
func ClassifyDefault(inst core.PaymentInstance, now time.Time) core.Lifecycle {
	return Classify(inst, now, DefaultDueSoonWindow)
}

// ClassifyPayment classifies with the obligation's own reminder window.
func ClassifyPayment(p core.ScheduledPayment, now time.Time) core.Lifecycle {
	return Classify(p.Instance, now, p.ReminderDaysBefore)
}

// IsOverdue reports whether inst is unpaid and its due day is before today.
func IsOverdue(inst core.PaymentInstance, now time.Time) bool {
	if inst.Lifecycle.Terminal() {
		return false
	}
	return DaysUntilDue(inst, now) < 0
}

// ShouldRemind reports whether a reminder may be sent for inst: it is open,
// no reminder went out yet and the due date is within reminderDaysBefore days.
// Overdue instances are alerted, never reminded.
func ShouldRemind(inst core.PaymentInstance, now time.Time, reminderDaysBefore int) bool {
	if inst.Lifecycle.Terminal() || inst.ReminderSent {
		return false
	}
	days := DaysUntilDue(inst, now)
	return days >= 0 && days <= reminderDaysBefore
}
