// Package budget derives a budget's current spending window and its health.
// Nothing here is stored: periods and snapshots are recomputed on every read.
package budget

import (
	"fmt"
	"time"

	"bollette/internal/core"
)

// Period is a half-open [Start, End) window of calendar days.
type Period struct {
	Start core.Date
	End   core.Date
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	day := core.TruncateDay(t)
	return !day.Before(p.Start.Time) && day.Before(p.End.Time)
}

// Days returns the length of the period in days.
func (p Period) Days() int {
	return core.DaysBetween(p.Start.Time, p.End.Time)
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s)", p.Start, p.End)
}

// CurrentPeriod returns the period of the given cadence, aligned on anchor,
// that contains now. Monthly and yearly periods start on the anchor's day
// (and month), clamped to the end of short months. Before the anchor the
// first period, starting at the anchor, is returned.
func CurrentPeriod(cadence core.BudgetCadence, anchor core.Date, now time.Time) (Period, error) {
	a := core.TruncateDay(anchor.Time)
	today := core.TruncateDay(now)

	var start time.Time
	switch cadence {
	case core.BudgetWeekly:
		start = a
		if !today.Before(a) {
			start = a.AddDate(0, 0, 7*(core.DaysBetween(a, today)/7))
		}
		return period(start, start.AddDate(0, 0, 7)), nil

	case core.BudgetMonthly:
		start = a
		if !today.Before(a) {
			start = core.ClampedDate(today.Year(), today.Month(), a.Day())
			if start.After(today) {
				start = core.ClampedDate(today.Year(), today.Month()-1, a.Day())
			}
		}
		return period(start, core.ClampedDate(start.Year(), start.Month()+1, a.Day())), nil

	case core.BudgetYearly:
		start = a
		if !today.Before(a) {
			start = core.ClampedDate(today.Year(), a.Month(), a.Day())
			if start.After(today) {
				start = core.ClampedDate(today.Year()-1, a.Month(), a.Day())
			}
		}
		return period(start, core.ClampedDate(start.Year()+1, a.Month(), a.Day())), nil
	}

	return Period{}, fmt.Errorf("%w: %s", core.ErrInvalidBudgetCadence, cadence)
}

// EffectivePeriod is the current period of b, cut short by the budget's own
// end date so aggregation never looks past its expiry.
func EffectivePeriod(b core.Budget, now time.Time) (Period, error) {
	p, err := CurrentPeriod(b.Cadence, b.StartDate, now)
	if err != nil {
		return Period{}, err
	}
	if !b.EndDate.IsZero() {
		end := core.TruncateDay(b.EndDate.Time)
		if end.Before(p.End.Time) {
			p.End = core.Date{Time: end}
		}
		if p.End.Before(p.Start.Time) {
			p.End = p.Start
		}
	}
	return p, nil
}

func period(start, end time.Time) Period {
	return Period{Start: core.Date{Time: start}, End: core.Date{Time: end}}
}
