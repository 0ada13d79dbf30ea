// Package schedule computes when obligations fall due.
//
// This file implements the Strategy Pattern for next-occurrence evaluation.
// Each cadence has its own strategy encapsulating how occurrences are spaced;
// NextOccurrence applies the rules shared by all of them (day granularity,
// anchor and end-date bounds).
package schedule

import (
	"fmt"
	"time"

	"bollette/internal/core"
)

// maxIterations bounds every stepping loop so a malformed rule cannot spin forever.
const maxIterations = 10000

// OccurrenceStrategy computes the first occurrence on or after from.
// Both anchor and from are day-truncated and from is never before anchor.
type OccurrenceStrategy interface {
	Next(anchor time.Time, rule core.RecurrenceRule, from time.Time) (time.Time, bool)
}

// OneTimeStrategy implements OccurrenceStrategy for one-off obligations.
type OneTimeStrategy struct{}

// Next returns the anchor while it has not passed.
func (OneTimeStrategy) Next(anchor time.Time, _ core.RecurrenceRule, from time.Time) (time.Time, bool) {
	if anchor.Before(from) {
		return time.Time{}, false
	}
	return anchor, true
}

// DayStepStrategy steps a fixed number of days from the anchor.
type DayStepStrategy struct {
	Days int
}

// Next adds Days to the anchor until the candidate is not before from.
func (s DayStepStrategy) Next(anchor time.Time, _ core.RecurrenceRule, from time.Time) (time.Time, bool) {
	if s.Days <= 0 {
		return time.Time{}, false
	}
	candidate := anchor
	for i := 0; i < maxIterations; i++ {
		if !candidate.Before(from) {
			return candidate, true
		}
		candidate = candidate.AddDate(0, 0, s.Days)
	}
	return time.Time{}, false
}

// MonthStepStrategy steps a fixed number of months from the anchor.
// Every candidate is derived from the anchor itself, so an anchor on the 31st
// lands on the last day of short months without drifting afterwards.
type MonthStepStrategy struct {
	Months int
}

// Next adds k*Months to the anchor until the candidate is not before from.
func (s MonthStepStrategy) Next(anchor time.Time, _ core.RecurrenceRule, from time.Time) (time.Time, bool) {
	if s.Months <= 0 {
		return time.Time{}, false
	}
	for k := 0; k < maxIterations; k++ {
		candidate := core.AddMonthsClamped(anchor, k*s.Months)
		if !candidate.Before(from) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// MonthlyStrategy implements OccurrenceStrategy for monthly obligations.
type MonthlyStrategy struct{}

// Next returns the clamped DayOfMonth in from's month, or in the following
// month when that date is on or before from. Without an explicit DayOfMonth
// it falls back to stepping one month at a time from the anchor.
func (MonthlyStrategy) Next(anchor time.Time, rule core.RecurrenceRule, from time.Time) (time.Time, bool) {
	if rule.DayOfMonth == nil {
		return MonthStepStrategy{Months: 1}.Next(anchor, rule, from)
	}
	day := *rule.DayOfMonth
	candidate := core.ClampedDate(from.Year(), from.Month(), day)
	if !candidate.After(from) {
		candidate = core.ClampedDate(from.Year(), from.Month()+1, day)
	}
	return candidate, true
}

// occurrenceStrategies maps cadences to their strategies.
var occurrenceStrategies = map[core.Cadence]OccurrenceStrategy{
	core.OneTime:    OneTimeStrategy{},
	core.Weekly:     DayStepStrategy{Days: 7},
	core.Biweekly:   DayStepStrategy{Days: 14},
	core.Monthly:    MonthlyStrategy{},
	core.Quarterly:  MonthStepStrategy{Months: 3},
	core.SemiAnnual: MonthStepStrategy{Months: 6},
	core.Annual:     MonthStepStrategy{Months: 12},
}

// GetOccurrenceStrategy returns the strategy for a cadence.
func GetOccurrenceStrategy(cadence core.Cadence) (OccurrenceStrategy, error) {
	strategy, ok := occurrenceStrategies[cadence]
	if !ok {
		return nil, fmt.Errorf("unknown cadence: %s", cadence)
	}
	return strategy, nil
}

// NextOccurrence returns the first due date of rule on or after from.
// The boolean is false when the schedule is exhausted: a one-time obligation
// already passed, an end date reached, or a rule that cannot be evaluated.
// Dates are compared by calendar day; the time of day of from is ignored.
func NextOccurrence(rule core.RecurrenceRule, from time.Time) (core.Date, bool) {
	from = core.TruncateDay(from)
	anchor := core.TruncateDay(rule.AnchorDate.Time)

	hasEnd := !rule.EndDate.IsZero()
	end := core.TruncateDay(rule.EndDate.Time)
	if hasEnd && from.After(end) {
		return core.Date{}, false
	}

	next := anchor
	if !from.Before(anchor) {
		strategy, err := GetOccurrenceStrategy(rule.Cadence)
		if err != nil {
			return core.Date{}, false
		}
		var ok bool
		if next, ok = strategy.Next(anchor, rule, from); !ok {
			return core.Date{}, false
		}
	}

	if hasEnd && next.After(end) {
		return core.Date{}, false
	}
	return core.Date{Time: next}, true
}
