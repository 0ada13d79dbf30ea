package schedule

import (
	"time"

	"bollette/internal/core"
)

// DefaultHorizon is the number of upcoming occurrences kept materialized.
const DefaultHorizon = 6

// Occurrence is one planned payment of an obligation.
type Occurrence struct {
	DueDate core.Date
	Amount  core.Money
}

// GenerateHorizon returns up to count upcoming occurrences of rule starting
// from now, in strictly increasing order. The result is shorter than count when
// the schedule ends first. A non-positive count uses DefaultHorizon.
func GenerateHorizon(rule core.RecurrenceRule, amount core.Money, count int, now time.Time) []Occurrence {
	if count <= 0 {
		count = DefaultHorizon
	}

	out := make([]Occurrence, 0, count)
	cursor := now
	for len(out) < count {
		due, ok := NextOccurrence(rule, cursor)
		if !ok {
			break
		}
		if n := len(out); n > 0 && !due.After(out[n-1].DueDate.Time) {
			break
		}
		out = append(out, Occurrence{DueDate: due, Amount: amount})
		cursor = due.AddDate(0, 0, 1)
	}
	return out
}
