package budget

import (
	"math"

	"bollette/internal/core"
)

// Thresholds, in percent of the limit.
const (
	WarningPercent    = 75
	OverBudgetPercent = 100
)

// Snapshot is the display-ready state of a budget for one period.
type Snapshot struct {
	Period      Period
	Limit       core.Money
	ActualSpent core.Money
	PercentUsed int
	Remaining   core.Money // negative when over budget
	Status      core.BudgetStatus
}

// PercentUsed returns round(100 * spent / limit), never negative.
// A non-positive limit yields 0.
func PercentUsed(spent, limit core.Money) int {
	if limit.Cents <= 0 {
		return 0
	}
	pct := math.Round(100 * float64(spent.Cents) / float64(limit.Cents))
	if pct < 0 {
		return 0
	}
	return int(pct)
}

// StatusFor maps a usage percentage to a budget status.
func StatusFor(percent int) core.BudgetStatus {
	switch {
	case percent >= OverBudgetPercent:
		return core.OverBudget
	case percent >= WarningPercent:
		return core.Warning
	default:
		return core.OnTrack
	}
}

// Status classifies spent against limit.
func Status(spent, limit core.Money) core.BudgetStatus {
	return StatusFor(PercentUsed(spent, limit))
}

// Evaluate builds the snapshot of spent against limit over p.
func Evaluate(p Period, spent, limit core.Money) Snapshot {
	pct := PercentUsed(spent, limit)
	return Snapshot{
		Period:      p,
		Limit:       limit,
		ActualSpent: spent,
		PercentUsed: pct,
		Remaining:   limit.Sub(spent),
		Status:      StatusFor(pct),
	}
}
