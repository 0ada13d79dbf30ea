package core

import "errors"

const (
	BudgetWeekly  BudgetCadence = "weekly"
	BudgetMonthly BudgetCadence = "monthly"
	BudgetYearly  BudgetCadence = "yearly"
)

const (
	OnTrack    BudgetStatus = "on_track"
	Warning    BudgetStatus = "warning"
	OverBudget BudgetStatus = "over_budget"
)

type (
	BudgetCadence string
	BudgetStatus  string

	// Budget limits spending in one category over a rolling period.
	// EndDate is exclusive; zero means open-ended.
	Budget struct {
		ID         int64
		UserID     string
		CategoryID string
		Amount     Money
		Cadence    BudgetCadence
		StartDate  Date
		EndDate    Date
	}

	// Expense is a single spend record aggregated against budgets.
	Expense struct {
		ID          int64
		UserID      string
		CategoryID  string
		Date        Date
		Amount      Money
		Description string
	}
)

var ErrInvalidBudgetCadence = errors.New("invalid budget cadence")

// Valid reports whether c is a known budget cadence.
func (c BudgetCadence) Valid() bool {
	switch c {
	case BudgetWeekly, BudgetMonthly, BudgetYearly:
		return true
	}
	return false
}

func (b Budget) Validate() error {
	if !b.Cadence.Valid() {
		return ErrInvalidBudgetCadence
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := b.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !b.EndDate.IsZero() && !b.EndDate.After(b.StartDate.Time) {
		return errors.New("end date must be after start date")
	}
	return nil
}
