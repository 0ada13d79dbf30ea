package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"bollette/internal/core"
)

// Seed is the TOML document accepted by LoadSeed. Amounts are decimal
// strings ("12.50") and dates use YYYY-MM-DD.
type Seed struct {
	Obligations []SeedObligation `toml:"obligation"`
	Budgets     []SeedBudget     `toml:"budget"`
	Expenses    []SeedExpense    `toml:"expense"`
}

type SeedObligation struct {
	UserID             string `toml:"user_id"`
	Name               string `toml:"name"`
	Amount             string `toml:"amount"`
	Cadence            string `toml:"cadence"`
	AnchorDate         string `toml:"anchor_date"`
	EndDate            string `toml:"end_date"`
	DayOfMonth         *int   `toml:"day_of_month"`
	DayOfWeek          *int   `toml:"day_of_week"`
	ReminderDaysBefore int    `toml:"reminder_days_before"`
	CategoryID         string `toml:"category_id"`
	BankID             string `toml:"bank_id"`
	Inactive           bool   `toml:"inactive"`
}

type SeedBudget struct {
	UserID     string `toml:"user_id"`
	CategoryID string `toml:"category_id"`
	Amount     string `toml:"amount"`
	Cadence    string `toml:"cadence"`
	StartDate  string `toml:"start_date"`
	EndDate    string `toml:"end_date"`
}

type SeedExpense struct {
	UserID      string `toml:"user_id"`
	CategoryID  string `toml:"category_id"`
	Date        string `toml:"date"`
	Amount      string `toml:"amount"`
	Description string `toml:"description"`
}

// SeedResult counts the records written by Apply. Skipped is set when the
// store already held data and nothing was written.
type SeedResult struct {
	Obligations int
	Budgets     int
	Expenses    int
	Skipped     bool
}

func LoadSeed(path string) (Seed, error) {
	var s Seed
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Seed{}, fmt.Errorf("parsing seed %s: %w", path, err)
	}
	return s, nil
}

// Apply validates every record before writing any, so a bad file leaves the
// store untouched. A store that already holds obligations, budgets or
// expenses is left as is, so a seed applied on every start is written once.
func (s Seed) Apply(ctx context.Context, store Store) (SeedResult, error) {
	obligations := make([]core.Obligation, 0, len(s.Obligations))
	for i, so := range s.Obligations {
		o, err := so.toObligation()
		if err != nil {
			return SeedResult{}, fmt.Errorf("obligation %d (%s): %w", i+1, so.Name, err)
		}
		obligations = append(obligations, o)
	}
	budgets := make([]core.Budget, 0, len(s.Budgets))
	for i, sb := range s.Budgets {
		b, err := sb.toBudget()
		if err != nil {
			return SeedResult{}, fmt.Errorf("budget %d: %w", i+1, err)
		}
		budgets = append(budgets, b)
	}
	expenses := make([]core.Expense, 0, len(s.Expenses))
	for i, se := range s.Expenses {
		e, err := se.toExpense()
		if err != nil {
			return SeedResult{}, fmt.Errorf("expense %d: %w", i+1, err)
		}
		expenses = append(expenses, e)
	}

	populated, err := store.HasData(ctx)
	if err != nil {
		return SeedResult{}, err
	}
	if populated {
		return SeedResult{Skipped: true}, nil
	}

	var res SeedResult
	for _, o := range obligations {
		if _, err := store.SaveObligation(ctx, o); err != nil {
			return res, fmt.Errorf("save obligation %s: %w", o.Name, err)
		}
		res.Obligations++
	}
	for _, b := range budgets {
		if _, err := store.SaveBudget(ctx, b); err != nil {
			return res, fmt.Errorf("save budget: %w", err)
		}
		res.Budgets++
	}
	for _, e := range expenses {
		if _, err := store.AddExpense(ctx, e); err != nil {
			return res, fmt.Errorf("add expense: %w", err)
		}
		res.Expenses++
	}
	return res, nil
}

func (so SeedObligation) toObligation() (core.Obligation, error) {
	amount, err := parseAmount(so.Amount)
	if err != nil {
		return core.Obligation{}, err
	}
	anchor, err := parseDate(so.AnchorDate)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("anchor_date: %w", err)
	}
	end, err := parseOptionalDate(so.EndDate)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("end_date: %w", err)
	}
	o := core.Obligation{
		UserID: so.UserID,
		Name:   so.Name,
		Amount: amount,
		Rule: core.RecurrenceRule{
			Cadence:    core.Cadence(so.Cadence),
			AnchorDate: anchor,
			EndDate:    end,
			DayOfMonth: so.DayOfMonth,
			DayOfWeek:  so.DayOfWeek,
		},
		ReminderDaysBefore: so.ReminderDaysBefore,
		IsActive:           !so.Inactive,
		CategoryID:         so.CategoryID,
		BankID:             so.BankID,
	}
	return o, o.Validate()
}

func (sb SeedBudget) toBudget() (core.Budget, error) {
	amount, err := parseAmount(sb.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	start, err := parseDate(sb.StartDate)
	if err != nil {
		return core.Budget{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := parseOptionalDate(sb.EndDate)
	if err != nil {
		return core.Budget{}, fmt.Errorf("end_date: %w", err)
	}
	b := core.Budget{
		UserID:     sb.UserID,
		CategoryID: sb.CategoryID,
		Amount:     amount,
		Cadence:    core.BudgetCadence(sb.Cadence),
		StartDate:  start,
		EndDate:    end,
	}
	return b, b.Validate()
}

func (se SeedExpense) toExpense() (core.Expense, error) {
	amount, err := parseAmount(se.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	if err := amount.Validate(); err != nil {
		return core.Expense{}, err
	}
	d, err := parseDate(se.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("date: %w", err)
	}
	return core.Expense{
		UserID:      se.UserID,
		CategoryID:  se.CategoryID,
		Date:        d,
		Amount:      amount,
		Description: se.Description,
	}, nil
}

func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("amount %q: %w", s, err)
	}
	return core.Money{Cents: cents}, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}

func parseOptionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return parseDate(s)
}
