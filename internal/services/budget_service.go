package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bollette/internal/budget"
	"bollette/internal/cache"
	"bollette/internal/core"
	applog "bollette/internal/log"
)

// ExpenseWriter records expenses counted by budgets.
type ExpenseWriter interface {
	AddExpense(ctx context.Context, e core.Expense) (int64, error)
}

// BudgetSnapshot pairs a budget with its state in the current period.
type BudgetSnapshot struct {
	Budget core.Budget
	budget.Snapshot
}

// BudgetService computes budget snapshots. Aggregated spend is cached per
// user, category and period.
type BudgetService struct {
	budgets  BudgetStore
	expenses ExpenseAggregator
	spend    *cache.LRUCache[core.Money]
}

// NewBudgetService builds a BudgetService. spend may be nil to disable caching.
func NewBudgetService(budgets BudgetStore, expenses ExpenseAggregator, spend *cache.LRUCache[core.Money]) *BudgetService {
	return &BudgetService{
		budgets:  budgets,
		expenses: expenses,
		spend:    spend,
	}
}

func spendKey(userID, categoryID string, p budget.Period) string {
	return strings.Join([]string{userID, categoryID, p.Start.String(), p.End.String()}, "|")
}

// Snapshot evaluates b over its effective period as of now.
func (s *BudgetService) Snapshot(ctx context.Context, b core.Budget, now time.Time) (BudgetSnapshot, error) {
	p, err := budget.EffectivePeriod(b, now)
	if err != nil {
		return BudgetSnapshot{}, fmt.Errorf("budget %d period: %w", b.ID, err)
	}

	key := spendKey(b.UserID, b.CategoryID, p)
	spent, ok := core.Money{}, false
	if s.spend != nil {
		spent, ok = s.spend.Get(key)
	}
	if !ok {
		spent, err = s.expenses.SumExpenses(ctx, b.UserID, b.CategoryID, p.Start, p.End)
		if err != nil {
			return BudgetSnapshot{}, fmt.Errorf("sum expenses for budget %d: %w", b.ID, err)
		}
		if s.spend != nil {
			s.spend.Set(key, spent)
		}
	}

	return BudgetSnapshot{Budget: b, Snapshot: budget.Evaluate(p, spent, b.Amount)}, nil
}

// Snapshots evaluates every budget of userID, or all budgets when userID is
// empty. Budgets that fail are logged and skipped.
func (s *BudgetService) Snapshots(ctx context.Context, userID string, now time.Time) ([]BudgetSnapshot, error) {
	list, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	out := make([]BudgetSnapshot, 0, len(list))
	for _, b := range list {
		snap, err := s.Snapshot(ctx, b, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to evaluate budget",
				applog.FieldOperation, applog.OpBudget,
				applog.FieldBudgetID, b.ID,
				applog.FieldCategoryID, b.CategoryID,
				applog.FieldError, err)
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

// RecordExpense stores e and drops the cached spend of its user and category.
func (s *BudgetService) RecordExpense(ctx context.Context, w ExpenseWriter, e core.Expense) (int64, error) {
	if err := e.Amount.Validate(); err != nil {
		return 0, err
	}
	if err := e.Date.Validate(); err != nil {
		return 0, err
	}
	id, err := w.AddExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}
	if s.spend != nil {
		prefix := e.UserID + "|" + e.CategoryID + "|"
		s.spend.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, prefix) })
	}
	return id, nil
}
