package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bollette/internal/core"
)

func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category_id, amount_cents, cadence, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Amount.Cents, string(b.Cadence),
		formatDate(b.StartDate), nullDate(b.EndDate), formatTimestamp(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	query := `SELECT id, user_id, category_id, amount_cents, cadence, start_date, end_date FROM budgets`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b       core.Budget
			cadence string
			start   string
			end     sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents, &cadence, &start, &end); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Cadence = core.BudgetCadence(cadence)
		if b.StartDate, err = parseDate(start); err != nil {
			return nil, err
		}
		if b.EndDate, err = parseNullDate(end); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, category_id, date, amount_cents, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.CategoryID, formatDate(e.Date), e.Amount.Cents, e.Description, formatTimestamp(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return res.LastInsertId()
}

// SumExpenses totals expenses dated in [start, end).
func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID, categoryID string, start, end core.Date) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		WHERE user_id = ? AND category_id = ? AND date >= ? AND date < ?`,
		userID, categoryID, formatDate(start), formatDate(end)).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: total}, nil
}
