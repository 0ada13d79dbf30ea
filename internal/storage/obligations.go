package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bollette/internal/core"
	applog "bollette/internal/log"
)

const obligationColumns = `id, user_id, name, amount_cents, cadence, anchor_date, end_date,
	day_of_month, day_of_week, reminder_days_before, is_active, category_id, bank_id`

// SaveObligation inserts o when its ID is zero, otherwise updates the existing row.
func (r *SQLiteRepository) SaveObligation(ctx context.Context, o core.Obligation) (int64, error) {
	now := formatTimestamp(time.Now())
	args := []any{
		o.UserID, o.Name, o.Amount.Cents, string(o.Rule.Cadence),
		formatDate(o.Rule.AnchorDate), nullDate(o.Rule.EndDate),
		nullInt(o.Rule.DayOfMonth), nullInt(o.Rule.DayOfWeek),
		o.ReminderDaysBefore, o.IsActive, o.CategoryID, o.BankID,
	}

	if o.ID == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO obligations (user_id, name, amount_cents, cadence, anchor_date, end_date,
				day_of_month, day_of_week, reminder_days_before, is_active, category_id, bank_id,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append(args, now, now)...)
		if err != nil {
			return 0, fmt.Errorf("insert obligation: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("obligation id: %w", err)
		}
		slog.InfoContext(ctx, "Obligation created", applog.FieldObligationID, id, "name", o.Name, "cadence", o.Rule.Cadence)
		return id, nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE obligations SET user_id = ?, name = ?, amount_cents = ?, cadence = ?, anchor_date = ?,
			end_date = ?, day_of_month = ?, day_of_week = ?, reminder_days_before = ?, is_active = ?,
			category_id = ?, bank_id = ?, updated_at = ?
		WHERE id = ?`,
		append(args, now, o.ID)...)
	if err != nil {
		return 0, fmt.Errorf("update obligation %d: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("update obligation %d: %w", o.ID, core.ErrNotFound)
	}
	return o.ID, nil
}

func (r *SQLiteRepository) GetObligation(ctx context.Context, id int64) (core.Obligation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE id = ?`, id)
	o, err := scanObligation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Obligation{}, fmt.Errorf("get obligation %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Obligation{}, fmt.Errorf("get obligation %d: %w", id, err)
	}
	return o, nil
}

func (r *SQLiteRepository) ListActiveObligations(ctx context.Context) ([]core.Obligation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active obligations: %w", err)
	}
	defer rows.Close()

	var out []core.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan obligation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteObligation(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM obligations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete obligation %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete obligation %d: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Obligation deleted", applog.FieldObligationID, id)
	return nil
}

func scanObligation(s rowScanner) (core.Obligation, error) {
	var (
		o                  core.Obligation
		cadence, anchor    string
		end                sql.NullString
		dayOfMonth, dayOfW sql.NullInt64
	)
	err := s.Scan(&o.ID, &o.UserID, &o.Name, &o.Amount.Cents, &cadence, &anchor, &end,
		&dayOfMonth, &dayOfW, &o.ReminderDaysBefore, &o.IsActive, &o.CategoryID, &o.BankID)
	if err != nil {
		return core.Obligation{}, err
	}

	o.Rule.Cadence = core.Cadence(cadence)
	if o.Rule.AnchorDate, err = parseDate(anchor); err != nil {
		return core.Obligation{}, err
	}
	if o.Rule.EndDate, err = parseNullDate(end); err != nil {
		return core.Obligation{}, err
	}
	o.Rule.DayOfMonth = intPtr(dayOfMonth)
	o.Rule.DayOfWeek = intPtr(dayOfW)
	return o, nil
}
