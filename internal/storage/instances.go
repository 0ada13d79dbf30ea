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

const instanceColumns = `id, obligation_id, due_date, amount_cents, lifecycle, paid_date, reminder_sent, reminder_sent_at`

func (r *SQLiteRepository) ListInstances(ctx context.Context, obligationID int64) ([]core.PaymentInstance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+instanceColumns+` FROM payment_instances WHERE obligation_id = ? ORDER BY due_date`, obligationID)
	if err != nil {
		return nil, fmt.Errorf("list instances of obligation %d: %w", obligationID, err)
	}
	defer rows.Close()

	var out []core.PaymentInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// CreateInstance relies on UNIQUE(obligation_id, due_date): a conflicting
// insert affects no rows and is reported as created=false.
func (r *SQLiteRepository) CreateInstance(ctx context.Context, inst core.PaymentInstance) (bool, error) {
	lifecycle := inst.Lifecycle
	if lifecycle == "" {
		lifecycle = core.Upcoming
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_instances (obligation_id, due_date, amount_cents, lifecycle, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (obligation_id, due_date) DO NOTHING`,
		inst.ObligationID, formatDate(inst.DueDate), inst.Amount.Cents, string(lifecycle), formatTimestamp(time.Now()))
	if err != nil {
		return false, fmt.Errorf("insert instance for obligation %d on %s: %w", inst.ObligationID, inst.DueDate, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) DeleteOpenInstancesFrom(ctx context.Context, obligationID int64, from core.Date) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM payment_instances
		WHERE obligation_id = ? AND lifecycle IN (?, ?) AND due_date >= ?`,
		obligationID, string(core.Upcoming), string(core.DueSoon), formatDate(from))
	if err != nil {
		return 0, fmt.Errorf("delete open instances of obligation %d: %w", obligationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Discarded open instances", applog.FieldObligationID, obligationID, "from", from.String(), "count", n)
	}
	return int(n), nil
}

func (r *SQLiteRepository) ListOpenPayments(ctx context.Context) ([]core.ScheduledPayment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.obligation_id, i.due_date, i.amount_cents, i.lifecycle, i.paid_date,
			i.reminder_sent, i.reminder_sent_at, o.name, o.user_id, o.reminder_days_before
		FROM payment_instances i
		JOIN obligations o ON o.id = i.obligation_id
		WHERE i.lifecycle NOT IN (?, ?)
		ORDER BY i.due_date, i.id`,
		string(core.Paid), string(core.Cancelled))
	if err != nil {
		return nil, fmt.Errorf("list open payments: %w", err)
	}
	defer rows.Close()

	var out []core.ScheduledPayment
	for rows.Next() {
		var (
			p         core.ScheduledPayment
			due       string
			lifecycle string
			paid      sql.NullString
			sentAt    sql.NullString
		)
		if err := rows.Scan(&p.Instance.ID, &p.Instance.ObligationID, &due, &p.Instance.Amount.Cents,
			&lifecycle, &paid, &p.Instance.ReminderSent, &sentAt,
			&p.ObligationName, &p.UserID, &p.ReminderDaysBefore); err != nil {
			return nil, fmt.Errorf("scan open payment: %w", err)
		}
		if err := fillInstance(&p.Instance, due, lifecycle, paid, sentAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkReminderSent(ctx context.Context, instanceID int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_instances SET reminder_sent = 1, reminder_sent_at = ? WHERE id = ?`,
		formatTimestamp(at), instanceID)
	if err != nil {
		return fmt.Errorf("mark reminder sent for instance %d: %w", instanceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark reminder sent for instance %d: %w", instanceID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) MarkPaid(ctx context.Context, instanceID int64, paidDate core.Date) error {
	return r.closeInstance(ctx, instanceID, core.Paid, nullDate(paidDate))
}

func (r *SQLiteRepository) MarkCancelled(ctx context.Context, instanceID int64) error {
	return r.closeInstance(ctx, instanceID, core.Cancelled, sql.NullString{})
}

// closeInstance moves an open instance into a terminal lifecycle.
func (r *SQLiteRepository) closeInstance(ctx context.Context, instanceID int64, to core.Lifecycle, paid sql.NullString) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_instances SET lifecycle = ?, paid_date = ?
		WHERE id = ? AND lifecycle NOT IN (?, ?)`,
		string(to), paid, instanceID, string(core.Paid), string(core.Cancelled))
	if err != nil {
		return fmt.Errorf("mark instance %d %s: %w", instanceID, to, err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		slog.InfoContext(ctx, "Payment instance closed", applog.FieldInstanceID, instanceID, applog.FieldLifecycle, to)
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, `SELECT lifecycle FROM payment_instances WHERE id = ?`, instanceID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("mark instance %d %s: %w", instanceID, to, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("mark instance %d %s: %w", instanceID, to, err)
	}
	return fmt.Errorf("mark instance %d %s (is %s): %w", instanceID, to, current, core.ErrTerminalLifecycle)
}

func scanInstance(s rowScanner) (core.PaymentInstance, error) {
	var (
		inst      core.PaymentInstance
		due       string
		lifecycle string
		paid      sql.NullString
		sentAt    sql.NullString
	)
	if err := s.Scan(&inst.ID, &inst.ObligationID, &due, &inst.Amount.Cents, &lifecycle, &paid,
		&inst.ReminderSent, &sentAt); err != nil {
		return core.PaymentInstance{}, err
	}
	if err := fillInstance(&inst, due, lifecycle, paid, sentAt); err != nil {
		return core.PaymentInstance{}, err
	}
	return inst, nil
}

func fillInstance(inst *core.PaymentInstance, due, lifecycle string, paid, sentAt sql.NullString) error {
	var err error
	if inst.DueDate, err = parseDate(due); err != nil {
		return err
	}
	if inst.PaidDate, err = parseNullDate(paid); err != nil {
		return err
	}
	if inst.ReminderSentAt, err = parseNullTimestamp(sentAt); err != nil {
		return err
	}
	inst.Lifecycle = core.Lifecycle(lifecycle)
	return nil
}
