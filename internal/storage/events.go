package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bollette/internal/core"
)

// eventWindow matches the notification dedup window.
const eventWindow = 24 * time.Hour

// Record stores a notification event unless one of the same type was stored
// for the instance within the previous 24 hours. The window query and the
// (instance_id, event_type, dedup_day) constraint run in one transaction.
func (r *SQLiteRepository) Record(ctx context.Context, instanceID int64, eventType core.EventType, at time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin event tx: %w", err)
	}
	defer tx.Rollback()

	var recent int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notification_events
		WHERE instance_id = ? AND event_type = ? AND created_at > ?`,
		instanceID, string(eventType), formatTimestamp(at.Add(-eventWindow))).Scan(&recent)
	if err != nil {
		return false, fmt.Errorf("query recent events: %w", err)
	}
	if recent > 0 {
		return false, nil
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO notification_events (instance_id, event_type, dedup_day, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (instance_id, event_type, dedup_day) DO NOTHING`,
		instanceID, string(eventType), at.UTC().Format(core.DateLayout), formatTimestamp(at))
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit event tx: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) SaveInsight(ctx context.Context, in core.Insight) error {
	data, err := json.Marshal(in.StructuredData)
	if err != nil {
		return fmt.Errorf("marshal insight data: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO insights (id, user_id, type, title, description, structured_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, string(in.Type), in.Title, in.Description, string(data), formatTimestamp(in.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert insight %s: %w", in.ID, err)
	}
	return nil
}

// ListInsights returns the most recent insights of userID, newest first.
func (r *SQLiteRepository) ListInsights(ctx context.Context, userID string, limit int) ([]core.Insight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, description, structured_data, created_at
		FROM insights WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var out []core.Insight
	for rows.Next() {
		var (
			in        core.Insight
			typ, data string
			created   sql.NullString
		)
		if err := rows.Scan(&in.ID, &in.UserID, &typ, &in.Title, &in.Description, &data, &created); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		in.Type = core.EventType(typ)
		if err := json.Unmarshal([]byte(data), &in.StructuredData); err != nil {
			return nil, fmt.Errorf("unmarshal insight %s data: %w", in.ID, err)
		}
		if in.CreatedAt, err = parseNullTimestamp(created); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
