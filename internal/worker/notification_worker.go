// Package worker consumes notification messages published by the engine.
package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"bollette/internal/amqp"
	"bollette/internal/cache"
	"bollette/internal/core"
	applog "bollette/internal/log"
	"bollette/internal/services"
)

// seenTTL bounds how long a delivered message ID is remembered. Redeliveries
// after a nack arrive well within it.
const seenTTL = time.Hour

// NotificationWorker renders notification messages to a sink and, when an
// insight writer is configured, stores them. Redelivered messages are
// recognised by message ID and acknowledged without rendering twice.
type NotificationWorker struct {
	out      io.Writer
	insights services.InsightWriter
	seen     *cache.LRUCache[struct{}]

	handled    atomic.Int64
	duplicates atomic.Int64
}

// NewNotificationWorker builds a worker writing to out. insights may be nil.
func NewNotificationWorker(out io.Writer, insights services.InsightWriter, seenSize int) *NotificationWorker {
	return &NotificationWorker{
		out:      out,
		insights: insights,
		seen:     cache.NewLRUCache[struct{}](seenSize, seenTTL),
	}
}

// SeenCache exposes the message ID cache so it can be registered for sweeping.
func (w *NotificationWorker) SeenCache() *cache.LRUCache[struct{}] {
	return w.seen
}

// HandleNotification processes a single notification message from AMQP
func (w *NotificationWorker) HandleNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	if _, ok := w.seen.Get(msg.MessageID); ok {
		w.duplicates.Add(1)
		slog.DebugContext(ctx, "Skipping duplicate notification", applog.FieldMessageID, msg.MessageID)
		return nil
	}

	slog.InfoContext(ctx, "Processing notification message",
		applog.FieldMessageID, msg.MessageID,
		"insight_id", msg.InsightID,
		applog.FieldEventType, msg.Type,
		applog.FieldUserID, msg.UserID)

	if _, err := fmt.Fprintln(w.out, Render(msg)); err != nil {
		return fmt.Errorf("render notification %s: %w", msg.MessageID, err)
	}

	if w.insights != nil {
		if err := w.insights.SaveInsight(ctx, msg.Insight()); err != nil {
			return fmt.Errorf("save insight %s: %w", msg.InsightID, err)
		}
	}

	w.seen.Set(msg.MessageID, struct{}{})
	w.handled.Add(1)
	return nil
}

// Stats returns how many messages were handled and how many were skipped
// as duplicates.
func (w *NotificationWorker) Stats() (handled, duplicates int64) {
	return w.handled.Load(), w.duplicates.Load()
}

// Render formats a message as a single line.
func Render(msg *amqp.NotificationMessage) string {
	marker := "REMINDER"
	if core.EventType(msg.Type) == core.EventOverdue {
		marker = "OVERDUE"
	}
	return fmt.Sprintf("[%s] %s %s: %s (%s)",
		msg.CreatedAt.UTC().Format(time.RFC3339), marker, msg.UserID, msg.Title, msg.Description)
}
