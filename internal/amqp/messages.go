package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bollette/internal/core"
)

// NotificationMessage carries a reminder or overdue insight to downstream
// notifiers. It holds everything needed to render the message without
// querying the engine again.
type NotificationMessage struct {
	MessageID   string         `json:"message_id"`
	InsightID   string         `json:"insight_id"`
	UserID      string         `json:"user_id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewNotificationMessage wraps an insight with a fresh message ID.
func NewNotificationMessage(in core.Insight) *NotificationMessage {
	return &NotificationMessage{
		MessageID:   uuid.NewString(),
		InsightID:   in.ID,
		UserID:      in.UserID,
		Type:        string(in.Type),
		Title:       in.Title,
		Description: in.Description,
		Data:        in.StructuredData,
		CreatedAt:   in.CreatedAt,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON decodes and checks a message body.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch core.EventType(msg.Type) {
	case core.EventReminder, core.EventOverdue:
	default:
		return nil, fmt.Errorf("unknown notification type %q", msg.Type)
	}
	return &msg, nil
}

// Insight converts the message back into the insight it carries.
func (m *NotificationMessage) Insight() core.Insight {
	return core.Insight{
		ID:             m.InsightID,
		UserID:         m.UserID,
		Type:           core.EventType(m.Type),
		Title:          m.Title,
		Description:    m.Description,
		StructuredData: m.Data,
		CreatedAt:      m.CreatedAt,
	}
}
