package core

import "time"

const (
	EventReminder EventType = "reminder"
	EventOverdue  EventType = "overdue"
)

type (
	EventType string

	// ReminderEvent announces a payment falling due inside its reminder window.
	ReminderEvent struct {
		ID             string
		InstanceID     int64
		ObligationID   int64
		ObligationName string
		UserID         string
		Amount         Money
		DueDate        Date
		DaysUntilDue   int
		CreatedAt      time.Time
	}

	// AlertEvent announces a payment past its due date and still unpaid.
	AlertEvent struct {
		ID             string
		InstanceID     int64
		ObligationID   int64
		ObligationName string
		UserID         string
		Amount         Money
		DueDate        Date
		DaysOverdue    int
		CreatedAt      time.Time
	}

	// Insight is the persisted, display-ready form of an event.
	Insight struct {
		ID             string
		UserID         string
		Type           EventType
		Title          string
		Description    string
		StructuredData map[string]any
		CreatedAt      time.Time
	}
)
