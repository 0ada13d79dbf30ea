package core

import (
	"errors"
	"strings"
	"time"
)

const (
	OneTime    Cadence = "one_time"
	Weekly     Cadence = "weekly"
	Biweekly   Cadence = "biweekly"
	Monthly    Cadence = "monthly"
	Quarterly  Cadence = "quarterly"
	SemiAnnual Cadence = "semi_annual"
	Annual     Cadence = "annual"
)

const (
	Upcoming  Lifecycle = "upcoming"
	DueSoon   Lifecycle = "due_soon"
	Overdue   Lifecycle = "overdue"
	Paid      Lifecycle = "paid"
	Cancelled Lifecycle = "cancelled"
)

type (
	Cadence   string
	Lifecycle string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// RecurrenceRule describes when an obligation falls due.
	// DayOfMonth applies to the monthly family, DayOfWeek (0=Sunday) to the weekly family.
	RecurrenceRule struct {
		Cadence    Cadence
		AnchorDate Date
		EndDate    Date // zero means open-ended
		DayOfMonth *int
		DayOfWeek  *int
	}

	Obligation struct {
		ID                 int64
		UserID             string
		Name               string
		Amount             Money
		Rule               RecurrenceRule
		ReminderDaysBefore int
		IsActive           bool
		CategoryID         string // opaque
		BankID             string // opaque
	}

	PaymentInstance struct {
		ID             int64
		ObligationID   int64
		DueDate        Date
		Amount         Money
		Lifecycle      Lifecycle
		PaidDate       Date
		ReminderSent   bool
		ReminderSentAt time.Time
	}

	// ScheduledPayment is an open instance joined with the fields of its
	// obligation needed to classify it and to render a notification.
	ScheduledPayment struct {
		Instance           PaymentInstance
		ObligationName     string
		UserID             string
		ReminderDaysBefore int
	}
)

var (
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidCadence    = errors.New("invalid cadence")
	ErrInvalidDayOfMonth = errors.New("invalid day of month")
	ErrInvalidDayOfWeek  = errors.New("invalid day of week")
	ErrMissingDayOfMonth = errors.New("monthly cadence requires a day of month")
	ErrEndBeforeAnchor   = errors.New("end date must not precede anchor date")
	ErrInvalidReminder   = errors.New("reminder days must not be negative")
	ErrTerminalLifecycle = errors.New("payment instance is already paid or cancelled")
	ErrNotFound          = errors.New("not found")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Valid reports whether c is a known cadence.
func (c Cadence) Valid() bool {
	switch c {
	case OneTime, Weekly, Biweekly, Monthly, Quarterly, SemiAnnual, Annual:
		return true
	}
	return false
}

// IsWeekly reports whether the cadence steps in whole weeks.
func (c Cadence) IsWeekly() bool {
	return c == Weekly || c == Biweekly
}

// IsMonthly reports whether the cadence steps in whole months.
func (c Cadence) IsMonthly() bool {
	switch c {
	case Monthly, Quarterly, SemiAnnual, Annual:
		return true
	}
	return false
}

// Terminal reports whether the lifecycle can no longer change.
func (l Lifecycle) Terminal() bool {
	return l == Paid || l == Cancelled
}

func (r RecurrenceRule) Validate() error {
	if !r.Cadence.Valid() {
		return ErrInvalidCadence
	}
	if err := r.AnchorDate.Validate(); err != nil {
		return errors.New("invalid anchor date: " + err.Error())
	}
	if !r.EndDate.IsZero() && TruncateDay(r.EndDate.Time).Before(TruncateDay(r.AnchorDate.Time)) {
		return ErrEndBeforeAnchor
	}

	if r.DayOfMonth != nil {
		if !r.Cadence.IsMonthly() || *r.DayOfMonth < 1 || *r.DayOfMonth > 31 {
			return ErrInvalidDayOfMonth
		}
	} else if r.Cadence == Monthly {
		return ErrMissingDayOfMonth
	}

	if r.DayOfWeek != nil {
		if !r.Cadence.IsWeekly() || *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
			return ErrInvalidDayOfWeek
		}
	}
	return nil
}

func (o Obligation) Validate() error {
	if len(strings.TrimSpace(o.Name)) == 0 {
		return ErrEmptyName
	}
	if len(o.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := o.Amount.Validate(); err != nil {
		return err
	}
	if o.ReminderDaysBefore < 0 {
		return ErrInvalidReminder
	}
	return o.Rule.Validate()
}

// ScheduleChanged reports whether updating from old to updated invalidates
// the unpaid future instances of the obligation.
func ScheduleChanged(old, updated Obligation) bool {
	if old.Rule.Cadence != updated.Rule.Cadence || old.Amount != updated.Amount {
		return true
	}
	if !SameDay(old.Rule.AnchorDate.Time, updated.Rule.AnchorDate.Time) {
		return true
	}
	if old.Rule.EndDate.IsZero() != updated.Rule.EndDate.IsZero() {
		return true
	}
	if !old.Rule.EndDate.IsZero() && !SameDay(old.Rule.EndDate.Time, updated.Rule.EndDate.Time) {
		return true
	}
	return !sameIntPtr(old.Rule.DayOfMonth, updated.Rule.DayOfMonth) ||
		!sameIntPtr(old.Rule.DayOfWeek, updated.Rule.DayOfWeek)
}

func sameIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IntPtr is a helper for building rules with optional day fields.
func IntPtr(v int) *int {
	return &v
}
