package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestRecurrenceRuleValidate(t *testing.T) {
	anchor := NewDate(2024, 1, 31)

	tests := []struct {
		name string
		rule RecurrenceRule
		want error
	}{
		{"monthly with day", RecurrenceRule{Cadence: Monthly, AnchorDate: anchor, DayOfMonth: IntPtr(31)}, nil},
		{"weekly with weekday", RecurrenceRule{Cadence: Weekly, AnchorDate: anchor, DayOfWeek: IntPtr(3)}, nil},
		{"one time", RecurrenceRule{Cadence: OneTime, AnchorDate: anchor}, nil},
		{"quarterly without day", RecurrenceRule{Cadence: Quarterly, AnchorDate: anchor}, nil},
		{"unknown cadence", RecurrenceRule{Cadence: "daily", AnchorDate: anchor}, ErrInvalidCadence},
		{"monthly missing day", RecurrenceRule{Cadence: Monthly, AnchorDate: anchor}, ErrMissingDayOfMonth},
		{"day of month out of range", RecurrenceRule{Cadence: Monthly, AnchorDate: anchor, DayOfMonth: IntPtr(32)}, ErrInvalidDayOfMonth},
		{"day of month on weekly", RecurrenceRule{Cadence: Weekly, AnchorDate: anchor, DayOfMonth: IntPtr(5)}, ErrInvalidDayOfMonth},
		{"day of week out of range", RecurrenceRule{Cadence: Biweekly, AnchorDate: anchor, DayOfWeek: IntPtr(7)}, ErrInvalidDayOfWeek},
		{"day of week on annual", RecurrenceRule{Cadence: Annual, AnchorDate: anchor, DayOfWeek: IntPtr(1)}, ErrInvalidDayOfWeek},
		{"end before anchor", RecurrenceRule{Cadence: Annual, AnchorDate: anchor, EndDate: NewDate(2023, 12, 1)}, ErrEndBeforeAnchor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	if err := (RecurrenceRule{Cadence: Weekly}).Validate(); err == nil {
		t.Fatal("expected error for zero anchor")
	}
}

func TestObligationValidate(t *testing.T) {
	good := Obligation{
		Name:               "Rent",
		Amount:             Money{Cents: 90000},
		ReminderDaysBefore: 3,
		Rule:               RecurrenceRule{Cadence: Monthly, AnchorDate: NewDate(2024, 1, 1), DayOfMonth: IntPtr(1)},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Obligation{good, good, good}
	bads[0].Name = "  "
	bads[1].Amount = Money{}
	bads[2].ReminderDaysBefore = -1
	for i, o := range bads {
		if err := o.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestScheduleChanged(t *testing.T) {
	base := Obligation{
		Name:   "Gym",
		Amount: Money{Cents: 4000},
		Rule:   RecurrenceRule{Cadence: Monthly, AnchorDate: NewDate(2024, 3, 5), DayOfMonth: IntPtr(5)},
	}

	renamed := base
	renamed.Name = "Gym membership"
	renamed.ReminderDaysBefore = 10
	if ScheduleChanged(base, renamed) {
		t.Error("name and reminder changes must not invalidate the schedule")
	}

	tests := []struct {
		name   string
		mutate func(o *Obligation)
	}{
		{"amount", func(o *Obligation) { o.Amount = Money{Cents: 4500} }},
		{"cadence", func(o *Obligation) { o.Rule.Cadence = Quarterly }},
		{"day of month", func(o *Obligation) { o.Rule.DayOfMonth = IntPtr(6) }},
		{"day of month cleared", func(o *Obligation) { o.Rule.DayOfMonth = nil }},
		{"anchor", func(o *Obligation) { o.Rule.AnchorDate = NewDate(2024, 3, 6) }},
		{"end date set", func(o *Obligation) { o.Rule.EndDate = NewDate(2025, 1, 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := base
			tt.mutate(&changed)
			if !ScheduleChanged(base, changed) {
				t.Errorf("ScheduleChanged() = false after changing %s", tt.name)
			}
		})
	}
}

func TestClampedDate(t *testing.T) {
	tests := []struct {
		y    int
		m    time.Month
		day  int
		want Date
	}{
		{2024, time.February, 31, NewDate(2024, 2, 29)},
		{2023, time.February, 31, NewDate(2023, 2, 28)},
		{2024, time.April, 31, NewDate(2024, 4, 30)},
		{2024, time.January, 15, NewDate(2024, 1, 15)},
		{2024, 13, 31, NewDate(2025, 1, 31)},
	}
	for _, tt := range tests {
		got := ClampedDate(tt.y, tt.m, tt.day)
		if !got.Equal(tt.want.Time) {
			t.Errorf("ClampedDate(%d, %d, %d) = %s, want %s", tt.y, tt.m, tt.day, got.Format(DateLayout), tt.want)
		}
	}
}

func TestAddMonthsClamped(t *testing.T) {
	jan31 := NewDate(2024, 1, 31).Time
	if got := AddMonthsClamped(jan31, 1); !got.Equal(NewDate(2024, 2, 29).Time) {
		t.Errorf("Jan 31 + 1 month = %s, want 2024-02-29", got.Format(DateLayout))
	}
	if got := AddMonthsClamped(jan31, 3); !got.Equal(NewDate(2024, 4, 30).Time) {
		t.Errorf("Jan 31 + 3 months = %s, want 2024-04-30", got.Format(DateLayout))
	}
	if got := AddMonthsClamped(jan31, -2); !got.Equal(NewDate(2023, 11, 30).Time) {
		t.Errorf("Jan 31 - 2 months = %s, want 2023-11-30", got.Format(DateLayout))
	}
}

func TestDaysBetween(t *testing.T) {
	morning := time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 12, 23, 0, 0, 0, time.UTC)
	if got := DaysBetween(morning, evening); got != 2 {
		t.Errorf("DaysBetween = %d, want 2", got)
	}
	if got := DaysBetween(evening, morning); got != -2 {
		t.Errorf("DaysBetween reversed = %d, want -2", got)
	}
	if got := DaysBetween(morning, morning.Add(time.Hour)); got != 0 {
		t.Errorf("DaysBetween same day = %d, want 0", got)
	}
}
