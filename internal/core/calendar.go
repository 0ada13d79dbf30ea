package core

import "time"

// DateLayout is the day-granularity layout used for storage keys and logs.
const DateLayout = "2006-01-02"

// TruncateDay strips the time of day, keeping the calendar day of t in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar day containing now.
func Today(now time.Time) Date {
	return Date{Time: TruncateDay(now)}
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return TruncateDay(a).Equal(TruncateDay(b))
}

// LastDayOfMonth returns the number of days in month m of year y.
func LastDayOfMonth(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDate builds y-m-day, replacing day with the month's last day when
// the month is shorter (31 in February gives the 28th or 29th).
// m may be outside 1..12; it is normalized first.
func ClampedDate(y int, m time.Month, day int) time.Time {
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	y, m = first.Year(), first.Month()
	if last := LastDayOfMonth(y, m); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped adds n months to t keeping t's day of month where it exists.
// Unlike time.AddDate it never overflows into the following month.
func AddMonthsClamped(t time.Time, n int) time.Time {
	t = TruncateDay(t)
	return ClampedDate(t.Year(), t.Month()+time.Month(n), t.Day())
}

// DaysBetween returns the whole number of days from a to b, negative when b
// precedes a. Both instants are truncated to their day first.
func DaysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}
