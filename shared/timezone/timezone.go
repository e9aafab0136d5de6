package timezone

import "time"

// DateFormat is the layout of calendar-day path segments and query values.
const DateFormat = "2006-01-02"

// Now returns the current instant in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// ToUTC normalizes an instant to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// DayStart returns midnight UTC of the calendar day containing t.
func DayStart(t time.Time) time.Time {
	u := t.UTC()

	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayEnd returns midnight UTC of the following calendar day, so that
// [DayStart, DayEnd) covers the whole day under the half-open rule.
func DayEnd(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, 1)
}

// SameDay reports whether two instants fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DayStart(a).Equal(DayStart(b))
}

// ParseDate parses a YYYY-MM-DD value as a UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, value, time.UTC)
}
