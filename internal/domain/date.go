package domain

import "time"

// DateLayout is the canonical day key format used across repositories and
// breakdown maps.
const DateLayout = "2006-01-02"

// DayOf truncates a timestamp to UTC midnight. All daily aggregation keys on
// the result of this function so that orders and refunds land on the same day
// regardless of the timezone the platform reported them in.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a day for use as a map key or log field.
func DateKey(t time.Time) string {
	return DayOf(t).Format(DateLayout)
}
