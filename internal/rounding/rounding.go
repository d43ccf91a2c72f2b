// Package rounding normalizes checkout times to the next configured
// boundary. Check-in always records the exact scan time; only the scheduled
// end of a shift is rounded, and only upward.
package rounding

import "time"

// Allowed rounding intervals in minutes.
const (
	IntervalQuarterHour = 15
	IntervalHalfHour    = 30

	DefaultIntervalMinutes = IntervalHalfHour
)

// ValidInterval reports whether n is a supported rounding interval.
func ValidInterval(n int) bool {
	return n == IntervalQuarterHour || n == IntervalHalfHour
}

// RoundUp returns t moved forward to the next intervalMinutes boundary in
// t's location, with seconds and sub-seconds zeroed. A timestamp already
// exactly on a boundary is returned unchanged. Rolling into the next hour
// or day falls out of time.Date normalization.
func RoundUp(t time.Time, intervalMinutes int) time.Time {
	if !ValidInterval(intervalMinutes) {
		intervalMinutes = DefaultIntervalMinutes
	}

	if t.Minute()%intervalMinutes == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}

	boundary := (t.Minute()/intervalMinutes + 1) * intervalMinutes
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), boundary, 0, 0, t.Location())
}
