package scheduler

import "time"

// Schedule returns the first fire time strictly after the given instant.
type Schedule func(after time.Time) time.Time

// Daily fires every day at hour:00 UTC.
func Daily(hour int) Schedule {
	return func(after time.Time) time.Time {
		a := after.UTC()
		next := time.Date(a.Year(), a.Month(), a.Day(), hour, 0, 0, 0, time.UTC)
		if !next.After(a) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
}

// Weekly fires once a week on day at hour:00 UTC.
func Weekly(day time.Weekday, hour int) Schedule {
	return func(after time.Time) time.Time {
		a := after.UTC()
		diff := (int(day) - int(a.Weekday()) + 7) % 7
		next := time.Date(a.Year(), a.Month(), a.Day()+diff, hour, 0, 0, 0, time.UTC)
		if !next.After(a) {
			next = next.AddDate(0, 0, 7)
		}
		return next
	}
}
