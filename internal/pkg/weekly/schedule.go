package weekly

import "time"

const (
	// SendHour is the UTC hour of the weekly send slot.
	SendHour = 23
	// TrialStartHour is the UTC hour used for the first slot after a trial
	// is started.
	TrialStartHour = 6
)

// NextMonday returns the next Monday strictly after from's day at hour:00
// UTC. A Monday yields the Monday a week later.
func NextMonday(from time.Time, hour int) time.Time {
	d := from.UTC()
	diff := (8 - int(d.Weekday())) % 7
	if diff == 0 {
		diff = 7
	}
	next := d.AddDate(0, 0, diff)
	return time.Date(next.Year(), next.Month(), next.Day(), hour, 0, 0, 0, time.UTC)
}
