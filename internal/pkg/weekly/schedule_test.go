package weekly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextMonday(t *testing.T) {
	tests := []struct {
		from time.Time
		want time.Time
	}{
		// Sunday 23:00 run -> next day
		{time.Date(2026, 3, 1, 23, 0, 5, 0, time.UTC), time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)},
		// Monday -> a week later
		{time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)},
		// Tuesday
		{time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)},
		// Saturday across a month boundary
		{time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got := NextMonday(tt.from, SendHour)
		assert.Equal(t, tt.want, got, "from %s", tt.from.Weekday())
		assert.Equal(t, time.Monday, got.Weekday())
	}

	assert.Equal(t, time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
		NextMonday(time.Date(2026, 2, 26, 15, 0, 0, 0, time.UTC), TrialStartHour))
}

func TestNextMondayNormalizesToUTC(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	// Monday 00:30 in Berlin is still Sunday in UTC.
	from := time.Date(2026, 3, 2, 0, 30, 0, 0, berlin)
	assert.Equal(t, time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC), NextMonday(from, SendHour))
}
