package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	hh, mm, err := parseClock("09:00")
	require.NoError(t, err)
	assert.Equal(t, 9, hh)
	assert.Equal(t, 0, mm)

	hh, mm, err = parseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23, hh)
	assert.Equal(t, 59, mm)

	for _, bad := range []string{"", "9", "24:00", "10:60", "aa:bb"} {
		_, _, err := parseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseWeekday(t *testing.T) {
	d, err := parseWeekday("Monday")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d)

	d, err = parseWeekday("friday")
	require.NoError(t, err)
	assert.Equal(t, time.Friday, d)

	_, err = parseWeekday("Someday")
	assert.Error(t, err)
}

func TestNextDailyAt(t *testing.T) {
	// 2024-03-05 is a Tuesday.
	now := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

	next := nextDailyAt(now, 9, 0)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), next)

	// Past today's slot rolls to tomorrow.
	next = nextDailyAt(time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), 9, 0)
	assert.Equal(t, time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), next)

	// Exactly at the slot also rolls forward.
	next = nextDailyAt(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), 9, 0)
	assert.Equal(t, time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), next)
}

func TestNextWeeklyAt(t *testing.T) {
	tuesday := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

	// Next Monday 10:00 from a Tuesday is six days out.
	next := nextWeeklyAt(tuesday, time.Monday, 10, 0)
	assert.Equal(t, time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Monday, next.Weekday())

	// Same weekday, earlier in the day: today.
	next = nextWeeklyAt(tuesday, time.Tuesday, 10, 0)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), next)

	// Same weekday, slot already passed: next week.
	next = nextWeeklyAt(time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC), time.Tuesday, 10, 0)
	assert.Equal(t, time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC), next)
}

func TestRunDueFiresAndReschedules(t *testing.T) {
	var runs []string
	s := &Scheduler{now: func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }}
	s.triggers = []*trigger{
		{
			name: "due",
			next: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
			reschedule: func(after time.Time) time.Time {
				return after.Add(time.Hour)
			},
			run: func(ctx context.Context) error {
				runs = append(runs, "due")
				return nil
			},
		},
		{
			name: "not_due",
			next: time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC),
			reschedule: func(after time.Time) time.Time {
				return after.Add(time.Hour)
			},
			run: func(ctx context.Context) error {
				runs = append(runs, "not_due")
				return nil
			},
		},
	}

	s.runDue(context.Background())

	assert.Equal(t, []string{"due"}, runs)
	assert.Equal(t, time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC), s.triggers[0].next)
}

func TestFireRecoversFromPanic(t *testing.T) {
	s := &Scheduler{now: time.Now}

	assert.NotPanics(t, func() {
		s.fire(context.Background(), "panicky", func(ctx context.Context) error {
			panic("boom")
		})
	})
}
