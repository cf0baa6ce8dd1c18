package days

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// June 2024: the 1st is a Saturday, the 3rd a Monday.
func june(day int) time.Time {
	return time.Date(2024, time.June, day, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestNew_RejectsCalendarWithoutWorkingDays(t *testing.T) {
	weekDays := make([]models.WeekDay, 0, 7)
	for d := 1; d <= 7; d++ {
		weekDays = append(weekDays, models.WeekDay{Day: d, Working: false})
	}

	_, err := New(weekDays, nil)
	assert.ErrorIs(t, err, ErrNoWorkingDays)
}

func TestNew_RejectsInvalidWeekDay(t *testing.T) {
	_, err := New([]models.WeekDay{{Day: 8, Working: true}}, nil)
	assert.Error(t, err)
}

func TestWorking(t *testing.T) {
	cal := Default()

	assert.False(t, cal.Working(june(1)), "saturday")
	assert.False(t, cal.Working(june(2)), "sunday")
	assert.True(t, cal.Working(june(3)), "monday")
	assert.True(t, cal.Working(june(3).Add(15*time.Hour)), "time of day is ignored")
}

func TestWorking_NonWorkingDay(t *testing.T) {
	cal, err := New(nil, []models.NonWorkingDay{{Date: june(5), Name: "Founders day"}})
	require.NoError(t, err)

	assert.False(t, cal.Working(june(5)))
	assert.True(t, cal.Working(june(1)), "weekends work when no week day is configured")

	name, ok := cal.NonWorkingName(june(5))
	assert.True(t, ok)
	assert.Equal(t, "Founders day", name)
}

func TestSoonestWorkingDay(t *testing.T) {
	cal := Default()

	tests := []struct {
		name string
		date time.Time
		lag  int
		want time.Time
	}{
		{"working day stays", june(4), 0, june(4)},
		{"saturday moves to monday", june(1), 0, june(3)},
		{"lag skips working days", june(1), 2, june(5)},
		{"lag crosses weekend", june(6), 2, june(10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cal.SoonestWorkingDay(tt.date, tt.lag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLatestWorkingDay(t *testing.T) {
	got, err := Default().LatestWorkingDay(june(9))
	require.NoError(t, err)
	assert.Equal(t, june(7), got)
}

func TestDuration(t *testing.T) {
	cal := Default()

	d, ok := cal.Duration(ptr(june(3)), ptr(june(10)))
	assert.True(t, ok)
	assert.Equal(t, 6, d)

	d, ok = cal.Duration(ptr(june(1)), ptr(june(2)))
	assert.True(t, ok)
	assert.Equal(t, 0, d, "weekend only")

	d, ok = cal.Duration(ptr(june(10)), ptr(june(3)))
	assert.True(t, ok)
	assert.Equal(t, 0, d, "start after due")

	_, ok = cal.Duration(nil, ptr(june(3)))
	assert.False(t, ok)
}

func TestDueDate(t *testing.T) {
	cal := Default()

	got, err := cal.DueDate(june(3), 5)
	require.NoError(t, err)
	assert.Equal(t, june(7), got)

	got, err = cal.DueDate(june(6), 3)
	require.NoError(t, err)
	assert.Equal(t, june(10), got)

	got, err = cal.DueDate(june(1), 1)
	require.NoError(t, err)
	assert.Equal(t, june(3), got, "non-working start moves to the next working day")

	_, err = cal.DueDate(june(3), 0)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestDueDate_SkipsNonWorkingDays(t *testing.T) {
	cal, err := New(
		[]models.WeekDay{{Day: 6, Working: false}, {Day: 7, Working: false}},
		[]models.NonWorkingDay{{Date: june(5)}},
	)
	require.NoError(t, err)

	got, err := cal.DueDate(june(3), 5)
	require.NoError(t, err)
	assert.Equal(t, june(10), got)
}

func TestStartDate(t *testing.T) {
	cal := Default()

	got, err := cal.StartDate(june(7), 5)
	require.NoError(t, err)
	assert.Equal(t, june(3), got)

	got, err = cal.StartDate(june(9), 1)
	require.NoError(t, err)
	assert.Equal(t, june(7), got, "non-working due moves back to friday")

	got, err = cal.StartDate(june(10), 2)
	require.NoError(t, err)
	assert.Equal(t, june(7), got)
}

func TestDueDateStartDateRoundTrip(t *testing.T) {
	cal := Default()
	for duration := 1; duration <= 15; duration++ {
		due, err := cal.DueDate(june(4), duration)
		require.NoError(t, err)
		start, err := cal.StartDate(due, duration)
		require.NoError(t, err)
		assert.Equal(t, june(4), start, "duration %d", duration)

		got, _ := cal.Duration(&start, &due)
		assert.Equal(t, duration, got)
	}
}

func TestFor_IgnoreNonWorkingDays(t *testing.T) {
	cal := Default().For(true)

	d, ok := cal.Duration(ptr(june(1)), ptr(june(2)))
	assert.True(t, ok)
	assert.Equal(t, 2, d)

	base := Default()
	assert.Same(t, base, base.For(false))
}

func TestLag(t *testing.T) {
	cal := Default()
	assert.Equal(t, 1, cal.Lag(june(7), june(11)))
	assert.Equal(t, 0, cal.Lag(june(3), june(4)))
	assert.Equal(t, 0, cal.Lag(june(4), june(3)))
}

func TestSearchLimit(t *testing.T) {
	// every weekday of the next decade is a holiday
	var holidays []models.NonWorkingDay
	for d := june(1); d.Before(june(1).AddDate(11, 0, 0)); d = d.AddDate(0, 0, 1) {
		holidays = append(holidays, models.NonWorkingDay{Date: d})
	}
	cal, err := New(nil, holidays)
	require.NoError(t, err)

	_, err = cal.SoonestWorkingDay(june(1), 0)
	assert.ErrorIs(t, err, ErrSearchLimit)
}
