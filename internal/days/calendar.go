// Package days implements working-day arithmetic over a week-day pattern
// and a set of non-working dates.
package days

import (
	"errors"
	"fmt"
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

var (
	// ErrNoWorkingDays is returned when every week day is marked non-working
	ErrNoWorkingDays = errors.New("at least one week day must be a working day")

	// ErrInvalidDuration is returned for durations < 1
	ErrInvalidDuration = errors.New("duration must be a positive number of working days")

	// ErrSearchLimit is returned when no working day exists within the search window
	ErrSearchLimit = errors.New("no working day found within search window")
)

// searchLimit bounds every day-by-day walk (~10 years)
const searchLimit = 3660

var oneDay = 24 * time.Hour

// Calendar answers working-day questions. The zero value is not usable;
// build one with New, Default or AllDays.
type Calendar struct {
	weekdays   [8]bool // index 1..7, ISO numbering
	nonWorking map[time.Time]string
	allWorking bool
}

// New builds a calendar from week-day flags and non-working dates.
// Week days missing from weekDays are treated as working.
func New(weekDays []models.WeekDay, nonWorking []models.NonWorkingDay) (*Calendar, error) {
	c := &Calendar{nonWorking: make(map[time.Time]string, len(nonWorking))}
	for d := 1; d <= 7; d++ {
		c.weekdays[d] = true
	}
	for _, wd := range weekDays {
		if wd.Day < 1 || wd.Day > 7 {
			return nil, fmt.Errorf("invalid week day %d", wd.Day)
		}
		c.weekdays[wd.Day] = wd.Working
	}

	working := false
	for d := 1; d <= 7; d++ {
		working = working || c.weekdays[d]
	}
	if !working {
		return nil, ErrNoWorkingDays
	}

	for _, nwd := range nonWorking {
		c.nonWorking[models.Date(nwd.Date)] = nwd.Name
	}
	return c, nil
}

// Default returns a Monday to Friday calendar without holidays
func Default() *Calendar {
	c, _ := New([]models.WeekDay{{Day: 6, Working: false}, {Day: 7, Working: false}}, nil)
	return c
}

// AllDays returns a calendar in which every day is a working day
func AllDays() *Calendar {
	return &Calendar{allWorking: true}
}

// For returns the calendar applying to a work package: when it ignores
// non-working days every day counts.
func (c *Calendar) For(ignoreNonWorkingDays bool) *Calendar {
	if ignoreNonWorkingDays {
		return AllDays()
	}
	return c
}

// Working reports whether date is a working day
func (c *Calendar) Working(date time.Time) bool {
	if c.allWorking {
		return true
	}
	date = models.Date(date)
	if !c.weekdays[models.ISOWeekday(date.Weekday())] {
		return false
	}
	_, off := c.nonWorking[date]
	return !off
}

// NonWorkingName returns the holiday name for date, if any
func (c *Calendar) NonWorkingName(date time.Time) (string, bool) {
	name, ok := c.nonWorking[models.Date(date)]
	return name, ok
}

// SoonestWorkingDay returns the first working day on or after date,
// then advanced by lag further working days.
func (c *Calendar) SoonestWorkingDay(date time.Time, lag int) (time.Time, error) {
	d := models.Date(date)
	steps := 0
	for !c.Working(d) {
		d = d.Add(oneDay)
		if steps++; steps > searchLimit {
			return time.Time{}, ErrSearchLimit
		}
	}
	for lag > 0 {
		d = d.Add(oneDay)
		if c.Working(d) {
			lag--
		}
		if steps++; steps > searchLimit {
			return time.Time{}, ErrSearchLimit
		}
	}
	return d, nil
}

// LatestWorkingDay returns the last working day on or before date
func (c *Calendar) LatestWorkingDay(date time.Time) (time.Time, error) {
	d := models.Date(date)
	for steps := 0; !c.Working(d); steps++ {
		if steps > searchLimit {
			return time.Time{}, ErrSearchLimit
		}
		d = d.Add(-oneDay)
	}
	return d, nil
}

// Duration counts the working days in [start, due]. It reports false
// when either date is missing and 0 when start is after due.
func (c *Calendar) Duration(start, due *time.Time) (int, bool) {
	if start == nil || due == nil {
		return 0, false
	}
	from, to := models.Date(*start), models.Date(*due)
	count := 0
	for d := from; !d.After(to); d = d.Add(oneDay) {
		if c.Working(d) {
			count++
		}
	}
	return count, true
}

// DueDate returns the date on which a work package starting on start
// and lasting duration working days ends.
func (c *Calendar) DueDate(start time.Time, duration int) (time.Time, error) {
	if duration < 1 {
		return time.Time{}, ErrInvalidDuration
	}
	d, err := c.SoonestWorkingDay(start, 0)
	if err != nil {
		return time.Time{}, err
	}
	return c.SoonestWorkingDay(d, duration-1)
}

// StartDate returns the date on which a work package ending on due and
// lasting duration working days starts.
func (c *Calendar) StartDate(due time.Time, duration int) (time.Time, error) {
	if duration < 1 {
		return time.Time{}, ErrInvalidDuration
	}
	d, err := c.LatestWorkingDay(due)
	if err != nil {
		return time.Time{}, err
	}
	for remaining, steps := duration-1, 0; remaining > 0; steps++ {
		if steps > searchLimit {
			return time.Time{}, ErrSearchLimit
		}
		d = d.Add(-oneDay)
		if c.Working(d) {
			remaining--
		}
	}
	return d, nil
}

// Lag counts the working days strictly between from and to
func (c *Calendar) Lag(from, to time.Time) int {
	from, to = models.Date(from), models.Date(to)
	count := 0
	for d := from.Add(oneDay); d.Before(to); d = d.Add(oneDay) {
		if c.Working(d) {
			count++
		}
	}
	return count
}
