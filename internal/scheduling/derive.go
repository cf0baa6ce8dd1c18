package scheduling

import (
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// Fields marks which date attributes a user edit touched
type Fields struct {
	StartDate bool
	DueDate   bool
	Duration  bool
}

// Any reports whether at least one date attribute changed
func (f Fields) Any() bool { return f.StartDate || f.DueDate || f.Duration }

// DeriveDates completes the start / due / duration triangle of wp after
// a user edit so that the three agree in the work package's calendar.
func (s *Scheduler) DeriveDates(wp *models.WorkPackage, changed Fields) error {
	cal := s.Calendar(wp)

	if wp.IsMilestone() {
		date := wp.StartDate
		if date == nil || (changed.DueDate && wp.DueDate != nil && !changed.StartDate) {
			date = wp.DueDate
		}
		if date == nil {
			wp.StartDate, wp.DueDate, wp.Duration = nil, nil, nil
			return nil
		}
		wp.StartDate, wp.DueDate = copyDate(date), copyDate(date)
		wp.Duration = models.IntPtr(1)
		return nil
	}

	if (changed.StartDate && wp.StartDate == nil) || (changed.DueDate && wp.DueDate == nil) {
		if !changed.Duration || wp.StartDate == nil && wp.DueDate == nil {
			wp.Duration = nil
			return nil
		}
	}

	hasStart, hasDue := wp.StartDate != nil, wp.DueDate != nil
	hasDuration := wp.Duration != nil && *wp.Duration > 0

	switch {
	case changed.StartDate && changed.DueDate && hasStart && hasDue:
		// explicit dates win over a duration given alongside them
	case changed.Duration && hasDuration && hasStart:
		due, err := cal.DueDate(*wp.StartDate, *wp.Duration)
		if err != nil {
			return err
		}
		wp.DueDate = &due
	case changed.Duration && hasDuration && hasDue:
		start, err := cal.StartDate(*wp.DueDate, *wp.Duration)
		if err != nil {
			return err
		}
		wp.StartDate = &start
	case changed.StartDate && hasStart && hasDuration && !changed.DueDate:
		due, err := cal.DueDate(*wp.StartDate, *wp.Duration)
		if err != nil {
			return err
		}
		wp.DueDate = &due
	case changed.DueDate && hasDue && hasDuration && !hasStart:
		start, err := cal.StartDate(*wp.DueDate, *wp.Duration)
		if err != nil {
			return err
		}
		wp.StartDate = &start
	}

	setDuration(cal, wp)
	return nil
}
