package contracts

import (
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// WeekDaysContract checks a new working week
type WeekDaysContract struct {
	User *models.Principal
}

// Validate requires all seven days, each once, and at least one of
// them working
func (c WeekDaysContract) Validate(weekDays []models.WeekDay) *Errors {
	if !c.User.Allowed(models.PermissionManageWorkingDays, 0) {
		return single(AttrBase, CodeUnauthorized)
	}
	errs := NewErrors()
	seen := make(map[int]bool, 7)
	working := false
	for _, wd := range weekDays {
		if wd.Day < 1 || wd.Day > 7 || seen[wd.Day] {
			errs.Add("week_days", CodeInvalid)
			continue
		}
		seen[wd.Day] = true
		working = working || wd.Working
	}
	if len(seen) != 7 {
		errs.Add("week_days", CodeInvalid)
	}
	if !working {
		errs.Add("working_days", CodeBlank)
	}
	return errs
}

type nonWorkingDayAttributes struct {
	Name string `attr:"name" validate:"required,max=255"`
}

// NonWorkingDayContract checks holidays
type NonWorkingDayContract struct {
	User      *models.Principal
	DateTaken bool
}

// Validate checks a new non-working day
func (c NonWorkingDayContract) Validate(nwd *models.NonWorkingDay) *Errors {
	if !c.User.Allowed(models.PermissionManageWorkingDays, 0) {
		return single(AttrBase, CodeUnauthorized)
	}
	errs := validateStruct(nonWorkingDayAttributes{Name: nwd.Name})
	if nwd.Date.IsZero() {
		errs.Add("date", CodeBlank)
	}
	if c.DateTaken {
		errs.Add("date", CodeTaken)
	}
	return errs
}
