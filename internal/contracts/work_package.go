package contracts

import (
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/days"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/scheduling"
)

type workPackageAttributes struct {
	Subject  string `attr:"subject" validate:"required,max=255"`
	Duration *int   `attr:"duration" validate:"omitempty,gte=1"`
}

// WorkPackageContract checks work package creation and updates. Graph
// holds the dependency graph before the change; the contract uses it
// for hierarchy and cycle checks.
type WorkPackageContract struct {
	User     *models.Principal
	Calendar *days.Calendar
	Graph    *scheduling.Graph
}

// WorkPackageChange is a proposed create (Old == nil) or update
type WorkPackageChange struct {
	Old     *models.WorkPackage
	New     *models.WorkPackage
	Changed scheduling.Fields

	// Parent is the new parent when ParentID is set; nil when it does
	// not exist
	Parent *models.WorkPackage

	// ProjectExists is false when New.ProjectID names no project
	ProjectExists bool
}

// Validate runs every work package rule and returns the collected errors
func (c WorkPackageContract) Validate(ch WorkPackageChange) *Errors {
	wp := ch.New
	if !ch.ProjectExists {
		return single("project", CodeNotFound)
	}
	if errs := c.authorize(ch); !errs.Empty() {
		return errs
	}

	errs := validateStruct(workPackageAttributes{Subject: wp.Subject, Duration: wp.Duration})

	if !models.ValidTypeID(wp.TypeID) {
		errs.Add("type", CodeInclusion)
	}
	if !models.ValidStatusID(wp.StatusID) {
		errs.Add("status", CodeInclusion)
	}
	if !models.ValidPriorityID(wp.PriorityID) {
		errs.Add("priority", CodeInclusion)
	}

	if ch.Old != nil && wp.LockVersion != ch.Old.LockVersion {
		errs.Add(AttrBase, CodeStale)
	}

	c.validateDates(ch, errs)
	c.validateParent(ch, errs)
	return errs
}

// ValidateDelete checks that the user may delete wp
func (c WorkPackageContract) ValidateDelete(wp *models.WorkPackage) *Errors {
	return Authorize(c.User, models.PermissionDeleteWorkPackages, wp.ProjectID)
}

func (c WorkPackageContract) authorize(ch WorkPackageChange) *Errors {
	wp := ch.New
	if ch.Old == nil {
		if !c.User.Allowed(models.PermissionAddWorkPackages, wp.ProjectID) {
			return single(AttrBase, CodeUnauthorized)
		}
	} else if !c.User.Allowed(models.PermissionEditWorkPackages, wp.ProjectID) {
		return single(AttrBase, CodeUnauthorized)
	}
	if parentChanged(ch) && !c.User.Allowed(models.PermissionManageSubtasks, wp.ProjectID) {
		return single("parent", CodeUnauthorized)
	}
	return NewErrors()
}

func (c WorkPackageContract) validateDates(ch WorkPackageChange, errs *Errors) {
	wp := ch.New

	if wp.StartDate != nil && wp.DueDate != nil && wp.DueDate.Before(*wp.StartDate) {
		errs.Add("due_date", CodeDueBeforeStart)
	}

	if wp.IsMilestone() && !models.SameDate(wp.StartDate, wp.DueDate) {
		errs.Add("due_date", CodeInvalid)
	}

	// Dates of automatically scheduled parents derive from their children
	if ch.Old != nil && c.Graph != nil && c.Graph.IsParent(wp.ID) && !wp.ScheduleManually {
		if ch.Changed.StartDate && !models.SameDate(ch.Old.StartDate, wp.StartDate) {
			errs.Add("start_date", CodeReadonly)
		}
		if ch.Changed.DueDate && !models.SameDate(ch.Old.DueDate, wp.DueDate) {
			errs.Add("due_date", CodeReadonly)
		}
		if ch.Changed.Duration && !models.SameInt(ch.Old.Duration, wp.Duration) {
			errs.Add("duration", CodeReadonly)
		}
	}

	if c.Calendar == nil || wp.IgnoreNonWorkingDays {
		return
	}
	if ch.Changed.StartDate && !working(c.Calendar, wp.StartDate) {
		errs.Add("start_date", CodeNotAWorkingDay)
	}
	if ch.Changed.DueDate && !working(c.Calendar, wp.DueDate) {
		errs.Add("due_date", CodeNotAWorkingDay)
	}
}

func (c WorkPackageContract) validateParent(ch WorkPackageChange, errs *Errors) {
	wp := ch.New
	if wp.IsMilestone() && c.Graph != nil && wp.ID != 0 && c.Graph.IsParent(wp.ID) {
		errs.Add("type", CodeInvalid)
	}
	if wp.ParentID == nil || !parentChanged(ch) {
		return
	}

	if ch.Parent == nil {
		errs.Add("parent", CodeNotFound)
		return
	}
	if ch.Parent.ProjectID != wp.ProjectID {
		errs.Add("parent", CodeInvalid)
	}
	if ch.Parent.IsMilestone() {
		errs.Add("parent", CodeInvalid)
	}
	if wp.ID == 0 || c.Graph == nil {
		return
	}
	if ch.Parent.ID == wp.ID || c.Graph.IsAncestor(wp.ID, ch.Parent.ID) {
		errs.Add("parent", CodeCantLinkToDescendant)
		return
	}
	if c.Graph.WouldCycleWithParent(wp.ID, ch.Parent.ID) {
		errs.Add("parent", CodeCircularDependency)
	}
}

func parentChanged(ch WorkPackageChange) bool {
	if ch.Old == nil {
		return ch.New.ParentID != nil
	}
	return !models.SameInt(ch.Old.ParentID, ch.New.ParentID)
}

func working(cal *days.Calendar, date *time.Time) bool {
	return date == nil || cal.Working(*date)
}
