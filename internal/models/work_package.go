package models

import "time"

// WorkPackage is the central tracked entity: a task, milestone, phase,
// feature or bug belonging to a project.
//
// Dates are calendar days normalized to UTC midnight. Duration counts
// working days between StartDate and DueDate (inclusive) in the calendar
// that applies to the work package.
type WorkPackage struct {
	ID                   int        `json:"id"`
	ProjectID            int        `json:"project_id"`
	ParentID             *int       `json:"parent_id"`
	TypeID               int        `json:"type_id"`
	StatusID             int        `json:"status_id"`
	PriorityID           int        `json:"priority_id"`
	Subject              string     `json:"subject"`
	Description          string     `json:"description"`
	StartDate            *time.Time `json:"start_date"`
	DueDate              *time.Time `json:"due_date"`
	Duration             *int       `json:"duration"`
	ScheduleManually     bool       `json:"schedule_manually"`
	IgnoreNonWorkingDays bool       `json:"ignore_non_working_days"`
	LockVersion          int        `json:"lock_version"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// GetID returns the work package ID (used by quiet CLI output)
func (wp *WorkPackage) GetID() int { return wp.ID }

// IsMilestone reports whether the work package is of the milestone type
func (wp *WorkPackage) IsMilestone() bool { return wp.TypeID == TypeMilestone }

// Clone returns a deep copy so schedulers can mutate freely
func (wp *WorkPackage) Clone() *WorkPackage {
	c := *wp
	if wp.ParentID != nil {
		v := *wp.ParentID
		c.ParentID = &v
	}
	if wp.StartDate != nil {
		v := *wp.StartDate
		c.StartDate = &v
	}
	if wp.DueDate != nil {
		v := *wp.DueDate
		c.DueDate = &v
	}
	if wp.Duration != nil {
		v := *wp.Duration
		c.Duration = &v
	}
	return &c
}

// WorkPackageDetail is the full view used by `op wp show`
type WorkPackageDetail struct {
	WorkPackage
	ProjectIdentifier string                  `json:"project_identifier"`
	TypeName          string                  `json:"type"`
	StatusName        string                  `json:"status"`
	StatusClosed      bool                    `json:"closed"`
	PriorityName      string                  `json:"priority"`
	PriorityColor     string                  `json:"-"`
	Children          []*WorkPackageReference `json:"children"`
	Relations         []*RelationReference    `json:"relations"`
	CustomValues      []*CustomValueDetail    `json:"custom_values"`
}

// WorkPackageReference is a lightweight pointer to another work package
type WorkPackageReference struct {
	ID        int        `json:"id"`
	Subject   string     `json:"subject"`
	StartDate *time.Time `json:"start_date"`
	DueDate   *time.Time `json:"due_date"`
}

// Date returns t truncated to UTC midnight
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DatePtr is a convenience for building optional dates
func DatePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// IntPtr is a convenience for building optional ints
func IntPtr(v int) *int { return &v }

// SameDate compares two optional dates by calendar day
func SameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Date(*a).Equal(Date(*b))
}

// SameInt compares two optional ints
func SameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
