package models

import "time"

// WeekDay configures whether a day of the week is a working day.
// Day follows ISO numbering: 1 = Monday ... 7 = Sunday.
type WeekDay struct {
	Day     int  `json:"day" db:"day"`
	Working bool `json:"working" db:"working"`
}

// NonWorkingDay is a specific date off work (e.g. a public holiday)
type NonWorkingDay struct {
	ID   int       `json:"id"`
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// GetID returns the non-working day ID (used by quiet CLI output)
func (n *NonWorkingDay) GetID() int { return n.ID }

// ISOWeekday converts a time.Weekday into ISO numbering
func ISOWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}
