package models

import "time"

// Comment is a note left on a work package's activity
type Comment struct {
	ID            int       `json:"id" db:"id"`
	WorkPackageID int       `json:"work_package_id" db:"work_package_id"`
	Author        string    `json:"author" db:"author"`
	Message       string    `json:"message" db:"message"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// GetID returns the comment ID (used by quiet CLI output)
func (c *Comment) GetID() int { return c.ID }
