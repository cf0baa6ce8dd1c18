package models

import "time"

// Project is the top-level container for work packages, memberships and
// project-scoped webhooks.
type Project struct {
	ID          int       `json:"id" db:"id"`
	Identifier  string    `json:"identifier" db:"identifier"` // URL-safe slug, unique (e.g. "apollo-launch")
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// GetID returns the project ID (used by quiet CLI output)
func (p *Project) GetID() int { return p.ID }
