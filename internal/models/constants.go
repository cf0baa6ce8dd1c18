package models

// ============================================================================
// TYPE CONSTANTS
// ============================================================================

// Work package type IDs (seeded by migrations)
const (
	TypeTask      = 1
	TypeMilestone = 2
	TypePhase     = 3
	TypeFeature   = 4
	TypeBug       = 5
)

// ============================================================================
// STATUS CONSTANTS
// ============================================================================

// Status IDs (seeded by migrations)
const (
	StatusNew        = 1
	StatusInProgress = 2
	StatusOnHold     = 3
	StatusClosed     = 4
)

// ============================================================================
// PRIORITY CONSTANTS
// ============================================================================

// Priority IDs (seeded by migrations)
const (
	PriorityLow       = 1
	PriorityNormal    = 2
	PriorityHigh      = 3
	PriorityImmediate = 4
)

// ============================================================================
// LIMITS
// ============================================================================

const (
	MaxSubjectLength    = 255
	MaxIdentifierLength = 100
	MaxNameLength       = 255
)

// Type is a work package type
type Type struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	IsMilestone bool   `json:"is_milestone" db:"is_milestone"`
}

// Status is a work package workflow status
type Status struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	IsClosed bool   `json:"is_closed" db:"is_closed"`
}

// Priority is a work package priority level
type Priority struct {
	ID    int    `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}

// ValidTypeID reports whether id names a seeded work package type
func ValidTypeID(id int) bool { return id >= TypeTask && id <= TypeBug }

// ValidStatusID reports whether id names a seeded status
func ValidStatusID(id int) bool { return id >= StatusNew && id <= StatusClosed }

// ValidPriorityID reports whether id names a seeded priority
func ValidPriorityID(id int) bool { return id >= PriorityLow && id <= PriorityImmediate }
