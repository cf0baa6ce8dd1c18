package models

// RelationType names a kind of relation between two work packages
type RelationType string

const (
	RelationRelates    RelationType = "relates"
	RelationDuplicates RelationType = "duplicates"
	RelationBlocks     RelationType = "blocks"
	RelationFollows    RelationType = "follows"
	RelationIncludes   RelationType = "includes"
	RelationRequires   RelationType = "requires"

	// RelationPrecedes is accepted as input only and stored as the
	// reverse follows relation.
	RelationPrecedes RelationType = "precedes"
)

// RelationTypes lists the stored relation types
var RelationTypes = []RelationType{
	RelationRelates,
	RelationDuplicates,
	RelationBlocks,
	RelationFollows,
	RelationIncludes,
	RelationRequires,
}

// Relation links two work packages. For follows, FromID is the successor
// and ToID the predecessor; Lag is the number of working days the
// successor keeps free after the predecessor ends.
type Relation struct {
	ID     int          `json:"id" db:"id"`
	FromID int          `json:"from_id" db:"from_id"`
	ToID   int          `json:"to_id" db:"to_id"`
	Type   RelationType `json:"type" db:"type"`
	Lag    int          `json:"lag" db:"lag"`
}

// GetID returns the relation ID (used by quiet CLI output)
func (r *Relation) GetID() int { return r.ID }

// Other returns the work package on the opposite end of the relation
func (r *Relation) Other(id int) int {
	if r.FromID == id {
		return r.ToID
	}
	return r.FromID
}

// Normalize rewrites precedes into its reverse follows form
func (r Relation) Normalize() Relation {
	if r.Type == RelationPrecedes {
		r.Type = RelationFollows
		r.FromID, r.ToID = r.ToID, r.FromID
	}
	if r.Type != RelationFollows {
		r.Lag = 0
	}
	return r
}

// RelationReference is a relation seen from one of its ends
type RelationReference struct {
	RelationID int                  `json:"relation_id"`
	Label      string               `json:"label"` // e.g. "follows", "precedes", "blocked by"
	Lag        int                  `json:"lag"`
	Other      WorkPackageReference `json:"other"`
}

// LabelFor returns how the relation reads from the point of view of id
func (r *Relation) LabelFor(id int) string {
	if r.FromID == id {
		return string(r.Type)
	}
	switch r.Type {
	case RelationFollows:
		return "precedes"
	case RelationBlocks:
		return "blocked by"
	case RelationDuplicates:
		return "duplicated by"
	case RelationIncludes:
		return "part of"
	case RelationRequires:
		return "required by"
	default:
		return string(r.Type)
	}
}
