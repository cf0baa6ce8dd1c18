package models

// FieldFormat is the value format of a custom field
type FieldFormat string

const (
	FormatString    FieldFormat = "string"
	FormatText      FieldFormat = "text"
	FormatInt       FieldFormat = "int"
	FormatFloat     FieldFormat = "float"
	FormatBool      FieldFormat = "bool"
	FormatDate      FieldFormat = "date"
	FormatList      FieldFormat = "list"
	FormatHierarchy FieldFormat = "hierarchy"
)

// FieldFormats lists every supported format
var FieldFormats = []FieldFormat{
	FormatString, FormatText, FormatInt, FormatFloat,
	FormatBool, FormatDate, FormatList, FormatHierarchy,
}

// CustomField is a user-defined attribute attachable to work packages
type CustomField struct {
	ID             int         `json:"id"`
	Name           string      `json:"name"`
	Format         FieldFormat `json:"format"`
	Required       bool        `json:"required"`
	MinLength      int         `json:"min_length"` // 0 = no limit
	MaxLength      int         `json:"max_length"` // 0 = no limit
	Regexp         string      `json:"regexp"`
	PossibleValues []string    `json:"possible_values"` // list format only
}

// GetID returns the custom field ID (used by quiet CLI output)
func (cf *CustomField) GetID() int { return cf.ID }

// HierarchyItem is a node of a hierarchy custom field's value tree.
// The root item has neither parent nor label.
type HierarchyItem struct {
	ID            int     `json:"id" db:"id"`
	CustomFieldID int     `json:"custom_field_id" db:"custom_field_id"`
	ParentID      *int    `json:"parent_id" db:"parent_id"`
	Label         *string `json:"label" db:"label"`
	Short         *string `json:"short" db:"short"`
	Position      int     `json:"position" db:"position"`
}

// GetID returns the item ID (used by quiet CLI output)
func (h *HierarchyItem) GetID() int { return h.ID }

// IsRoot reports whether the item is its tree's root
func (h *HierarchyItem) IsRoot() bool { return h.ParentID == nil }

// LabelText returns the label or the empty string for the root
func (h *HierarchyItem) LabelText() string {
	if h.Label == nil {
		return ""
	}
	return *h.Label
}

// ShortText returns the short or the empty string
func (h *HierarchyItem) ShortText() string {
	if h.Short == nil {
		return ""
	}
	return *h.Short
}

// CustomValue stores the raw value of a custom field on a work package.
// Hierarchy values hold the item ID in decimal.
type CustomValue struct {
	CustomFieldID int    `json:"custom_field_id" db:"custom_field_id"`
	WorkPackageID int    `json:"work_package_id" db:"work_package_id"`
	Value         string `json:"value" db:"value"`
}

// CustomValueDetail pairs a value with its field and a display string
type CustomValueDetail struct {
	Field     *CustomField `json:"field"`
	Value     string       `json:"value"`
	Formatted string       `json:"formatted"`
}

// StringPtr is a convenience for building optional strings
func StringPtr(s string) *string { return &s }
