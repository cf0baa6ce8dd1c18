package contracts

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/days"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/hierarchy"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/scheduling"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func admin() *models.Principal {
	return &models.Principal{User: &models.User{ID: 1, Login: "admin", Admin: true}}
}

func memberOf(projectID int, role models.Role) *models.Principal {
	return &models.Principal{
		User:        &models.User{ID: 2, Login: "jane"},
		Memberships: map[int]models.Role{projectID: role},
	}
}

func june(day int) *time.Time { return models.DatePtr(2024, time.June, day) }

func task(id int, start, due *time.Time) *models.WorkPackage {
	return &models.WorkPackage{
		ID:         id,
		ProjectID:  1,
		TypeID:     models.TypeTask,
		StatusID:   models.StatusNew,
		PriorityID: models.PriorityNormal,
		Subject:    fmt.Sprintf("Task %d", id),
		StartDate:  start,
		DueDate:    due,
	}
}

// ============================================================================
// ERRORS
// ============================================================================

func TestErrors_OrderAndDeduplication(t *testing.T) {
	errs := NewErrors()
	errs.Add("subject", CodeBlank)
	errs.Add("due_date", CodeDueBeforeStart)
	errs.Add("subject", CodeBlank)
	errs.Add("subject", CodeTooLong)

	assert.False(t, errs.Empty())
	assert.Equal(t, []string{"subject", "due_date"}, errs.Attributes())
	assert.Equal(t, []Code{CodeBlank, CodeTooLong}, errs.On("subject"))
	assert.True(t, errs.Has("due_date", CodeDueBeforeStart))
	assert.Equal(t, "subject: blank, too_long; due_date: greater_than_or_equal_to_start_date", errs.Error())
}

func TestErrors_MergeAndJSON(t *testing.T) {
	a := NewErrors()
	a.Add("name", CodeBlank)
	b := NewErrors()
	b.Add("url", CodeInvalid)
	b.Add("name", CodeBlank)
	a.Merge(b)

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"attribute":"name","codes":["blank"]},{"attribute":"url","codes":["invalid"]}]`, string(raw))
}

func TestErrors_AsErrors(t *testing.T) {
	errs := single("subject", CodeBlank)
	wrapped := fmt.Errorf("failed to create work package: %w", errs)

	got, ok := AsErrors(wrapped)
	require.True(t, ok)
	assert.Same(t, errs, got)

	_, ok = AsErrors(fmt.Errorf("plain"))
	assert.False(t, ok)

	var nilErrs *Errors
	assert.True(t, nilErrs.Empty())
	assert.Nil(t, nilErrs.On("x"))
}

// ============================================================================
// PROJECT
// ============================================================================

func TestProjectContract_Create(t *testing.T) {
	tests := []struct {
		name    string
		user    *models.Principal
		project models.Project
		taken   bool
		attr    string
		code    Code
	}{
		{"valid", admin(), models.Project{Identifier: "apollo", Name: "Apollo"}, false, "", ""},
		{"non admin", memberOf(1, models.RoleProjectAdmin), models.Project{Identifier: "apollo", Name: "Apollo"}, false, AttrBase, CodeUnauthorized},
		{"blank name", admin(), models.Project{Identifier: "apollo"}, false, "name", CodeBlank},
		{"bad identifier", admin(), models.Project{Identifier: "Apollo 11", Name: "Apollo"}, false, "identifier", CodeInvalid},
		{"long identifier", admin(), models.Project{Identifier: "a" + strings.Repeat("b", 100), Name: "Apollo"}, false, "identifier", CodeTooLong},
		{"taken identifier", admin(), models.Project{Identifier: "apollo", Name: "Apollo"}, true, "identifier", CodeTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ProjectContract{User: tt.user, IdentifierTaken: tt.taken}.ValidateCreate(&tt.project)
			if tt.attr == "" {
				assert.True(t, errs.Empty(), errs.Error())
				return
			}
			assert.True(t, errs.Has(tt.attr, tt.code), errs.Error())
		})
	}
}

func TestProjectContract_UpdateRequiresEditProject(t *testing.T) {
	p := &models.Project{ID: 4, Identifier: "apollo", Name: "Apollo"}

	errs := ProjectContract{User: memberOf(4, models.RoleMember)}.ValidateUpdate(p)
	assert.True(t, errs.Has(AttrBase, CodeUnauthorized))

	errs = ProjectContract{User: memberOf(4, models.RoleProjectAdmin)}.ValidateUpdate(p)
	assert.True(t, errs.Empty(), errs.Error())
}

func TestMembershipContract_RejectsUnknownRole(t *testing.T) {
	errs := MembershipContract{User: admin()}.Validate(&models.Membership{ProjectID: 1, UserID: 2, Role: "owner"})
	assert.True(t, errs.Has("role", CodeInclusion), errs.Error())
}

// ============================================================================
// WORK PACKAGE
// ============================================================================

func TestWorkPackageContract_Create(t *testing.T) {
	c := WorkPackageContract{User: memberOf(1, models.RoleMember), Calendar: days.Default()}

	errs := c.Validate(WorkPackageChange{New: task(0, june(3), june(7)), ProjectExists: true})
	assert.True(t, errs.Empty(), errs.Error())

	reader := WorkPackageContract{User: memberOf(1, models.RoleReader)}
	errs = reader.Validate(WorkPackageChange{New: task(0, nil, nil), ProjectExists: true})
	assert.True(t, errs.Has(AttrBase, CodeUnauthorized))

	errs = c.Validate(WorkPackageChange{New: task(0, nil, nil), ProjectExists: false})
	assert.True(t, errs.Has("project", CodeNotFound))
}

func TestWorkPackageContract_Attributes(t *testing.T) {
	c := WorkPackageContract{User: admin()}

	wp := task(0, nil, nil)
	wp.Subject = ""
	wp.TypeID = 42
	wp.StatusID = 0
	wp.Duration = models.IntPtr(0)

	errs := c.Validate(WorkPackageChange{New: wp, ProjectExists: true})
	assert.True(t, errs.Has("subject", CodeBlank))
	assert.True(t, errs.Has("type", CodeInclusion))
	assert.True(t, errs.Has("status", CodeInclusion))
	assert.True(t, errs.Has("duration", CodeInvalid))

	wp = task(0, nil, nil)
	wp.Subject = strings.Repeat("x", models.MaxSubjectLength+1)
	errs = c.Validate(WorkPackageChange{New: wp, ProjectExists: true})
	assert.True(t, errs.Has("subject", CodeTooLong))
}

func TestWorkPackageContract_Dates(t *testing.T) {
	c := WorkPackageContract{User: admin(), Calendar: days.Default()}

	errs := c.Validate(WorkPackageChange{New: task(0, june(7), june(3)), ProjectExists: true})
	assert.True(t, errs.Has("due_date", CodeDueBeforeStart))

	milestone := task(0, june(3), june(4))
	milestone.TypeID = models.TypeMilestone
	errs = c.Validate(WorkPackageChange{New: milestone, ProjectExists: true})
	assert.True(t, errs.Has("due_date", CodeInvalid))

	// June 8th 2024 is a Saturday
	weekend := task(0, june(8), june(10))
	errs = c.Validate(WorkPackageChange{New: weekend, Changed: scheduling.Fields{StartDate: true}, ProjectExists: true})
	assert.True(t, errs.Has("start_date", CodeNotAWorkingDay))

	weekend.IgnoreNonWorkingDays = true
	errs = c.Validate(WorkPackageChange{New: weekend, Changed: scheduling.Fields{StartDate: true}, ProjectExists: true})
	assert.True(t, errs.Empty(), errs.Error())
}

func TestWorkPackageContract_ReadonlyParentDatesAndStale(t *testing.T) {
	parent := task(1, june(3), june(7))
	child := task(2, june(3), june(7))
	child.ParentID = models.IntPtr(1)
	graph := scheduling.NewGraph([]*models.WorkPackage{parent, child}, nil)
	c := WorkPackageContract{User: admin(), Graph: graph}

	changed := parent.Clone()
	changed.StartDate = june(4)
	errs := c.Validate(WorkPackageChange{Old: parent, New: changed, Changed: scheduling.Fields{StartDate: true}, ProjectExists: true})
	assert.True(t, errs.Has("start_date", CodeReadonly))

	changed.ScheduleManually = true
	errs = c.Validate(WorkPackageChange{Old: parent, New: changed, Changed: scheduling.Fields{StartDate: true}, ProjectExists: true})
	assert.False(t, errs.Has("start_date", CodeReadonly))

	stale := parent.Clone()
	stale.LockVersion = parent.LockVersion + 1
	errs = c.Validate(WorkPackageChange{Old: parent, New: stale, ProjectExists: true})
	assert.True(t, errs.Has(AttrBase, CodeStale))
}

func TestWorkPackageContract_Parent(t *testing.T) {
	root := task(1, nil, nil)
	mid := task(2, nil, nil)
	mid.ParentID = models.IntPtr(1)
	leaf := task(3, nil, nil)
	leaf.ParentID = models.IntPtr(2)
	graph := scheduling.NewGraph([]*models.WorkPackage{root, mid, leaf}, nil)
	c := WorkPackageContract{User: admin(), Graph: graph}

	moved := root.Clone()
	moved.ParentID = models.IntPtr(3)
	errs := c.Validate(WorkPackageChange{Old: root, New: moved, Parent: leaf, ProjectExists: true})
	assert.True(t, errs.Has("parent", CodeCantLinkToDescendant), errs.Error())

	orphan := task(0, nil, nil)
	orphan.ParentID = models.IntPtr(99)
	errs = c.Validate(WorkPackageChange{New: orphan, ProjectExists: true})
	assert.True(t, errs.Has("parent", CodeNotFound))

	milestone := task(4, nil, nil)
	milestone.TypeID = models.TypeMilestone
	child := task(0, nil, nil)
	child.ParentID = models.IntPtr(4)
	errs = c.Validate(WorkPackageChange{New: child, Parent: milestone, ProjectExists: true})
	assert.True(t, errs.Has("parent", CodeInvalid))

	member := WorkPackageContract{User: &models.Principal{
		User:        &models.User{ID: 5},
		Memberships: map[int]models.Role{1: models.RoleReader},
	}}
	errs = member.Validate(WorkPackageChange{New: child, Parent: root, ProjectExists: true})
	assert.True(t, errs.Has(AttrBase, CodeUnauthorized))
}

func TestWorkPackageContract_ParentCycleThroughFollows(t *testing.T) {
	a := task(1, june(3), june(4))
	b := task(2, june(5), june(6))
	// b follows a; making a a child of b would make b depend on itself
	graph := scheduling.NewGraph([]*models.WorkPackage{a, b}, []models.Relation{
		{ID: 1, FromID: 2, ToID: 1, Type: models.RelationFollows},
	})
	c := WorkPackageContract{User: admin(), Graph: graph}

	moved := a.Clone()
	moved.ParentID = models.IntPtr(2)
	errs := c.Validate(WorkPackageChange{Old: a, New: moved, Parent: b, ProjectExists: true})
	assert.True(t, errs.Has("parent", CodeCircularDependency), errs.Error())
}

// ============================================================================
// RELATION
// ============================================================================

func TestRelationContract(t *testing.T) {
	parent := task(1, nil, nil)
	child := task(2, nil, nil)
	child.ParentID = models.IntPtr(1)
	a := task(3, june(3), june(4))
	b := task(4, june(5), june(6))
	existing := models.Relation{ID: 7, FromID: 4, ToID: 3, Type: models.RelationFollows}
	graph := scheduling.NewGraph([]*models.WorkPackage{parent, child, a, b}, []models.Relation{existing})
	c := RelationContract{User: memberOf(1, models.RoleMember), Graph: graph}

	tests := []struct {
		name string
		ch   RelationChange
		attr string
		code Code
	}{
		{"valid relates", RelationChange{Relation: models.Relation{FromID: 3, ToID: 1, Type: models.RelationRelates}, From: a, To: parent}, "", ""},
		{"missing end", RelationChange{Relation: models.Relation{FromID: 3, ToID: 99, Type: models.RelationRelates}, From: a}, "to", CodeNotFound},
		{"self", RelationChange{Relation: models.Relation{FromID: 3, ToID: 3, Type: models.RelationRelates}, From: a, To: a}, "to", CodeInvalid},
		{"unknown type", RelationChange{Relation: models.Relation{FromID: 3, ToID: 1, Type: "hates"}, From: a, To: parent}, "relation_type", CodeInclusion},
		{"negative lag", RelationChange{Relation: models.Relation{FromID: 3, ToID: 1, Type: models.RelationFollows, Lag: -1}, From: a, To: parent}, "lag", CodeInvalid},
		{"duplicate", RelationChange{Relation: models.Relation{FromID: 3, ToID: 4, Type: models.RelationRelates}, From: a, To: b, Existing: []models.Relation{existing}}, AttrBase, CodeTaken},
		{"to ancestor", RelationChange{Relation: models.Relation{FromID: 2, ToID: 1, Type: models.RelationFollows}, From: child, To: parent}, "to", CodeCantLinkToAncestor},
		{"to descendant", RelationChange{Relation: models.Relation{FromID: 1, ToID: 2, Type: models.RelationRelates}, From: parent, To: child}, "to", CodeCantLinkToDescendant},
		{"cycle", RelationChange{Relation: models.Relation{FromID: 4, ToID: 3, Type: models.RelationPrecedes}, From: b, To: a}, "to", CodeCircularDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := c.Validate(tt.ch)
			if tt.attr == "" {
				assert.True(t, errs.Empty(), errs.Error())
				return
			}
			assert.True(t, errs.Has(tt.attr, tt.code), errs.Error())
		})
	}
}

// ============================================================================
// CUSTOM FIELDS
// ============================================================================

func TestCustomFieldContract(t *testing.T) {
	c := CustomFieldContract{User: admin()}

	errs := c.Validate(&models.CustomField{Name: "Severity", Format: models.FormatList})
	assert.True(t, errs.Has("possible_values", CodeBlank))

	errs = c.Validate(&models.CustomField{Name: "Code", Format: models.FormatString, Regexp: "("})
	assert.True(t, errs.Has("regexp", CodeInvalid))

	errs = c.Validate(&models.CustomField{Name: "Code", Format: "color"})
	assert.True(t, errs.Has("field_format", CodeInclusion))

	errs = c.Validate(&models.CustomField{Name: "Code", Format: models.FormatString, MinLength: 5, MaxLength: 2})
	assert.True(t, errs.Has("max_length", CodeInvalid))

	errs = CustomFieldContract{User: memberOf(1, models.RoleProjectAdmin)}.Validate(&models.CustomField{Name: "x", Format: models.FormatInt})
	assert.True(t, errs.Has(AttrBase, CodeUnauthorized))
}

func TestCustomValueContract(t *testing.T) {
	tree, err := hierarchy.NewTree([]*models.HierarchyItem{
		{ID: 1, CustomFieldID: 9},
		{ID: 2, CustomFieldID: 9, ParentID: models.IntPtr(1), Label: models.StringPtr("Europe")},
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		field models.CustomField
		value string
		code  Code
	}{
		{"required blank", models.CustomField{ID: 1, Format: models.FormatString, Required: true}, " ", CodeBlank},
		{"optional blank", models.CustomField{ID: 1, Format: models.FormatInt}, "", ""},
		{"too long", models.CustomField{ID: 1, Format: models.FormatString, MaxLength: 3}, "abcd", CodeTooLong},
		{"too short", models.CustomField{ID: 1, Format: models.FormatText, MinLength: 3}, "ab", CodeTooShort},
		{"regexp", models.CustomField{ID: 1, Format: models.FormatString, Regexp: `^[A-Z]+$`}, "abc", CodeInvalid},
		{"multiline string", models.CustomField{ID: 1, Format: models.FormatString}, "a\nb", CodeInvalid},
		{"int", models.CustomField{ID: 1, Format: models.FormatInt}, "12", ""},
		{"bad int", models.CustomField{ID: 1, Format: models.FormatInt}, "1.5", CodeInvalid},
		{"float", models.CustomField{ID: 1, Format: models.FormatFloat}, "1.5", ""},
		{"bool", models.CustomField{ID: 1, Format: models.FormatBool}, "maybe", CodeInvalid},
		{"date", models.CustomField{ID: 1, Format: models.FormatDate}, "2024-02-30", CodeInvalid},
		{"list", models.CustomField{ID: 1, Format: models.FormatList, PossibleValues: []string{"a", "b"}}, "c", CodeInclusion},
		{"hierarchy item", models.CustomField{ID: 9, Format: models.FormatHierarchy}, "2", ""},
		{"hierarchy root", models.CustomField{ID: 9, Format: models.FormatHierarchy}, "1", CodeInclusion},
		{"hierarchy unknown", models.CustomField{ID: 9, Format: models.FormatHierarchy}, "5", CodeInclusion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CustomValueContract{Field: &tt.field, Tree: tree}
			errs := c.Validate(tt.value)
			if tt.code == "" {
				assert.True(t, errs.Empty(), errs.Error())
				return
			}
			assert.True(t, errs.Has(c.Attribute(), tt.code), errs.Error())
		})
	}
}

func TestHierarchyItemContract(t *testing.T) {
	tree, err := hierarchy.NewTree([]*models.HierarchyItem{
		{ID: 1, CustomFieldID: 9},
		{ID: 2, CustomFieldID: 9, ParentID: models.IntPtr(1), Label: models.StringPtr("Europe"), Short: models.StringPtr("EU")},
		{ID: 3, CustomFieldID: 9, ParentID: models.IntPtr(1), Label: models.StringPtr("Asia"), Position: 1},
		{ID: 4, CustomFieldID: 9, ParentID: models.IntPtr(2), Label: models.StringPtr("Asia")},
	})
	require.NoError(t, err)
	c := HierarchyItemContract{User: admin(), Tree: tree}

	assert.True(t, c.ValidateInsert(1, "Europe", nil).Has("label", CodeTaken))
	assert.True(t, c.ValidateInsert(1, "Africa", models.StringPtr("EU")).Has("short", CodeTaken))
	assert.True(t, c.ValidateInsert(1, "", nil).Has("label", CodeBlank))
	assert.True(t, c.ValidateInsert(1, "Africa", nil).Empty())
	assert.True(t, c.ValidateInsert(42, "Africa", nil).Has("parent", CodeNotFound))

	root, _ := tree.Get(1)
	assert.True(t, c.ValidateUpdate(root, "Root", nil).Has(AttrBase, CodeReadonly))
	assert.True(t, c.ValidateDelete(root).Has(AttrBase, CodeReadonly))

	europe, _ := tree.Get(2)
	assert.True(t, c.ValidateUpdate(europe, "Europe", models.StringPtr("EU")).Empty())
	assert.True(t, c.ValidateMove(europe, 4).Has("parent", CodeCantLinkToDescendant))

	nested, _ := tree.Get(4)
	assert.True(t, c.ValidateMove(nested, 1).Has("label", CodeTaken))
}

// ============================================================================
// WEBHOOKS AND CALENDAR
// ============================================================================

func TestWebhookContract(t *testing.T) {
	c := WebhookContract{User: admin()}

	valid := &models.Webhook{Name: "CI", URL: "https://ci.example.com/hook", Events: []string{models.EventWorkPackageCreated}, AllProjects: true}
	assert.True(t, c.Validate(valid).Empty())

	errs := c.Validate(&models.Webhook{Name: "CI", URL: "ftp://example.com", Events: []string{"work_package:exploded"}})
	assert.True(t, errs.Has("url", CodeInvalid), errs.Error())
	assert.True(t, errs.Has("events", CodeInclusion), errs.Error())
	assert.True(t, errs.Has("projects", CodeBlank), errs.Error())

	errs = c.Validate(&models.Webhook{Name: "CI", URL: "/relative", AllProjects: true})
	assert.True(t, errs.Has("url", CodeInvalid))
	assert.True(t, errs.Has("events", CodeTooShort))

	errs = WebhookContract{User: memberOf(1, models.RoleProjectAdmin)}.Validate(valid)
	assert.True(t, errs.Has(AttrBase, CodeUnauthorized))
}

func TestWeekDaysContract(t *testing.T) {
	c := WeekDaysContract{User: admin()}

	week := make([]models.WeekDay, 0, 7)
	for d := 1; d <= 7; d++ {
		week = append(week, models.WeekDay{Day: d, Working: d <= 5})
	}
	assert.True(t, c.Validate(week).Empty())

	idle := make([]models.WeekDay, 0, 7)
	for d := 1; d <= 7; d++ {
		idle = append(idle, models.WeekDay{Day: d})
	}
	assert.True(t, c.Validate(idle).Has("working_days", CodeBlank))

	assert.True(t, c.Validate(week[:6]).Has("week_days", CodeInvalid))
}

// ============================================================================
// COMMENTS
// ============================================================================

func TestCommentContract(t *testing.T) {
	contract := CommentContract{User: memberOf(3, models.RoleReader)}
	errs := contract.Validate(&models.Comment{Message: "hello"}, 3)
	assert.True(t, errs.Has(AttrBase, CodeUnauthorized))

	contract = CommentContract{User: memberOf(3, models.RoleMember)}
	assert.True(t, contract.Validate(&models.Comment{Message: "hello"}, 3).Empty())
	assert.True(t, contract.Validate(&models.Comment{Message: "  "}, 3).Has("message", CodeBlank))
	assert.True(t, contract.Validate(&models.Comment{Message: strings.Repeat("x", 10001)}, 3).Has("message", CodeTooLong))
}
