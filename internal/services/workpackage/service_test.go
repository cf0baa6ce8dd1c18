package workpackage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/testutil"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type fixture struct {
	repo    *database.Repository
	svc     Service
	pub     *testutil.RecordingPublisher
	project *models.Project
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repo := testutil.SetupTestRepo(t)
	pub := testutil.NewRecordingPublisher()
	return &fixture{
		repo:    repo,
		svc:     NewService(repo, pub),
		pub:     pub,
		project: testutil.CreateTestProject(t, repo, "apollo"),
	}
}

// June 3rd 2024 is a Monday
func june(day int) *time.Time { return models.DatePtr(2024, time.June, day) }

func (f *fixture) create(t *testing.T, req CreateWorkPackageRequest) *models.WorkPackage {
	t.Helper()
	req.ProjectID = f.project.ID
	if req.Subject == "" {
		req.Subject = "Work package"
	}
	res, err := f.svc.CreateWorkPackage(testutil.AdminContext(), req)
	require.NoError(t, err)
	require.True(t, res.Success(), "create failed: %v", res.Err())
	return res.Result
}

func assertDates(t *testing.T, wp *models.WorkPackage, start, due *time.Time, duration int) {
	t.Helper()
	assert.True(t, models.SameDate(start, wp.StartDate), "start: want %v, got %v", start, wp.StartDate)
	assert.True(t, models.SameDate(due, wp.DueDate), "due: want %v, got %v", due, wp.DueDate)
	require.NotNil(t, wp.Duration)
	assert.Equal(t, duration, *wp.Duration)
}

func dependentIDs(deps []*models.WorkPackage) []int {
	ids := make([]int, len(deps))
	for i, d := range deps {
		ids[i] = d.ID
	}
	return ids
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateWorkPackage_DerivesDueDate(t *testing.T) {
	f := setup(t)

	res, err := f.svc.CreateWorkPackage(testutil.AdminContext(), CreateWorkPackageRequest{
		ProjectID: f.project.ID,
		Subject:   "  Build rocket  ",
		StartDate: june(3),
		Duration:  models.IntPtr(5),
	})

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	wp := res.Result
	assert.Equal(t, "Build rocket", wp.Subject)
	assert.Equal(t, models.TypeTask, wp.TypeID)
	assert.Equal(t, models.StatusNew, wp.StatusID)
	assert.Equal(t, models.PriorityNormal, wp.PriorityID)
	assertDates(t, wp, june(3), june(7), 5)
	assert.Equal(t, []string{models.EventWorkPackageCreated}, f.pub.Actions())
}

func TestCreateWorkPackage_MilestoneTakesSingleDate(t *testing.T) {
	f := setup(t)

	wp := f.create(t, CreateWorkPackageRequest{TypeID: models.TypeMilestone, DueDate: june(5)})

	assertDates(t, wp, june(5), june(5), 1)
}

func TestCreateWorkPackage_Invalid(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		req  CreateWorkPackageRequest
		attr string
		code contracts.Code
	}{
		{"blank subject", CreateWorkPackageRequest{Subject: " "}, "subject", contracts.CodeBlank},
		{"start on weekend", CreateWorkPackageRequest{Subject: "x", StartDate: june(1)}, "start_date", contracts.CodeNotAWorkingDay},
		{"due before start", CreateWorkPackageRequest{Subject: "x", StartDate: june(5), DueDate: june(3)}, "due_date", contracts.CodeDueBeforeStart},
		{"unknown type", CreateWorkPackageRequest{Subject: "x", TypeID: 42}, "type", contracts.CodeInclusion},
		{"missing parent", CreateWorkPackageRequest{Subject: "x", ParentID: models.IntPtr(999)}, "parent", contracts.CodeNotFound},
		{"unknown custom field", CreateWorkPackageRequest{Subject: "x", CustomValues: map[int]string{999: "v"}}, "custom_field_999", contracts.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.ProjectID = f.project.ID
			res, err := f.svc.CreateWorkPackage(testutil.AdminContext(), tt.req)
			require.NoError(t, err)
			require.True(t, res.Failure())
			assert.True(t, res.Errors.Has(tt.attr, tt.code), "got %v", res.Errors)
		})
	}
	assert.Empty(t, f.pub.SentEvents)
}

func TestCreateWorkPackage_MissingProject(t *testing.T) {
	f := setup(t)

	res, err := f.svc.CreateWorkPackage(testutil.AdminContext(), CreateWorkPackageRequest{ProjectID: 999, Subject: "x"})

	require.NoError(t, err)
	assert.True(t, res.Errors.Has("project", contracts.CodeNotFound))
}

func TestCreateWorkPackage_RequiresPermission(t *testing.T) {
	f := setup(t)
	ctx := testutil.MemberContext(t, f.repo, "reader", f.project.ID, models.RoleReader)

	res, err := f.svc.CreateWorkPackage(ctx, CreateWorkPackageRequest{ProjectID: f.project.ID, Subject: "x"})

	require.NoError(t, err)
	assert.True(t, res.Errors.Has(contracts.AttrBase, contracts.CodeUnauthorized))

	res, err = f.svc.CreateWorkPackage(context.Background(), CreateWorkPackageRequest{ProjectID: f.project.ID, Subject: "x"})
	require.NoError(t, err)
	assert.True(t, res.Errors.Has(contracts.AttrBase, contracts.CodeUnauthorized))
}

func TestCreateWorkPackage_ReschedulesParent(t *testing.T) {
	f := setup(t)
	parent := f.create(t, CreateWorkPackageRequest{Subject: "Phase", TypeID: models.TypePhase})

	res, err := f.svc.CreateWorkPackage(testutil.AdminContext(), CreateWorkPackageRequest{
		ProjectID: f.project.ID,
		ParentID:  models.IntPtr(parent.ID),
		Subject:   "Child",
		StartDate: june(3),
		Duration:  models.IntPtr(5),
	})

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	require.Equal(t, []int{parent.ID}, dependentIDs(res.Dependents))
	assertDates(t, res.Dependents[0], june(3), june(7), 5)
	assertDates(t, testutil.ReloadWorkPackage(t, f.repo, parent.ID), june(3), june(7), 5)

	updates := f.pub.EventsFor(models.EventWorkPackageUpdated)
	require.Len(t, updates, 1)
	assert.Equal(t, parent.ID, updates[0].ResourceID)
}

func TestCreateWorkPackage_RequiredCustomField(t *testing.T) {
	f := setup(t)
	field, err := f.repo.CreateCustomField(context.Background(), &models.CustomField{
		Name: "Team", Format: models.FormatString, Required: true,
	})
	require.NoError(t, err)
	attr := fmt.Sprintf("custom_field_%d", field.ID)

	res, err := f.svc.CreateWorkPackage(testutil.AdminContext(), CreateWorkPackageRequest{ProjectID: f.project.ID, Subject: "x"})
	require.NoError(t, err)
	assert.True(t, res.Errors.Has(attr, contracts.CodeBlank))

	wp := f.create(t, CreateWorkPackageRequest{CustomValues: map[int]string{field.ID: "Flight"}})
	values, err := f.repo.ListCustomValues(context.Background(), wp.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "Flight", values[0].Value)
}

// ============================================================================
// UPDATE
// ============================================================================

func TestUpdateWorkPackage_ReschedulesFollower(t *testing.T) {
	f := setup(t)
	pred := f.create(t, CreateWorkPackageRequest{Subject: "Design", StartDate: june(3), Duration: models.IntPtr(5)})
	succ := f.create(t, CreateWorkPackageRequest{Subject: "Build", StartDate: june(10), Duration: models.IntPtr(3)})
	testutil.CreateTestFollows(t, f.repo, succ.ID, pred.ID, 0)
	f.pub.Reset()

	res, err := f.svc.UpdateWorkPackage(testutil.AdminContext(), UpdateWorkPackageRequest{
		ID:          pred.ID,
		LockVersion: models.IntPtr(pred.LockVersion),
		DueDate:     june(11),
	})

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	assertDates(t, res.Result, june(3), june(11), 7)
	assert.Equal(t, pred.LockVersion+1, res.Result.LockVersion)

	require.Equal(t, []int{succ.ID}, dependentIDs(res.Dependents))
	assertDates(t, res.Dependents[0], june(12), june(14), 3)
	assertDates(t, testutil.ReloadWorkPackage(t, f.repo, succ.ID), june(12), june(14), 3)
	assert.Equal(t, []string{models.EventWorkPackageUpdated, models.EventWorkPackageUpdated}, f.pub.Actions())
}

func TestUpdateWorkPackage_StaleLockVersion(t *testing.T) {
	f := setup(t)
	wp := f.create(t, CreateWorkPackageRequest{Subject: "Design"})
	f.pub.Reset()

	res, err := f.svc.UpdateWorkPackage(testutil.AdminContext(), UpdateWorkPackageRequest{
		ID:          wp.ID,
		LockVersion: models.IntPtr(wp.LockVersion + 5),
		Subject:     models.StringPtr("Redesign"),
	})

	require.NoError(t, err)
	assert.True(t, res.Errors.Has(contracts.AttrBase, contracts.CodeStale))
	assert.Equal(t, "Design", testutil.ReloadWorkPackage(t, f.repo, wp.ID).Subject)
	assert.Empty(t, f.pub.SentEvents)
}

func TestUpdateWorkPackage_AutomaticParentDatesAreReadonly(t *testing.T) {
	f := setup(t)
	parent := f.create(t, CreateWorkPackageRequest{Subject: "Phase"})
	f.create(t, CreateWorkPackageRequest{ParentID: models.IntPtr(parent.ID), StartDate: june(3), Duration: models.IntPtr(2)})

	res, err := f.svc.UpdateWorkPackage(testutil.AdminContext(), UpdateWorkPackageRequest{
		ID:        parent.ID,
		StartDate: june(10),
	})

	require.NoError(t, err)
	assert.True(t, res.Errors.Has("start_date", contracts.CodeReadonly), "got %v", res.Errors)
}

func TestUpdateWorkPackage_IgnoringNonWorkingDaysRefitsDueDate(t *testing.T) {
	f := setup(t)
	wp := f.create(t, CreateWorkPackageRequest{StartDate: june(7), Duration: models.IntPtr(3)})
	assertDates(t, wp, june(7), june(11), 3)

	res, err := f.svc.UpdateWorkPackage(testutil.AdminContext(), UpdateWorkPackageRequest{
		ID:                   wp.ID,
		IgnoreNonWorkingDays: boolPtr(true),
	})

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	assertDates(t, res.Result, june(7), june(9), 3)
}

func TestUpdateWorkPackage_ClearParentReschedulesOldParent(t *testing.T) {
	f := setup(t)
	parent := f.create(t, CreateWorkPackageRequest{Subject: "Phase"})
	first := f.create(t, CreateWorkPackageRequest{ParentID: models.IntPtr(parent.ID), StartDate: june(3), Duration: models.IntPtr(2)})
	f.create(t, CreateWorkPackageRequest{ParentID: models.IntPtr(parent.ID), StartDate: june(10), Duration: models.IntPtr(2)})
	assertDates(t, testutil.ReloadWorkPackage(t, f.repo, parent.ID), june(3), june(11), 7)

	res, err := f.svc.UpdateWorkPackage(testutil.AdminContext(), UpdateWorkPackageRequest{ID: first.ID, ClearParent: true})

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	assert.Nil(t, res.Result.ParentID)
	assert.Contains(t, dependentIDs(res.Dependents), parent.ID)
	assertDates(t, testutil.ReloadWorkPackage(t, f.repo, parent.ID), june(10), june(11), 2)
}

func TestUpdateWorkPackage_NotFound(t *testing.T) {
	f := setup(t)

	_, err := f.svc.UpdateWorkPackage(testutil.AdminContext(), UpdateWorkPackageRequest{ID: 999})

	assert.ErrorIs(t, err, ErrWorkPackageNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateWorkPackage_InvalidID(t *testing.T) {
	f := setup(t)

	_, err := f.svc.UpdateWorkPackage(testutil.AdminContext(), UpdateWorkPackageRequest{})

	assert.ErrorIs(t, err, ErrInvalidWorkPackageID)
}

func boolPtr(b bool) *bool { return &b }

// ============================================================================
// DELETE
// ============================================================================

func TestDeleteWorkPackage_ReparentsChildren(t *testing.T) {
	f := setup(t)
	top := f.create(t, CreateWorkPackageRequest{Subject: "Top"})
	middle := f.create(t, CreateWorkPackageRequest{Subject: "Middle", ParentID: models.IntPtr(top.ID)})
	leaf := f.create(t, CreateWorkPackageRequest{Subject: "Leaf", ParentID: models.IntPtr(middle.ID), StartDate: june(3), Duration: models.IntPtr(1)})
	f.pub.Reset()

	res, err := f.svc.DeleteWorkPackage(testutil.AdminContext(), middle.ID, nil)

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	assert.Equal(t, middle.ID, res.Result.ID)
	assert.Contains(t, dependentIDs(res.Dependents), leaf.ID)

	moved := testutil.ReloadWorkPackage(t, f.repo, leaf.ID)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, top.ID, *moved.ParentID)

	_, err = f.svc.GetWorkPackage(context.Background(), middle.ID)
	assert.ErrorIs(t, err, ErrWorkPackageNotFound)
	assert.Equal(t, models.EventWorkPackageDeleted, f.pub.Actions()[0])
}

func TestDeleteWorkPackage_StaleLockVersion(t *testing.T) {
	f := setup(t)
	wp := f.create(t, CreateWorkPackageRequest{Subject: "x"})

	res, err := f.svc.DeleteWorkPackage(testutil.AdminContext(), wp.ID, models.IntPtr(wp.LockVersion+1))

	require.NoError(t, err)
	assert.True(t, res.Errors.Has(contracts.AttrBase, contracts.CodeStale))
	testutil.ReloadWorkPackage(t, f.repo, wp.ID)
}

func TestDeleteWorkPackage_RequiresPermission(t *testing.T) {
	f := setup(t)
	wp := f.create(t, CreateWorkPackageRequest{Subject: "x"})
	ctx := testutil.MemberContext(t, f.repo, "jane", f.project.ID, models.RoleMember)

	res, err := f.svc.DeleteWorkPackage(ctx, wp.ID, nil)

	require.NoError(t, err)
	assert.True(t, res.Errors.Has(contracts.AttrBase, contracts.CodeUnauthorized))
}

func TestDeleteWorkPackage_NotFound(t *testing.T) {
	f := setup(t)

	_, err := f.svc.DeleteWorkPackage(testutil.AdminContext(), 999, nil)

	assert.True(t, errors.Is(err, models.ErrNotFound))
}

// ============================================================================
// CUSTOM VALUES
// ============================================================================

func TestSetCustomValue_HierarchyFormatsPath(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	field, err := f.repo.CreateCustomField(ctx, &models.CustomField{Name: "Location", Format: models.FormatHierarchy})
	require.NoError(t, err)
	items, err := f.repo.ListHierarchyItems(ctx, field.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	root := items[0].ID

	europe, err := f.repo.InsertHierarchyItem(ctx, &models.HierarchyItem{
		CustomFieldID: field.ID, ParentID: models.IntPtr(root), Label: models.StringPtr("Europe"),
	})
	require.NoError(t, err)
	berlin, err := f.repo.InsertHierarchyItem(ctx, &models.HierarchyItem{
		CustomFieldID: field.ID, ParentID: models.IntPtr(europe), Label: models.StringPtr("Berlin"), Short: models.StringPtr("BER"),
	})
	require.NoError(t, err)
	wp := f.create(t, CreateWorkPackageRequest{Subject: "x"})

	res, err := f.svc.SetCustomValue(testutil.AdminContext(), SetCustomValueRequest{
		WorkPackageID: wp.ID, CustomFieldID: field.ID, Value: strconv.Itoa(berlin),
	})
	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())

	detail, err := f.svc.GetWorkPackageDetail(ctx, wp.ID)
	require.NoError(t, err)
	require.Len(t, detail.CustomValues, 1)
	assert.Equal(t, "Europe / Berlin (BER)", detail.CustomValues[0].Formatted)

	res, err = f.svc.SetCustomValue(testutil.AdminContext(), SetCustomValueRequest{
		WorkPackageID: wp.ID, CustomFieldID: field.ID, Value: strconv.Itoa(root),
	})
	require.NoError(t, err)
	assert.True(t, res.Errors.Has(fmt.Sprintf("custom_field_%d", field.ID), contracts.CodeInclusion))
}

func TestSetCustomValue_BoolFormatting(t *testing.T) {
	f := setup(t)
	field, err := f.repo.CreateCustomField(context.Background(), &models.CustomField{Name: "Blocked", Format: models.FormatBool})
	require.NoError(t, err)
	wp := f.create(t, CreateWorkPackageRequest{Subject: "x", CustomValues: map[int]string{field.ID: "true"}})

	detail, err := f.svc.GetWorkPackageDetail(context.Background(), wp.ID)

	require.NoError(t, err)
	require.Len(t, detail.CustomValues, 1)
	assert.Equal(t, "true", detail.CustomValues[0].Value)
	assert.Equal(t, "yes", detail.CustomValues[0].Formatted)
}

func TestSetCustomValue_InvalidValue(t *testing.T) {
	f := setup(t)
	field, err := f.repo.CreateCustomField(context.Background(), &models.CustomField{Name: "Estimate", Format: models.FormatInt})
	require.NoError(t, err)
	wp := f.create(t, CreateWorkPackageRequest{Subject: "x"})
	f.pub.Reset()

	res, err := f.svc.SetCustomValue(testutil.AdminContext(), SetCustomValueRequest{
		WorkPackageID: wp.ID, CustomFieldID: field.ID, Value: "many",
	})

	require.NoError(t, err)
	assert.True(t, res.Errors.Has(fmt.Sprintf("custom_field_%d", field.ID), contracts.CodeInvalid))
	assert.Empty(t, f.pub.SentEvents)
}

// ============================================================================
// COMMENTS
// ============================================================================

func TestAddComment(t *testing.T) {
	f := setup(t)
	wp := f.create(t, CreateWorkPackageRequest{Subject: "x"})

	res, err := f.svc.AddComment(testutil.AdminContext(), wp.ID, "  Looks good  ")
	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	assert.Equal(t, "admin", res.Result.Author)
	assert.Equal(t, "Looks good", res.Result.Message)

	res, err = f.svc.AddComment(testutil.AdminContext(), wp.ID, " ")
	require.NoError(t, err)
	assert.True(t, res.Errors.Has("message", contracts.CodeBlank))

	comments, err := f.svc.ListComments(context.Background(), wp.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Looks good", comments[0].Message)
}

func TestAddComment_UnknownWorkPackage(t *testing.T) {
	f := setup(t)

	_, err := f.svc.AddComment(testutil.AdminContext(), 999, "hello")

	assert.ErrorIs(t, err, ErrWorkPackageNotFound)
}

// ============================================================================
// READS
// ============================================================================

func TestListWorkPackages(t *testing.T) {
	f := setup(t)
	f.create(t, CreateWorkPackageRequest{Subject: "a"})
	f.create(t, CreateWorkPackageRequest{Subject: "b"})

	list, err := f.svc.ListWorkPackages(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.svc.ListWorkPackages(context.Background(), 999)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestLookups(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	types, err := f.svc.ListTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 5)

	statuses, err := f.svc.ListStatuses(ctx)
	require.NoError(t, err)
	assert.Len(t, statuses, 4)

	priorities, err := f.svc.ListPriorities(ctx)
	require.NoError(t, err)
	assert.Len(t, priorities, 4)
}
