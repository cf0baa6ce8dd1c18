package relation

import (
	"context"
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

// June 3rd 2024 is a Monday
func june(day int) *time.Time { return models.DatePtr(2024, time.June, day) }

type fixture struct {
	repo    *database.Repository
	svc     Service
	pub     *testutil.RecordingPublisher
	project *models.Project

	// pred runs June 3-7, succ June 3-4
	pred *models.WorkPackage
	succ *models.WorkPackage
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repo := testutil.SetupTestRepo(t)
	pub := testutil.NewRecordingPublisher()
	project := testutil.CreateTestProject(t, repo, "apollo")
	return &fixture{
		repo:    repo,
		svc:     NewService(repo, pub),
		pub:     pub,
		project: project,
		pred: testutil.CreateTestWorkPackage(t, repo, &models.WorkPackage{
			ProjectID: project.ID, Subject: "Design", StartDate: june(3), DueDate: june(7), Duration: models.IntPtr(5),
		}),
		succ: testutil.CreateTestWorkPackage(t, repo, &models.WorkPackage{
			ProjectID: project.ID, Subject: "Build", StartDate: june(3), DueDate: june(4), Duration: models.IntPtr(2),
		}),
	}
}

func (f *fixture) follows(t *testing.T, lag int) *models.Relation {
	t.Helper()
	res, err := f.svc.CreateRelation(testutil.AdminContext(), CreateRelationRequest{
		FromID: f.succ.ID, ToID: f.pred.ID, Type: models.RelationFollows, Lag: lag,
	})
	require.NoError(t, err)
	require.True(t, res.Success(), "create failed: %v", res.Err())
	return res.Result
}

func assertDates(t *testing.T, wp *models.WorkPackage, start, due *time.Time) {
	t.Helper()
	assert.True(t, models.SameDate(start, wp.StartDate), "start: want %v, got %v", start, wp.StartDate)
	assert.True(t, models.SameDate(due, wp.DueDate), "due: want %v, got %v", due, wp.DueDate)
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateRelation_FollowsReschedulesSuccessor(t *testing.T) {
	f := setup(t)

	res, err := f.svc.CreateRelation(testutil.AdminContext(), CreateRelationRequest{
		FromID: f.succ.ID, ToID: f.pred.ID, Type: models.RelationFollows,
	})

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	require.Len(t, res.Dependents, 1)
	assert.Equal(t, f.succ.ID, res.Dependents[0].ID)
	assertDates(t, res.Dependents[0], june(10), june(11))
	assertDates(t, testutil.ReloadWorkPackage(t, f.repo, f.succ.ID), june(10), june(11))
	assert.Equal(t, []string{models.EventRelationCreated, models.EventWorkPackageUpdated}, f.pub.Actions())
}

func TestCreateRelation_PrecedesIsStoredAsFollows(t *testing.T) {
	f := setup(t)

	res, err := f.svc.CreateRelation(testutil.AdminContext(), CreateRelationRequest{
		FromID: f.pred.ID, ToID: f.succ.ID, Type: models.RelationPrecedes, Lag: 2,
	})

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	assert.Equal(t, models.RelationFollows, res.Result.Type)
	assert.Equal(t, f.succ.ID, res.Result.FromID)
	assert.Equal(t, f.pred.ID, res.Result.ToID)
	assert.Equal(t, 2, res.Result.Lag)
	assertDates(t, testutil.ReloadWorkPackage(t, f.repo, f.succ.ID), june(12), june(13))
}

func TestCreateRelation_NonSchedulingTypeLeavesDates(t *testing.T) {
	f := setup(t)

	res, err := f.svc.CreateRelation(testutil.AdminContext(), CreateRelationRequest{
		FromID: f.succ.ID, ToID: f.pred.ID, Type: models.RelationRelates,
	})

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	assert.Empty(t, res.Dependents)
	assertDates(t, testutil.ReloadWorkPackage(t, f.repo, f.succ.ID), june(3), june(4))
}

func TestCreateRelation_Invalid(t *testing.T) {
	f := setup(t)
	f.follows(t, 0)

	tests := []struct {
		name string
		req  CreateRelationRequest
		attr string
		code contracts.Code
	}{
		{"self", CreateRelationRequest{FromID: f.pred.ID, ToID: f.pred.ID, Type: models.RelationRelates}, "to", contracts.CodeInvalid},
		{"duplicate", CreateRelationRequest{FromID: f.pred.ID, ToID: f.succ.ID, Type: models.RelationRelates}, contracts.AttrBase, contracts.CodeTaken},
		{"missing target", CreateRelationRequest{FromID: f.pred.ID, ToID: 999, Type: models.RelationRelates}, "to", contracts.CodeNotFound},
		{"unknown type", CreateRelationRequest{FromID: f.pred.ID, ToID: f.succ.ID, Type: "likes"}, "relation_type", contracts.CodeInclusion},
		{"negative lag", CreateRelationRequest{FromID: f.pred.ID, ToID: f.succ.ID, Type: models.RelationFollows, Lag: -1}, "lag", contracts.CodeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.CreateRelation(testutil.AdminContext(), tt.req)
			require.NoError(t, err)
			require.True(t, res.Failure())
			assert.True(t, res.Errors.Has(tt.attr, tt.code), "got %v", res.Errors)
		})
	}
}

func TestCreateRelation_RejectsCycle(t *testing.T) {
	f := setup(t)
	third := testutil.CreateTestWorkPackage(t, f.repo, &models.WorkPackage{ProjectID: f.project.ID})
	f.follows(t, 0)
	testutil.CreateTestFollows(t, f.repo, third.ID, f.succ.ID, 0)

	res, err := f.svc.CreateRelation(testutil.AdminContext(), CreateRelationRequest{
		FromID: f.pred.ID, ToID: third.ID, Type: models.RelationFollows,
	})

	require.NoError(t, err)
	assert.True(t, res.Errors.Has("to", contracts.CodeCircularDependency), "got %v", res.Errors)
}

func TestCreateRelation_RejectsHierarchyLinks(t *testing.T) {
	f := setup(t)
	child := testutil.CreateTestWorkPackage(t, f.repo, &models.WorkPackage{ProjectID: f.project.ID, ParentID: models.IntPtr(f.pred.ID)})

	res, err := f.svc.CreateRelation(testutil.AdminContext(), CreateRelationRequest{
		FromID: child.ID, ToID: f.pred.ID, Type: models.RelationFollows,
	})

	require.NoError(t, err)
	assert.True(t, res.Errors.Has("to", contracts.CodeCantLinkToAncestor), "got %v", res.Errors)
}

func TestCreateRelation_RequiresPermission(t *testing.T) {
	f := setup(t)
	ctx := testutil.MemberContext(t, f.repo, "reader", f.project.ID, models.RoleReader)

	res, err := f.svc.CreateRelation(ctx, CreateRelationRequest{FromID: f.succ.ID, ToID: f.pred.ID, Type: models.RelationFollows})

	require.NoError(t, err)
	assert.True(t, res.Errors.Has(contracts.AttrBase, contracts.CodeUnauthorized))
	assert.Empty(t, f.pub.SentEvents)
}

// ============================================================================
// UPDATE
// ============================================================================

func TestUpdateRelation_LagMovesSuccessor(t *testing.T) {
	f := setup(t)
	rel := f.follows(t, 0)
	f.pub.Reset()

	res, err := f.svc.UpdateRelation(testutil.AdminContext(), UpdateRelationRequest{ID: rel.ID, Lag: 1})

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	assert.Equal(t, 1, res.Result.Lag)
	assertDates(t, testutil.ReloadWorkPackage(t, f.repo, f.succ.ID), june(11), june(12))
	assert.Equal(t, []string{models.EventRelationUpdated, models.EventWorkPackageUpdated}, f.pub.Actions())
}

func TestUpdateRelation_LagOnlyForFollows(t *testing.T) {
	f := setup(t)
	created, err := f.svc.CreateRelation(testutil.AdminContext(), CreateRelationRequest{
		FromID: f.succ.ID, ToID: f.pred.ID, Type: models.RelationBlocks,
	})
	require.NoError(t, err)
	require.True(t, created.Success())

	res, err := f.svc.UpdateRelation(testutil.AdminContext(), UpdateRelationRequest{ID: created.Result.ID, Lag: 3})

	require.NoError(t, err)
	assert.True(t, res.Errors.Has("lag", contracts.CodeInvalid))
}

func TestUpdateRelation_NotFound(t *testing.T) {
	f := setup(t)

	_, err := f.svc.UpdateRelation(testutil.AdminContext(), UpdateRelationRequest{ID: 999})

	assert.ErrorIs(t, err, ErrRelationNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// ============================================================================
// DELETE AND LIST
// ============================================================================

func TestDeleteRelation(t *testing.T) {
	f := setup(t)
	rel := f.follows(t, 0)
	f.pub.Reset()

	res, err := f.svc.DeleteRelation(testutil.AdminContext(), rel.ID)

	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	assert.Equal(t, []string{models.EventRelationDeleted}, f.pub.Actions())

	_, err = f.svc.GetRelation(context.Background(), rel.ID)
	assert.ErrorIs(t, err, ErrRelationNotFound)
}

func TestDeleteRelation_RequiresPermission(t *testing.T) {
	f := setup(t)
	rel := f.follows(t, 0)
	ctx := testutil.MemberContext(t, f.repo, "reader", f.project.ID, models.RoleReader)

	res, err := f.svc.DeleteRelation(ctx, rel.ID)

	require.NoError(t, err)
	assert.True(t, res.Errors.Has(contracts.AttrBase, contracts.CodeUnauthorized))
	_, err = f.svc.GetRelation(context.Background(), rel.ID)
	assert.NoError(t, err)
}

func TestListRelations(t *testing.T) {
	f := setup(t)
	rel := f.follows(t, 0)

	for _, id := range []int{f.pred.ID, f.succ.ID} {
		list, err := f.svc.ListRelations(context.Background(), id)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, rel.ID, list[0].ID)
	}

	_, err := f.svc.ListRelations(context.Background(), 999)
	assert.ErrorIs(t, err, ErrWorkPackageNotFound)
}
