package webhook

import (
	"context"
	"testing"

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

func setupService(t *testing.T) (Service, *database.Repository, *testutil.RecordingPublisher) {
	t.Helper()
	repo := testutil.SetupTestRepo(t)
	pub := testutil.NewRecordingPublisher()
	return NewService(repo, pub), repo, pub
}

func validRequest() CreateWebhookRequest {
	return CreateWebhookRequest{
		Name:        "ci",
		URL:         "https://example.com/hook",
		Secret:      "s3cret",
		Events:      []string{models.EventWorkPackageCreated, models.EventWorkPackageUpdated},
		AllProjects: true,
	}
}

func createWebhook(t *testing.T, svc Service, req CreateWebhookRequest) *models.Webhook {
	t.Helper()
	res, err := svc.CreateWebhook(testutil.AdminContext(), req)
	require.NoError(t, err)
	require.True(t, res.Success(), "create failed: %v", res.Err())
	return res.Result
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateWebhook(t *testing.T) {
	svc, _, pub := setupService(t)
	req := validRequest()
	req.Events = append(req.Events, " "+models.EventWorkPackageCreated+" ")

	w := createWebhook(t, svc, req)

	assert.True(t, w.Enabled)
	assert.Equal(t, "s3cret", w.Secret)
	assert.Equal(t, []string{models.EventWorkPackageCreated, models.EventWorkPackageUpdated}, w.Events)
	assert.Empty(t, w.ProjectIDs)
	assert.Equal(t, []string{models.EventWebhookChanged}, pub.Actions())
}

func TestCreateWebhook_ScopedToProjects(t *testing.T) {
	svc, repo, _ := setupService(t)
	p := testutil.CreateTestProject(t, repo, "apollo")
	req := validRequest()
	req.AllProjects = false
	req.ProjectIDs = []int{p.ID}

	w := createWebhook(t, svc, req)

	assert.False(t, w.AllProjects)
	assert.Equal(t, []int{p.ID}, w.ProjectIDs)
	assert.True(t, w.Matches(models.EventWorkPackageCreated, p.ID))
	assert.False(t, w.Matches(models.EventWorkPackageCreated, p.ID+1))
}

func TestCreateWebhook_Invalid(t *testing.T) {
	svc, _, pub := setupService(t)

	tests := []struct {
		name   string
		modify func(*CreateWebhookRequest)
		attr   string
		code   contracts.Code
	}{
		{"blank name", func(r *CreateWebhookRequest) { r.Name = "  " }, "name", contracts.CodeBlank},
		{"relative url", func(r *CreateWebhookRequest) { r.URL = "/hook" }, "url", contracts.CodeInvalid},
		{"ftp url", func(r *CreateWebhookRequest) { r.URL = "ftp://example.com" }, "url", contracts.CodeInvalid},
		{"no events", func(r *CreateWebhookRequest) { r.Events = nil }, "events", contracts.CodeTooShort},
		{"unknown event", func(r *CreateWebhookRequest) { r.Events = []string{"meeting:created"} }, "events", contracts.CodeInclusion},
		{"no projects", func(r *CreateWebhookRequest) { r.AllProjects = false }, "projects", contracts.CodeBlank},
		{"missing project", func(r *CreateWebhookRequest) {
			r.AllProjects = false
			r.ProjectIDs = []int{999}
		}, "projects", contracts.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)
			res, err := svc.CreateWebhook(testutil.AdminContext(), req)
			require.NoError(t, err)
			require.True(t, res.Failure())
			assert.True(t, res.Errors.Has(tt.attr, tt.code), "got %v", res.Errors)
		})
	}
	assert.Empty(t, pub.SentEvents)
}

func TestCreateWebhook_AdminOnly(t *testing.T) {
	svc, repo, _ := setupService(t)
	p := testutil.CreateTestProject(t, repo, "apollo")
	ctx := testutil.MemberContext(t, repo, "lead", p.ID, models.RoleProjectAdmin)

	res, err := svc.CreateWebhook(ctx, validRequest())

	require.NoError(t, err)
	assert.True(t, res.Errors.Has(contracts.AttrBase, contracts.CodeUnauthorized))
}

// ============================================================================
// MANAGE
// ============================================================================

func TestSetEnabled(t *testing.T) {
	svc, _, pub := setupService(t)
	w := createWebhook(t, svc, validRequest())
	pub.Reset()

	res, err := svc.SetEnabled(testutil.AdminContext(), w.ID, false)
	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())
	assert.False(t, res.Result.Enabled)

	// unchanged state publishes nothing
	_, err = svc.SetEnabled(testutil.AdminContext(), w.ID, false)
	require.NoError(t, err)
	assert.Len(t, pub.SentEvents, 1)

	all, err := svc.ListWebhooks(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Enabled)
}

func TestDeleteWebhook(t *testing.T) {
	svc, repo, _ := setupService(t)
	w := createWebhook(t, svc, validRequest())
	_, err := repo.CreateWebhookLog(context.Background(), &models.WebhookLog{
		WebhookID: w.ID, DeliveryID: "d-1", Event: models.EventWorkPackageCreated, URL: w.URL, ResponseCode: 200,
	})
	require.NoError(t, err)

	res, err := svc.DeleteWebhook(testutil.AdminContext(), w.ID)
	require.NoError(t, err)
	require.True(t, res.Success(), res.Err())

	_, err = svc.GetWebhook(context.Background(), w.ID)
	assert.ErrorIs(t, err, ErrWebhookNotFound)
	_, err = svc.ListLogs(context.Background(), w.ID, 0)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteWebhook_AdminOnly(t *testing.T) {
	svc, repo, _ := setupService(t)
	w := createWebhook(t, svc, validRequest())
	p := testutil.CreateTestProject(t, repo, "apollo")
	ctx := testutil.MemberContext(t, repo, "lead", p.ID, models.RoleProjectAdmin)

	res, err := svc.DeleteWebhook(ctx, w.ID)

	require.NoError(t, err)
	assert.True(t, res.Errors.Has(contracts.AttrBase, contracts.CodeUnauthorized))
}

func TestListLogs(t *testing.T) {
	svc, repo, _ := setupService(t)
	w := createWebhook(t, svc, validRequest())
	for _, id := range []string{"d-1", "d-2", "d-3"} {
		_, err := repo.CreateWebhookLog(context.Background(), &models.WebhookLog{
			WebhookID: w.ID, DeliveryID: id, Event: models.EventWorkPackageCreated, URL: w.URL, ResponseCode: 200,
		})
		require.NoError(t, err)
	}

	logs, err := svc.ListLogs(context.Background(), w.ID, 2)

	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "d-3", logs[0].DeliveryID)
	assert.Equal(t, "d-2", logs[1].DeliveryID)
}

func TestGetWebhook_InvalidID(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.GetWebhook(context.Background(), 0)

	assert.ErrorIs(t, err, ErrInvalidWebhookID)
}
