package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/project"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/testutil"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

// ============================================================================
// Construction Tests
// ============================================================================

func TestNew(t *testing.T) {
	repo := testutil.SetupTestRepo(t)

	app := New(repo)
	require.NotNil(t, app)

	assert.NotNil(t, app.ProjectService)
	assert.NotNil(t, app.AccountService)
	assert.NotNil(t, app.WorkPackageService)
	assert.NotNil(t, app.RelationService)
	assert.NotNil(t, app.CalendarService)
	assert.NotNil(t, app.CustomFieldService)
	assert.NotNil(t, app.WebhookService)
	assert.Equal(t, repo, app.Repo())
	assert.NotNil(t, app.Logger())
}

func TestNew_EventsReachPublisher(t *testing.T) {
	repo := testutil.SetupTestRepo(t)
	publisher := testutil.NewRecordingPublisher()

	app := New(repo, WithEventPublisher(publisher))
	res, err := app.ProjectService.CreateProject(testutil.AdminContext(), project.CreateProjectRequest{
		Name:       "Apollo",
		Identifier: "apollo",
	})
	require.NoError(t, err)
	require.True(t, res.Success(), "errors: %v", res.Errors)

	assert.Equal(t, []string{models.EventProjectCreated}, publisher.Actions())
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "op.db")

	app, err := Open(context.Background(), path)
	require.NoError(t, err)

	ctx, p, err := app.ActAs(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, p.User.Admin)
	assert.Equal(t, p, user.FromContext(ctx))

	require.NoError(t, app.Close())
}

func TestActAs_UnknownUser(t *testing.T) {
	app := New(testutil.SetupTestRepo(t))

	_, _, err := app.ActAs(context.Background(), "nobody")
	assert.True(t, errors.Is(err, user.ErrUnknownUser))
}

func TestClose_WithoutOwnedDatabase(t *testing.T) {
	app := New(testutil.SetupTestRepo(t), WithEventPublisher(testutil.NewRecordingPublisher()))

	assert.NoError(t, app.Close())
}
