package cli

import (
	"testing"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/app"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/testutil"
)

// SetupCLITest creates an in-memory DB and returns both the repository
// and an App over it. This package is only for CLI tests and is isolated
// to avoid import cycles when service tests import testutil.
func SetupCLITest(t *testing.T) (*database.Repository, *app.App) {
	t.Helper()
	repo := testutil.SetupTestRepo(t)

	// EventPublisher is nil; event publishing is tested in the services
	return repo, app.New(repo)
}
