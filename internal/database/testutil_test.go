package database

import (
	"context"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// ============================================================================
// DATABASE SETUP HELPERS
// ============================================================================

// setupTestDB creates a migrated in-memory database
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := InitDB(context.Background(), ":memory:")
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// setupTestRepo wraps a fresh test database
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(setupTestDB(t))
}

// createTestProject inserts an active project
func createTestProject(t *testing.T, repo *Repository, identifier string) *models.Project {
	t.Helper()
	p, err := repo.CreateProject(context.Background(), &models.Project{
		Identifier: identifier,
		Name:       identifier,
		Active:     true,
	})
	require.NoError(t, err)
	return p
}

// createTestWorkPackage inserts wp, filling in a task's default type,
// status and priority
func createTestWorkPackage(t *testing.T, repo *Repository, wp *models.WorkPackage) *models.WorkPackage {
	t.Helper()
	if wp.TypeID == 0 {
		wp.TypeID = models.TypeTask
	}
	if wp.StatusID == 0 {
		wp.StatusID = models.StatusNew
	}
	if wp.PriorityID == 0 {
		wp.PriorityID = models.PriorityNormal
	}
	created, err := repo.CreateWorkPackage(context.Background(), wp)
	require.NoError(t, err)
	return created
}

func itoa(i int) string { return strconv.Itoa(i) }
