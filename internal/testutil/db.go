package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

// AdminID is the account seeded by the migrations
const AdminID = 1

// SetupTestDB creates a migrated in-memory database closed at test cleanup
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.InitDB(context.Background(), ":memory:")
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SetupTestRepo wraps a fresh test database in a repository
func SetupTestRepo(t *testing.T) *database.Repository {
	t.Helper()
	return database.NewRepository(SetupTestDB(t))
}

// Admin returns the seeded administrator as a principal
func Admin() *models.Principal {
	return &models.Principal{
		User:        &models.User{ID: AdminID, Login: "admin", Name: "Administrator", Admin: true},
		Memberships: map[int]models.Role{},
	}
}

// AdminContext returns a background context acting as the administrator
func AdminContext() context.Context {
	return user.WithPrincipal(context.Background(), Admin())
}

// MemberContext creates a user holding role in projectID and returns a
// context acting as that user
func MemberContext(t *testing.T, repo database.DataStore, login string, projectID int, role models.Role) context.Context {
	t.Helper()
	ctx := context.Background()
	u := CreateTestUser(t, repo, login)
	require.NoError(t, repo.AddMember(ctx, &models.Membership{UserID: u.ID, ProjectID: projectID, Role: role}))
	p, err := user.Resolve(ctx, repo, login)
	require.NoError(t, err)
	return user.WithPrincipal(ctx, p)
}

// CreateTestUser inserts a non-admin user
func CreateTestUser(t *testing.T, repo database.DataStore, login string) *models.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), &models.User{Login: login, Name: login})
	require.NoError(t, err)
	return u
}

// CreateTestProject inserts an active project named after its identifier
func CreateTestProject(t *testing.T, repo database.DataStore, identifier string) *models.Project {
	t.Helper()
	p, err := repo.CreateProject(context.Background(), &models.Project{
		Identifier: identifier,
		Name:       identifier,
		Active:     true,
	})
	require.NoError(t, err)
	return p
}

// CreateTestWorkPackage inserts wp as is, filling in a task's default
// type, status and priority. No dates are derived.
func CreateTestWorkPackage(t *testing.T, repo database.DataStore, wp *models.WorkPackage) *models.WorkPackage {
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
	if wp.Subject == "" {
		wp.Subject = "Work package"
	}
	created, err := repo.CreateWorkPackage(context.Background(), wp)
	require.NoError(t, err)
	return created
}

// CreateTestFollows makes successor follow predecessor with lag working days
func CreateTestFollows(t *testing.T, repo database.DataStore, successor, predecessor, lag int) *models.Relation {
	t.Helper()
	rel, err := repo.CreateRelation(context.Background(), models.Relation{
		FromID: successor,
		ToID:   predecessor,
		Type:   models.RelationFollows,
		Lag:    lag,
	})
	require.NoError(t, err)
	return rel
}

// ReloadWorkPackage fetches the current database state of a work package
func ReloadWorkPackage(t *testing.T, repo database.DataStore, id int) *models.WorkPackage {
	t.Helper()
	wp, err := repo.GetWorkPackageByID(context.Background(), id)
	require.NoError(t, err)
	return wp
}
