package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

type fakeStore struct {
	users       map[string]*models.User
	memberships map[int]map[int]models.Role
	err         error
}

func (f *fakeStore) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[login]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) MembershipsForUser(_ context.Context, userID int) (map[int]models.Role, error) {
	return f.memberships[userID], nil
}

func TestGetCurrentUsername(t *testing.T) {
	assert.NotEmpty(t, GetCurrentUsername(), "GetCurrentUsername() should never return an empty string")
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	p := &models.Principal{User: &models.User{ID: 3, Login: "ana"}}

	ctx := WithPrincipal(context.Background(), p)

	assert.Same(t, p, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestResolve(t *testing.T) {
	store := &fakeStore{
		users: map[string]*models.User{
			"ana": {ID: 3, Login: "ana", Name: "Ana"},
		},
		memberships: map[int]map[int]models.Role{
			3: {10: models.RoleMember},
		},
	}

	t.Run("loads memberships", func(t *testing.T) {
		p, err := Resolve(context.Background(), store, "ana")
		require.NoError(t, err)
		assert.Equal(t, 3, p.User.ID)
		assert.True(t, p.Allowed(models.PermissionEditWorkPackages, 10))
		assert.False(t, p.Allowed(models.PermissionEditWorkPackages, 11))
	})

	t.Run("unknown login", func(t *testing.T) {
		_, err := Resolve(context.Background(), store, "bob")
		assert.ErrorIs(t, err, ErrUnknownUser)
	})

	t.Run("store failure", func(t *testing.T) {
		failing := &fakeStore{err: errors.New("disk on fire")}
		_, err := Resolve(context.Background(), failing, "ana")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnknownUser)
	})
}
