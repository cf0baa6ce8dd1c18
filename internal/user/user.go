// Package user resolves who is acting: the login to act as, the
// principal loaded for it, and the principal carried on a context.
package user

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// ErrUnknownUser is returned when the acting login has no account
var ErrUnknownUser = errors.New("unknown user")

type principalKey struct{}

// WithPrincipal returns a context carrying p as the acting user
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the acting user, or nil when none was set. Every
// permission check fails for a nil principal.
func FromContext(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey{}).(*models.Principal)
	return p
}

// Store is the data needed to resolve a principal
type Store interface {
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	MembershipsForUser(ctx context.Context, userID int) (map[int]models.Role, error)
}

// Resolve loads the account for login together with its memberships.
// An empty login falls back to the operating system username.
func Resolve(ctx context.Context, store Store, login string) (*models.Principal, error) {
	if login == "" {
		login = GetCurrentUsername()
	}
	u, err := store.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, login)
		}
		return nil, fmt.Errorf("failed to load user %s: %w", login, err)
	}
	memberships, err := store.MembershipsForUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}
	return &models.Principal{User: u, Memberships: memberships}, nil
}

// GetCurrentUsername returns the current system username.
// It tries multiple methods with fallbacks:
// 1. user.Current() - most reliable, gets username from OS
// 2. USER environment variable - fallback for restricted environments
// 3. "unknown" - final fallback to ensure a non-empty value
func GetCurrentUsername() string {
	currentUser, err := user.Current()
	if err != nil {
		username := os.Getenv("USER")
		if username == "" {
			return "unknown"
		}
		return username
	}
	return currentUser.Username
}
