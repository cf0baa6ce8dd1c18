package database

import (
	"context"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// UserRepo handles user accounts
type UserRepo struct {
	db querier
}

// CreateUser inserts a user and returns it with its ID
func (r *UserRepo) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (login, name, admin) VALUES (?, ?, ?)`,
		u.Login, u.Name, boolToInt(u.Admin),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user '%s': %w", u.Login, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID after insert: %w", err)
	}
	return r.GetUserByID(ctx, int(id))
}

// GetUserByID retrieves a user by ID
func (r *UserRepo) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	u := &models.User{}
	if err := r.db.GetContext(ctx, u, `SELECT id, login, name, admin FROM users WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

// GetUserByLogin retrieves a user by login
func (r *UserRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	u := &models.User{}
	if err := r.db.GetContext(ctx, u, `SELECT id, login, name, admin FROM users WHERE login = ?`, login); err != nil {
		return nil, notFound(err, "user", login)
	}
	return u, nil
}

// ListUsers returns every user ordered by login
func (r *UserRepo) ListUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0)
	if err := r.db.SelectContext(ctx, &users, `SELECT id, login, name, admin FROM users ORDER BY login`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// LoginTaken reports whether login is in use
func (r *UserRepo) LoginTaken(ctx context.Context, login string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE login = ?`, login); err != nil {
		return false, fmt.Errorf("failed to check login '%s': %w", login, err)
	}
	return count > 0, nil
}
