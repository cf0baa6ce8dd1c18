// Package account manages user accounts
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/result"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

// Service defines account operations
type Service interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*result.ServiceResult[*models.User], error)
}

// CreateUserRequest encapsulates data for creating an account
type CreateUserRequest struct {
	Login string
	Name  string
	Admin bool
}

type service struct {
	repo        database.DataStore
	eventClient events.EventPublisher
}

// NewService creates a new account service
func NewService(repo database.DataStore, eventClient events.EventPublisher) Service {
	return &service{repo: repo, eventClient: eventClient}
}

func (s *service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *service) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	u, err := s.repo.GetUserByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// CreateUser adds an account (admins only)
func (s *service) CreateUser(ctx context.Context, req CreateUserRequest) (*result.ServiceResult[*models.User], error) {
	u := &models.User{
		Login: strings.TrimSpace(req.Login),
		Name:  strings.TrimSpace(req.Name),
		Admin: req.Admin,
	}

	var res *result.ServiceResult[*models.User]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		taken, err := tx.LoginTaken(ctx, u.Login)
		if err != nil {
			return fmt.Errorf("failed to check login: %w", err)
		}
		contract := contracts.UserContract{User: user.FromContext(ctx), LoginTaken: taken}
		if errs := contract.Validate(u); !errs.Empty() {
			res = result.Failure[*models.User](errs)
			return nil
		}
		created, err := tx.CreateUser(ctx, u)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		res = result.Success(created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() && s.eventClient != nil {
		_ = events.PublishWithRetry(s.eventClient, events.NewEvent(models.EventUserCreated, 0, res.Result.ID, res.Result), 3)
	}
	return res, nil
}
