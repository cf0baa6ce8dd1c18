package project

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

// Service defines all project-related business operations
type Service interface {
	// Read operations
	ListProjects(ctx context.Context, includeArchived bool) ([]*models.Project, error)
	GetProjectByID(ctx context.Context, id int) (*models.Project, error)
	GetProjectByIdentifier(ctx context.Context, identifier string) (*models.Project, error)
	ListMembers(ctx context.Context, projectID int) ([]*models.Membership, error)

	// Write operations
	CreateProject(ctx context.Context, req CreateProjectRequest) (*result.ServiceResult[*models.Project], error)
	UpdateProject(ctx context.Context, req UpdateProjectRequest) (*result.ServiceResult[*models.Project], error)
	ArchiveProject(ctx context.Context, id int, archived bool) (*result.ServiceResult[*models.Project], error)
	DeleteProject(ctx context.Context, id int) (*result.ServiceResult[*models.Project], error)

	// Memberships
	AddMember(ctx context.Context, req MemberRequest) (*result.ServiceResult[*models.Membership], error)
	RemoveMember(ctx context.Context, projectID, userID int) (*result.ServiceResult[*models.Membership], error)
}

// CreateProjectRequest encapsulates data for creating a project
type CreateProjectRequest struct {
	Identifier  string
	Name        string
	Description string
}

// UpdateProjectRequest encapsulates data for updating a project.
// Nil fields are left unchanged.
type UpdateProjectRequest struct {
	ID          int
	Identifier  *string
	Name        *string
	Description *string
}

// MemberRequest grants a user a role in a project, replacing any
// previous role
type MemberRequest struct {
	ProjectID int
	UserID    int
	Role      models.Role
}

// service implements Service
type service struct {
	repo        database.DataStore
	eventClient events.EventPublisher
}

// NewService creates a new project service
func NewService(repo database.DataStore, eventClient events.EventPublisher) Service {
	return &service{
		repo:        repo,
		eventClient: eventClient,
	}
}

// ListProjects retrieves all projects, archived ones only when asked
func (s *service) ListProjects(ctx context.Context, includeArchived bool) ([]*models.Project, error) {
	return s.repo.ListProjects(ctx, includeArchived)
}

// GetProjectByID retrieves a specific project
func (s *service) GetProjectByID(ctx context.Context, id int) (*models.Project, error) {
	if id <= 0 {
		return nil, ErrInvalidProjectID
	}
	p, err := s.repo.GetProjectByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, ErrProjectNotFound)
	}
	return p, nil
}

// GetProjectByIdentifier retrieves a project by its slug
func (s *service) GetProjectByIdentifier(ctx context.Context, identifier string) (*models.Project, error) {
	p, err := s.repo.GetProjectByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return nil, wrapNotFound(err, ErrProjectNotFound)
	}
	return p, nil
}

// ListMembers lists the memberships of a project
func (s *service) ListMembers(ctx context.Context, projectID int) ([]*models.Membership, error) {
	if _, err := s.GetProjectByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, projectID)
}

// CreateProject creates a new active project
func (s *service) CreateProject(ctx context.Context, req CreateProjectRequest) (*result.ServiceResult[*models.Project], error) {
	p := &models.Project{
		Identifier:  strings.TrimSpace(req.Identifier),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Active:      true,
	}

	var res *result.ServiceResult[*models.Project]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		taken, err := tx.IdentifierTaken(ctx, p.Identifier, 0)
		if err != nil {
			return fmt.Errorf("failed to check identifier: %w", err)
		}
		contract := contracts.ProjectContract{User: user.FromContext(ctx), IdentifierTaken: taken}
		if errs := contract.ValidateCreate(p); !errs.Empty() {
			res = result.Failure[*models.Project](errs)
			return nil
		}

		created, err := tx.CreateProject(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		res = result.Success(created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(models.EventProjectCreated, res.Result)
	}
	return res, nil
}

// UpdateProject changes identifier, name or description
func (s *service) UpdateProject(ctx context.Context, req UpdateProjectRequest) (*result.ServiceResult[*models.Project], error) {
	if req.ID <= 0 {
		return nil, ErrInvalidProjectID
	}

	return s.update(ctx, req.ID, func(p *models.Project) {
		if req.Identifier != nil {
			p.Identifier = strings.TrimSpace(*req.Identifier)
		}
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
	})
}

// ArchiveProject deactivates (or, with archived false, reactivates) a
// project. Archived projects are hidden from default listings.
func (s *service) ArchiveProject(ctx context.Context, id int, archived bool) (*result.ServiceResult[*models.Project], error) {
	if id <= 0 {
		return nil, ErrInvalidProjectID
	}
	return s.update(ctx, id, func(p *models.Project) {
		p.Active = !archived
	})
}

func (s *service) update(ctx context.Context, id int, apply func(*models.Project)) (*result.ServiceResult[*models.Project], error) {
	var res *result.ServiceResult[*models.Project]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		p, err := tx.GetProjectByID(ctx, id)
		if err != nil {
			return wrapNotFound(err, ErrProjectNotFound)
		}
		apply(p)

		taken, err := tx.IdentifierTaken(ctx, p.Identifier, p.ID)
		if err != nil {
			return fmt.Errorf("failed to check identifier: %w", err)
		}
		contract := contracts.ProjectContract{User: user.FromContext(ctx), IdentifierTaken: taken}
		if errs := contract.ValidateUpdate(p); !errs.Empty() {
			res = result.Failure[*models.Project](errs)
			return nil
		}

		if err := tx.UpdateProject(ctx, p); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		updated, err := tx.GetProjectByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to reload project: %w", err)
		}
		res = result.Success(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(models.EventProjectUpdated, res.Result)
	}
	return res, nil
}

// DeleteProject removes a project with its work packages and memberships
func (s *service) DeleteProject(ctx context.Context, id int) (*result.ServiceResult[*models.Project], error) {
	if id <= 0 {
		return nil, ErrInvalidProjectID
	}

	var res *result.ServiceResult[*models.Project]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		p, err := tx.GetProjectByID(ctx, id)
		if err != nil {
			return wrapNotFound(err, ErrProjectNotFound)
		}
		contract := contracts.ProjectContract{User: user.FromContext(ctx)}
		if errs := contract.ValidateDelete(p); !errs.Empty() {
			res = result.Failure[*models.Project](errs)
			return nil
		}
		if err := tx.DeleteProject(ctx, id); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		res = result.Success(p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(models.EventProjectDeleted, res.Result)
	}
	return res, nil
}

// AddMember grants a user a role in a project
func (s *service) AddMember(ctx context.Context, req MemberRequest) (*result.ServiceResult[*models.Membership], error) {
	if req.ProjectID <= 0 {
		return nil, ErrInvalidProjectID
	}
	if req.UserID <= 0 {
		return nil, ErrInvalidUserID
	}
	m := &models.Membership{ProjectID: req.ProjectID, UserID: req.UserID, Role: req.Role}

	var res *result.ServiceResult[*models.Membership]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		if _, err := tx.GetProjectByID(ctx, req.ProjectID); err != nil {
			return wrapNotFound(err, ErrProjectNotFound)
		}
		if _, err := tx.GetUserByID(ctx, req.UserID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				res = result.Failure[*models.Membership](notFound("user"))
				return nil
			}
			return fmt.Errorf("failed to load user: %w", err)
		}

		contract := contracts.MembershipContract{User: user.FromContext(ctx)}
		if errs := contract.Validate(m); !errs.Empty() {
			res = result.Failure[*models.Membership](errs)
			return nil
		}
		if err := tx.AddMember(ctx, m); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		res = result.Success(m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publishMembership(m)
	}
	return res, nil
}

// RemoveMember revokes a user's membership
func (s *service) RemoveMember(ctx context.Context, projectID, userID int) (*result.ServiceResult[*models.Membership], error) {
	if projectID <= 0 {
		return nil, ErrInvalidProjectID
	}
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	m := &models.Membership{ProjectID: projectID, UserID: userID}

	var res *result.ServiceResult[*models.Membership]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		contract := contracts.MembershipContract{User: user.FromContext(ctx)}
		if errs := contract.ValidateRemove(m); !errs.Empty() {
			res = result.Failure[*models.Membership](errs)
			return nil
		}
		if err := tx.RemoveMember(ctx, projectID, userID); err != nil {
			return wrapNotFound(err, ErrMembershipNotFound)
		}
		res = result.Success(m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publishMembership(m)
	}
	return res, nil
}

// publish sends a project change to the daemon
func (s *service) publish(action string, p *models.Project) {
	if s.eventClient == nil {
		return
	}
	_ = events.PublishWithRetry(s.eventClient, events.NewEvent(action, p.ID, p.ID, p), 3)
}

func (s *service) publishMembership(m *models.Membership) {
	if s.eventClient == nil {
		return
	}
	_ = events.PublishWithRetry(s.eventClient, events.NewEvent(models.EventMembershipChanged, m.ProjectID, m.UserID, m), 3)
}

func notFound(attr string) *contracts.Errors {
	errs := contracts.NewErrors()
	errs.Add(attr, contracts.CodeNotFound)
	return errs
}

// wrapNotFound replaces a storage not-found error with the domain one
func wrapNotFound(err, domain error) error {
	if errors.Is(err, models.ErrNotFound) {
		return domain
	}
	return err
}
