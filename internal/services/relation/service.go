package relation

import (
	"context"
	"errors"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/result"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/schedule"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

// Service defines all relation business operations
type Service interface {
	GetRelation(ctx context.Context, id int) (*models.Relation, error)
	ListRelations(ctx context.Context, workPackageID int) ([]models.Relation, error)

	CreateRelation(ctx context.Context, req CreateRelationRequest) (*result.ServiceResult[*models.Relation], error)
	UpdateRelation(ctx context.Context, req UpdateRelationRequest) (*result.ServiceResult[*models.Relation], error)
	DeleteRelation(ctx context.Context, id int) (*result.ServiceResult[*models.Relation], error)
}

// CreateRelationRequest links two work packages. Precedes is stored as
// the reverse follows relation.
type CreateRelationRequest struct {
	FromID int
	ToID   int
	Type   models.RelationType
	Lag    int
}

// UpdateRelationRequest changes the lag of a follows relation
type UpdateRelationRequest struct {
	ID  int
	Lag int
}

// service implements Service
type service struct {
	repo        database.DataStore
	eventClient events.EventPublisher
}

// NewService creates a new relation service
func NewService(repo database.DataStore, eventClient events.EventPublisher) Service {
	return &service{
		repo:        repo,
		eventClient: eventClient,
	}
}

// GetRelation retrieves a specific relation
func (s *service) GetRelation(ctx context.Context, id int) (*models.Relation, error) {
	if id <= 0 {
		return nil, ErrInvalidRelationID
	}
	rel, err := s.repo.GetRelationByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, ErrRelationNotFound)
	}
	return rel, nil
}

// ListRelations lists the relations touching a work package
func (s *service) ListRelations(ctx context.Context, workPackageID int) ([]models.Relation, error) {
	if workPackageID <= 0 {
		return nil, ErrInvalidWorkPackageID
	}
	if _, err := s.repo.GetWorkPackageByID(ctx, workPackageID); err != nil {
		return nil, wrapNotFound(err, ErrWorkPackageNotFound)
	}
	return s.repo.ListRelationsForWorkPackage(ctx, workPackageID)
}

// CreateRelation validates and stores a relation. A new follows relation
// reschedules the successor and everything depending on it.
func (s *service) CreateRelation(ctx context.Context, req CreateRelationRequest) (*result.ServiceResult[*models.Relation], error) {
	rel := models.Relation{FromID: req.FromID, ToID: req.ToID, Type: req.Type, Lag: req.Lag}

	var (
		res  *result.ServiceResult[*models.Relation]
		from *models.WorkPackage
	)
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		var (
			to  *models.WorkPackage
			err error
		)
		if from, err = loadOptional(ctx, tx, rel.FromID); err != nil {
			return err
		}
		if to, err = loadOptional(ctx, tx, rel.ToID); err != nil {
			return err
		}
		existing, err := tx.RelationsBetween(ctx, rel.FromID, rel.ToID)
		if err != nil {
			return err
		}
		snap, err := schedule.Load(ctx, tx)
		if err != nil {
			return err
		}

		contract := contracts.RelationContract{User: user.FromContext(ctx), Graph: snap.Graph}
		errs := contract.Validate(contracts.RelationChange{Relation: rel, From: from, To: to, Existing: existing})
		if !errs.Empty() {
			res = result.Failure[*models.Relation](errs)
			return nil
		}

		created, err := tx.CreateRelation(ctx, rel)
		if err != nil {
			return fmt.Errorf("failed to create relation: %w", err)
		}
		moved, err := rescheduleSuccessor(ctx, tx, created)
		if err != nil {
			return err
		}
		res = result.Success(created, moved...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(models.EventRelationCreated, from.ProjectID, res)
	}
	return res, nil
}

// UpdateRelation changes the lag of a relation and reschedules the
// successor
func (s *service) UpdateRelation(ctx context.Context, req UpdateRelationRequest) (*result.ServiceResult[*models.Relation], error) {
	if req.ID <= 0 {
		return nil, ErrInvalidRelationID
	}

	var (
		res  *result.ServiceResult[*models.Relation]
		from *models.WorkPackage
	)
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		rel, err := tx.GetRelationByID(ctx, req.ID)
		if err != nil {
			return wrapNotFound(err, ErrRelationNotFound)
		}
		rel.Lag = req.Lag

		var to *models.WorkPackage
		if from, err = loadOptional(ctx, tx, rel.FromID); err != nil {
			return err
		}
		if to, err = loadOptional(ctx, tx, rel.ToID); err != nil {
			return err
		}
		contract := contracts.RelationContract{User: user.FromContext(ctx)}
		errs := contract.Validate(contracts.RelationChange{Relation: *rel, From: from, To: to, Update: true})
		if rel.Type != models.RelationFollows && req.Lag != 0 {
			errs.Add("lag", contracts.CodeInvalid)
		}
		if !errs.Empty() {
			res = result.Failure[*models.Relation](errs)
			return nil
		}

		if err := tx.UpdateRelationLag(ctx, rel.ID, rel.Lag); err != nil {
			return err
		}
		moved, err := rescheduleSuccessor(ctx, tx, rel)
		if err != nil {
			return err
		}
		res = result.Success(rel, moved...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(models.EventRelationUpdated, from.ProjectID, res)
	}
	return res, nil
}

// DeleteRelation removes a relation. The former successor is
// rescheduled against its remaining predecessors.
func (s *service) DeleteRelation(ctx context.Context, id int) (*result.ServiceResult[*models.Relation], error) {
	if id <= 0 {
		return nil, ErrInvalidRelationID
	}

	var (
		res  *result.ServiceResult[*models.Relation]
		from *models.WorkPackage
	)
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		rel, err := tx.GetRelationByID(ctx, id)
		if err != nil {
			return wrapNotFound(err, ErrRelationNotFound)
		}
		if from, err = tx.GetWorkPackageByID(ctx, rel.FromID); err != nil {
			return fmt.Errorf("failed to load work package %d: %w", rel.FromID, err)
		}
		contract := contracts.RelationContract{User: user.FromContext(ctx)}
		if errs := contract.ValidateDelete(from); !errs.Empty() {
			res = result.Failure[*models.Relation](errs)
			return nil
		}

		if err := tx.DeleteRelation(ctx, id); err != nil {
			return err
		}
		moved, err := rescheduleSuccessor(ctx, tx, rel)
		if err != nil {
			return err
		}
		res = result.Success(rel, moved...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(models.EventRelationDeleted, from.ProjectID, res)
	}
	return res, nil
}

// rescheduleSuccessor propagates dates from the successor of a follows
// relation. Other relation types do not affect scheduling.
func rescheduleSuccessor(ctx context.Context, tx database.DataStore, rel *models.Relation) ([]*models.WorkPackage, error) {
	if rel.Type != models.RelationFollows {
		return nil, nil
	}
	snap, err := schedule.Load(ctx, tx)
	if err != nil {
		return nil, err
	}
	return snap.Reschedule(ctx, tx, rel.FromID)
}

// publish sends the relation change and one update per moved work
// package
func (s *service) publish(action string, projectID int, res *result.ServiceResult[*models.Relation]) {
	if s.eventClient == nil {
		return
	}
	_ = events.PublishWithRetry(s.eventClient, events.NewEvent(action, projectID, res.Result.ID, res.Result), 3)
	for _, wp := range res.Dependents {
		_ = events.PublishWithRetry(s.eventClient, events.NewEvent(models.EventWorkPackageUpdated, wp.ProjectID, wp.ID, wp), 3)
	}
}

// loadOptional returns nil without error for a missing work package;
// the contract reports it
func loadOptional(ctx context.Context, tx database.DataStore, id int) (*models.WorkPackage, error) {
	if id <= 0 {
		return nil, nil
	}
	wp, err := tx.GetWorkPackageByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load work package %d: %w", id, err)
	}
	return wp, nil
}

// wrapNotFound replaces a storage not-found error with the domain one
func wrapNotFound(err, domain error) error {
	if errors.Is(err, models.ErrNotFound) {
		return domain
	}
	return err
}
