package customfield

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/hierarchy"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/result"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

// Service defines custom field and hierarchy item operations
type Service interface {
	// Fields
	GetCustomField(ctx context.Context, id int) (*models.CustomField, error)
	ListCustomFields(ctx context.Context) ([]*models.CustomField, error)
	CreateCustomField(ctx context.Context, req CreateCustomFieldRequest) (*result.ServiceResult[*models.CustomField], error)
	DeleteCustomField(ctx context.Context, id int) (*result.ServiceResult[*models.CustomField], error)

	// Hierarchy items
	Tree(ctx context.Context, fieldID int) ([]hierarchy.Entry, error)
	FormatItem(ctx context.Context, itemID, depth int) (string, error)
	InsertItem(ctx context.Context, req InsertItemRequest) (*result.ServiceResult[*models.HierarchyItem], error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) (*result.ServiceResult[*models.HierarchyItem], error)
	MoveItem(ctx context.Context, req MoveItemRequest) (*result.ServiceResult[*models.HierarchyItem], error)
	DeleteItem(ctx context.Context, id int) (*result.ServiceResult[[]*models.HierarchyItem], error)
}

// CreateCustomFieldRequest encapsulates data for creating a custom field
type CreateCustomFieldRequest struct {
	Name           string
	Format         models.FieldFormat
	Required       bool
	MinLength      int
	MaxLength      int
	Regexp         string
	PossibleValues []string
}

// InsertItemRequest adds an item below ParentID (0 = the root). A nil
// Position appends.
type InsertItemRequest struct {
	CustomFieldID int
	ParentID      int
	Label         string
	Short         *string
	Position      *int
}

// UpdateItemRequest relabels an item. Nil fields are left unchanged.
type UpdateItemRequest struct {
	ID         int
	Label      *string
	Short      *string
	ClearShort bool
}

// MoveItemRequest moves an item below ParentID (0 = the root) at
// Position (nil appends)
type MoveItemRequest struct {
	ID       int
	ParentID int
	Position *int
}

// service implements Service
type service struct {
	repo        database.DataStore
	eventClient events.EventPublisher
}

// NewService creates a new custom field service
func NewService(repo database.DataStore, eventClient events.EventPublisher) Service {
	return &service{
		repo:        repo,
		eventClient: eventClient,
	}
}

// ============================================================================
// FIELDS
// ============================================================================

// GetCustomField retrieves a specific custom field
func (s *service) GetCustomField(ctx context.Context, id int) (*models.CustomField, error) {
	if id <= 0 {
		return nil, ErrInvalidCustomFieldID
	}
	cf, err := s.repo.GetCustomFieldByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, ErrCustomFieldNotFound)
	}
	return cf, nil
}

// ListCustomFields lists every custom field
func (s *service) ListCustomFields(ctx context.Context) ([]*models.CustomField, error) {
	return s.repo.ListCustomFields(ctx)
}

// CreateCustomField creates a field; hierarchy fields start with an
// empty tree
func (s *service) CreateCustomField(ctx context.Context, req CreateCustomFieldRequest) (*result.ServiceResult[*models.CustomField], error) {
	cf := &models.CustomField{
		Name:           strings.TrimSpace(req.Name),
		Format:         req.Format,
		Required:       req.Required,
		MinLength:      req.MinLength,
		MaxLength:      req.MaxLength,
		Regexp:         req.Regexp,
		PossibleValues: req.PossibleValues,
	}

	var res *result.ServiceResult[*models.CustomField]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		taken, err := tx.CustomFieldNameTaken(ctx, cf.Name)
		if err != nil {
			return fmt.Errorf("failed to check name: %w", err)
		}
		contract := contracts.CustomFieldContract{User: user.FromContext(ctx), NameTaken: taken}
		if errs := contract.Validate(cf); !errs.Empty() {
			res = result.Failure[*models.CustomField](errs)
			return nil
		}
		created, err := tx.CreateCustomField(ctx, cf)
		if err != nil {
			return fmt.Errorf("failed to create custom field: %w", err)
		}
		res = result.Success(created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(res.Result.ID, res.Result)
	}
	return res, nil
}

// DeleteCustomField removes a field with its items and values
func (s *service) DeleteCustomField(ctx context.Context, id int) (*result.ServiceResult[*models.CustomField], error) {
	cf, err := s.GetCustomField(ctx, id)
	if err != nil {
		return nil, err
	}
	if errs := contracts.Authorize(user.FromContext(ctx), models.PermissionManageCustomFields, 0); !errs.Empty() {
		return result.Failure[*models.CustomField](errs), nil
	}
	if err := s.repo.DeleteCustomField(ctx, id); err != nil {
		return nil, wrapNotFound(err, ErrCustomFieldNotFound)
	}
	s.publish(cf.ID, cf)
	return result.Success(cf), nil
}

// ============================================================================
// HIERARCHY ITEMS
// ============================================================================

// Tree lists the items of a hierarchy field in pre-order with their
// depth and full path
func (s *service) Tree(ctx context.Context, fieldID int) ([]hierarchy.Entry, error) {
	tree, err := s.loadTree(ctx, s.repo, fieldID)
	if err != nil {
		return nil, err
	}
	return hierarchy.NewFormatter(tree).Entries(), nil
}

// FormatItem renders the path of an item. A negative depth keeps every
// segment; otherwise only the last depth ones.
func (s *service) FormatItem(ctx context.Context, itemID, depth int) (string, error) {
	item, err := s.getItem(ctx, s.repo, itemID)
	if err != nil {
		return "", err
	}
	tree, err := s.loadTree(ctx, s.repo, item.CustomFieldID)
	if err != nil {
		return "", err
	}
	return hierarchy.NewFormatter(tree).Format(itemID, depth)
}

// InsertItem adds an item, shifting later siblings down
func (s *service) InsertItem(ctx context.Context, req InsertItemRequest) (*result.ServiceResult[*models.HierarchyItem], error) {
	label := strings.TrimSpace(req.Label)
	short := trimShort(req.Short)

	var res *result.ServiceResult[*models.HierarchyItem]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		tree, err := s.loadTree(ctx, tx, req.CustomFieldID)
		if err != nil {
			return err
		}
		parentID := req.ParentID
		if parentID == 0 {
			parentID = tree.Root().ID
		}

		contract := contracts.HierarchyItemContract{User: user.FromContext(ctx), Tree: tree}
		if errs := contract.ValidateInsert(parentID, label, short); !errs.Empty() {
			res = result.Failure[*models.HierarchyItem](errs)
			return nil
		}

		position, shifted, err := tree.PlanInsert(parentID, positionOf(req.Position))
		if err != nil {
			return err
		}
		if err := tx.ApplyPlacements(ctx, shifted); err != nil {
			return err
		}
		id, err := tx.InsertHierarchyItem(ctx, &models.HierarchyItem{
			CustomFieldID: req.CustomFieldID,
			ParentID:      models.IntPtr(parentID),
			Label:         models.StringPtr(label),
			Short:         short,
			Position:      position,
		})
		if err != nil {
			return err
		}
		created, err := tx.GetHierarchyItemByID(ctx, id)
		if err != nil {
			return err
		}
		res = result.Success(created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(req.CustomFieldID, res.Result)
	}
	return res, nil
}

// UpdateItem changes the label or short of an item
func (s *service) UpdateItem(ctx context.Context, req UpdateItemRequest) (*result.ServiceResult[*models.HierarchyItem], error) {
	var res *result.ServiceResult[*models.HierarchyItem]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		item, err := s.getItem(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		tree, err := s.loadTree(ctx, tx, item.CustomFieldID)
		if err != nil {
			return err
		}

		label, short := item.LabelText(), item.Short
		if req.Label != nil {
			label = strings.TrimSpace(*req.Label)
		}
		if req.ClearShort {
			short = nil
		} else if req.Short != nil {
			short = trimShort(req.Short)
		}

		contract := contracts.HierarchyItemContract{User: user.FromContext(ctx), Tree: tree}
		if errs := contract.ValidateUpdate(item, label, short); !errs.Empty() {
			res = result.Failure[*models.HierarchyItem](errs)
			return nil
		}
		if err := tx.UpdateHierarchyItem(ctx, item.ID, label, short); err != nil {
			return err
		}
		updated, err := tx.GetHierarchyItemByID(ctx, item.ID)
		if err != nil {
			return err
		}
		res = result.Success(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(res.Result.CustomFieldID, res.Result)
	}
	return res, nil
}

// MoveItem moves an item and its branch, re-packing the positions of
// the old and new siblings
func (s *service) MoveItem(ctx context.Context, req MoveItemRequest) (*result.ServiceResult[*models.HierarchyItem], error) {
	var res *result.ServiceResult[*models.HierarchyItem]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		item, err := s.getItem(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		tree, err := s.loadTree(ctx, tx, item.CustomFieldID)
		if err != nil {
			return err
		}
		parentID := req.ParentID
		if parentID == 0 {
			parentID = tree.Root().ID
		}

		contract := contracts.HierarchyItemContract{User: user.FromContext(ctx), Tree: tree}
		if errs := contract.ValidateMove(item, parentID); !errs.Empty() {
			res = result.Failure[*models.HierarchyItem](errs)
			return nil
		}
		placements, err := tree.PlanMove(item.ID, parentID, positionOf(req.Position))
		if err != nil {
			return fmt.Errorf("failed to plan move: %w", err)
		}
		if err := tx.ApplyPlacements(ctx, placements); err != nil {
			return err
		}
		moved, err := tx.GetHierarchyItemByID(ctx, item.ID)
		if err != nil {
			return err
		}
		res = result.Success(moved)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(res.Result.CustomFieldID, res.Result)
	}
	return res, nil
}

// DeleteItem removes an item with its whole branch and clears the
// custom values pointing into it. The result lists the removed items.
func (s *service) DeleteItem(ctx context.Context, id int) (*result.ServiceResult[[]*models.HierarchyItem], error) {
	var (
		res     *result.ServiceResult[[]*models.HierarchyItem]
		fieldID int
	)
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		item, err := s.getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		fieldID = item.CustomFieldID
		tree, err := s.loadTree(ctx, tx, fieldID)
		if err != nil {
			return err
		}

		contract := contracts.HierarchyItemContract{User: user.FromContext(ctx), Tree: tree}
		if errs := contract.ValidateDelete(item); !errs.Empty() {
			res = result.Failure[[]*models.HierarchyItem](errs)
			return nil
		}

		branch := tree.Descendants(item.ID, true)
		ids := make([]int, len(branch))
		for i, b := range branch {
			ids[i] = b.ID
		}
		if err := tx.DeleteHierarchyItems(ctx, fieldID, ids); err != nil {
			return err
		}

		// Close the gap among the remaining siblings
		var placements []hierarchy.Placement
		position := 0
		for _, sibling := range tree.Children(*item.ParentID) {
			if sibling.ID == item.ID {
				continue
			}
			if sibling.Position != position {
				placements = append(placements, hierarchy.Placement{ItemID: sibling.ID, ParentID: *item.ParentID, Position: position})
			}
			position++
		}
		if err := tx.ApplyPlacements(ctx, placements); err != nil {
			return err
		}
		res = result.Success(branch)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(fieldID, res.Result)
	}
	return res, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *service) getItem(ctx context.Context, store database.CustomFieldRepository, id int) (*models.HierarchyItem, error) {
	if id <= 0 {
		return nil, ErrInvalidItemID
	}
	item, err := store.GetHierarchyItemByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, ErrItemNotFound)
	}
	return item, nil
}

// loadTree builds the item tree of a hierarchy field
func (s *service) loadTree(ctx context.Context, store database.CustomFieldRepository, fieldID int) (*hierarchy.Tree, error) {
	if fieldID <= 0 {
		return nil, ErrInvalidCustomFieldID
	}
	cf, err := store.GetCustomFieldByID(ctx, fieldID)
	if err != nil {
		return nil, wrapNotFound(err, ErrCustomFieldNotFound)
	}
	if cf.Format != models.FormatHierarchy {
		return nil, ErrNotHierarchyField
	}
	items, err := store.ListHierarchyItems(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	tree, err := hierarchy.NewTree(items)
	if err != nil {
		return nil, fmt.Errorf("failed to build hierarchy of custom field %d: %w", fieldID, err)
	}
	return tree, nil
}

// publish announces a change below a custom field
func (s *service) publish(fieldID int, payload any) {
	if s.eventClient == nil {
		return
	}
	_ = events.PublishWithRetry(s.eventClient, events.NewEvent(models.EventCustomFieldChanged, 0, fieldID, payload), 3)
}

func trimShort(short *string) *string {
	if short == nil {
		return nil
	}
	v := strings.TrimSpace(*short)
	if v == "" {
		return nil
	}
	return &v
}

func positionOf(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

// wrapNotFound replaces a storage not-found error with the domain one
func wrapNotFound(err, domain error) error {
	if errors.Is(err, models.ErrNotFound) {
		return domain
	}
	return err
}
