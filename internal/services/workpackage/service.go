package workpackage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/hierarchy"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/result"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/scheduling"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/schedule"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

// Service defines all work package business operations
type Service interface {
	// Read operations
	GetWorkPackage(ctx context.Context, id int) (*models.WorkPackage, error)
	GetWorkPackageDetail(ctx context.Context, id int) (*models.WorkPackageDetail, error)
	ListWorkPackages(ctx context.Context, projectID int) ([]*models.WorkPackage, error)
	ListComments(ctx context.Context, workPackageID int) ([]*models.Comment, error)
	ListTypes(ctx context.Context) ([]*models.Type, error)
	ListStatuses(ctx context.Context) ([]*models.Status, error)
	ListPriorities(ctx context.Context) ([]*models.Priority, error)

	// Write operations
	CreateWorkPackage(ctx context.Context, req CreateWorkPackageRequest) (*result.ServiceResult[*models.WorkPackage], error)
	UpdateWorkPackage(ctx context.Context, req UpdateWorkPackageRequest) (*result.ServiceResult[*models.WorkPackage], error)
	DeleteWorkPackage(ctx context.Context, id int, lockVersion *int) (*result.ServiceResult[*models.WorkPackage], error)
	SetCustomValue(ctx context.Context, req SetCustomValueRequest) (*result.ServiceResult[*models.CustomValue], error)
	AddComment(ctx context.Context, workPackageID int, message string) (*result.ServiceResult[*models.Comment], error)
}

// CreateWorkPackageRequest encapsulates data for creating a work package.
// Zero type, status and priority fall back to Task, New and Normal.
type CreateWorkPackageRequest struct {
	ProjectID            int
	ParentID             *int
	TypeID               int
	StatusID             int
	PriorityID           int
	Subject              string
	Description          string
	StartDate            *time.Time
	DueDate              *time.Time
	Duration             *int
	ScheduleManually     bool
	IgnoreNonWorkingDays bool

	// CustomValues maps custom field IDs to raw values
	CustomValues map[int]string
}

// UpdateWorkPackageRequest encapsulates data for updating a work package.
// Nil fields are left unchanged; the Clear flags unset optional ones.
// A nil LockVersion updates whatever version is current.
type UpdateWorkPackageRequest struct {
	ID          int
	LockVersion *int

	ParentID    *int
	ClearParent bool

	TypeID      *int
	StatusID    *int
	PriorityID  *int
	Subject     *string
	Description *string

	StartDate      *time.Time
	ClearStartDate bool
	DueDate        *time.Time
	ClearDueDate   bool
	Duration       *int
	ClearDuration  bool

	ScheduleManually     *bool
	IgnoreNonWorkingDays *bool

	CustomValues map[int]string
}

// SetCustomValueRequest sets (or, with an empty value, clears) one
// custom value of a work package
type SetCustomValueRequest struct {
	WorkPackageID int
	CustomFieldID int
	Value         string
}

// service implements Service
type service struct {
	repo        database.DataStore
	eventClient events.EventPublisher
}

// NewService creates a new work package service
func NewService(repo database.DataStore, eventClient events.EventPublisher) Service {
	return &service{
		repo:        repo,
		eventClient: eventClient,
	}
}

// ============================================================================
// READ OPERATIONS
// ============================================================================

// GetWorkPackage retrieves a specific work package
func (s *service) GetWorkPackage(ctx context.Context, id int) (*models.WorkPackage, error) {
	if id <= 0 {
		return nil, ErrInvalidWorkPackageID
	}
	wp, err := s.repo.GetWorkPackageByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, ErrWorkPackageNotFound)
	}
	return wp, nil
}

// GetWorkPackageDetail retrieves a work package with lookups, children,
// relations and formatted custom values
func (s *service) GetWorkPackageDetail(ctx context.Context, id int) (*models.WorkPackageDetail, error) {
	if id <= 0 {
		return nil, ErrInvalidWorkPackageID
	}
	detail, err := s.repo.GetWorkPackageDetail(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, ErrWorkPackageNotFound)
	}

	values, err := s.repo.ListCustomValues(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom values: %w", err)
	}
	formatters := make(map[int]*hierarchy.Formatter)
	detail.CustomValues = make([]*models.CustomValueDetail, 0, len(values))
	for _, v := range values {
		field, err := s.repo.GetCustomFieldByID(ctx, v.CustomFieldID)
		if err != nil {
			return nil, fmt.Errorf("failed to load custom field %d: %w", v.CustomFieldID, err)
		}
		formatted, err := s.formatValue(ctx, field, v.Value, formatters)
		if err != nil {
			return nil, err
		}
		detail.CustomValues = append(detail.CustomValues, &models.CustomValueDetail{
			Field:     field,
			Value:     v.Value,
			Formatted: formatted,
		})
	}
	return detail, nil
}

// formatValue renders a raw custom value for display. Hierarchy values
// become the item's full path.
func (s *service) formatValue(ctx context.Context, field *models.CustomField, value string, formatters map[int]*hierarchy.Formatter) (string, error) {
	switch field.Format {
	case models.FormatBool:
		if b, err := strconv.ParseBool(value); err == nil {
			if b {
				return "yes", nil
			}
			return "no", nil
		}
	case models.FormatHierarchy:
		itemID, err := strconv.Atoi(value)
		if err != nil {
			return value, nil
		}
		f, ok := formatters[field.ID]
		if !ok {
			tree, err := loadTree(ctx, s.repo, field.ID)
			if err != nil {
				return "", err
			}
			f = hierarchy.NewFormatter(tree)
			formatters[field.ID] = f
		}
		if path, err := f.Format(itemID, -1); err == nil {
			return path, nil
		}
	}
	return value, nil
}

// ListWorkPackages lists the work packages of a project
func (s *service) ListWorkPackages(ctx context.Context, projectID int) ([]*models.WorkPackage, error) {
	if projectID <= 0 {
		return nil, ErrInvalidProjectID
	}
	if _, err := s.repo.GetProjectByID(ctx, projectID); err != nil {
		return nil, wrapNotFound(err, ErrProjectNotFound)
	}
	return s.repo.ListWorkPackages(ctx, projectID)
}

// ListComments lists the comments on a work package, oldest first
func (s *service) ListComments(ctx context.Context, workPackageID int) ([]*models.Comment, error) {
	if _, err := s.GetWorkPackage(ctx, workPackageID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, workPackageID)
}

// ListTypes lists the available work package types
func (s *service) ListTypes(ctx context.Context) ([]*models.Type, error) {
	return s.repo.ListTypes(ctx)
}

// ListStatuses lists the available statuses
func (s *service) ListStatuses(ctx context.Context) ([]*models.Status, error) {
	return s.repo.ListStatuses(ctx)
}

// ListPriorities lists the available priorities
func (s *service) ListPriorities(ctx context.Context) ([]*models.Priority, error) {
	return s.repo.ListPriorities(ctx)
}

// ============================================================================
// WRITE OPERATIONS
// ============================================================================

// CreateWorkPackage derives the missing date of the start / due /
// duration triangle, validates and stores the work package, then
// reschedules its ancestors
func (s *service) CreateWorkPackage(ctx context.Context, req CreateWorkPackageRequest) (*result.ServiceResult[*models.WorkPackage], error) {
	if req.ProjectID <= 0 {
		return nil, ErrInvalidProjectID
	}

	wp := &models.WorkPackage{
		ProjectID:            req.ProjectID,
		ParentID:             req.ParentID,
		TypeID:               orDefault(req.TypeID, models.TypeTask),
		StatusID:             orDefault(req.StatusID, models.StatusNew),
		PriorityID:           orDefault(req.PriorityID, models.PriorityNormal),
		Subject:              strings.TrimSpace(req.Subject),
		Description:          req.Description,
		StartDate:            dateOnly(req.StartDate),
		DueDate:              dateOnly(req.DueDate),
		Duration:             req.Duration,
		ScheduleManually:     req.ScheduleManually,
		IgnoreNonWorkingDays: req.IgnoreNonWorkingDays,
	}
	changed := scheduling.Fields{
		StartDate: wp.StartDate != nil,
		DueDate:   wp.DueDate != nil,
		Duration:  wp.Duration != nil,
	}

	var res *result.ServiceResult[*models.WorkPackage]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		snap, err := schedule.Load(ctx, tx)
		if err != nil {
			return err
		}
		exists, err := projectExists(ctx, tx, wp.ProjectID)
		if err != nil {
			return err
		}
		parent, err := loadParent(ctx, tx, wp.ParentID)
		if err != nil {
			return err
		}
		if err := snap.Scheduler().DeriveDates(wp, changed); err != nil {
			return fmt.Errorf("failed to derive dates: %w", err)
		}

		contract := contracts.WorkPackageContract{User: user.FromContext(ctx), Calendar: snap.Calendar, Graph: snap.Graph}
		errs := contract.Validate(contracts.WorkPackageChange{
			New:           wp,
			Changed:       changed,
			Parent:        parent,
			ProjectExists: exists,
		})
		if authorized(errs) {
			cvErrs, err := checkCustomValues(ctx, tx, req.CustomValues, true)
			if err != nil {
				return err
			}
			errs.Merge(cvErrs)
		}
		if !errs.Empty() {
			res = result.Failure[*models.WorkPackage](errs)
			return nil
		}

		created, err := tx.CreateWorkPackage(ctx, wp)
		if err != nil {
			return fmt.Errorf("failed to create work package: %w", err)
		}
		if err := storeCustomValues(ctx, tx, created.ID, req.CustomValues); err != nil {
			return err
		}

		moved, err := reschedule(ctx, tx, created.ID)
		if err != nil {
			return err
		}
		primary, dependents := split(created, moved)
		res = result.Success(primary, dependents...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(models.EventWorkPackageCreated, res.Result, res.Dependents)
	}
	return res, nil
}

// UpdateWorkPackage applies the request, rederives dates, validates and
// stores the work package, then reschedules everything depending on it
func (s *service) UpdateWorkPackage(ctx context.Context, req UpdateWorkPackageRequest) (*result.ServiceResult[*models.WorkPackage], error) {
	if req.ID <= 0 {
		return nil, ErrInvalidWorkPackageID
	}

	var res *result.ServiceResult[*models.WorkPackage]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		old, err := tx.GetWorkPackageByID(ctx, req.ID)
		if err != nil {
			return wrapNotFound(err, ErrWorkPackageNotFound)
		}
		wp := old.Clone()
		changed, rederive := req.apply(wp)

		snap, err := schedule.Load(ctx, tx)
		if err != nil {
			return err
		}
		parent, err := loadParent(ctx, tx, wp.ParentID)
		if err != nil {
			return err
		}

		// Switching calendars or types keeps the start and refits the rest
		derive := changed
		if rederive && !changed.Any() && wp.StartDate != nil {
			derive.StartDate = true
		}
		if err := snap.Scheduler().DeriveDates(wp, derive); err != nil {
			return fmt.Errorf("failed to derive dates: %w", err)
		}

		contract := contracts.WorkPackageContract{User: user.FromContext(ctx), Calendar: snap.Calendar, Graph: snap.Graph}
		errs := contract.Validate(contracts.WorkPackageChange{
			Old:           old,
			New:           wp,
			Changed:       changed,
			Parent:        parent,
			ProjectExists: true,
		})
		if authorized(errs) {
			cvErrs, err := checkCustomValues(ctx, tx, req.CustomValues, false)
			if err != nil {
				return err
			}
			errs.Merge(cvErrs)
		}
		if !errs.Empty() {
			res = result.Failure[*models.WorkPackage](errs)
			return nil
		}

		if err := tx.UpdateWorkPackage(ctx, wp); err != nil {
			return err
		}
		if err := storeCustomValues(ctx, tx, wp.ID, req.CustomValues); err != nil {
			return err
		}

		seeds := []int{wp.ID}
		if old.ParentID != nil && !models.SameInt(old.ParentID, wp.ParentID) {
			seeds = append(seeds, *old.ParentID)
		}
		moved, err := reschedule(ctx, tx, seeds...)
		if err != nil {
			return err
		}
		updated, err := tx.GetWorkPackageByID(ctx, wp.ID)
		if err != nil {
			return fmt.Errorf("failed to reload work package: %w", err)
		}
		primary, dependents := split(updated, moved)
		res = result.Success(primary, dependents...)
		return nil
	})
	if errors.Is(err, models.ErrStaleObject) {
		return result.Failure[*models.WorkPackage](stale()), nil
	}
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(models.EventWorkPackageUpdated, res.Result, res.Dependents)
	}
	return res, nil
}

// apply copies the request onto wp. It reports which date attributes the
// user touched and whether the dates need refitting for another reason.
func (req UpdateWorkPackageRequest) apply(wp *models.WorkPackage) (scheduling.Fields, bool) {
	var changed scheduling.Fields
	rederive := false

	if req.LockVersion != nil {
		wp.LockVersion = *req.LockVersion
	}
	if req.ClearParent {
		wp.ParentID = nil
	} else if req.ParentID != nil {
		wp.ParentID = models.IntPtr(*req.ParentID)
	}
	if req.TypeID != nil {
		rederive = rederive || *req.TypeID != wp.TypeID
		wp.TypeID = *req.TypeID
	}
	if req.StatusID != nil {
		wp.StatusID = *req.StatusID
	}
	if req.PriorityID != nil {
		wp.PriorityID = *req.PriorityID
	}
	if req.Subject != nil {
		wp.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Description != nil {
		wp.Description = *req.Description
	}

	if req.ClearStartDate {
		wp.StartDate, changed.StartDate = nil, true
	} else if req.StartDate != nil {
		wp.StartDate, changed.StartDate = dateOnly(req.StartDate), true
	}
	if req.ClearDueDate {
		wp.DueDate, changed.DueDate = nil, true
	} else if req.DueDate != nil {
		wp.DueDate, changed.DueDate = dateOnly(req.DueDate), true
	}
	if req.ClearDuration {
		wp.Duration, changed.Duration = nil, true
	} else if req.Duration != nil {
		wp.Duration, changed.Duration = models.IntPtr(*req.Duration), true
	}

	if req.ScheduleManually != nil {
		wp.ScheduleManually = *req.ScheduleManually
	}
	if req.IgnoreNonWorkingDays != nil {
		rederive = rederive || *req.IgnoreNonWorkingDays != wp.IgnoreNonWorkingDays
		wp.IgnoreNonWorkingDays = *req.IgnoreNonWorkingDays
	}
	return changed, rederive
}

// DeleteWorkPackage removes a work package. Its children move up to its
// parent and its followers are rescheduled. A nil lockVersion deletes
// whatever version is current.
func (s *service) DeleteWorkPackage(ctx context.Context, id int, lockVersion *int) (*result.ServiceResult[*models.WorkPackage], error) {
	if id <= 0 {
		return nil, ErrInvalidWorkPackageID
	}

	var res *result.ServiceResult[*models.WorkPackage]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		wp, err := tx.GetWorkPackageByID(ctx, id)
		if err != nil {
			return wrapNotFound(err, ErrWorkPackageNotFound)
		}
		contract := contracts.WorkPackageContract{User: user.FromContext(ctx)}
		if errs := contract.ValidateDelete(wp); !errs.Empty() {
			res = result.Failure[*models.WorkPackage](errs)
			return nil
		}
		if lockVersion != nil && *lockVersion != wp.LockVersion {
			res = result.Failure[*models.WorkPackage](stale())
			return nil
		}

		before, err := schedule.Load(ctx, tx)
		if err != nil {
			return err
		}
		var seeds []int
		for _, rel := range before.Graph.Followers(id) {
			seeds = append(seeds, rel.FromID)
		}

		children, err := tx.ReparentChildren(ctx, id, wp.ParentID)
		if err != nil {
			return err
		}
		if err := tx.DeleteWorkPackage(ctx, id, wp.LockVersion); err != nil {
			return err
		}
		seeds = append(seeds, children...)
		if wp.ParentID != nil {
			seeds = append(seeds, *wp.ParentID)
		}

		after, err := schedule.Load(ctx, tx)
		if err != nil {
			return err
		}
		// Moved children changed parent even when their dates stay
		dependents := make([]*models.WorkPackage, 0, len(children))
		for _, childID := range children {
			if child, ok := after.Graph.Get(childID); ok {
				dependents = append(dependents, child.Clone())
			}
		}
		moved, err := after.Reschedule(ctx, tx, seeds...)
		if err != nil {
			return err
		}
		res = result.Success(wp, dependents...)
		result.Merge(res, result.Success(wp, moved...))
		return nil
	})
	if errors.Is(err, models.ErrStaleObject) {
		return result.Failure[*models.WorkPackage](stale()), nil
	}
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(models.EventWorkPackageDeleted, res.Result, res.Dependents)
	}
	return res, nil
}

// SetCustomValue validates and stores one custom value
func (s *service) SetCustomValue(ctx context.Context, req SetCustomValueRequest) (*result.ServiceResult[*models.CustomValue], error) {
	if req.WorkPackageID <= 0 {
		return nil, ErrInvalidWorkPackageID
	}
	cv := &models.CustomValue{CustomFieldID: req.CustomFieldID, WorkPackageID: req.WorkPackageID, Value: req.Value}

	var (
		res *result.ServiceResult[*models.CustomValue]
		wp  *models.WorkPackage
	)
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		var err error
		wp, err = tx.GetWorkPackageByID(ctx, req.WorkPackageID)
		if err != nil {
			return wrapNotFound(err, ErrWorkPackageNotFound)
		}
		errs := contracts.Authorize(user.FromContext(ctx), models.PermissionEditWorkPackages, wp.ProjectID)
		if errs.Empty() {
			cvErrs, err := checkCustomValues(ctx, tx, map[int]string{req.CustomFieldID: req.Value}, false)
			if err != nil {
				return err
			}
			errs.Merge(cvErrs)
		}
		if !errs.Empty() {
			res = result.Failure[*models.CustomValue](errs)
			return nil
		}
		if err := tx.SetCustomValue(ctx, *cv); err != nil {
			return err
		}
		res = result.Success(cv)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(models.EventWorkPackageUpdated, wp, nil)
	}
	return res, nil
}

// AddComment adds a note to a work package's activity, authored by the
// acting user
func (s *service) AddComment(ctx context.Context, workPackageID int, message string) (*result.ServiceResult[*models.Comment], error) {
	wp, err := s.GetWorkPackage(ctx, workPackageID)
	if err != nil {
		return nil, err
	}

	principal := user.FromContext(ctx)
	comment := &models.Comment{WorkPackageID: wp.ID, Message: strings.TrimSpace(message)}
	contract := contracts.CommentContract{User: principal}
	if errs := contract.Validate(comment, wp.ProjectID); !errs.Empty() {
		return result.Failure[*models.Comment](errs), nil
	}
	comment.Author = principal.User.Login

	created, err := s.repo.CreateComment(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	s.publish(models.EventWorkPackageUpdated, wp, nil)
	return result.Success(created), nil
}

// ============================================================================
// HELPERS
// ============================================================================

// publish sends the primary change followed by one update per
// rescheduled work package
func (s *service) publish(action string, wp *models.WorkPackage, dependents []*models.WorkPackage) {
	if s.eventClient == nil {
		return
	}
	_ = events.PublishWithRetry(s.eventClient, events.NewEvent(action, wp.ProjectID, wp.ID, wp), 3)
	for _, d := range dependents {
		_ = events.PublishWithRetry(s.eventClient, events.NewEvent(models.EventWorkPackageUpdated, d.ProjectID, d.ID, d), 3)
	}
}

// reschedule reloads the graph after a write and propagates from seeds
func reschedule(ctx context.Context, tx database.DataStore, seeds ...int) ([]*models.WorkPackage, error) {
	snap, err := schedule.Load(ctx, tx)
	if err != nil {
		return nil, err
	}
	return snap.Reschedule(ctx, tx, seeds...)
}

// split separates the primary work package from the rescheduled ones.
// When scheduling moved the primary itself its fresh copy wins.
func split(primary *models.WorkPackage, moved []*models.WorkPackage) (*models.WorkPackage, []*models.WorkPackage) {
	dependents := make([]*models.WorkPackage, 0, len(moved))
	for _, wp := range moved {
		if wp.ID == primary.ID {
			primary = wp
			continue
		}
		dependents = append(dependents, wp)
	}
	return primary, dependents
}

func projectExists(ctx context.Context, tx database.DataStore, id int) (bool, error) {
	if _, err := tx.GetProjectByID(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load project: %w", err)
	}
	return true, nil
}

// loadParent returns nil without error when the parent does not exist;
// the contract reports it
func loadParent(ctx context.Context, tx database.DataStore, id *int) (*models.WorkPackage, error) {
	if id == nil {
		return nil, nil
	}
	parent, err := tx.GetWorkPackageByID(ctx, *id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load parent: %w", err)
	}
	return parent, nil
}

// checkCustomValues validates values against their field definitions.
// With create set, required fields missing from values are blank.
func checkCustomValues(ctx context.Context, tx database.DataStore, values map[int]string, create bool) (*contracts.Errors, error) {
	errs := contracts.NewErrors()
	if len(values) == 0 && !create {
		return errs, nil
	}
	fields, err := tx.ListCustomFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom fields: %w", err)
	}
	byID := make(map[int]*models.CustomField, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	for _, id := range sortedKeys(values) {
		field, ok := byID[id]
		if !ok {
			errs.Add(fmt.Sprintf("custom_field_%d", id), contracts.CodeNotFound)
			continue
		}
		contract := contracts.CustomValueContract{Field: field}
		if field.Format == models.FormatHierarchy {
			if contract.Tree, err = loadTree(ctx, tx, field.ID); err != nil {
				return nil, err
			}
		}
		errs.Merge(contract.Validate(values[id]))
	}

	if create {
		for _, f := range fields {
			if _, ok := values[f.ID]; f.Required && !ok {
				errs.Add(contracts.CustomValueContract{Field: f}.Attribute(), contracts.CodeBlank)
			}
		}
	}
	return errs, nil
}

func storeCustomValues(ctx context.Context, tx database.DataStore, wpID int, values map[int]string) error {
	for _, id := range sortedKeys(values) {
		v := models.CustomValue{CustomFieldID: id, WorkPackageID: wpID, Value: strings.TrimSpace(values[id])}
		if err := tx.SetCustomValue(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func loadTree(ctx context.Context, store database.CustomFieldRepository, fieldID int) (*hierarchy.Tree, error) {
	items, err := store.ListHierarchyItems(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hierarchy of custom field %d: %w", fieldID, err)
	}
	tree, err := hierarchy.NewTree(items)
	if err != nil {
		return nil, fmt.Errorf("failed to build hierarchy of custom field %d: %w", fieldID, err)
	}
	return tree, nil
}

func sortedKeys(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// authorized reports whether errs passed the permission checks, so
// further validation does not leak details to unauthorized users
func authorized(errs *contracts.Errors) bool {
	return !errs.Has(contracts.AttrBase, contracts.CodeUnauthorized) &&
		!errs.Has("parent", contracts.CodeUnauthorized) &&
		!errs.Has("project", contracts.CodeNotFound)
}

func stale() *contracts.Errors {
	errs := contracts.NewErrors()
	errs.Add(contracts.AttrBase, contracts.CodeStale)
	return errs
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := models.Date(*t)
	return &d
}

// wrapNotFound replaces a storage not-found error with the domain one
func wrapNotFound(err, domain error) error {
	if errors.Is(err, models.ErrNotFound) {
		return domain
	}
	return err
}
