package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// WorkPackageRepo handles work packages and the lookup tables behind
// their type, status and priority
type WorkPackageRepo struct {
	db querier
}

const workPackageColumns = `id, project_id, parent_id, type_id, status_id, priority_id, subject,
	description, start_date, due_date, duration, schedule_manually, ignore_non_working_days,
	lock_version, created_at, updated_at`

// workPackageRow mirrors the work_packages table; dates are stored as text
type workPackageRow struct {
	ID                   int            `db:"id"`
	ProjectID            int            `db:"project_id"`
	ParentID             sql.NullInt64  `db:"parent_id"`
	TypeID               int            `db:"type_id"`
	StatusID             int            `db:"status_id"`
	PriorityID           int            `db:"priority_id"`
	Subject              string         `db:"subject"`
	Description          string         `db:"description"`
	StartDate            sql.NullString `db:"start_date"`
	DueDate              sql.NullString `db:"due_date"`
	Duration             sql.NullInt64  `db:"duration"`
	ScheduleManually     bool           `db:"schedule_manually"`
	IgnoreNonWorkingDays bool           `db:"ignore_non_working_days"`
	LockVersion          int            `db:"lock_version"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func (row workPackageRow) toModel() (*models.WorkPackage, error) {
	start, err := parseDate(row.StartDate)
	if err != nil {
		return nil, fmt.Errorf("work package %d start date: %w", row.ID, err)
	}
	due, err := parseDate(row.DueDate)
	if err != nil {
		return nil, fmt.Errorf("work package %d due date: %w", row.ID, err)
	}
	return &models.WorkPackage{
		ID:                   row.ID,
		ProjectID:            row.ProjectID,
		ParentID:             nullInt64ToPtr(row.ParentID),
		TypeID:               row.TypeID,
		StatusID:             row.StatusID,
		PriorityID:           row.PriorityID,
		Subject:              row.Subject,
		Description:          row.Description,
		StartDate:            start,
		DueDate:              due,
		Duration:             nullInt64ToPtr(row.Duration),
		ScheduleManually:     row.ScheduleManually,
		IgnoreNonWorkingDays: row.IgnoreNonWorkingDays,
		LockVersion:          row.LockVersion,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}, nil
}

func toWorkPackages(rows []workPackageRow) ([]*models.WorkPackage, error) {
	out := make([]*models.WorkPackage, 0, len(rows))
	for _, row := range rows {
		wp, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, wp)
	}
	return out, nil
}

// CreateWorkPackage inserts a work package and returns it as stored
func (r *WorkPackageRepo) CreateWorkPackage(ctx context.Context, wp *models.WorkPackage) (*models.WorkPackage, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO work_packages (
			project_id, parent_id, type_id, status_id, priority_id, subject, description,
			start_date, due_date, duration, schedule_manually, ignore_non_working_days
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wp.ProjectID, intPtrValue(wp.ParentID), wp.TypeID, wp.StatusID, wp.PriorityID,
		wp.Subject, wp.Description, formatDate(wp.StartDate), formatDate(wp.DueDate),
		intPtrValue(wp.Duration), boolToInt(wp.ScheduleManually), boolToInt(wp.IgnoreNonWorkingDays),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert work package '%s': %w", wp.Subject, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get work package ID after insert: %w", err)
	}
	return r.GetWorkPackageByID(ctx, int(id))
}

// GetWorkPackageByID retrieves a work package by ID
func (r *WorkPackageRepo) GetWorkPackageByID(ctx context.Context, id int) (*models.WorkPackage, error) {
	var row workPackageRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+workPackageColumns+` FROM work_packages WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "work package", id)
	}
	return row.toModel()
}

// GetWorkPackagesByIDs retrieves the work packages with the given IDs,
// ordered by ID. Unknown IDs are skipped.
func (r *WorkPackageRepo) GetWorkPackagesByIDs(ctx context.Context, ids []int) ([]*models.WorkPackage, error) {
	if len(ids) == 0 {
		return []*models.WorkPackage{}, nil
	}
	query, args, err := sqlxIn(`SELECT `+workPackageColumns+` FROM work_packages WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	var rows []workPackageRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query work packages: %w", err)
	}
	return toWorkPackages(rows)
}

// ListWorkPackages returns the work packages of a project ordered by ID
func (r *WorkPackageRepo) ListWorkPackages(ctx context.Context, projectID int) ([]*models.WorkPackage, error) {
	var rows []workPackageRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+workPackageColumns+` FROM work_packages WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work packages of project %d: %w", projectID, err)
	}
	return toWorkPackages(rows)
}

// ListAllWorkPackages returns every work package; schedulers need the
// full graph since relations may cross projects
func (r *WorkPackageRepo) ListAllWorkPackages(ctx context.Context) ([]*models.WorkPackage, error) {
	var rows []workPackageRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+workPackageColumns+` FROM work_packages ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list work packages: %w", err)
	}
	return toWorkPackages(rows)
}

// UpdateWorkPackage stores every attribute of wp when its lock version
// still matches the stored one, and bumps the version. It returns
// models.ErrStaleObject when someone else updated the row first.
func (r *WorkPackageRepo) UpdateWorkPackage(ctx context.Context, wp *models.WorkPackage) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE work_packages SET
			project_id = ?, parent_id = ?, type_id = ?, status_id = ?, priority_id = ?,
			subject = ?, description = ?, start_date = ?, due_date = ?, duration = ?,
			schedule_manually = ?, ignore_non_working_days = ?,
			lock_version = lock_version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND lock_version = ?`,
		wp.ProjectID, intPtrValue(wp.ParentID), wp.TypeID, wp.StatusID, wp.PriorityID,
		wp.Subject, wp.Description, formatDate(wp.StartDate), formatDate(wp.DueDate),
		intPtrValue(wp.Duration), boolToInt(wp.ScheduleManually), boolToInt(wp.IgnoreNonWorkingDays),
		wp.ID, wp.LockVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update work package %d: %w", wp.ID, err)
	}
	if err := r.checkLocked(ctx, res, wp.ID); err != nil {
		return err
	}
	wp.LockVersion++
	return nil
}

// UpdateWorkPackageDates stores rescheduled dates. It bumps the lock
// version without checking it since rescheduling runs inside the
// transaction of the change that caused it.
func (r *WorkPackageRepo) UpdateWorkPackageDates(ctx context.Context, wp *models.WorkPackage) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE work_packages SET start_date = ?, due_date = ?, duration = ?,
			lock_version = lock_version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		formatDate(wp.StartDate), formatDate(wp.DueDate), intPtrValue(wp.Duration), wp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dates of work package %d: %w", wp.ID, err)
	}
	if err := requireAffected(res, "work package", wp.ID); err != nil {
		return err
	}
	wp.LockVersion++
	return nil
}

// checkLocked tells a missing row from a lock conflict when an
// optimistic update touched nothing
func (r *WorkPackageRepo) checkLocked(ctx context.Context, res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for work package %d: %w", id, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetWorkPackageByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("work package %d: %w", id, models.ErrStaleObject)
}

// DeleteWorkPackage removes a work package when its lock version
// matches; relations, comments and custom values go with it (cascade)
func (r *WorkPackageRepo) DeleteWorkPackage(ctx context.Context, id, lockVersion int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM work_packages WHERE id = ? AND lock_version = ?`, id, lockVersion)
	if err != nil {
		return fmt.Errorf("failed to delete work package %d: %w", id, err)
	}
	return r.checkLocked(ctx, res, id)
}

// ReparentChildren moves every child of parentID below newParentID
// (nil makes them top level) and returns the moved children's IDs
func (r *WorkPackageRepo) ReparentChildren(ctx context.Context, parentID int, newParentID *int) ([]int, error) {
	var ids []int
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM work_packages WHERE parent_id = ? ORDER BY id`, parentID); err != nil {
		return nil, fmt.Errorf("failed to list children of work package %d: %w", parentID, err)
	}
	if len(ids) == 0 {
		return ids, nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE work_packages SET parent_id = ?, lock_version = lock_version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE parent_id = ?`,
		intPtrValue(newParentID), parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to re-parent children of work package %d: %w", parentID, err)
	}
	return ids, nil
}

// ============================================================================
// LOOKUPS
// ============================================================================

// ListTypes returns the seeded work package types
func (r *WorkPackageRepo) ListTypes(ctx context.Context) ([]*models.Type, error) {
	types := make([]*models.Type, 0, 5)
	if err := r.db.SelectContext(ctx, &types, `SELECT id, name, is_milestone FROM types ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list types: %w", err)
	}
	return types, nil
}

// ListStatuses returns the seeded statuses
func (r *WorkPackageRepo) ListStatuses(ctx context.Context) ([]*models.Status, error) {
	statuses := make([]*models.Status, 0, 4)
	if err := r.db.SelectContext(ctx, &statuses, `SELECT id, name, is_closed FROM statuses ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}

// ListPriorities returns the seeded priorities
func (r *WorkPackageRepo) ListPriorities(ctx context.Context) ([]*models.Priority, error) {
	priorities := make([]*models.Priority, 0, 4)
	if err := r.db.SelectContext(ctx, &priorities, `SELECT id, name, color FROM priorities ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list priorities: %w", err)
	}
	return priorities, nil
}

// GetWorkPackageDetail loads a work package with its lookup names,
// children and relations. Custom values are added by the service layer,
// which knows how to format them.
func (r *WorkPackageRepo) GetWorkPackageDetail(ctx context.Context, id int) (*models.WorkPackageDetail, error) {
	wp, err := r.GetWorkPackageByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.WorkPackageDetail{WorkPackage: *wp}

	var names struct {
		Project      string `db:"project"`
		TypeName     string `db:"type_name"`
		StatusName   string `db:"status_name"`
		StatusClosed bool   `db:"status_closed"`
		PriorityName string `db:"priority_name"`
		Color        string `db:"priority_color"`
	}
	err = r.db.GetContext(ctx, &names,
		`SELECT p.identifier AS project, t.name AS type_name, s.name AS status_name,
			s.is_closed AS status_closed, pr.name AS priority_name, pr.color AS priority_color
		FROM work_packages wp
		JOIN projects p ON p.id = wp.project_id
		JOIN types t ON t.id = wp.type_id
		JOIN statuses s ON s.id = wp.status_id
		JOIN priorities pr ON pr.id = wp.priority_id
		WHERE wp.id = ?`, id)
	if err != nil {
		return nil, notFound(err, "work package", id)
	}
	detail.ProjectIdentifier = names.Project
	detail.TypeName = names.TypeName
	detail.StatusName = names.StatusName
	detail.StatusClosed = names.StatusClosed
	detail.PriorityName = names.PriorityName
	detail.PriorityColor = names.Color

	var children []workPackageRow
	err = r.db.SelectContext(ctx, &children,
		`SELECT `+workPackageColumns+` FROM work_packages WHERE parent_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list children of work package %d: %w", id, err)
	}
	detail.Children = make([]*models.WorkPackageReference, 0, len(children))
	for _, row := range children {
		child, err := row.toModel()
		if err != nil {
			return nil, err
		}
		detail.Children = append(detail.Children, reference(child))
	}

	relations, err := (&RelationRepo{db: r.db}).ListRelationsForWorkPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Relations = make([]*models.RelationReference, 0, len(relations))
	for _, rel := range relations {
		other, err := r.GetWorkPackageByID(ctx, rel.Other(id))
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		ref := &models.RelationReference{RelationID: rel.ID, Label: rel.LabelFor(id), Lag: rel.Lag}
		if other != nil {
			ref.Other = *reference(other)
		}
		detail.Relations = append(detail.Relations, ref)
	}
	return detail, nil
}

func reference(wp *models.WorkPackage) *models.WorkPackageReference {
	return &models.WorkPackageReference{
		ID:        wp.ID,
		Subject:   wp.Subject,
		StartDate: wp.StartDate,
		DueDate:   wp.DueDate,
	}
}
