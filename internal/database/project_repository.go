package database

import (
	"context"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// ProjectRepo handles projects and their memberships
type ProjectRepo struct {
	db querier
}

const projectColumns = `id, identifier, name, description, active, created_at, updated_at`

// CreateProject inserts a project and returns it as stored
func (r *ProjectRepo) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (identifier, name, description, active) VALUES (?, ?, ?, ?)`,
		p.Identifier, p.Name, p.Description, boolToInt(p.Active),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project '%s': %w", p.Identifier, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get project ID after insert: %w", err)
	}
	return r.GetProjectByID(ctx, int(id))
}

// GetProjectByID retrieves a project by its ID
func (r *ProjectRepo) GetProjectByID(ctx context.Context, id int) (*models.Project, error) {
	p := &models.Project{}
	err := r.db.GetContext(ctx, p, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return p, nil
}

// GetProjectByIdentifier retrieves a project by its identifier
func (r *ProjectRepo) GetProjectByIdentifier(ctx context.Context, identifier string) (*models.Project, error) {
	p := &models.Project{}
	err := r.db.GetContext(ctx, p, `SELECT `+projectColumns+` FROM projects WHERE identifier = ?`, identifier)
	if err != nil {
		return nil, notFound(err, "project", identifier)
	}
	return p, nil
}

// ListProjects returns projects ordered by name. Archived projects are
// included only when includeArchived is set.
func (r *ProjectRepo) ListProjects(ctx context.Context, includeArchived bool) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if !includeArchived {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name, id`

	projects := make([]*models.Project, 0, 10)
	if err := r.db.SelectContext(ctx, &projects, query); err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	return projects, nil
}

// IdentifierTaken reports whether a project other than exceptID uses
// identifier
func (r *ProjectRepo) IdentifierTaken(ctx context.Context, identifier string, exceptID int) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM projects WHERE identifier = ? AND id != ?`, identifier, exceptID)
	if err != nil {
		return false, fmt.Errorf("failed to check identifier '%s': %w", identifier, err)
	}
	return count > 0, nil
}

// UpdateProject stores the identifier, name, description and active flag
func (r *ProjectRepo) UpdateProject(ctx context.Context, p *models.Project) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET identifier = ?, name = ?, description = ?, active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		p.Identifier, p.Name, p.Description, boolToInt(p.Active), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project %d: %w", p.ID, err)
	}
	return requireAffected(res, "project", p.ID)
}

// DeleteProject removes a project; work packages, memberships and
// webhook scopes go with it (cascade)
func (r *ProjectRepo) DeleteProject(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	return requireAffected(res, "project", id)
}

// ============================================================================
// MEMBERSHIPS
// ============================================================================

// AddMember grants a role, replacing an existing membership
func (r *ProjectRepo) AddMember(ctx context.Context, m *models.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (project_id, user_id, role) VALUES (?, ?, ?)
		 ON CONFLICT (project_id, user_id) DO UPDATE SET role = excluded.role`,
		m.ProjectID, m.UserID, string(m.Role),
	)
	if err != nil {
		return fmt.Errorf("failed to add user %d to project %d: %w", m.UserID, m.ProjectID, err)
	}
	return nil
}

// RemoveMember revokes a membership
func (r *ProjectRepo) RemoveMember(ctx context.Context, projectID, userID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove user %d from project %d: %w", userID, projectID, err)
	}
	return requireAffected(res, "membership", fmt.Sprintf("%d/%d", projectID, userID))
}

// ListMembers returns the memberships of a project
func (r *ProjectRepo) ListMembers(ctx context.Context, projectID int) ([]*models.Membership, error) {
	members := make([]*models.Membership, 0)
	err := r.db.SelectContext(ctx, &members,
		`SELECT user_id, project_id, role FROM members WHERE project_id = ? ORDER BY user_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of project %d: %w", projectID, err)
	}
	return members, nil
}

// MembershipsForUser returns project ID -> role for a user
func (r *ProjectRepo) MembershipsForUser(ctx context.Context, userID int) (map[int]models.Role, error) {
	var rows []models.Membership
	err := r.db.SelectContext(ctx, &rows,
		`SELECT user_id, project_id, role FROM members WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships of user %d: %w", userID, err)
	}
	out := make(map[int]models.Role, len(rows))
	for _, m := range rows {
		out[m.ProjectID] = m.Role
	}
	return out, nil
}

// MissingProjects returns the IDs in ids that name no project
func (r *ProjectRepo) MissingProjects(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlxIn(`SELECT id FROM projects WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var found []int
	if err := r.db.SelectContext(ctx, &found, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to look up projects: %w", err)
	}
	present := make(map[int]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var missing []int
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
