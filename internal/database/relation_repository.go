package database

import (
	"context"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// RelationRepo handles relations between work packages. Relations are
// stored normalised: precedes never reaches the table.
type RelationRepo struct {
	db querier
}

const relationColumns = `id, from_id, to_id, relation_type AS type, lag`

// CreateRelation inserts rel and returns it with its ID
func (r *RelationRepo) CreateRelation(ctx context.Context, rel models.Relation) (*models.Relation, error) {
	rel = rel.Normalize()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO relations (from_id, to_id, relation_type, lag) VALUES (?, ?, ?, ?)`,
		rel.FromID, rel.ToID, string(rel.Type), rel.Lag,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s relation %d -> %d: %w", rel.Type, rel.FromID, rel.ToID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get relation ID after insert: %w", err)
	}
	rel.ID = int(id)
	return &rel, nil
}

// GetRelationByID retrieves a relation by ID
func (r *RelationRepo) GetRelationByID(ctx context.Context, id int) (*models.Relation, error) {
	rel := &models.Relation{}
	if err := r.db.GetContext(ctx, rel, `SELECT `+relationColumns+` FROM relations WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "relation", id)
	}
	return rel, nil
}

// ListAllRelations returns every relation, used to build the scheduling
// graph
func (r *RelationRepo) ListAllRelations(ctx context.Context) ([]models.Relation, error) {
	relations := make([]models.Relation, 0)
	if err := r.db.SelectContext(ctx, &relations, `SELECT `+relationColumns+` FROM relations ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list relations: %w", err)
	}
	return relations, nil
}

// ListRelationsForWorkPackage returns the relations touching id at
// either end
func (r *RelationRepo) ListRelationsForWorkPackage(ctx context.Context, id int) ([]models.Relation, error) {
	relations := make([]models.Relation, 0)
	err := r.db.SelectContext(ctx, &relations,
		`SELECT `+relationColumns+` FROM relations WHERE from_id = ? OR to_id = ? ORDER BY id`, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list relations of work package %d: %w", id, err)
	}
	return relations, nil
}

// RelationsBetween returns the relations linking a and b in either
// direction
func (r *RelationRepo) RelationsBetween(ctx context.Context, a, b int) ([]models.Relation, error) {
	relations := make([]models.Relation, 0, 1)
	err := r.db.SelectContext(ctx, &relations,
		`SELECT `+relationColumns+` FROM relations
		WHERE (from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)`, a, b, b, a)
	if err != nil {
		return nil, fmt.Errorf("failed to look up relations between %d and %d: %w", a, b, err)
	}
	return relations, nil
}

// UpdateRelationLag stores a new lag
func (r *RelationRepo) UpdateRelationLag(ctx context.Context, id, lag int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE relations SET lag = ? WHERE id = ?`, lag, id)
	if err != nil {
		return fmt.Errorf("failed to update lag of relation %d: %w", id, err)
	}
	return requireAffected(res, "relation", id)
}

// DeleteRelation removes a relation
func (r *RelationRepo) DeleteRelation(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM relations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete relation %d: %w", id, err)
	}
	return requireAffected(res, "relation", id)
}
