package database

import (
	"context"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// CommentRepo handles work package comments
type CommentRepo struct {
	db querier
}

// CreateComment adds a comment to a work package
func (r *CommentRepo) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (work_package_id, author, message) VALUES (?, ?, ?)`,
		c.WorkPackageID, c.Author, c.Message,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment on work package %d: %w", c.WorkPackageID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get comment ID after insert: %w", err)
	}
	created := &models.Comment{}
	err = r.db.GetContext(ctx, created,
		`SELECT id, work_package_id, author, message, created_at FROM comments WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "comment", id)
	}
	return created, nil
}

// ListComments returns the comments of a work package, oldest first
func (r *CommentRepo) ListComments(ctx context.Context, workPackageID int) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	err := r.db.SelectContext(ctx, &comments,
		`SELECT id, work_package_id, author, message, created_at FROM comments WHERE work_package_id = ? ORDER BY id`,
		workPackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments of work package %d: %w", workPackageID, err)
	}
	return comments, nil
}
