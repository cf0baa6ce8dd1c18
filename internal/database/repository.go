package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository provides a unified interface to all data operations.
// It composes domain-specific repositories using struct embedding.
type Repository struct {
	*ProjectRepo
	*UserRepo
	*WorkPackageRepo
	*RelationRepo
	*CalendarRepo
	*CustomFieldRepo
	*WebhookRepo
	*CommentRepo

	// db is nil for repositories bound to a transaction
	db *sqlx.DB
}

// NewRepository creates a new Repository instance wrapping the given database connection.
func NewRepository(db *sqlx.DB) *Repository {
	r := newRepository(db)
	r.db = db
	return r
}

func newRepository(q querier) *Repository {
	return &Repository{
		ProjectRepo:     &ProjectRepo{db: q},
		UserRepo:        &UserRepo{db: q},
		WorkPackageRepo: &WorkPackageRepo{db: q},
		RelationRepo:    &RelationRepo{db: q},
		CalendarRepo:    &CalendarRepo{db: q},
		CustomFieldRepo: &CustomFieldRepo{db: q},
		WebhookRepo:     &WebhookRepo{db: q},
		CommentRepo:     &CommentRepo{db: q},
	}
}

// InTx runs fn inside a transaction that commits when fn returns nil
func (r *Repository) InTx(ctx context.Context, fn func(DataStore) error) error {
	if r.db == nil {
		return fn(r)
	}
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(newRepository(tx))
	})
}

var _ DataStore = (*Repository)(nil)
