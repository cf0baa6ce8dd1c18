package database

import "context"

// DataStore defines the unified interface for all data operations needed
// by the services. It is composed of smaller, domain-specific interfaces;
// consumers that need less can depend on those instead.
type DataStore interface {
	ProjectRepository
	UserRepository
	WorkPackageRepository
	RelationRepository
	CalendarRepository
	CustomFieldRepository
	WebhookRepository
	CommentRepository

	// InTx runs fn against a DataStore bound to a single transaction.
	// Nested calls reuse the outer transaction.
	InTx(ctx context.Context, fn func(DataStore) error) error
}
