package relation

import (
	"errors"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// Domain errors for relation service
var (
	ErrInvalidRelationID    = errors.New("invalid relation ID")
	ErrInvalidWorkPackageID = errors.New("invalid work package ID")

	ErrRelationNotFound    = fmt.Errorf("relation %w", models.ErrNotFound)
	ErrWorkPackageNotFound = fmt.Errorf("work package %w", models.ErrNotFound)
)
