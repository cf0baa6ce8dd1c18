package customfield

import (
	"errors"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// Domain errors for custom field service
var (
	ErrInvalidCustomFieldID = errors.New("invalid custom field ID")
	ErrInvalidItemID        = errors.New("invalid hierarchy item ID")
	ErrNotHierarchyField    = errors.New("custom field is not a hierarchy")

	ErrCustomFieldNotFound = fmt.Errorf("custom field %w", models.ErrNotFound)
	ErrItemNotFound        = fmt.Errorf("hierarchy item %w", models.ErrNotFound)
)
