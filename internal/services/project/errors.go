package project

import (
	"errors"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// Domain errors for project service
var (
	ErrInvalidProjectID = errors.New("invalid project ID")
	ErrInvalidUserID    = errors.New("invalid user ID")

	ErrProjectNotFound    = fmt.Errorf("project %w", models.ErrNotFound)
	ErrMembershipNotFound = fmt.Errorf("membership %w", models.ErrNotFound)
)
