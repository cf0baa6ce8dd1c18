package workpackage

import (
	"errors"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// Domain errors for work package service
var (
	ErrInvalidWorkPackageID = errors.New("invalid work package ID")
	ErrInvalidProjectID     = errors.New("invalid project ID")

	ErrWorkPackageNotFound = fmt.Errorf("work package %w", models.ErrNotFound)
	ErrProjectNotFound     = fmt.Errorf("project %w", models.ErrNotFound)
)
