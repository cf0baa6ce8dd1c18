package account

import (
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// ErrUserNotFound is returned when no account matches
var ErrUserNotFound = fmt.Errorf("user %w", models.ErrNotFound)
