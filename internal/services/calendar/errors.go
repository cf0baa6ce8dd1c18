package calendar

import (
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// Domain errors for calendar service
var ErrNonWorkingDayNotFound = fmt.Errorf("non-working day %w", models.ErrNotFound)
