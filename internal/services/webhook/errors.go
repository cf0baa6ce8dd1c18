package webhook

import (
	"errors"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// Domain errors for webhook service
var (
	ErrInvalidWebhookID = errors.New("invalid webhook ID")

	ErrWebhookNotFound = fmt.Errorf("webhook %w", models.ErrNotFound)
)
