package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/result"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

// Service defines webhook management operations
type Service interface {
	GetWebhook(ctx context.Context, id int) (*models.Webhook, error)
	ListWebhooks(ctx context.Context) ([]*models.Webhook, error)
	ListLogs(ctx context.Context, webhookID, limit int) ([]*models.WebhookLog, error)

	CreateWebhook(ctx context.Context, req CreateWebhookRequest) (*result.ServiceResult[*models.Webhook], error)
	SetEnabled(ctx context.Context, id int, enabled bool) (*result.ServiceResult[*models.Webhook], error)
	DeleteWebhook(ctx context.Context, id int) (*result.ServiceResult[*models.Webhook], error)
}

// CreateWebhookRequest encapsulates data for creating a webhook. An
// empty ProjectIDs with AllProjects unset is rejected.
type CreateWebhookRequest struct {
	Name        string
	URL         string
	Secret      string
	Events      []string
	AllProjects bool
	ProjectIDs  []int
	Disabled    bool
}

// service implements Service
type service struct {
	repo        database.DataStore
	eventClient events.EventPublisher
}

// NewService creates a new webhook service
func NewService(repo database.DataStore, eventClient events.EventPublisher) Service {
	return &service{
		repo:        repo,
		eventClient: eventClient,
	}
}

// GetWebhook retrieves a specific webhook
func (s *service) GetWebhook(ctx context.Context, id int) (*models.Webhook, error) {
	if id <= 0 {
		return nil, ErrInvalidWebhookID
	}
	w, err := s.repo.GetWebhookByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, ErrWebhookNotFound)
	}
	return w, nil
}

// ListWebhooks lists every webhook, disabled ones included
func (s *service) ListWebhooks(ctx context.Context) ([]*models.Webhook, error) {
	return s.repo.ListWebhooks(ctx, false)
}

// ListLogs returns the latest deliveries of a webhook, newest first
func (s *service) ListLogs(ctx context.Context, webhookID, limit int) ([]*models.WebhookLog, error) {
	if _, err := s.GetWebhook(ctx, webhookID); err != nil {
		return nil, err
	}
	return s.repo.ListWebhookLogs(ctx, webhookID, limit)
}

// CreateWebhook validates and stores a webhook
func (s *service) CreateWebhook(ctx context.Context, req CreateWebhookRequest) (*result.ServiceResult[*models.Webhook], error) {
	w := &models.Webhook{
		Name:        strings.TrimSpace(req.Name),
		URL:         strings.TrimSpace(req.URL),
		Secret:      req.Secret,
		Enabled:     !req.Disabled,
		Events:      dedupe(req.Events),
		AllProjects: req.AllProjects,
		ProjectIDs:  req.ProjectIDs,
	}
	if w.AllProjects {
		w.ProjectIDs = nil
	}

	var res *result.ServiceResult[*models.Webhook]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		missing, err := tx.MissingProjects(ctx, w.ProjectIDs)
		if err != nil {
			return fmt.Errorf("failed to check webhook projects: %w", err)
		}
		contract := contracts.WebhookContract{User: user.FromContext(ctx), MissingProjects: missing}
		if errs := contract.Validate(w); !errs.Empty() {
			res = result.Failure[*models.Webhook](errs)
			return nil
		}
		created, err := tx.CreateWebhook(ctx, w)
		if err != nil {
			return fmt.Errorf("failed to create webhook: %w", err)
		}
		res = result.Success(created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(res.Result)
	}
	return res, nil
}

// SetEnabled switches deliveries of a webhook on or off
func (s *service) SetEnabled(ctx context.Context, id int, enabled bool) (*result.ServiceResult[*models.Webhook], error) {
	w, err := s.GetWebhook(ctx, id)
	if err != nil {
		return nil, err
	}
	contract := contracts.WebhookContract{User: user.FromContext(ctx)}
	if errs := contract.ValidateManage(); !errs.Empty() {
		return result.Failure[*models.Webhook](errs), nil
	}
	if w.Enabled == enabled {
		return result.Success(w), nil
	}

	if err := s.repo.SetWebhookEnabled(ctx, id, enabled); err != nil {
		return nil, wrapNotFound(err, ErrWebhookNotFound)
	}
	w.Enabled = enabled
	s.publish(w)
	return result.Success(w), nil
}

// DeleteWebhook removes a webhook together with its delivery logs
func (s *service) DeleteWebhook(ctx context.Context, id int) (*result.ServiceResult[*models.Webhook], error) {
	w, err := s.GetWebhook(ctx, id)
	if err != nil {
		return nil, err
	}
	contract := contracts.WebhookContract{User: user.FromContext(ctx)}
	if errs := contract.ValidateManage(); !errs.Empty() {
		return result.Failure[*models.Webhook](errs), nil
	}
	if err := s.repo.DeleteWebhook(ctx, id); err != nil {
		return nil, wrapNotFound(err, ErrWebhookNotFound)
	}
	s.publish(w)
	return result.Success(w), nil
}

// publish tells running dispatchers to drop their cached webhooks
func (s *service) publish(w *models.Webhook) {
	if s.eventClient == nil {
		return
	}
	_ = events.PublishWithRetry(s.eventClient, events.NewEvent(models.EventWebhookChanged, 0, w.ID, w), 3)
}

// dedupe trims event names and drops repeats, keeping the first order
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// wrapNotFound replaces a storage not-found error with the domain one
func wrapNotFound(err, domain error) error {
	if errors.Is(err, models.ErrNotFound) {
		return domain
	}
	return err
}
