package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// WebhookRepo handles webhooks, their project scopes and delivery logs
type WebhookRepo struct {
	db querier
}

type webhookRow struct {
	ID          int       `db:"id"`
	Name        string    `db:"name"`
	URL         string    `db:"url"`
	Secret      string    `db:"secret"`
	Enabled     bool      `db:"enabled"`
	Events      string    `db:"events"`
	AllProjects bool      `db:"all_projects"`
	CreatedAt   time.Time `db:"created_at"`
}

const webhookColumns = `id, name, url, secret, enabled, events, all_projects, created_at`

// CreateWebhook inserts a webhook with its project scope
func (r *WebhookRepo) CreateWebhook(ctx context.Context, w *models.Webhook) (*models.Webhook, error) {
	events, err := json.Marshal(w.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook events: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO webhooks (name, url, secret, enabled, events, all_projects) VALUES (?, ?, ?, ?, ?, ?)`,
		w.Name, w.URL, w.Secret, boolToInt(w.Enabled), string(events), boolToInt(w.AllProjects),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert webhook '%s': %w", w.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook ID after insert: %w", err)
	}
	if !w.AllProjects {
		for _, projectID := range w.ProjectIDs {
			if _, err := r.db.ExecContext(ctx,
				`INSERT INTO webhook_projects (webhook_id, project_id) VALUES (?, ?)`, id, projectID); err != nil {
				return nil, fmt.Errorf("failed to scope webhook %d to project %d: %w", id, projectID, err)
			}
		}
	}
	return r.GetWebhookByID(ctx, int(id))
}

// GetWebhookByID retrieves a webhook with its project scope
func (r *WebhookRepo) GetWebhookByID(ctx context.Context, id int) (*models.Webhook, error) {
	var row webhookRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+webhookColumns+` FROM webhooks WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "webhook", id)
	}
	return r.toModel(ctx, row)
}

// ListWebhooks returns every webhook; enabledOnly filters disabled ones
func (r *WebhookRepo) ListWebhooks(ctx context.Context, enabledOnly bool) ([]*models.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY id`

	var rows []webhookRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	out := make([]*models.Webhook, 0, len(rows))
	for _, row := range rows {
		w, err := r.toModel(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *WebhookRepo) toModel(ctx context.Context, row webhookRow) (*models.Webhook, error) {
	w := &models.Webhook{
		ID:          row.ID,
		Name:        row.Name,
		URL:         row.URL,
		Secret:      row.Secret,
		Enabled:     row.Enabled,
		AllProjects: row.AllProjects,
		CreatedAt:   row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.Events), &w.Events); err != nil {
		return nil, fmt.Errorf("failed to decode events of webhook %d: %w", row.ID, err)
	}
	w.ProjectIDs = make([]int, 0)
	err := r.db.SelectContext(ctx, &w.ProjectIDs,
		`SELECT project_id FROM webhook_projects WHERE webhook_id = ? ORDER BY project_id`, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects of webhook %d: %w", row.ID, err)
	}
	return w, nil
}

// SetWebhookEnabled switches deliveries on or off
func (r *WebhookRepo) SetWebhookEnabled(ctx context.Context, id int, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE webhooks SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("failed to update webhook %d: %w", id, err)
	}
	return requireAffected(res, "webhook", id)
}

// DeleteWebhook removes a webhook and its logs (cascade)
func (r *WebhookRepo) DeleteWebhook(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook %d: %w", id, err)
	}
	return requireAffected(res, "webhook", id)
}

// ============================================================================
// DELIVERY LOGS
// ============================================================================

// CreateWebhookLog records a delivery attempt
func (r *WebhookRepo) CreateWebhookLog(ctx context.Context, l *models.WebhookLog) (*models.WebhookLog, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO webhook_logs (webhook_id, delivery_id, event, url, request_body, response_code, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.WebhookID, l.DeliveryID, l.Event, l.URL, l.RequestBody, l.ResponseCode, l.ResponseBody,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record delivery %s of webhook %d: %w", l.DeliveryID, l.WebhookID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook log ID after insert: %w", err)
	}
	logged := *l
	logged.ID = int(id)
	return &logged, nil
}

// ListWebhookLogs returns the most recent deliveries of a webhook, newest
// first. A limit <= 0 returns every log.
func (r *WebhookRepo) ListWebhookLogs(ctx context.Context, webhookID, limit int) ([]*models.WebhookLog, error) {
	query := `SELECT id, webhook_id, delivery_id, event, url, request_body, response_code, response_body, created_at
		FROM webhook_logs WHERE webhook_id = ? ORDER BY id DESC`
	args := []any{webhookID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	logs := make([]*models.WebhookLog, 0)
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list logs of webhook %d: %w", webhookID, err)
	}
	return logs, nil
}
