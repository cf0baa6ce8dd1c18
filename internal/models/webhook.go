package models

import "time"

// Webhook event names
const (
	EventWorkPackageCreated = "work_package:created"
	EventWorkPackageUpdated = "work_package:updated"
	EventWorkPackageDeleted = "work_package:deleted"
	EventProjectCreated     = "project:created"
	EventProjectUpdated     = "project:updated"
	EventRelationCreated    = "relation:created"
	EventRelationDeleted    = "relation:deleted"
)

// WebhookEvents lists the events a webhook may subscribe to
var WebhookEvents = []string{
	EventWorkPackageCreated,
	EventWorkPackageUpdated,
	EventWorkPackageDeleted,
	EventProjectCreated,
	EventProjectUpdated,
	EventRelationCreated,
	EventRelationDeleted,
}

// Change actions published to daemon subscribers but not offered to
// webhooks
const (
	EventProjectDeleted     = "project:deleted"
	EventMembershipChanged  = "membership:changed"
	EventUserCreated        = "user:created"
	EventRelationUpdated    = "relation:updated"
	EventCalendarChanged    = "calendar:changed"
	EventCustomFieldChanged = "custom_field:changed"
	EventWebhookChanged     = "webhook:changed"
)

// Webhook is an outgoing HTTP notification subscription
type Webhook struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Secret      string    `json:"-"` // empty = unsigned deliveries
	Enabled     bool      `json:"enabled"`
	Events      []string  `json:"events"`
	AllProjects bool      `json:"all_projects"`
	ProjectIDs  []int     `json:"project_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetID returns the webhook ID (used by quiet CLI output)
func (w *Webhook) GetID() int { return w.ID }

// Matches reports whether the webhook wants the event for the project
func (w *Webhook) Matches(event string, projectID int) bool {
	if !w.Enabled {
		return false
	}
	subscribed := false
	for _, e := range w.Events {
		if e == event {
			subscribed = true
			break
		}
	}
	if !subscribed {
		return false
	}
	if w.AllProjects || projectID == 0 {
		return true
	}
	for _, id := range w.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// WebhookLog records a single delivery attempt
type WebhookLog struct {
	ID           int       `json:"id" db:"id"`
	WebhookID    int       `json:"webhook_id" db:"webhook_id"`
	DeliveryID   string    `json:"delivery_id" db:"delivery_id"`
	Event        string    `json:"event" db:"event"`
	URL          string    `json:"url" db:"url"`
	RequestBody  string    `json:"request_body" db:"request_body"`
	ResponseCode int       `json:"response_code" db:"response_code"` // 0 when the request never completed
	ResponseBody string    `json:"response_body" db:"response_body"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
