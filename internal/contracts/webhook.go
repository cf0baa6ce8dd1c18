package contracts

import (
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

type webhookAttributes struct {
	Name   string   `attr:"name" validate:"required,max=255"`
	URL    string   `attr:"url" validate:"required,max=2048,httpurl"`
	Events []string `attr:"events" validate:"min=1,dive,webhookevent"`
}

// WebhookContract checks webhook definitions (admins only)
type WebhookContract struct {
	User *models.Principal

	// MissingProjects lists selected project IDs that do not exist
	MissingProjects []int
}

// Validate checks a new or changed webhook
func (c WebhookContract) Validate(w *models.Webhook) *Errors {
	if !c.User.Allowed(models.PermissionManageWebhooks, 0) {
		return single(AttrBase, CodeUnauthorized)
	}
	errs := validateStruct(webhookAttributes{Name: w.Name, URL: w.URL, Events: w.Events})
	if !w.AllProjects && len(w.ProjectIDs) == 0 {
		errs.Add("projects", CodeBlank)
	}
	if len(c.MissingProjects) > 0 {
		errs.Add("projects", CodeNotFound)
	}
	return errs
}

// ValidateManage checks that the user may change or remove webhooks
func (c WebhookContract) ValidateManage() *Errors {
	return Authorize(c.User, models.PermissionManageWebhooks, 0)
}
