package contracts

import (
	"strings"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

type commentAttributes struct {
	Message string `attr:"message" validate:"required,max=10000"`
}

// CommentContract checks notes added to a work package's activity
type CommentContract struct {
	User *models.Principal
}

// Validate checks a new comment on a work package of projectID
func (c CommentContract) Validate(comment *models.Comment, projectID int) *Errors {
	if !c.User.Allowed(models.PermissionEditWorkPackages, projectID) {
		return single(AttrBase, CodeUnauthorized)
	}
	return validateStruct(commentAttributes{Message: strings.TrimSpace(comment.Message)})
}
