package database

import (
	"context"
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/hierarchy"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// ProjectRepository defines project and membership persistence
type ProjectRepository interface {
	CreateProject(ctx context.Context, p *models.Project) (*models.Project, error)
	GetProjectByID(ctx context.Context, id int) (*models.Project, error)
	GetProjectByIdentifier(ctx context.Context, identifier string) (*models.Project, error)
	ListProjects(ctx context.Context, includeArchived bool) ([]*models.Project, error)
	IdentifierTaken(ctx context.Context, identifier string, exceptID int) (bool, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id int) error
	MissingProjects(ctx context.Context, ids []int) ([]int, error)

	AddMember(ctx context.Context, m *models.Membership) error
	RemoveMember(ctx context.Context, projectID, userID int) error
	ListMembers(ctx context.Context, projectID int) ([]*models.Membership, error)
	MembershipsForUser(ctx context.Context, userID int) (map[int]models.Role, error)
}

// UserRepository defines user persistence
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	LoginTaken(ctx context.Context, login string) (bool, error)
}

// WorkPackageRepository defines work package persistence
type WorkPackageRepository interface {
	CreateWorkPackage(ctx context.Context, wp *models.WorkPackage) (*models.WorkPackage, error)
	GetWorkPackageByID(ctx context.Context, id int) (*models.WorkPackage, error)
	GetWorkPackagesByIDs(ctx context.Context, ids []int) ([]*models.WorkPackage, error)
	GetWorkPackageDetail(ctx context.Context, id int) (*models.WorkPackageDetail, error)
	ListWorkPackages(ctx context.Context, projectID int) ([]*models.WorkPackage, error)
	ListAllWorkPackages(ctx context.Context) ([]*models.WorkPackage, error)
	UpdateWorkPackage(ctx context.Context, wp *models.WorkPackage) error
	UpdateWorkPackageDates(ctx context.Context, wp *models.WorkPackage) error
	DeleteWorkPackage(ctx context.Context, id, lockVersion int) error
	ReparentChildren(ctx context.Context, parentID int, newParentID *int) ([]int, error)

	ListTypes(ctx context.Context) ([]*models.Type, error)
	ListStatuses(ctx context.Context) ([]*models.Status, error)
	ListPriorities(ctx context.Context) ([]*models.Priority, error)
}

// RelationRepository defines relation persistence
type RelationRepository interface {
	CreateRelation(ctx context.Context, rel models.Relation) (*models.Relation, error)
	GetRelationByID(ctx context.Context, id int) (*models.Relation, error)
	ListAllRelations(ctx context.Context) ([]models.Relation, error)
	ListRelationsForWorkPackage(ctx context.Context, id int) ([]models.Relation, error)
	RelationsBetween(ctx context.Context, a, b int) ([]models.Relation, error)
	UpdateRelationLag(ctx context.Context, id, lag int) error
	DeleteRelation(ctx context.Context, id int) error
}

// CalendarRepository defines working week and holiday persistence
type CalendarRepository interface {
	GetWeekDays(ctx context.Context) ([]models.WeekDay, error)
	SetWeekDays(ctx context.Context, weekDays []models.WeekDay) error
	ListNonWorkingDays(ctx context.Context, from, to *time.Time) ([]models.NonWorkingDay, error)
	AddNonWorkingDay(ctx context.Context, nwd models.NonWorkingDay) (*models.NonWorkingDay, error)
	GetNonWorkingDayByDate(ctx context.Context, date time.Time) (*models.NonWorkingDay, error)
	RemoveNonWorkingDay(ctx context.Context, id int) error
}

// CustomFieldRepository defines custom field, hierarchy item and value
// persistence
type CustomFieldRepository interface {
	CreateCustomField(ctx context.Context, cf *models.CustomField) (*models.CustomField, error)
	GetCustomFieldByID(ctx context.Context, id int) (*models.CustomField, error)
	ListCustomFields(ctx context.Context) ([]*models.CustomField, error)
	CustomFieldNameTaken(ctx context.Context, name string) (bool, error)
	DeleteCustomField(ctx context.Context, id int) error

	ListHierarchyItems(ctx context.Context, fieldID int) ([]*models.HierarchyItem, error)
	GetHierarchyItemByID(ctx context.Context, id int) (*models.HierarchyItem, error)
	InsertHierarchyItem(ctx context.Context, item *models.HierarchyItem) (int, error)
	UpdateHierarchyItem(ctx context.Context, id int, label string, short *string) error
	ApplyPlacements(ctx context.Context, placements []hierarchy.Placement) error
	DeleteHierarchyItems(ctx context.Context, fieldID int, ids []int) error

	SetCustomValue(ctx context.Context, v models.CustomValue) error
	ListCustomValues(ctx context.Context, workPackageID int) ([]models.CustomValue, error)
}

// WebhookRepository defines webhook and delivery log persistence
type WebhookRepository interface {
	CreateWebhook(ctx context.Context, w *models.Webhook) (*models.Webhook, error)
	GetWebhookByID(ctx context.Context, id int) (*models.Webhook, error)
	ListWebhooks(ctx context.Context, enabledOnly bool) ([]*models.Webhook, error)
	SetWebhookEnabled(ctx context.Context, id int, enabled bool) error
	DeleteWebhook(ctx context.Context, id int) error
	CreateWebhookLog(ctx context.Context, l *models.WebhookLog) (*models.WebhookLog, error)
	ListWebhookLogs(ctx context.Context, webhookID, limit int) ([]*models.WebhookLog, error)
}

// CommentRepository defines comment persistence
type CommentRepository interface {
	CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error)
	ListComments(ctx context.Context, workPackageID int) ([]*models.Comment, error)
}
