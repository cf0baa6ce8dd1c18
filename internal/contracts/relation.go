package contracts

import (
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/scheduling"
)

type relationAttributes struct {
	Type string `attr:"relation_type" validate:"required,relationtype"`
	Lag  int    `attr:"lag" validate:"gte=0"`
}

// RelationContract checks new relations and lag updates
type RelationContract struct {
	User  *models.Principal
	Graph *scheduling.Graph
}

// RelationChange is a proposed relation. From and To are nil when the
// referenced work package does not exist. Existing lists the relations
// already linking the two work packages (in either direction).
type RelationChange struct {
	Relation models.Relation
	From     *models.WorkPackage
	To       *models.WorkPackage
	Existing []models.Relation
	Update   bool
}

// Validate runs every relation rule
func (c RelationContract) Validate(ch RelationChange) *Errors {
	errs := NewErrors()
	if ch.From == nil {
		errs.Add("from", CodeNotFound)
	}
	if ch.To == nil {
		errs.Add("to", CodeNotFound)
	}
	if !errs.Empty() {
		return errs
	}

	if !c.User.Allowed(models.PermissionManageRelations, ch.From.ProjectID) {
		return single(AttrBase, CodeUnauthorized)
	}

	errs = validateStruct(relationAttributes{Type: string(ch.Relation.Type), Lag: ch.Relation.Lag})
	if !errs.Empty() {
		return errs
	}

	rel := ch.Relation.Normalize()
	if rel.FromID == rel.ToID {
		errs.Add("to", CodeInvalid)
		return errs
	}

	if !ch.Update {
		for _, existing := range ch.Existing {
			if existing.ID != rel.ID {
				errs.Add(AttrBase, CodeTaken)
				break
			}
		}
	}

	if c.Graph == nil {
		return errs
	}
	switch {
	case c.Graph.IsAncestor(rel.ToID, rel.FromID):
		errs.Add("to", CodeCantLinkToAncestor)
	case c.Graph.IsAncestor(rel.FromID, rel.ToID):
		errs.Add("to", CodeCantLinkToDescendant)
	case !ch.Update && c.Graph.WouldCycleWithRelation(rel):
		errs.Add("to", CodeCircularDependency)
	}
	return errs
}

// ValidateDelete checks that the user may remove the relation
func (c RelationContract) ValidateDelete(from *models.WorkPackage) *Errors {
	return Authorize(c.User, models.PermissionManageRelations, from.ProjectID)
}
