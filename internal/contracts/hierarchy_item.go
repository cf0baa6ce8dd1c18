package contracts

import (
	"strings"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/hierarchy"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

type hierarchyItemAttributes struct {
	Label string `attr:"label" validate:"required,max=255"`
	Short string `attr:"short" validate:"max=20"`
}

// HierarchyItemContract checks items of a hierarchy custom field
type HierarchyItemContract struct {
	User *models.Principal
	Tree *hierarchy.Tree
}

// ValidateInsert checks a new child of parentID
func (c HierarchyItemContract) ValidateInsert(parentID int, label string, short *string) *Errors {
	if !c.User.Allowed(models.PermissionManageCustomFields, 0) {
		return single(AttrBase, CodeUnauthorized)
	}
	if _, ok := c.Tree.Get(parentID); !ok {
		return single("parent", CodeNotFound)
	}
	return c.validate(parentID, 0, label, short)
}

// ValidateUpdate checks new label and short values for an existing item
func (c HierarchyItemContract) ValidateUpdate(item *models.HierarchyItem, label string, short *string) *Errors {
	if !c.User.Allowed(models.PermissionManageCustomFields, 0) {
		return single(AttrBase, CodeUnauthorized)
	}
	if item.IsRoot() {
		return single(AttrBase, CodeReadonly)
	}
	return c.validate(*item.ParentID, item.ID, label, short)
}

// ValidateMove checks moving item below newParentID
func (c HierarchyItemContract) ValidateMove(item *models.HierarchyItem, newParentID int) *Errors {
	if !c.User.Allowed(models.PermissionManageCustomFields, 0) {
		return single(AttrBase, CodeUnauthorized)
	}
	if item.IsRoot() {
		return single(AttrBase, CodeReadonly)
	}
	if _, ok := c.Tree.Get(newParentID); !ok {
		return single("parent", CodeNotFound)
	}
	if newParentID == item.ID || c.Tree.IsDescendant(newParentID, item.ID) {
		return single("parent", CodeCantLinkToDescendant)
	}
	if newParentID == *item.ParentID {
		return NewErrors()
	}
	// Moving must not produce duplicate labels or shorts among siblings
	return c.validate(newParentID, item.ID, item.LabelText(), item.Short)
}

// ValidateDelete checks removing item and its branch
func (c HierarchyItemContract) ValidateDelete(item *models.HierarchyItem) *Errors {
	if !c.User.Allowed(models.PermissionManageCustomFields, 0) {
		return single(AttrBase, CodeUnauthorized)
	}
	if item.IsRoot() {
		return single(AttrBase, CodeReadonly)
	}
	return NewErrors()
}

func (c HierarchyItemContract) validate(parentID, selfID int, label string, short *string) *Errors {
	shortText := ""
	if short != nil {
		shortText = *short
	}
	errs := validateStruct(hierarchyItemAttributes{Label: strings.TrimSpace(label), Short: shortText})

	for _, sibling := range c.Tree.Children(parentID) {
		if sibling.ID == selfID {
			continue
		}
		if sibling.LabelText() == label {
			errs.Add("label", CodeTaken)
		}
		if shortText != "" && sibling.ShortText() == shortText {
			errs.Add("short", CodeTaken)
		}
	}
	return errs
}
