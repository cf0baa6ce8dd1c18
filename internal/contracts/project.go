package contracts

import (
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

type projectAttributes struct {
	Identifier string `attr:"identifier" validate:"required,max=100,identifier"`
	Name       string `attr:"name" validate:"required,max=255"`
}

// ProjectContract checks project creation and updates
type ProjectContract struct {
	User *models.Principal

	// IdentifierTaken reports whether another project already uses the
	// identifier
	IdentifierTaken bool
}

// ValidateCreate checks a new project. Creating projects is reserved to
// admins.
func (c ProjectContract) ValidateCreate(p *models.Project) *Errors {
	if !isAdmin(c.User) {
		return single(AttrBase, CodeUnauthorized)
	}
	return c.validateAttributes(p)
}

// ValidateUpdate checks changes to an existing project
func (c ProjectContract) ValidateUpdate(p *models.Project) *Errors {
	if !c.User.Allowed(models.PermissionEditProject, p.ID) {
		return single(AttrBase, CodeUnauthorized)
	}
	return c.validateAttributes(p)
}

// ValidateDelete checks that the user may delete the project
func (c ProjectContract) ValidateDelete(p *models.Project) *Errors {
	if !isAdmin(c.User) {
		return single(AttrBase, CodeUnauthorized)
	}
	return NewErrors()
}

func (c ProjectContract) validateAttributes(p *models.Project) *Errors {
	errs := validateStruct(projectAttributes{Identifier: p.Identifier, Name: p.Name})
	if c.IdentifierTaken {
		errs.Add("identifier", CodeTaken)
	}
	return errs
}

type membershipAttributes struct {
	Role string `attr:"role" validate:"required,role"`
}

// MembershipContract checks adding and removing project members
type MembershipContract struct {
	User *models.Principal
}

// Validate checks a membership change in its project
func (c MembershipContract) Validate(m *models.Membership) *Errors {
	if !c.User.Allowed(models.PermissionEditProject, m.ProjectID) {
		return single(AttrBase, CodeUnauthorized)
	}
	return validateStruct(membershipAttributes{Role: string(m.Role)})
}

// ValidateRemove checks that the user may remove a member
func (c MembershipContract) ValidateRemove(m *models.Membership) *Errors {
	if !c.User.Allowed(models.PermissionEditProject, m.ProjectID) {
		return single(AttrBase, CodeUnauthorized)
	}
	return NewErrors()
}

type userAttributes struct {
	Login string `attr:"login" validate:"required,max=255,identifier"`
	Name  string `attr:"name" validate:"required,max=255"`
}

// UserContract checks account creation (admins only)
type UserContract struct {
	User       *models.Principal
	LoginTaken bool
}

// Validate checks a new user
func (c UserContract) Validate(u *models.User) *Errors {
	if !isAdmin(c.User) {
		return single(AttrBase, CodeUnauthorized)
	}
	errs := validateStruct(userAttributes{Login: u.Login, Name: u.Name})
	if c.LoginTaken {
		errs.Add("login", CodeTaken)
	}
	return errs
}

// Authorize returns an unauthorized error unless user holds perm in
// the project (0 for global permissions)
func Authorize(user *models.Principal, perm models.Permission, projectID int) *Errors {
	if !user.Allowed(perm, projectID) {
		return single(AttrBase, CodeUnauthorized)
	}
	return NewErrors()
}

func isAdmin(p *models.Principal) bool {
	return p != nil && p.User != nil && p.User.Admin
}
