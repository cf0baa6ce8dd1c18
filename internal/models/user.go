package models

// User is an account acting on the system
type User struct {
	ID    int    `json:"id" db:"id"`
	Login string `json:"login" db:"login"`
	Name  string `json:"name" db:"name"`
	Admin bool   `json:"admin" db:"admin"`
}

// Membership grants a user a role within a project
type Membership struct {
	UserID    int  `json:"user_id" db:"user_id"`
	ProjectID int  `json:"project_id" db:"project_id"`
	Role      Role `json:"role" db:"role"`
}

// Role names a fixed permission set
type Role string

const (
	RoleReader       Role = "reader"
	RoleMember       Role = "member"
	RoleProjectAdmin Role = "project_admin"
)

// Permission names an action guarded by contracts
type Permission string

const (
	PermissionViewWorkPackages   Permission = "view_work_packages"
	PermissionAddWorkPackages    Permission = "add_work_packages"
	PermissionEditWorkPackages   Permission = "edit_work_packages"
	PermissionDeleteWorkPackages Permission = "delete_work_packages"
	PermissionManageSubtasks     Permission = "manage_subtasks"
	PermissionManageRelations    Permission = "manage_work_package_relations"
	PermissionEditProject        Permission = "edit_project"

	// Global permissions, granted to admins only
	PermissionManageCustomFields Permission = "manage_custom_fields"
	PermissionManageWebhooks     Permission = "manage_webhooks"
	PermissionManageWorkingDays  Permission = "manage_working_days"
)

var rolePermissions = map[Role][]Permission{
	RoleReader: {
		PermissionViewWorkPackages,
	},
	RoleMember: {
		PermissionViewWorkPackages,
		PermissionAddWorkPackages,
		PermissionEditWorkPackages,
		PermissionManageSubtasks,
		PermissionManageRelations,
	},
	RoleProjectAdmin: {
		PermissionViewWorkPackages,
		PermissionAddWorkPackages,
		PermissionEditWorkPackages,
		PermissionDeleteWorkPackages,
		PermissionManageSubtasks,
		PermissionManageRelations,
		PermissionEditProject,
	},
}

// ValidRole reports whether r is a known role
func ValidRole(r Role) bool {
	_, ok := rolePermissions[r]
	return ok
}

// Grants reports whether the role includes the permission
func (r Role) Grants(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

// Principal is a user together with their memberships, able to answer
// permission questions without further lookups
type Principal struct {
	User        *User
	Memberships map[int]Role // project ID -> role
}

// Allowed reports whether the principal holds permission p in project
// projectID. A projectID of 0 asks about a global permission.
func (p *Principal) Allowed(perm Permission, projectID int) bool {
	if p == nil || p.User == nil {
		return false
	}
	if p.User.Admin {
		return true
	}
	if projectID == 0 {
		return false
	}
	role, ok := p.Memberships[projectID]
	if !ok {
		return false
	}
	return role.Grants(perm)
}

// GetID returns the user ID (used by quiet CLI output)
func (u *User) GetID() int { return u.ID }
