package models

// Role identifies a class of practice users for step and transition gating.
// Authorization itself is enforced by the collaborating backend; roles are
// stored here as configuration only.
type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleAdmin            Role = "admin"
	RoleSeniorAccountant Role = "senior_accountant"
	RoleAccountant       Role = "accountant"
	RoleUser             Role = "user"
)

// Roles lists every role accepted in allowed_roles / notify_roles sets.
var Roles = []Role{
	RoleSuperAdmin, RoleAdmin, RoleSeniorAccountant, RoleAccountant, RoleUser,
}

// ValidRole reports whether r is a known role identifier.
func ValidRole(r Role) bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}

	return false
}

// ValidRoles reports whether every element of roles is known.
func ValidRoles(roles []Role) bool {
	for _, r := range roles {
		if !ValidRole(r) {
			return false
		}
	}

	return true
}
