package auth

// Permission is a fine-grained capability granted through roles.
type Permission string

const (
	PermissionRead        Permission = "read"
	PermissionWrite       Permission = "write"
	PermissionDelete      Permission = "delete"
	PermissionManageUsers Permission = "manage_users"
)

// Well-known role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuest = "guest"
)

// rolePermissions maps each role to the permissions it grants.
var rolePermissions = map[string][]Permission{
	RoleAdmin: {PermissionRead, PermissionWrite, PermissionDelete, PermissionManageUsers},
	RoleUser:  {PermissionRead, PermissionWrite},
	RoleGuest: {PermissionRead},
}

// PermissionsFor returns the union of permissions granted by the given roles.
// Unknown roles grant nothing.
func PermissionsFor(roles []string) []Permission {
	seen := make(map[Permission]bool)
	var perms []Permission
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if !seen[p] {
				seen[p] = true
				perms = append(perms, p)
			}
		}
	}
	return perms
}

// HasPermission reports whether any of the roles grants the permission.
func HasPermission(roles []string, required Permission) bool {
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if p == required {
				return true
			}
		}
	}
	return false
}

// HasRole reports whether the role list contains the given role.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Checker is the authorization interface used by middleware.
type Checker interface {
	HasPermission(roles []string, required Permission) bool
}

// CheckerFunc adapts ordinary functions to Checker.
type CheckerFunc func(roles []string, required Permission) bool

func (f CheckerFunc) HasPermission(roles []string, required Permission) bool {
	return f(roles, required)
}

// DefaultChecker checks against the built-in role table.
var DefaultChecker Checker = CheckerFunc(HasPermission)
