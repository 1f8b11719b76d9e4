package auth

// Role is an admin role checked on the management endpoints
type Role string

const (
	// RoleAdmin can manage pricing overrides, user aliases and admin accounts
	RoleAdmin Role = "admin"

	// RoleViewer can read management data but not change it
	RoleViewer Role = "viewer"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a role satisfies a required role.
// Admin satisfies everything, viewer only viewer.
func (r Role) HasPermission(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}
