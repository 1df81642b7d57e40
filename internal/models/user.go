package models

// RoleAdmin is the tenant role allowed to manage other users' games.
const RoleAdmin = "admin"

// User is the authenticated caller as asserted by the session token.
// Accounts themselves live with the external identity provider.
type User struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role,omitempty"`
}

// IsAdmin reports whether the caller holds the tenant admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
