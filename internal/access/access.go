// Package access holds the authenticated principal and the ownership checks applied
// before reads and writes of per-user records.
package access

import "storefront/internal/domain"

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   domain.Role
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == domain.RoleAdmin
}

// RequireOwner returns Forbidden unless the principal owns the record.
func RequireOwner(p Principal, ownerID string) error {
	if p.UserID == "" || p.UserID != ownerID {
		return domain.Forbidden("User not authorized")
	}
	return nil
}

// RequireAdmin returns Forbidden unless the principal is an admin.
func RequireAdmin(p Principal) error {
	if !p.IsAdmin() {
		return domain.Forbidden("Not authorized as an admin")
	}
	return nil
}
