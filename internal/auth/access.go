// Package auth defines the authorization-context value object passed into
// services, plus the pure role predicates used for access decisions.
//
// The upstream middleware (internal/http/middleware.Access) resolves the
// caller's identity once per request; everything below the transport layer
// receives an explicit AccessContext instead of reading role strings out of
// ambient request state.
package auth

// Role names as issued by the identity provider.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleVIP        = "VIP"
	RoleLeader     = "LEADER"
	RoleMember     = "MEMBER"
)

// AccessContext identifies the authenticated caller for the duration of one
// request: who they are, which tenant they operate in, which local church
// they belong to, and the roles they hold.
type AccessContext struct {
	UserID   string
	TenantID string
	ChurchID string
	Roles    []string
}

// IsSuperAdmin reports whether the caller holds the SUPER_ADMIN role and may
// therefore cross church boundaries within the tenant.
func (a AccessContext) IsSuperAdmin() bool {
	for _, r := range a.Roles {
		if r == RoleSuperAdmin {
			return true
		}
	}
	return false
}

// OwnsChurch reports whether the caller may act on resources of churchID:
// either the caller belongs to that church, or they are a super admin.
func (a AccessContext) OwnsChurch(churchID string) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return a.ChurchID != "" && a.ChurchID == churchID
}
