package policy

import "github.com/spec-kit/helpdesk/internal/domain"

// LoginPath is where unauthenticated callers are sent.
const LoginPath = "/login"

var dashboards = map[domain.Role]string{
	domain.RoleAdmin:      "/admin/dashboard",
	domain.RoleAgent:      "/agent/dashboard",
	domain.RoleClient:     "/client/dashboard",
	domain.RoleSuperadmin: "/superadmin/dashboard",
}

// DashboardPath returns the landing page for a role. Unknown roles land
// on the client dashboard.
func DashboardPath(role domain.Role) string {
	if path, ok := dashboards[role]; ok {
		return path
	}
	return dashboards[domain.RoleClient]
}

// RouteForUser resolves the role of a raw user payload and returns its
// dashboard.
func RouteForUser(raw map[string]any) string {
	return DashboardPath(NormalizeRole(raw))
}

// Guard returns the path a protected page must redirect to. Callers pass
// whether a complete authenticated session was restored.
func Guard(authenticated bool, role domain.Role) string {
	if !authenticated {
		return LoginPath
	}
	return DashboardPath(role)
}
