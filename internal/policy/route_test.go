package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestDashboardPath(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", DashboardPath(domain.RoleAdmin))
	assert.Equal(t, "/agent/dashboard", DashboardPath(domain.RoleAgent))
	assert.Equal(t, "/client/dashboard", DashboardPath(domain.RoleClient))
	assert.Equal(t, "/superadmin/dashboard", DashboardPath(domain.RoleSuperadmin))
	assert.Equal(t, "/client/dashboard", DashboardPath(""))
	assert.Equal(t, "/client/dashboard", DashboardPath("wizard"))
}

func TestRouteForUser(t *testing.T) {
	assert.Equal(t, "/client/dashboard", RouteForUser(map[string]any{"role": "foobar"}))
	assert.Equal(t, "/agent/dashboard", RouteForUser(map[string]any{"user": map[string]any{"role_id": 2}}))
	assert.Equal(t, "/admin/dashboard", RouteForUser(map[string]any{"role": "administrator"}))
	assert.Equal(t, "/superadmin/dashboard", RouteForUser(map[string]any{"role": "superadmin"}))
}

func TestGuard(t *testing.T) {
	assert.Equal(t, LoginPath, Guard(false, domain.RoleAdmin))
	assert.Equal(t, "/agent/dashboard", Guard(true, domain.RoleAgent))
	assert.Equal(t, "/client/dashboard", Guard(true, ""))
}
