package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestResolveRoleSynonyms(t *testing.T) {
	cases := map[string]domain.Role{
		"admin":         domain.RoleAdmin,
		"Administrator": domain.RoleAdmin,
		"SUPERADMIN":    domain.RoleAdmin,
		"agent":         domain.RoleAgent,
		"support":       domain.RoleAgent,
		" Staff ":       domain.RoleAgent,
		"client":        domain.RoleClient,
		"customer":      domain.RoleClient,
		"enduser":       domain.RoleClient,
		"user":          domain.RoleClient,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, want, ResolveRole(map[string]any{"role": raw}))
		})
	}
}

func TestResolveRoleUnrecognisedDefaultsToClient(t *testing.T) {
	assert.Equal(t, domain.RoleClient, ResolveRole(map[string]any{"role": "foobar"}))
	assert.Equal(t, domain.RoleClient, ResolveRole(map[string]any{}))
	assert.Equal(t, domain.RoleClient, ResolveRole(nil))
	assert.Equal(t, domain.RoleClient, ResolveRole(map[string]any{"role": []any{"admin"}}))
	assert.Equal(t, domain.RoleClient, ResolveRole(map[string]any{"role_id": 99}))
	assert.Equal(t, domain.RoleClient, ResolveRole(map[string]any{"role_id": 2.5}))
}

func TestResolveRoleNestedAndNumeric(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want domain.Role
	}{
		{"nested string", map[string]any{"user": map[string]any{"role": "support"}}, domain.RoleAgent},
		{"role object", map[string]any{"role": map[string]any{"id": 1, "name": "Administrator"}}, domain.RoleAdmin},
		{"json float code", map[string]any{"role_id": float64(3)}, domain.RoleAdmin},
		{"json number code", map[string]any{"roleId": json.Number("2")}, domain.RoleAgent},
		{"numeric role field", map[string]any{"role": 2}, domain.RoleAgent},
		{"numeric string", map[string]any{"role_id": "3"}, domain.RoleAdmin},
		{"zero code", map[string]any{"user": map[string]any{"role_id": 0}}, domain.RoleClient},
		{"string beats code", map[string]any{"role": "agent", "role_id": 3}, domain.RoleAgent},
		{"unknown string falls through to code", map[string]any{"role": "foobar", "role_id": 3}, domain.RoleAdmin},
		{"top level before nested", map[string]any{"type": "customer", "user": map[string]any{"role": "admin"}}, domain.RoleClient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRole(tt.raw))
		})
	}
}

func TestResolveRoleValue(t *testing.T) {
	assert.Equal(t, domain.RoleAgent, ResolveRoleValue("staff"))
	assert.Equal(t, domain.RoleAdmin, ResolveRoleValue(float64(3)))
	assert.Equal(t, domain.RoleClient, ResolveRoleValue(nil))
	assert.Equal(t, domain.RoleClient, ResolveRoleValue(true))
}

func TestNormalizeRoleKeepsCanonicalSuperadmin(t *testing.T) {
	assert.Equal(t, domain.RoleSuperadmin, NormalizeRole(map[string]any{"role": "superadmin"}))
	assert.Equal(t, domain.RoleAdmin, NormalizeRole(map[string]any{"role": "administrator"}))
	assert.Equal(t, domain.RoleClient, NormalizeRole(map[string]any{"role": "foobar"}))
}
