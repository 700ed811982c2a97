package policy

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Candidate field paths searched for a role, in priority order.
var (
	roleStringFields = [][]string{
		{"role"},
		{"role_name"},
		{"roleName"},
		{"user_role"},
		{"userRole"},
		{"type"},
		{"user", "role"},
		{"user", "role_name"},
		{"user", "roleName"},
		{"user", "user_role"},
		{"user", "type"},
	}
	roleNumericFields = [][]string{
		{"role_id"},
		{"roleId"},
		{"role"},
		{"user", "role_id"},
		{"user", "roleId"},
		{"user", "role"},
	}
)

var roleSynonyms = map[string]domain.Role{
	"admin":         domain.RoleAdmin,
	"administrator": domain.RoleAdmin,
	"superadmin":    domain.RoleAdmin,
	"agent":         domain.RoleAgent,
	"support":       domain.RoleAgent,
	"staff":         domain.RoleAgent,
	"client":        domain.RoleClient,
	"customer":      domain.RoleClient,
	"enduser":       domain.RoleClient,
	"user":          domain.RoleClient,
}

var roleCodes = map[int64]domain.Role{
	3: domain.RoleAdmin,
	2: domain.RoleAgent,
	1: domain.RoleClient,
	0: domain.RoleClient,
}

// ResolveRole maps a user-shaped payload to admin, agent or client.
// String candidates win over numeric codes; anything unrecognised
// resolves to client.
func ResolveRole(raw map[string]any) domain.Role {
	for _, path := range roleStringFields {
		if role, ok := roleFromString(lookup(raw, path)); ok {
			return role
		}
	}
	for _, path := range roleNumericFields {
		if role, ok := roleFromCode(lookup(raw, path)); ok {
			return role
		}
	}
	return domain.RoleClient
}

// ResolveRoleValue resolves a single raw role value the same way
// ResolveRole treats one candidate field.
func ResolveRoleValue(v any) domain.Role {
	if role, ok := roleFromString(v); ok {
		return role
	}
	if role, ok := roleFromCode(v); ok {
		return role
	}
	return domain.RoleClient
}

// NormalizeRole produces the identity role for a payload. A canonical
// role name (including superadmin) is taken verbatim; everything else
// goes through ResolveRole.
func NormalizeRole(raw map[string]any) domain.Role {
	for _, path := range roleStringFields {
		s, ok := lookup(raw, path).(string)
		if !ok {
			continue
		}
		if role := domain.Role(strings.ToLower(strings.TrimSpace(s))); role.Valid() {
			return role
		}
	}
	return ResolveRole(raw)
}

func lookup(raw map[string]any, path []string) any {
	var cur any = raw
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[key]
		if !ok {
			return nil
		}
	}
	return cur
}

func roleFromString(v any) (domain.Role, bool) {
	switch val := v.(type) {
	case string:
		role, ok := roleSynonyms[strings.ToLower(strings.TrimSpace(val))]
		return role, ok
	case map[string]any:
		// role objects such as {"id": 2, "name": "agent"}
		return roleFromString(val["name"])
	}
	return "", false
}

func roleFromCode(v any) (domain.Role, bool) {
	code, ok := toCode(v)
	if !ok {
		return "", false
	}
	role, ok := roleCodes[code]
	return role, ok
}

func toCode(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int64(val), true
	case json.Number:
		n, err := val.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n, err == nil
	case map[string]any:
		return toCode(val["id"])
	}
	return 0, false
}
