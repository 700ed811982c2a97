package service

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

func TestCreateUserResolvesRole(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	svc := NewUserService(config.Config{Auth: config.AuthConfig{BcryptCost: 4}}, users)
	admin := domain.Identity{UserID: 100, Role: domain.RoleAdmin}

	cases := []struct {
		raw  any
		want domain.Role
	}{
		{"Support", domain.RoleAgent},
		{"administrator", domain.RoleAdmin},
		{2, domain.RoleAgent},
		{"foobar", domain.RoleClient},
	}
	for i, tc := range cases {
		user, err := svc.CreateUser(ctx, admin, CreateUserInput{
			Email:    string(rune('a'+i)) + "@example.com",
			Password: "pw-123456",
			Role:     tc.raw,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, user.Role, "%v", tc.raw)
		assert.Equal(t, domain.UserStatusActive, user.Status)
	}

	_, err := svc.CreateUser(ctx, admin, CreateUserInput{Email: "s@example.com", Password: "pw-123456", Role: "superadmin"})
	assertStatus(t, err, http.StatusForbidden)

	super := domain.Identity{UserID: 101, Role: domain.RoleSuperadmin}
	created, err := svc.CreateUser(ctx, super, CreateUserInput{Email: "s@example.com", Password: "pw-123456", Role: "superadmin"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperadmin, created.Role)

	_, err = svc.CreateUser(ctx, super, CreateUserInput{Email: "weak@example.com", Password: "pw"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = svc.CreateUser(ctx, domain.Identity{UserID: 1, Role: domain.RoleAgent}, CreateUserInput{Email: "x@example.com"})
	assertStatus(t, err, http.StatusForbidden)
}

func TestEnsureSuperadminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	svc := NewUserService(config.Config{Auth: config.AuthConfig{BcryptCost: 4}}, users)

	created, err := svc.EnsureSuperadmin(ctx, "Root@Example.com", "bootstrap-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureSuperadmin(ctx, "root@example.com", "bootstrap-pass")
	require.NoError(t, err)
	assert.False(t, created)

	root, err := users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperadmin, root.Role)

	created, err = svc.EnsureSuperadmin(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestListAssignableAgents(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, domain.RoleAdmin, domain.UserStatusActive)
	active := f.addUser(t, domain.RoleAgent, domain.UserStatusActive)
	f.addUser(t, domain.RoleAgent, domain.UserStatusInactive)
	f.addUser(t, domain.RoleClient, domain.UserStatusActive)

	svc := NewAssignmentService(AssignmentDependencies{UserRepo: f.users})
	agents, err := svc.ListAssignableAgents(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, active.UserID, agents[0].ID)

	_, err = svc.ListAssignableAgents(context.Background(), active)
	assertStatus(t, err, http.StatusForbidden)
}

func TestSettingsDefaultAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(memory.NewSettingsRepository())
	me := domain.Identity{UserID: 3, Role: domain.RoleClient}

	got, err := svc.Get(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeSystem, got.Theme)

	_, err = svc.SetTheme(ctx, me, "neon")
	assertStatus(t, err, http.StatusBadRequest)

	_, err = svc.SetTheme(ctx, me, domain.ThemeDark)
	require.NoError(t, err)
	got, err = svc.Get(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, got.Theme)
}

func TestTicketReport(t *testing.T) {
	f := newFixture(t)
	f.tickets.Seed(domain.Ticket{ID: 1, Title: "VPN down", Status: domain.TicketStatusResolved, ResolutionDetails: ptr("Restarted")})
	f.tickets.Seed(domain.Ticket{ID: 2, Title: "Mouse", Status: domain.TicketStatusOpen})
	svc := NewReportService(f.tickets)

	_, err := svc.TicketReport(context.Background(), domain.Identity{UserID: 1, Role: domain.RoleAgent}, TicketListFilter{})
	assertStatus(t, err, http.StatusForbidden)

	data, err := svc.TicketReport(context.Background(), domain.Identity{UserID: 1, Role: domain.RoleAdmin}, TicketListFilter{})
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	rows, err := book.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.ElementsMatch(t, []string{"VPN down", "Mouse"}, []string{rows[1][1], rows[2][1]})
}
