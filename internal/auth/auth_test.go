package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/session"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken(9, domain.RoleAdmin, "sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "sess-1", claims.SessionID())
}

func TestParseTokenRejectsOtherSecret(t *testing.T) {
	token, _, err := NewTokenManager("a", 5).GenerateToken(1, domain.RoleClient, "s")
	require.NoError(t, err)
	_, err = NewTokenManager("b", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hashed, "hunter22"))
	assert.Error(t, ComparePassword(hashed, "wrong"))
	assert.False(t, NeedsRehash(hashed, 4))
	assert.True(t, NeedsRehash(hashed, 5))
}

func TestHashPasswordClampsCost(t *testing.T) {
	hashed, err := HashPassword("hunter22", 99)
	require.NoError(t, err)
	assert.False(t, NeedsRehash(hashed, 0))
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("a", 73)), ErrPasswordTooLong)
	assert.NoError(t, ValidatePassword("long-enough"))
}

func newProtectedApp(t *testing.T) (*fiber.App, *TokenManager, *session.RedisStore) {
	return newProtectedAppWithUsers(t, nil)
}

func newProtectedAppWithUsers(t *testing.T, users UserLookup) (*fiber.App, *TokenManager, *session.RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := session.NewRedisStore(client, "s:")
	tm := NewTokenManager("secret", 5)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).SendString(de.Code)
	}})
	mw := NewAuthMiddleware(tm, store, users)
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		id, _ := IdentityFromContext(c)
		return c.SendString(string(id.Role))
	})
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app, tm, store
}

func issue(t *testing.T, tm *TokenManager, store *session.RedisStore, userID int64, role domain.Role, id string) string {
	t.Helper()
	token, exp, err := tm.GenerateToken(userID, role, id)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), &domain.Session{
		ID: id, UserID: userID, Role: role, Authenticated: true, IssuedAt: time.Now(), ExpiresAt: exp,
	}))
	return token
}

func TestMiddlewareRequiresLiveSession(t *testing.T) {
	app, tm, store := newProtectedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := issue(t, tm, store, 3, domain.RoleAgent, "live")
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, store.Delete(context.Background(), "live"))
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	app, tm, store := newProtectedApp(t)

	agent := issue(t, tm, store, 3, domain.RoleAgent, "a")
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+agent)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	super := issue(t, tm, store, 4, domain.RoleSuperadmin, "b")
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+super)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

type userTable map[int64]*domain.User

func (u userTable) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := u[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func TestMiddlewareUsesCurrentAccountState(t *testing.T) {
	users := userTable{
		5: {ID: 5, Role: domain.RoleAdmin, Status: domain.UserStatusActive},
		6: {ID: 6, Role: domain.RoleAgent, Status: domain.UserStatusActive},
	}
	app, tm, store := newProtectedAppWithUsers(t, users)
	get := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	admin := issue(t, tm, store, 5, domain.RoleAdmin, "admin-session")
	assert.Equal(t, http.StatusNoContent, get("/admin", admin))
	users[5].Role = domain.RoleAgent
	assert.Equal(t, http.StatusForbidden, get("/admin", admin))

	agent := issue(t, tm, store, 6, domain.RoleAgent, "agent-session")
	users[6].Status = domain.UserStatusInactive
	assert.Equal(t, http.StatusUnauthorized, get("/me", agent))
	_, err := store.Load(context.Background(), "agent-session")
	assert.ErrorIs(t, err, session.ErrNoSession)

	gone := issue(t, tm, store, 7, domain.RoleClient, "gone-session")
	assert.Equal(t, http.StatusUnauthorized, get("/me", gone))
}
