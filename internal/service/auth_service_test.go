package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/session"
)

func newAuthService(t *testing.T) (*AuthService, *session.RedisStore, *memory.UserRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:               "test",
		AccessTokenTTLMinutes:   15,
		PasswordResetTTLMinutes: 30,
		VerifyEmailTTLMinutes:   60,
		BcryptCost:              4,
	}}
	store := session.NewRedisStore(client, "test:")
	users := memory.NewUserRepository()
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:      users,
		AuthTokenRepo: memory.NewAuthTokenRepository(),
		Sessions:      store,
	})
	return svc, store, users
}

func TestRegisterVerifyLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newAuthService(t)

	user, verify, err := svc.Register(ctx, RegisterInput{Email: " Jane@Example.com ", Password: "s3cret-pass", FirstName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, domain.RoleClient, user.Role)
	assert.False(t, user.EmailVerified)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "x"})
	assertStatus(t, err, http.StatusConflict)

	verified, err := svc.VerifyEmail(ctx, verify.Token)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
	_, err = svc.VerifyEmail(ctx, verify.Token)
	assertStatus(t, err, http.StatusBadRequest)

	_, err = svc.Login(ctx, "jane@example.com", "wrong")
	assertStatus(t, err, http.StatusUnauthorized)

	result, err := svc.Login(ctx, "JANE@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.Session.Authenticated)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Session.ID, claims.SessionID())

	loaded, err := store.Load(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, loaded.UserID)

	require.NoError(t, svc.Logout(ctx, result.Session.ID))
	_, err = store.Load(ctx, result.Session.ID)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	ctx := context.Background()
	svc, _, users := newAuthService(t)
	user, _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "pw-123456"})
	require.NoError(t, err)
	user.Status = domain.UserStatusInactive
	require.NoError(t, users.Update(ctx, user))

	_, err = svc.Login(ctx, "a@example.com", "pw-123456")
	assertStatus(t, err, http.StatusForbidden)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuthService(t)
	_, _, err := svc.Register(ctx, RegisterInput{Email: "r@example.com", Password: "old-password"})
	require.NoError(t, err)

	none, err := svc.RequestPasswordReset(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, none)

	token, err := svc.RequestPasswordReset(ctx, "r@example.com")
	require.NoError(t, err)
	require.NotNil(t, token)

	require.NoError(t, svc.ResetPassword(ctx, token.Token, "new-password"))
	assertStatus(t, svc.ResetPassword(ctx, token.Token, "again-password"), http.StatusBadRequest)

	_, err = svc.Login(ctx, "r@example.com", "new-password")
	require.NoError(t, err)
}

func TestExpiredResetToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuthService(t)
	_, _, err := svc.Register(ctx, RegisterInput{Email: "e@example.com", Password: "pw-123456"})
	require.NoError(t, err)
	token, err := svc.RequestPasswordReset(ctx, "e@example.com")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	assertStatus(t, svc.ResetPassword(ctx, token.Token, "newer-password"), http.StatusBadRequest)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _, users := newAuthService(t)
	_, _, err := svc.Register(context.Background(), RegisterInput{Email: "w@example.com", Password: "short"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = users.GetByEmail(context.Background(), "w@example.com")
	assert.Error(t, err)
}

func TestLoginUpgradesPasswordCost(t *testing.T) {
	ctx := context.Background()
	svc, _, users := newAuthService(t)
	user, _, err := svc.Register(ctx, RegisterInput{Email: "c@example.com", Password: "pw-123456"})
	require.NoError(t, err)

	svc.bcryptCost = 5
	_, err = svc.Login(ctx, "c@example.com", "pw-123456")
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, auth.NeedsRehash(stored.PasswordHash, 5))
}

func TestResetTokenRedeemsOnceUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuthService(t)
	_, _, err := svc.Register(ctx, RegisterInput{Email: "race@example.com", Password: "pw-123456"})
	require.NoError(t, err)
	token, err := svc.RequestPasswordReset(ctx, "race@example.com")
	require.NoError(t, err)

	const callers = 8
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.ResetPassword(ctx, token.Token, "winner-password")
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assertStatus(t, err, http.StatusBadRequest)
	}
	assert.Equal(t, 1, succeeded)
}
