package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test:session:"), mr
}

func validSession() *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:            "abc",
		UserID:        42,
		Email:         "agent@example.com",
		Role:          domain.RoleAgent,
		Authenticated: true,
		IssuedAt:      now,
		ExpiresAt:     now.Add(time.Hour),
	}
}

func TestSaveAndLoad(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, validSession()))
	assert.True(t, mr.Exists("test:session:abc"))

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, domain.RoleAgent, got.Role)
}

func TestLoadMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoadIncompleteSessionIsLoggedOut(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("test:session:abc", `{"id":"abc","user_id":42,"role":"agent","authenticated":false}`))

	_, err := store.Load(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, mr.Set("test:session:abc", `not json`))
	_, err = store.Load(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSaveRejectsIncomplete(t *testing.T) {
	store, _ := newTestStore(t)
	sess := validSession()
	sess.Authenticated = false
	assert.Error(t, store.Save(context.Background(), sess))
}

func TestDeleteAndExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, validSession()))
	require.NoError(t, store.Delete(ctx, "abc"))
	_, err := store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(ctx, validSession()))
	mr.FastForward(2 * time.Hour)
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNoSession)
}
