// Package session persists authenticated sessions in Redis so that an
// access token can be revoked before it expires.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ErrNoSession is returned when a session is missing, expired or incomplete.
var ErrNoSession = errors.New("session not found")

// Store persists sessions keyed by their ID.
type Store interface {
	Save(ctx context.Context, s *domain.Session) error
	Load(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore is a Store backed by go-redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a session store. Keys are prefix + session ID.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save writes the session with a TTL matching its expiry.
func (s *RedisStore) Save(ctx context.Context, sess *domain.Session) error {
	if !sess.Complete() {
		return fmt.Errorf("refusing to save incomplete session")
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sess.ID), payload, ttl).Err()
}

// Load restores a session. Anything that does not decode into a complete
// session is reported as ErrNoSession.
func (s *RedisStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, ErrNoSession
	}
	if !sess.Complete() || sess.ID != id {
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}
