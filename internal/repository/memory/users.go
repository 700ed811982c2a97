package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository keeps users in memory.
type UserRepository struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]domain.User
}

// NewUserRepository returns an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[int64]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if strings.EqualFold(existing.Email, user.Email) {
			return errDuplicate("users_email_key")
		}
	}
	r.seq++
	now := time.Now().UTC()
	user.ID = r.seq
	user.CreatedAt = now
	user.UpdatedAt = now
	r.items[user.ID] = *user
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	r.items[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.items {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *UserRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	var result []domain.User
	for _, user := range r.items {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Status != nil && user.Status != *filter.Status {
			continue
		}
		result = append(result, user)
	}
	r.mu.RUnlock()

	slices.SortFunc(result, func(a, b domain.User) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return page(result, filter.Limit, filter.Offset, 100), nil
}

// page applies limit/offset the same way the SQL repositories do.
func page[T any](items []T, limit, offset, fallback int) []T {
	if limit <= 0 {
		limit = fallback
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
