package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

var (
	_ repository.AttachmentRepository    = (*AttachmentRepository)(nil)
	_ repository.NoteRepository          = (*NoteRepository)(nil)
	_ repository.TicketHistoryRepository = (*TicketHistoryRepository)(nil)
	_ repository.AuthTokenRepository     = (*AuthTokenRepository)(nil)
	_ repository.SettingsRepository      = (*SettingsRepository)(nil)
)

// AttachmentRepository keeps attachments in insertion order.
type AttachmentRepository struct {
	mu    sync.RWMutex
	items []domain.Attachment
}

func NewAttachmentRepository() *AttachmentRepository {
	return &AttachmentRepository{}
}

func (r *AttachmentRepository) Create(_ context.Context, attachment *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attachment.ID = int64(len(r.items) + 1)
	attachment.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *attachment)
	return nil
}

func (r *AttachmentRepository) ListByTicket(_ context.Context, ticketID int64) ([]domain.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Attachment
	for _, a := range r.items {
		if a.TicketID == ticketID {
			result = append(result, a)
		}
	}
	return result, nil
}

// NoteRepository keeps notes in insertion order.
type NoteRepository struct {
	mu    sync.RWMutex
	items []domain.Note
}

func NewNoteRepository() *NoteRepository {
	return &NoteRepository{}
}

func (r *NoteRepository) Create(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	note.ID = int64(len(r.items) + 1)
	note.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *note)
	return nil
}

func (r *NoteRepository) ListByTicket(_ context.Context, ticketID int64) ([]domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Note
	for _, n := range r.items {
		if n.TicketID == ticketID {
			result = append(result, n)
		}
	}
	return result, nil
}

// TicketHistoryRepository keeps audit entries in insertion order.
type TicketHistoryRepository struct {
	mu    sync.RWMutex
	items []domain.TicketHistory
}

func NewTicketHistoryRepository() *TicketHistoryRepository {
	return &TicketHistoryRepository{}
}

func (r *TicketHistoryRepository) Create(_ context.Context, history *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = int64(len(r.items) + 1)
	history.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *history)
	return nil
}

func (r *TicketHistoryRepository) List(_ context.Context, filter repository.HistoryFilter) ([]domain.TicketHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.TicketHistory
	for i := range r.items {
		if filter.Matches(&r.items[i]) {
			result = append(result, r.items[i])
		}
	}
	return page(result, filter.Limit, filter.Offset, 100), nil
}

// AuthTokenRepository keeps account tokens in memory.
type AuthTokenRepository struct {
	mu    sync.Mutex
	items []domain.AuthToken
}

func NewAuthTokenRepository() *AuthTokenRepository {
	return &AuthTokenRepository{}
}

func (r *AuthTokenRepository) Create(_ context.Context, token *domain.AuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Token == token.Token {
			return errDuplicate("auth_tokens_token_key")
		}
	}
	token.ID = int64(len(r.items) + 1)
	token.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *token)
	return nil
}

func (r *AuthTokenRepository) GetByToken(_ context.Context, purpose domain.TokenPurpose, token string) (*domain.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.items {
		if t.Purpose == purpose && t.Token == token {
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *AuthTokenRepository) MarkUsed(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		if r.items[i].UsedAt != nil || !r.items[i].ExpiresAt.After(now) {
			return repository.ErrTokenUnavailable
		}
		r.items[i].UsedAt = &now
		return nil
	}
	return repository.ErrTokenUnavailable
}

// SettingsRepository keeps per-user settings in memory.
type SettingsRepository struct {
	mu    sync.RWMutex
	items map[int64]domain.UserSettings
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{items: make(map[int64]domain.UserSettings)}
}

func (r *SettingsRepository) Get(_ context.Context, userID int64) (*domain.UserSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	settings, ok := r.items[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &settings, nil
}

func (r *SettingsRepository) Upsert(_ context.Context, settings *domain.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	settings.UpdatedAt = time.Now().UTC()
	r.items[settings.UserID] = *settings
	return nil
}
