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

var _ repository.TicketRepository = (*TicketRepository)(nil)

// TicketRepository keeps tickets in memory.
type TicketRepository struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]domain.Ticket
	now   func() time.Time
}

// NewTicketRepository returns an empty repository.
func NewTicketRepository() *TicketRepository {
	return &TicketRepository{items: make(map[int64]domain.Ticket), now: time.Now}
}

// Seed stores ticket as-is, keeping its ID and timestamps. Used by tests
// to set up fixtures with known identifiers.
func (r *TicketRepository) Seed(ticket domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == 0 {
		r.seq++
		ticket.ID = r.seq
	} else if ticket.ID > r.seq {
		r.seq = ticket.ID
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = r.now().UTC()
	}
	if ticket.UpdatedAt.IsZero() {
		ticket.UpdatedAt = ticket.CreatedAt
	}
	r.items[ticket.ID] = cloneTicket(ticket)
}

func (r *TicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	now := r.now().UTC()
	ticket.ID = r.seq
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := cloneTicket(*ticket)
	stored.Attachments = nil
	r.items[ticket.ID] = stored
	return nil
}

func (r *TicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.CreatedAt = existing.CreatedAt
	ticket.CustomerID = existing.CustomerID
	ticket.UpdatedAt = r.now().UTC()
	stored := cloneTicket(*ticket)
	stored.Attachments = nil
	r.items[ticket.ID] = stored
	return nil
}

func (r *TicketRepository) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket = cloneTicket(ticket)
	return &ticket, nil
}

func (r *TicketRepository) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	var result []domain.Ticket
	for _, ticket := range r.items {
		if matchTicket(ticket, filter) {
			result = append(result, cloneTicket(ticket))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(result, func(a, b domain.Ticket) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return page(result, filter.Limit, filter.Offset, 20), nil
}

func matchTicket(t domain.Ticket, f repository.TicketFilter) bool {
	if f.CustomerID != nil && t.CustomerID != *f.CustomerID {
		return false
	}
	if f.AgentID != nil && !t.AssignedTo(*f.AgentID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Impacts) > 0 && !slices.Contains(f.Impacts, t.Impact) {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*f.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	return true
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AgentID != nil {
		id := *t.AgentID
		t.AgentID = &id
	}
	if t.ResolutionDetails != nil {
		details := *t.ResolutionDetails
		t.ResolutionDetails = &details
	}
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		t.ResolvedAt = &at
	}
	t.Attachments = slices.Clone(t.Attachments)
	return t
}
