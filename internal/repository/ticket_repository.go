package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const ticketColumns = `id, title, description, category, impact, status, customer_id, agent_id,
               resolution_details, resolved_at, created_at, updated_at`

// TicketFilter captures listing parameters. CustomerID and AgentID carry
// the caller's visibility scope; the remaining fields are user filters.
type TicketFilter struct {
	CustomerID  *int64
	AgentID     *int64
	Statuses    []domain.TicketStatus
	Impacts     []domain.TicketImpact
	Category    *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, impact, status, customer_id, agent_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Impact,
		ticket.Status,
		ticket.CustomerID,
		ticket.AgentID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// Update writes the mutable workflow fields. Concurrent writers race and
// the last one wins.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, impact=$4, status=$5, agent_id=$6,
            resolution_details=$7, resolved_at=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Impact,
		ticket.Status,
		ticket.AgentID,
		ticket.ResolutionDetails,
		ticket.ResolvedAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	return scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	query := sq.Select(ticketColumns).From("tickets").PlaceholderFormat(sq.Dollar)

	if filter.CustomerID != nil {
		query = query.Where(sq.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.AgentID != nil {
		query = query.Where(sq.Eq{"agent_id": *filter.AgentID})
	}
	if len(filter.Statuses) > 0 {
		query = query.Where(sq.Eq{"status": stringsOf(filter.Statuses)})
	}
	if len(filter.Impacts) > 0 {
		query = query.Where(sq.Eq{"impact": stringsOf(filter.Impacts)})
	}
	if filter.Category != nil {
		query = query.Where(sq.Eq{"category": *filter.Category})
	}
	if filter.CreatedFrom != nil {
		query = query.Where(sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		query = query.Where(sq.LtOrEq{"created_at": *filter.CreatedTo})
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		pattern := "%" + strings.TrimSpace(*filter.SearchTerm) + "%"
		query = query.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset, 20)
	query = query.OrderBy("updated_at DESC", "id DESC").Limit(limit).Offset(offset)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Impact,
		&ticket.Status,
		&ticket.CustomerID,
		&ticket.AgentID,
		&ticket.ResolutionDetails,
		&ticket.ResolvedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
