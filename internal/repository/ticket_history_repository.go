package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// HistoryFilter selects audit entries of one ticket. An empty
// ChangeTypes matches every type.
type HistoryFilter struct {
	TicketID    int64
	ChangeTypes []domain.TicketChangeType
	Limit       int
	Offset      int
}

// Matches reports whether entry passes the filter.
func (f HistoryFilter) Matches(entry *domain.TicketHistory) bool {
	if entry.TicketID != f.TicketID {
		return false
	}
	if len(f.ChangeTypes) == 0 {
		return true
	}
	for _, ct := range f.ChangeTypes {
		if entry.ChangeType == ct {
			return true
		}
	}
	return false
}

// TicketHistoryRepository stores audit entries, oldest first.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	List(ctx context.Context, filter HistoryFilter) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
	psql sq.StatementBuilderType
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool, psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	sql, args, err := r.psql.Insert("ticket_history").
		Columns("ticket_id", "actor_id", "change_type", "old_value", "new_value").
		Values(history.TicketID, history.ActorID, history.ChangeType, history.OldValue, history.NewValue).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, sql, args...).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketHistoryRepository) List(ctx context.Context, filter HistoryFilter) ([]domain.TicketHistory, error) {
	query := r.psql.Select("id", "ticket_id", "actor_id", "change_type", "old_value", "new_value", "created_at").
		From("ticket_history").
		Where(sq.Eq{"ticket_id": filter.TicketID})
	if len(filter.ChangeTypes) > 0 {
		types := make([]string, 0, len(filter.ChangeTypes))
		for _, ct := range filter.ChangeTypes {
			types = append(types, string(ct))
		}
		query = query.Where(sq.Eq{"change_type": types})
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset, 100)
	query = query.OrderBy("created_at ASC", "id ASC").Limit(limit).Offset(offset)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var entry domain.TicketHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActorID,
			&entry.ChangeType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
