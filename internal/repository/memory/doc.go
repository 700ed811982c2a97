// Package memory provides map-backed repository implementations used by
// tests and by the API when no database is configured. Missing rows are
// reported with pgx.ErrNoRows so callers handle both backends alike.
package memory

import (
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk/internal/repository"
)

func errDuplicate(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

// NewSet returns a fresh in-memory repository set.
func NewSet() repository.Set {
	return repository.Set{
		Users:       NewUserRepository(),
		Tickets:     NewTicketRepository(),
		Attachments: NewAttachmentRepository(),
		Notes:       NewNoteRepository(),
		History:     NewTicketHistoryRepository(),
		AuthTokens:  NewAuthTokenRepository(),
		Settings:    NewSettingsRepository(),
	}
}
