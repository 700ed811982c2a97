package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Set groups every repository the service layer needs.
type Set struct {
	Users       UserRepository
	Tickets     TicketRepository
	Attachments AttachmentRepository
	Notes       NoteRepository
	History     TicketHistoryRepository
	AuthTokens  AuthTokenRepository
	Settings    SettingsRepository
}

// NewPostgresSet builds all repositories over one pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Users:       NewUserRepository(pool),
		Tickets:     NewTicketRepository(pool),
		Attachments: NewAttachmentRepository(pool),
		Notes:       NewNoteRepository(pool),
		History:     NewTicketHistoryRepository(pool),
		AuthTokens:  NewAuthTokenRepository(pool),
		Settings:    NewSettingsRepository(pool),
	}
}
