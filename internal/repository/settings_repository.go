package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SettingsRepository stores per-user preferences.
type SettingsRepository interface {
	Get(ctx context.Context, userID int64) (*domain.UserSettings, error)
	Upsert(ctx context.Context, settings *domain.UserSettings) error
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository constructs repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context, userID int64) (*domain.UserSettings, error) {
	const query = `SELECT user_id, theme, updated_at FROM user_settings WHERE user_id=$1`
	var settings domain.UserSettings
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&settings.UserID, &settings.Theme, &settings.UpdatedAt); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *domain.UserSettings) error {
	const query = `
        INSERT INTO user_settings (user_id, theme) VALUES ($1,$2)
        ON CONFLICT (user_id) DO UPDATE SET theme=EXCLUDED.theme, updated_at=NOW()
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, settings.UserID, settings.Theme).Scan(&settings.UpdatedAt)
}
