package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// SettingsService stores per-user preferences.
type SettingsService struct {
	settings repository.SettingsRepository
}

// NewSettingsService constructs the service.
func NewSettingsService(settings repository.SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

// Get returns the caller's settings, defaulting the theme to system.
func (s *SettingsService) Get(ctx context.Context, actor domain.Identity) (*domain.UserSettings, error) {
	settings, err := s.settings.Get(ctx, actor.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return &domain.UserSettings{UserID: actor.UserID, Theme: domain.ThemeSystem}, nil
		}
		return nil, apperrors.MapError(err)
	}
	return settings, nil
}

// SetTheme persists the caller's theme.
func (s *SettingsService) SetTheme(ctx context.Context, actor domain.Identity, theme domain.Theme) (*domain.UserSettings, error) {
	if !theme.Valid() {
		return nil, apperrors.NewValidationError("unknown theme", map[string]any{"theme": "oneof"})
	}
	settings := &domain.UserSettings{UserID: actor.UserID, Theme: theme}
	if err := s.settings.Upsert(ctx, settings); err != nil {
		return nil, apperrors.MapError(err)
	}
	return settings, nil
}
