package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/session"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
	Session   *domain.Session
}

// RegisterInput describes a self-service sign up.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     repository.AuthTokenRepository
	sessions   session.Store
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	verifyTTL  time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo      repository.UserRepository
	AuthTokenRepo repository.AuthTokenRepository
	Sessions      session.Store
	TokenManager  *auth.TokenManager
	Logger        *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokenMgr := deps.TokenManager
	if tokenMgr == nil {
		tokenMgr = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.AuthTokenRepo,
		sessions:   deps.Sessions,
		tokenMgr:   tokenMgr,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		verifyTTL:  time.Duration(cfg.Auth.VerifyEmailTTLMinutes) * time.Minute,
		sessionTTL: cfg.Session.TTL(),
		now:        time.Now,
	}
}

// Register creates a client account and issues an email verification
// token. Self-registration never grants a staff role.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.AuthToken, error) {
	email := normalizeEmail(input.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !apperrors.IsNotFound(err) {
		return nil, nil, apperrors.MapError(err)
	}

	if err := checkPassword(input.Password); err != nil {
		return nil, nil, err
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		Role:         domain.RoleClient,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	token, err := s.issueToken(ctx, user.ID, domain.TokenPurposeVerifyEmail, s.verifyTTL)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, token, nil
}

// VerifyEmail redeems a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenStr string) (*domain.User, error) {
	token, err := s.redeemToken(ctx, domain.TokenPurposeVerifyEmail, tokenStr)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, notFound(err, "user", token.UserID)
	}
	user.EmailVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates a user and opens a server-side session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewForbidden("account inactive")
	}
	if auth.NeedsRehash(user.PasswordHash, s.bcryptCost) {
		s.upgradeHash(ctx, user, password)
	}
	if !user.Role.Valid() {
		user.Role = domain.RoleClient
	}

	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID, user.Role, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	issuedAt := s.now().UTC()
	sessionExpiry := expiresAt.UTC()
	if capped := issuedAt.Add(s.sessionTTL); capped.Before(sessionExpiry) {
		sessionExpiry = capped
	}
	sess := &domain.Session{
		ID:            sessionID,
		UserID:        user.ID,
		Email:         user.Email,
		Role:          user.Role,
		Authenticated: true,
		IssuedAt:      issuedAt,
		ExpiresAt:     sessionExpiry,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt, Session: sess}, nil
}

// Logout discards the session so the access token stops working.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// RequestPasswordReset issues a reset token. Unknown emails return a nil
// token and no error so callers cannot enumerate accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.AuthToken, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return s.issueToken(ctx, user.ID, domain.TokenPurposeResetPassword, s.resetTTL)
}

// ResetPassword validates the reset token and updates password.
func (s *AuthService) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	token, err := s.redeemToken(ctx, domain.TokenPurposeResetPassword, tokenStr)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return notFound(err, "user", token.UserID)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueToken(ctx context.Context, userID int64, purpose domain.TokenPurpose, ttl time.Duration) (*domain.AuthToken, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	token := &domain.AuthToken{
		UserID:    userID,
		Purpose:   purpose,
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		ExpiresAt: s.now().Add(ttl).UTC(),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, apperrors.MapError(err)
	}
	return token, nil
}

func (s *AuthService) redeemToken(ctx context.Context, purpose domain.TokenPurpose, tokenStr string) (*domain.AuthToken, error) {
	token, err := s.tokens.GetByToken(ctx, purpose, strings.TrimSpace(tokenStr))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError("invalid token", map[string]any{"token": "invalid"})
		}
		return nil, apperrors.MapError(err)
	}
	if !token.Usable(s.now()) {
		return nil, apperrors.NewValidationError("token expired or used", map[string]any{"token": "expired"})
	}
	// claim before applying the effect so a concurrent redemption loses
	if err := s.tokens.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrTokenUnavailable) {
			return nil, apperrors.NewValidationError("token expired or used", map[string]any{"token": "expired"})
		}
		return nil, apperrors.MapError(err)
	}
	return token, nil
}

func (s *AuthService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("password rehash failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

func checkPassword(password string) error {
	if err := auth.ValidatePassword(password); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"password": "length"})
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
