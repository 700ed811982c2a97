package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/session"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	identityKey = "auth_identity"
	sessionKey  = "auth_session"
)

// UserLookup loads the account behind a session.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens against the session store. When
// users is set, the account is re-read on every request so a deactivation
// or role change applies to sessions issued before it.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions session.Store
	users    UserLookup
}

// NewAuthMiddleware constructs middleware. users may be nil.
func NewAuthMiddleware(tokens *TokenManager, sessions session.Store, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	sess, err := m.sessions.Load(c.UserContext(), claims.SessionID())
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return apperrors.NewUnauthorized("session expired")
		}
		return apperrors.MapError(err)
	}
	if sess.UserID != claims.UserID {
		return apperrors.NewUnauthorized("session mismatch")
	}
	if m.users != nil {
		role, err := m.currentRole(c.UserContext(), sess)
		if err != nil {
			return err
		}
		sess.Role = role
	}

	c.Locals(sessionKey, sess)
	c.Locals(identityKey, domain.Identity{UserID: sess.UserID, Role: sess.Role})
	return c.Next()
}

func (m *AuthMiddleware) currentRole(ctx context.Context, sess *domain.Session) (domain.Role, error) {
	user, err := m.users.GetByID(ctx, sess.UserID)
	if err != nil && !apperrors.IsNotFound(err) {
		return "", apperrors.MapError(err)
	}
	if err != nil || user == nil || user.Status != domain.UserStatusActive {
		// best effort; the session is refused either way
		_ = m.sessions.Delete(ctx, sess.ID)
		return "", apperrors.NewUnauthorized("account unavailable")
	}
	if !user.Role.Valid() {
		return domain.RoleClient, nil
	}
	return user.Role, nil
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}

// SessionFromContext retrieves the session behind the request.
func SessionFromContext(c *fiber.Ctx) (*domain.Session, bool) {
	sess, ok := c.Locals(sessionKey).(*domain.Session)
	return sess, ok && sess != nil
}
