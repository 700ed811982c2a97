package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UserService manages accounts on behalf of administrators.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// UserListFilters define listing parameters.
type UserListFilters struct {
	Role   *domain.Role
	Status *domain.UserStatus
	Limit  int
	Offset int
}

// CreateUserInput describes an admin-created account. Role accepts the
// same loose shapes as identity payloads: names, synonyms or codes.
type CreateUserInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       any
	Status     domain.UserStatus
	Department string
	Position   string
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, users repository.UserRepository) *UserService {
	return &UserService{users: users, bcryptCost: cfg.Auth.BcryptCost}
}

func requireAdmin(actor domain.Identity) error {
	if !actor.Role.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateUser creates an account with a resolved role. Only a superadmin
// may create another superadmin.
func (s *UserService) CreateUser(ctx context.Context, actor domain.Identity, input CreateUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	role := policy.NormalizeRole(map[string]any{"role": input.Role})
	if role == domain.RoleSuperadmin && actor.Role != domain.RoleSuperadmin {
		return nil, apperrors.NewForbidden("only a superadmin may create superadmins")
	}
	status := input.Status
	if status == "" {
		status = domain.UserStatusActive
	}
	if status != domain.UserStatusActive && status != domain.UserStatusInactive {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": "oneof"})
	}

	email := normalizeEmail(input.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !apperrors.IsNotFound(err) {
		return nil, apperrors.MapError(err)
	}

	if err := checkPassword(input.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Email:         email,
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		PasswordHash:  hash,
		Role:          role,
		Status:        status,
		Department:    strings.TrimSpace(input.Department),
		Position:      strings.TrimSpace(input.Position),
		EmailVerified: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns accounts matching filters.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Identity, filters UserListFilters) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{
		Role:   filters.Role,
		Status: filters.Status,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// GetUser returns the caller's own account.
func (s *UserService) GetUser(ctx context.Context, actor domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, "user", actor.UserID)
	}
	return user, nil
}

// EnsureSuperadmin creates the bootstrap superadmin unless an account
// with that email already exists. It returns true when a user was created.
func (s *UserService) EnsureSuperadmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !apperrors.IsNotFound(err) {
		return false, apperrors.MapError(err)
	}
	system := domain.Identity{Role: domain.RoleSuperadmin}
	_, err := s.CreateUser(ctx, system, CreateUserInput{
		Email:     email,
		Password:  password,
		FirstName: "Super",
		LastName:  "Admin",
		Role:      string(domain.RoleSuperadmin),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
