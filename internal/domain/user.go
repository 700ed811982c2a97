package domain

import "time"

// Role is the canonical identity role carried by sessions and tokens.
type Role string

const (
	RoleClient     Role = "client"
	RoleAgent      Role = "agent"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAgent, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// IsStaff reports whether the role works tickets (agent or above).
func (r Role) IsStaff() bool {
	return r == RoleAgent || r.IsAdmin()
}

// IsAdmin reports whether the role has administrative rights.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is any account: customers, agents and administrators.
type User struct {
	ID            int64
	Email         string
	FirstName     string
	LastName      string
	PasswordHash  string
	Role          Role
	Status        UserStatus
	Department    string
	Position      string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsActiveAgent reports whether the user can be assigned tickets.
func (u *User) IsActiveAgent() bool {
	return u != nil && u.Role == RoleAgent && u.Status == UserStatusActive
}

// Theme is a UI colour scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// UserSettings holds per-user preferences.
type UserSettings struct {
	UserID    int64
	Theme     Theme
	UpdatedAt time.Time
}
