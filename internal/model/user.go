package model

import "time"

// Role is the closed set of account roles. Values match the `users.role`
// column. Role checks go through the methods below rather than ad-hoc
// string comparison in handlers.
type Role string

const (
	RoleRegular   Role = "REGULAR"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRegular, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Privileged reports whether the role may override ownership on citizen
// resources (suggestions, comments). Notices use a narrower check, see
// CanOverrideNotice.
func (r Role) Privileged() bool {
	return r == RoleModerator || r == RoleAdmin
}

// CanOverrideNotice reports whether the role may act on notices published
// by another moderator. Moderators own their notices; only admins reach
// past that ownership.
func (r Role) CanOverrideNotice() bool {
	return r == RoleAdmin
}

// AccountStatus is the closed set of account states stored in
// `users.status`. Banned accounts keep their row but cannot obtain tokens.
type AccountStatus string

const (
	StatusActive AccountStatus = "ACTIVE"
	StatusBanned AccountStatus = "BANNED"
)

// User mirrors the `users` table. The refresh token lives directly on the
// user row (single-session model): at most one active refresh token per
// account, and writing a new one invalidates the previous. A non-nil
// RefreshTokenHash always has a non-nil RefreshTokenExpiresAt.
type User struct {
	ID                    uint64
	Username              string
	DisplayName           string
	Email                 string
	PasswordHash          string
	Role                  Role
	Status                AccountStatus
	RefreshTokenHash      *string    // sha-256 hex of the active refresh token, nil when none
	RefreshTokenExpiresAt *time.Time // nil exactly when RefreshTokenHash is nil
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
