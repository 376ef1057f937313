package authd

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular account (i.e. login, verify)
	RoleUser UserRole = "user"
	// RoleAdmin is an admin account (i.e. login, verify, list users)
	RoleAdmin UserRole = "admin"
)

// ParseRole normalizes a role string, falling back to RoleUser
// for anything we do not recognize.
func ParseRole(role string) (UserRole, bool) {
	switch role {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	default:
		return RoleUser, false
	}
}

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Username      string     `bun:"username,notnull,unique" json:"username"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Email         *string    `bun:"email,unique,nullzero" json:"email,omitempty"`
	Role          UserRole   `bun:"role,notnull,default:'user'" json:"role"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	LastLogin     *time.Time `bun:"last_login,nullzero" json:"last_login,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserProfile is the public projection of a User. It never carries
// the password hash.
type UserProfile struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     *string    `json:"email"`
	Role      UserRole   `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

// Profile returns the public-safe projection of the user.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// Session binds an issued token to a user. The expires_at column
// mirrors the token's own expiry claim at issuance; the active flag is
// the server-side revocation authority and is terminal once false.
type Session struct {
	bun.BaseModel `bun:"table:login_sessions,alias:ls"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id,notnull" json:"user_id"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Token         string    `bun:"token,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at"`
	Active        bool      `bun:"is_active,notnull,default:true" json:"is_active"`
}

// Expired reports whether the session's own validity window has
// passed, regardless of the token's embedded claim.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && now.After(s.ExpiresAt)
}
