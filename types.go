package authd

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds the use cases exposed to transport collaborators
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Verify(ctx context.Context, token string) (*TokenClaims, error)
	ListUsers(ctx context.Context, token string) ([]UserProfile, error)
}

// RegisterInput carries a registration request into the service.
type RegisterInput struct {
	Username string
	Password string
	Email    string
}

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	Token     string
	User      *User
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiresIn is the remaining validity window in whole seconds,
// relative to the issue time.
func (r *LoginResult) ExpiresIn() int64 {
	return int64(r.ExpiresAt.Sub(r.IssuedAt) / time.Second)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHD "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHD "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHD "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHD "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
