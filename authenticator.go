package authd

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Auther orchestrates the credential store, password hasher, token
// service and session registry into the four use cases. It holds no
// per-request state; every call is an independent unit of work.
type Auther struct {
	repo   RepositoryManager
	tokens *TokenService
	logger Logger
	now    func() time.Time
}

var _ Authenticator = (*Auther)(nil)

// New returns a new Authenticator
func New(repo RepositoryManager, tokens *TokenService) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTimeSource overrides the clock, mostly for tests exercising
// expiry windows.
func (s *Auther) WithTimeSource(now func() time.Time) *Auther {
	if now != nil {
		s.now = now
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// Register creates a new account. It never issues a token; a fresh
// registration still has to log in.
func (s *Auther) Register(ctx context.Context, input RegisterInput) (*User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if username == "" || input.Password == "" {
		return nil, NewValidationError("username and password cannot be empty")
	}

	if err := CheckPasswordPolicy(input.Password); err != nil {
		return nil, err
	}

	// Pre-check both identity fields so the caller learns which one
	// collided; the store's unique constraint remains the final word
	// under concurrent registrations.
	if _, err := s.repo.Users().GetByUsername(ctx, username); err == nil {
		return nil, NewDuplicateIdentityError("username")
	} else if !errors.IsNotFound(err) {
		s.logger.Error("register username lookup failed", "error", err)
		return nil, err
	}

	if email != "" {
		if _, err := s.repo.Users().GetByEmail(ctx, email); err == nil {
			return nil, NewDuplicateIdentityError("email")
		} else if !errors.IsNotFound(err) {
			s.logger.Error("register email lookup failed", "error", err)
			return nil, err
		}
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		s.logger.Error("register failed to hash password", "error", err)
		return nil, err
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Role:         RoleUser,
		CreatedAt:    s.now().UTC(),
	}
	if email != "" {
		user.Email = &email
	}

	user, err = s.repo.Users().Create(ctx, user)
	if err != nil {
		if !IsDuplicateIdentity(err) {
			s.logger.Error("register failed to create user", "error", err)
		}
		return nil, err
	}

	s.logger.Info("registered user", "username", user.Username, "user_id", user.ID)

	return user, nil
}

// Login verifies the credentials, stamps last-login, issues a token
// and records the backing session. A missing user and a wrong password
// produce the same error, so account existence never leaks.
func (s *Auther) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, NewValidationError("username and password cannot be empty")
	}

	user, err := s.repo.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("login user lookup failed", "error", err)
		return nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()

	token, claims, err := s.tokens.Issue(user, now)
	if err != nil {
		s.logger.Error("login token issuance failed", "error", err)
		return nil, err
	}

	// Last-login and the session row commit together: a session must
	// never exist for a token the caller did not receive, and the
	// last-login stamp must not silently vanish on a later failure.
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Users().TrackSuccessfulLoginTx(ctx, tx, user, now); err != nil {
			return err
		}

		_, err := s.repo.Sessions().RecordTx(ctx, tx, user.ID, token, now, claims.Expires())
		return err
	})

	if err != nil {
		s.logger.Error("login session transaction failed", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not record login session")
	}

	s.logger.Info("login succeeded", "username", user.Username, "user_id", user.ID)

	return &LoginResult{
		Token:     token,
		User:      user,
		IssuedAt:  now,
		ExpiresAt: claims.Expires(),
	}, nil
}

// Verify checks the token's signature and embedded expiry, then
// cross-checks the session registry. Both the active flag and the
// session's own expiry must hold; a stale row found here is
// deactivated on the spot so state heals on access.
func (s *Auther) Verify(ctx context.Context, token string) (*TokenClaims, error) {
	now := s.now().UTC()

	claims, err := s.tokens.Validate(token, now)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.Sessions().FindActiveByToken(ctx, token)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("verify session lookup failed", "error", err)
		return nil, err
	}

	if session.Expired(now) {
		if err := s.repo.Sessions().Deactivate(ctx, session.ID); err != nil {
			s.logger.Error("verify failed to deactivate expired session", "error", err, "session_id", session.ID)
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	return claims, nil
}

// ListUsers returns the public projection of every account. The caller
// must present a verified token belonging to an admin.
func (s *Auther) ListUsers(ctx context.Context, token string) ([]UserProfile, error) {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	caller, err := s.repo.Users().GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrForbidden
		}
		s.logger.Error("list users caller lookup failed", "error", err)
		return nil, err
	}

	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	records, err := s.repo.Users().List(ctx)
	if err != nil {
		s.logger.Error("list users query failed", "error", err)
		return nil, err
	}

	profiles := make([]UserProfile, 0, len(records))
	for _, u := range records {
		profiles = append(profiles, u.Profile())
	}

	return profiles, nil
}
