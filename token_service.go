package authd

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenClaims is the payload embedded in every issued token.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID      int64  `json:"uid,omitempty"`
	Username string `json:"user,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// UserID returns the subject's numeric id.
func (c *TokenClaims) UserID() int64 {
	return c.UID
}

// Role returns the subject's global role.
func (c *TokenClaims) Role() string {
	return c.UserRole
}

// Expires returns the embedded expiry claim.
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the embedded issued-at claim.
func (c *TokenClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// TokenService issues and validates signed identity tokens. Signature
// validity is its only concern; session liveness is checked by the
// authenticator.
type TokenService struct {
	signingKey      []byte
	tokenExpiration int // hours
	issuer          string
	logger          Logger
}

// NewTokenService creates a TokenService. An empty signing key is a
// configuration error, surfaced here so processes fail at startup
// instead of at the first login.
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, logger Logger) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("signing key must not be empty", errors.CategoryInternal)
	}

	if tokenExpiration <= 0 {
		tokenExpiration = DefaultTokenExpiration
	}

	if logger == nil {
		logger = defLogger{}
	}

	return &TokenService{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		logger:          logger,
	}, nil
}

// TokenTTL is the configured validity window.
func (ts *TokenService) TokenTTL() time.Duration {
	return time.Duration(ts.tokenExpiration) * time.Hour
}

// Issue builds and signs the claims for user with a validity window
// starting at now. The returned claims carry the exact issued-at and
// expiry timestamps the session registry must mirror.
func (ts *TokenService) Issue(user *User, now time.Time) (string, *TokenClaims, error) {
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   user.Username,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.TokenTTL())),
		},
		UID:      user.ID,
		Username: user.Username,
		UserRole: string(user.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signed, claims, nil
}

// Validate parses and validates a token string relative to now,
// returning structured claims. Expired tokens and bad signatures are
// reported as distinct errors.
func (ts *TokenService) Validate(tokenString string, now time.Time) (*TokenClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("token validate could not decode claims")
	return nil, ErrTokenInvalid
}
