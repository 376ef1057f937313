package authd

import (
	"github.com/goliatone/go-errors"
)

// Text codes identify each failure class across transports. Callers
// should match on these rather than on error messages.
const (
	TextCodeValidation        = "VALIDATION_ERROR"
	TextCodePasswordPolicy    = "PASSWORD_POLICY"
	TextCodeDuplicateIdentity = "DUPLICATE_IDENTITY"
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenInvalid      = "TOKEN_INVALID"
	TextCodeSessionNotFound   = "SESSION_NOT_FOUND"
	TextCodeSessionExpired    = "SESSION_EXPIRED"
	TextCodeForbidden         = "FORBIDDEN"
)

// ErrInvalidCredentials is returned for a missing user and for a wrong
// password alike, so callers cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid username or password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrTokenExpired is returned when the token's embedded expiry claim has passed.
var ErrTokenExpired = errors.New("token has expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenInvalid covers bad signatures and unparseable tokens.
var ErrTokenInvalid = errors.New("invalid token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenInvalid)

// ErrSessionNotFound means no active session row backs the token.
var ErrSessionNotFound = errors.New("session not found or inactive", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionNotFound)

// ErrSessionExpired means the session's own validity window has passed,
// independent of the token's embedded claim.
var ErrSessionExpired = errors.New("session has expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionExpired)

// ErrForbidden means the caller authenticated but lacks the required role.
var ErrForbidden = errors.New("admin access required", errors.CategoryAuth).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrUserNotFound is an internal lookup miss. It is never rendered to
// callers directly; login translates it into ErrInvalidCredentials.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound)

// ErrSessionRecordNotFound is the registry's lookup miss before the
// authenticator maps it to ErrSessionNotFound.
var ErrSessionRecordNotFound = errors.New("session record not found", errors.CategoryNotFound)

// NewValidationError reports a malformed or incomplete request.
func NewValidationError(message string) *errors.Error {
	return errors.New(message, errors.CategoryValidation).
		WithTextCode(TextCodeValidation)
}

// NewPasswordPolicyError carries every unmet policy rule, in rule order.
func NewPasswordPolicyError(violations []string) *errors.Error {
	return errors.New("password requirements not met", errors.CategoryValidation).
		WithTextCode(TextCodePasswordPolicy).
		WithMetadata(map[string]any{"violations": violations})
}

// NewDuplicateIdentityError distinguishes which identity field collided.
func NewDuplicateIdentityError(field string) *errors.Error {
	return errors.New(field+" already exists", errors.CategoryConflict).
		WithTextCode(TextCodeDuplicateIdentity).
		WithMetadata(map[string]any{"field": field})
}

// HasTextCode checks whether err (or anything it wraps) carries the
// given text code.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// IsInvalidCredentials will check for credential mismatch errors
func IsInvalidCredentials(err error) bool {
	return HasTextCode(err, TextCodeInvalidCreds)
}

// IsDuplicateIdentity will check for uniqueness violations
func IsDuplicateIdentity(err error) bool {
	return HasTextCode(err, TextCodeDuplicateIdentity)
}

// IsPasswordPolicyViolation will check for password policy errors
func IsPasswordPolicyViolation(err error) bool {
	return HasTextCode(err, TextCodePasswordPolicy)
}

// IsForbidden will check for role authorization failures
func IsForbidden(err error) bool {
	return HasTextCode(err, TextCodeForbidden)
}

// IsUnauthenticated groups the verify-stage failures that share the
// unauthenticated status class while staying individually reportable.
func IsUnauthenticated(err error) bool {
	return HasTextCode(err, TextCodeInvalidCreds) ||
		HasTextCode(err, TextCodeTokenExpired) ||
		HasTextCode(err, TextCodeTokenInvalid) ||
		HasTextCode(err, TextCodeSessionNotFound) ||
		HasTextCode(err, TextCodeSessionExpired)
}

// PolicyViolations extracts the violation list from a password policy
// error, or nil when err is something else.
func PolicyViolations(err error) []string {
	var rich *errors.Error
	if !errors.As(err, &rich) || rich.TextCode != TextCodePasswordPolicy {
		return nil
	}
	if v, ok := rich.Metadata["violations"].([]string); ok {
		return v
	}
	return nil
}

// DuplicateField names the column that collided on a duplicate
// identity error, or "" when err is something else.
func DuplicateField(err error) string {
	var rich *errors.Error
	if !errors.As(err, &rich) || rich.TextCode != TextCodeDuplicateIdentity {
		return ""
	}
	if f, ok := rich.Metadata["field"].(string); ok {
		return f
	}
	return ""
}
