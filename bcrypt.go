package authd

import (
	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit. Anything longer would be
// silently truncated by the hash, so it is rejected up front.
const MaxPasswordBytes = 72

// HashPassword will generate a salted password hash. The salt is
// chosen per call by bcrypt itself; the plaintext is never retained.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty", errors.CategoryValidation).
			WithTextCode(TextCodeValidation)
	}

	if len(password) > MaxPasswordBytes {
		return "", errors.New("password must not exceed 72 bytes", errors.CategoryValidation).
			WithTextCode(TextCodeValidation)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext password
// against the stored hash. A malformed stored hash reports the same
// error as a wrong password, so callers cannot tell the cases apart.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
