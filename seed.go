package authd

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
)

// BootstrapAccount is an account seeded at process start. Credentials
// come from deployment configuration, not source literals.
type BootstrapAccount struct {
	Username string
	Password string
	Email    string
	Role     UserRole
}

// EnsureBootstrapAccounts creates each account whose username is not
// in the store yet. Idempotent: existing usernames are skipped, and a
// duplicate race with a concurrent boot is treated as already seeded.
// Accounts with an empty username or password are ignored.
func EnsureBootstrapAccounts(ctx context.Context, repo RepositoryManager, accounts []BootstrapAccount, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	for _, account := range accounts {
		username := strings.TrimSpace(account.Username)
		if username == "" || account.Password == "" {
			continue
		}

		_, err := repo.Users().GetByUsername(ctx, username)
		if err == nil {
			logger.Debug("bootstrap account already present", "username", username)
			continue
		}
		if !errors.IsNotFound(err) {
			return errors.Wrap(err, errors.CategoryInternal, "bootstrap lookup failed")
		}

		hash, err := HashPassword(account.Password)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "bootstrap could not hash password")
		}

		role, _ := ParseRole(account.Role)

		user := &User{
			Username:     username,
			PasswordHash: hash,
			Role:         role,
		}
		if email := strings.TrimSpace(account.Email); email != "" {
			user.Email = &email
		}

		if _, err := repo.Users().Create(ctx, user); err != nil {
			if IsDuplicateIdentity(err) {
				logger.Debug("bootstrap account created concurrently", "username", username)
				continue
			}
			return err
		}

		logger.Info("seeded bootstrap account", "username", username, "role", role)
	}

	return nil
}

// BootstrapAccountsFromConfig maps the configured admin account to the
// seeding input. Returns an empty slice when seeding is unconfigured.
func BootstrapAccountsFromConfig(cfg *Config) []BootstrapAccount {
	if cfg == nil || cfg.Bootstrap.AdminUsername == "" || cfg.Bootstrap.AdminPassword == "" {
		return nil
	}

	return []BootstrapAccount{{
		Username: cfg.Bootstrap.AdminUsername,
		Password: cfg.Bootstrap.AdminPassword,
		Email:    cfg.Bootstrap.AdminEmail,
		Role:     RoleAdmin,
	}}
}
