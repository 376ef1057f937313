package authd

import (
	"github.com/goliatone/go-errors"
)

// DefaultTokenExpiration is the token validity window in hours.
const DefaultTokenExpiration = 24

// Config holds everything the service needs to boot. Values are
// loaded from an optional YAML file overlaid with AUTHD_* environment
// variables; see cmd/authd.
type Config struct {
	Server    ServerConfig    `koanf:"server" json:"server"`
	Database  DatabaseConfig  `koanf:"database" json:"database"`
	Auth      AuthConfig      `koanf:"auth" json:"auth"`
	Bootstrap BootstrapConfig `koanf:"bootstrap" json:"bootstrap"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" json:"addr"`
}

type DatabaseConfig struct {
	DSN string `koanf:"dsn" json:"dsn"`
}

type AuthConfig struct {
	// SigningKey is the single process-wide token signing secret.
	// Never logged, never defaulted.
	SigningKey      string `koanf:"signing_key" json:"-"`
	TokenExpiration int    `koanf:"token_expiration" json:"token_expiration"`
	Issuer          string `koanf:"issuer" json:"issuer"`
}

// BootstrapConfig describes the admin account seeded on startup when
// the store does not hold its username yet. Seeding is skipped
// entirely when the password is unset.
type BootstrapConfig struct {
	AdminUsername string `koanf:"admin_username" json:"admin_username"`
	AdminPassword string `koanf:"admin_password" json:"-"`
	AdminEmail    string `koanf:"admin_email" json:"admin_email"`
}

func (c *Config) GetSigningKey() string {
	return c.Auth.SigningKey
}

func (c *Config) GetTokenExpiration() int {
	if c.Auth.TokenExpiration <= 0 {
		return DefaultTokenExpiration
	}
	return c.Auth.TokenExpiration
}

func (c *Config) GetIssuer() string {
	return c.Auth.Issuer
}

func (c *Config) GetAddr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

func (c *Config) GetDSN() string {
	if c.Database.DSN == "" {
		return "file:authd.db"
	}
	return c.Database.DSN
}

// Validate enforces the startup-fatal conditions. A process without a
// signing key must not come up at all.
func (c *Config) Validate() error {
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required", errors.CategoryValidation).
			WithTextCode(TextCodeValidation)
	}
	return nil
}
