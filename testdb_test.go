package authd_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"

	authd "github.com/goliatone/go-authd"
)

// newTestDB opens a per-test in-memory database with the service schema
// applied. The single-connection pool keeps every statement on the same
// shared-cache handle, so concurrent callers serialize instead of
// racing the driver.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, db.Ping())
	require.NoError(t, authd.CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// quickHash hashes at the cheapest cost so fixture users do not pay the
// production work factor. Comparison honors whatever cost is embedded
// in the hash, so lookups behave exactly like production rows.
func quickHash(t *testing.T, password string) string {
	t.Helper()

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return string(h)
}

// mustCreateUser inserts a fixture row directly through the repository.
func mustCreateUser(t *testing.T, repo authd.RepositoryManager, username, password string, role authd.UserRole) *authd.User {
	t.Helper()

	user, err := repo.Users().Create(context.Background(), &authd.User{
		Username:     username,
		PasswordHash: quickHash(t, password),
		Role:         role,
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	return user
}
