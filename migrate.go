package authd

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// CreateSchema brings up the users and login_sessions tables. Safe to
// run on every boot; existing tables are left alone.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Session)(nil),
	}

	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create table")
		}
	}

	// Verify hits this index on every request carrying a token.
	_, err := db.NewCreateIndex().
		Model((*Session)(nil)).
		Index("idx_login_sessions_token").
		Column("token").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create session token index")
	}

	return nil
}
