package authd

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the credential store. It exclusively owns user rows;
// usernames are matched exactly (case-sensitive) after trimming.
type Users interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	TrackSuccessfulLogin(ctx context.Context, user *User, at time.Time) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User, at time.Time) error

	List(ctx context.Context) ([]*User, error)
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.getByColumn(ctx, "username", strings.TrimSpace(username))
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getByColumn(ctx, "email", strings.TrimSpace(email))
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	return a.getByColumn(ctx, "id", id)
}

func (a *users) getByColumn(ctx context.Context, column string, value any) (*User, error) {
	record := &User{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "user lookup failed")
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, mapUserConstraintError(err)
	}

	return record, nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User, at time.Time) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user, at)
}

// TrackSuccessfulLoginTx stamps last_login via raw SQL so the update
// touches exactly one column, whatever state the record struct is in.
func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User, at time.Time) error {
	res, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET "last_login" = ?
		WHERE ("usr".id = ?);
	`, at, user.ID).Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to track login")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}

	user.LastLogin = &at

	return nil
}

func (a *users) List(ctx context.Context) ([]*User, error) {
	var records []*User

	err := a.db.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "user listing failed")
	}

	return records, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Username = strings.TrimSpace(record.Username)

	if _, ok := ParseRole(record.Role); !ok {
		record.Role = RoleUser
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
}

// mapUserConstraintError turns the driver's uniqueness violation into a
// DuplicateIdentity error naming the collided column. The constraint is
// the final authority under concurrent registration; racing callers end
// up here even when the pre-checks saw no duplicate.
func mapUserConstraintError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return NewDuplicateIdentityError("username")
	case strings.Contains(msg, "users.email"):
		return NewDuplicateIdentityError("email")
	case strings.Contains(msg, "UNIQUE constraint"):
		return NewDuplicateIdentityError("identity")
	}
	return errors.Wrap(err, errors.CategoryInternal, "could not create user")
}
