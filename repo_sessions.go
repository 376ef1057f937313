package authd

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Sessions is the session registry. It exclusively owns session rows;
// expiry is never swept in the background, it heals lazily when the
// authenticator discovers a stale row during verify.
type Sessions interface {
	Record(ctx context.Context, userID int64, token string, issuedAt, expiresAt time.Time) (*Session, error)
	RecordTx(ctx context.Context, tx bun.IDB, userID int64, token string, issuedAt, expiresAt time.Time) (*Session, error)

	FindActiveByToken(ctx context.Context, token string) (*Session, error)

	Deactivate(ctx context.Context, id int64) error
	DeactivateTx(ctx context.Context, tx bun.IDB, id int64) error

	List(ctx context.Context) ([]*Session, error)
}

type sessions struct {
	db *bun.DB
}

var _ Sessions = (*sessions)(nil)

func NewSessionsRepository(db *bun.DB) Sessions {
	return &sessions{db: db}
}

func (r *sessions) Record(ctx context.Context, userID int64, token string, issuedAt, expiresAt time.Time) (*Session, error) {
	return r.RecordTx(ctx, r.db, userID, token, issuedAt, expiresAt)
}

// RecordTx creates an active session row. expiresAt must equal the
// token's embedded expiry claim; the caller owns that invariant.
func (r *sessions) RecordTx(ctx context.Context, tx bun.IDB, userID int64, token string, issuedAt, expiresAt time.Time) (*Session, error) {
	record := &Session{
		UserID:    userID,
		Token:     token,
		CreatedAt: issuedAt,
		ExpiresAt: expiresAt,
		Active:    true,
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not record session")
	}

	return record, nil
}

// FindActiveByToken returns the session only while its active flag is
// set. Callers must still compare ExpiresAt against "now": a row the
// registry has not yet lazily deactivated is returned as-is.
func (r *sessions) FindActiveByToken(ctx context.Context, token string) (*Session, error) {
	record := &Session{}

	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.is_active = ?", true).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionRecordNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "session lookup failed")
	}

	return record, nil
}

func (r *sessions) Deactivate(ctx context.Context, id int64) error {
	return r.DeactivateTx(ctx, r.db, id)
}

// DeactivateTx flips the active flag off. Idempotent: deactivating an
// already-inactive or missing session is not an error, and a session
// never goes back to active.
func (r *sessions) DeactivateTx(ctx context.Context, tx bun.IDB, id int64) error {
	_, err := tx.NewUpdate().
		Model((*Session)(nil)).
		Set("is_active = ?", false).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "could not deactivate session")
	}

	return nil
}

func (r *sessions) List(ctx context.Context) ([]*Session, error) {
	var records []*Session

	err := r.db.NewSelect().
		Model(&records).
		Relation("User").
		Order("ls.id ASC").
		Scan(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "session listing failed")
	}

	return records, nil
}
