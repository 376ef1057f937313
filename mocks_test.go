package authd_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	authd "github.com/goliatone/go-authd"
)

// MockUsers implements authd.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByUsername(ctx context.Context, username string) (*authd.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*authd.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*authd.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*authd.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByID(ctx context.Context, id int64) (*authd.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*authd.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *authd.User) (*authd.User, error) {
	args := m.Called(ctx, record)
	if u := args.Get(0); u != nil {
		return u.(*authd.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *authd.User) (*authd.User, error) {
	args := m.Called(ctx, tx, record)
	if u := args.Get(0); u != nil {
		return u.(*authd.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *authd.User, at time.Time) error {
	args := m.Called(ctx, user, at)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *authd.User, at time.Time) error {
	args := m.Called(ctx, tx, user, at)
	return args.Error(0)
}

func (m *MockUsers) List(ctx context.Context) ([]*authd.User, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]*authd.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSessions implements authd.Sessions
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Record(ctx context.Context, userID int64, token string, issuedAt, expiresAt time.Time) (*authd.Session, error) {
	args := m.Called(ctx, userID, token, issuedAt, expiresAt)
	if s := args.Get(0); s != nil {
		return s.(*authd.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessions) RecordTx(ctx context.Context, tx bun.IDB, userID int64, token string, issuedAt, expiresAt time.Time) (*authd.Session, error) {
	args := m.Called(ctx, tx, userID, token, issuedAt, expiresAt)
	if s := args.Get(0); s != nil {
		return s.(*authd.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessions) FindActiveByToken(ctx context.Context, token string) (*authd.Session, error) {
	args := m.Called(ctx, token)
	if s := args.Get(0); s != nil {
		return s.(*authd.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessions) Deactivate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessions) DeactivateTx(ctx context.Context, tx bun.IDB, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockSessions) List(ctx context.Context) ([]*authd.Session, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]*authd.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRepositoryManager implements authd.RepositoryManager. RunInTx
// passes a zero bun.Tx to the callback: the repositories behind it are
// mocks too, so the transaction handle is never dereferenced.
type MockRepositoryManager struct {
	mock.Mock
	users    *MockUsers
	sessions *MockSessions
}

func NewMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{
		users:    new(MockUsers),
		sessions: new(MockSessions),
	}
}

func (m *MockRepositoryManager) Users() authd.Users {
	return m.users
}

func (m *MockRepositoryManager) Sessions() authd.Sessions {
	return m.sessions
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Validate() error {
	return nil
}

func (m *MockRepositoryManager) MustValidate() {}

func (m *MockRepositoryManager) AssertExpectations(t mock.TestingT) bool {
	ok := m.Mock.AssertExpectations(t)
	ok = m.users.AssertExpectations(t) && ok
	ok = m.sessions.AssertExpectations(t) && ok
	return ok
}

// MockAuthenticator implements authd.Authenticator for transport tests
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Register(ctx context.Context, input authd.RegisterInput) (*authd.User, error) {
	args := m.Called(ctx, input)
	if u := args.Get(0); u != nil {
		return u.(*authd.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) Login(ctx context.Context, username, password string) (*authd.LoginResult, error) {
	args := m.Called(ctx, username, password)
	if r := args.Get(0); r != nil {
		return r.(*authd.LoginResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) Verify(ctx context.Context, token string) (*authd.TokenClaims, error) {
	args := m.Called(ctx, token)
	if c := args.Get(0); c != nil {
		return c.(*authd.TokenClaims), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) ListUsers(ctx context.Context, token string) ([]authd.UserProfile, error) {
	args := m.Called(ctx, token)
	if p := args.Get(0); p != nil {
		return p.([]authd.UserProfile), args.Error(1)
	}
	return nil, args.Error(1)
}
