package authd_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	authd "github.com/goliatone/go-authd"
)

type stack struct {
	db     *bun.DB
	repo   authd.RepositoryManager
	auther *authd.Auther
	now    time.Time
}

// newStack wires the real repositories, token service and authenticator
// over an in-memory database, with a controllable clock.
func newStack(t *testing.T) *stack {
	t.Helper()

	db := newTestDB(t)
	repo := authd.NewRepositoryManager(db)

	tokens, err := authd.NewTokenService([]byte("integration-secret"), 1, "authd-test", nil)
	require.NoError(t, err)

	s := &stack{
		db:   db,
		repo: repo,
		now:  time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}

	s.auther = authd.New(repo, tokens).
		WithTimeSource(func() time.Time { return s.now })

	return s
}

func (s *stack) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func TestRegisterLoginVerifyFlow(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	user, err := s.auther.Register(ctx, authd.RegisterInput{
		Username: "ana",
		Password: "Passw0rd!",
		Email:    "ana@example.com",
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	assert.Equal(t, authd.RoleUser, user.Role)
	assert.Nil(t, user.LastLogin)

	result, err := s.auther.Login(ctx, "ana", "Passw0rd!")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, int64(3600), result.ExpiresIn())

	// last login was stamped within the same commit as the session row
	stored, err := s.repo.Users().GetByUsername(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.Equal(t, s.now.Unix(), stored.LastLogin.Unix())

	claims, err := s.auther.Verify(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, authd.RoleUser, claims.Role())
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	mustCreateUser(t, s.repo, "ana", "Passw0rd!", authd.RoleUser)

	_, missingErr := s.auther.Login(ctx, "ghost", "Passw0rd!")
	_, wrongErr := s.auther.Login(ctx, "ana", "Wr0ngPass!")

	require.Error(t, missingErr)
	require.Error(t, wrongErr)
	assert.True(t, authd.IsInvalidCredentials(missingErr))
	assert.True(t, authd.IsInvalidCredentials(wrongErr))
	assert.Equal(t, missingErr.Error(), wrongErr.Error())
}

func TestVerifyAgainstSessionRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivated session rejects an otherwise valid token", func(t *testing.T) {
		s := newStack(t)
		mustCreateUser(t, s.repo, "ana", "Passw0rd!", authd.RoleUser)

		result, err := s.auther.Login(ctx, "ana", "Passw0rd!")
		require.NoError(t, err)

		session, err := s.repo.Sessions().FindActiveByToken(ctx, result.Token)
		require.NoError(t, err)
		require.NoError(t, s.repo.Sessions().Deactivate(ctx, session.ID))

		_, err = s.auther.Verify(ctx, result.Token)
		assert.True(t, authd.HasTextCode(err, authd.TextCodeSessionNotFound))
	})

	t.Run("expired token reported before the registry is consulted", func(t *testing.T) {
		s := newStack(t)
		mustCreateUser(t, s.repo, "ana", "Passw0rd!", authd.RoleUser)

		result, err := s.auther.Login(ctx, "ana", "Passw0rd!")
		require.NoError(t, err)

		s.advance(2 * time.Hour)

		_, err = s.auther.Verify(ctx, result.Token)
		assert.True(t, authd.HasTextCode(err, authd.TextCodeTokenExpired))
	})

	t.Run("stale session row heals lazily on verify", func(t *testing.T) {
		s := newStack(t)
		mustCreateUser(t, s.repo, "ana", "Passw0rd!", authd.RoleUser)

		result, err := s.auther.Login(ctx, "ana", "Passw0rd!")
		require.NoError(t, err)

		// age the registry row without touching the token, so the
		// session window closes while the embedded claim stays valid
		_, err = s.db.NewUpdate().
			Model((*authd.Session)(nil)).
			Set("expires_at = ?", s.now.Add(-time.Minute)).
			Where("token = ?", result.Token).
			Exec(ctx)
		require.NoError(t, err)

		_, err = s.auther.Verify(ctx, result.Token)
		assert.True(t, authd.HasTextCode(err, authd.TextCodeSessionExpired))

		// the discovery flipped the active flag, later calls miss entirely
		_, err = s.auther.Verify(ctx, result.Token)
		assert.True(t, authd.HasTextCode(err, authd.TextCodeSessionNotFound))
	})
}

func TestListUsersRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	require.NoError(t, authd.EnsureBootstrapAccounts(ctx, s.repo, []authd.BootstrapAccount{{
		Username: "admin",
		Password: "AdminPass1!",
		Role:     authd.RoleAdmin,
	}}, nil))

	mustCreateUser(t, s.repo, "ana", "Passw0rd!", authd.RoleUser)

	t.Run("regular account is forbidden", func(t *testing.T) {
		result, err := s.auther.Login(ctx, "ana", "Passw0rd!")
		require.NoError(t, err)

		_, err = s.auther.ListUsers(ctx, result.Token)
		assert.True(t, authd.IsForbidden(err))
	})

	t.Run("admin account lists everyone", func(t *testing.T) {
		result, err := s.auther.Login(ctx, "admin", "AdminPass1!")
		require.NoError(t, err)

		profiles, err := s.auther.ListUsers(ctx, result.Token)
		require.NoError(t, err)
		require.Len(t, profiles, 2)

		assert.Equal(t, "admin", profiles[0].Username)
		assert.Equal(t, authd.RoleAdmin, profiles[0].Role)
		assert.Equal(t, "ana", profiles[1].Username)
	})
}

func TestConcurrentRegistrationSameUsername(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.auther.Register(ctx, authd.RegisterInput{
				Username: "ana",
				Password: "Passw0rd!",
			})
		}(i)
	}
	wg.Wait()

	var succeeded, duplicated int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case authd.IsDuplicateIdentity(err):
			duplicated++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, duplicated)

	records, err := s.repo.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	user, err := s.auther.Register(ctx, authd.RegisterInput{
		Username: "ana",
		Password: "Passw0rd!",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.PasswordHash)

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), user.PasswordHash)
	assert.NotContains(t, string(raw), "password")

	raw, err = json.Marshal(user.Profile())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), user.PasswordHash)
}
