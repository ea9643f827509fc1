package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campus/internal/auth"
	"campus/internal/cache"
	apperrors "campus/internal/errors"
	"campus/internal/model"
	"campus/internal/repository"
	"campus/internal/repository/repotest"
)

// hookedSessionRepo counts token lookups and runs afterRead once, right after the next one.
type hookedSessionRepo struct {
	repository.SessionRepository
	reads     int
	afterRead func()
}

func (r *hookedSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	session, err := r.SessionRepository.FindByTokenHash(ctx, tokenHash)
	r.reads++
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return session, err
}

// newCachedSessions builds a session store backed by an in-memory redis.
func newCachedSessions(t *testing.T) (*repotest.Store, *hookedSessionRepo, SessionService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	store := repotest.NewStore()
	repo := &hookedSessionRepo{SessionRepository: store.Sessions()}
	return store, repo, NewSessionService(repo, auth.NewSessionCache(client, time.Minute), zap.NewNop()), mr
}

func newTestSessions(t *testing.T) (*repotest.Store, SessionService) {
	t.Helper()
	store := repotest.NewStore()
	return store, NewSessionService(store.Sessions(), auth.NewSessionCache(nil, time.Minute), zap.NewNop())
}

func seedUser(t *testing.T, store *repotest.Store, role model.Role, email string) *model.User {
	t.Helper()
	user := &model.User{ID: uuid.New(), Role: role, Email: email, FirstName: "First", LastName: email}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func TestSessionService_CreateAndFind(t *testing.T) {
	store, sessions := newTestSessions(t)
	ctx := context.Background()
	user := seedUser(t, store, model.RoleStudent, "s@campus.test")

	created, err := sessions.Create(ctx, user.ID, "token-a", "jti-a", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, auth.HashToken("token-a"), created.TokenHash)

	found, err := sessions.FindByToken(ctx, "token-a")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.NotNil(t, found.User)
	assert.Equal(t, user.ID, found.User.ID)

	_, err = sessions.FindByToken(ctx, "never-issued")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSessionService_InvalidateOneOfMany(t *testing.T) {
	store, sessions := newTestSessions(t)
	ctx := context.Background()
	user := seedUser(t, store, model.RoleStudent, "s@campus.test")
	expires := time.Now().Add(time.Hour)

	for _, tok := range []string{"t1", "t2", "t3"} {
		_, err := sessions.Create(ctx, user.ID, tok, tok, expires)
		require.NoError(t, err)
	}

	require.NoError(t, sessions.Invalidate(ctx, "t2"))

	for tok, active := range map[string]bool{"t1": true, "t2": false, "t3": true} {
		s, err := sessions.FindByToken(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, active, s.Active, tok)
	}

	assert.ErrorIs(t, sessions.Invalidate(ctx, "unknown"), apperrors.ErrSessionNotFound)
}

func TestSessionService_InvalidateAllForUser(t *testing.T) {
	store, sessions := newTestSessions(t)
	ctx := context.Background()
	alice := seedUser(t, store, model.RoleStudent, "alice@campus.test")
	bob := seedUser(t, store, model.RoleStudent, "bob@campus.test")
	expires := time.Now().Add(time.Hour)

	for _, tok := range []string{"a1", "a2"} {
		_, err := sessions.Create(ctx, alice.ID, tok, tok, expires)
		require.NoError(t, err)
	}
	_, err := sessions.Create(ctx, bob.ID, "b1", "b1", expires)
	require.NoError(t, err)

	n, err := sessions.InvalidateAllForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	bobSession, err := sessions.FindByToken(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, bobSession.Active)

	n, err = sessions.InvalidateAllForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionService_Sweep(t *testing.T) {
	store, sessions := newTestSessions(t)
	ctx := context.Background()
	user := seedUser(t, store, model.RoleStudent, "s@campus.test")

	_, err := sessions.Create(ctx, user.ID, "live", "live", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = sessions.Create(ctx, user.ID, "expired", "expired", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = sessions.Create(ctx, user.ID, "revoked", "revoked", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, sessions.Invalidate(ctx, "revoked"))

	n, err := sessions.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, store.SessionCount())

	n, err = sessions.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = sessions.FindByToken(ctx, "live")
	assert.NoError(t, err)
}

func TestSessionService_CacheHit(t *testing.T) {
	store, repo, sessions, mr := newCachedSessions(t)
	ctx := context.Background()
	user := seedUser(t, store, model.RoleStudent, "s@campus.test")

	_, err := sessions.Create(ctx, user.ID, "tok", "jti", time.Now().Add(time.Hour))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		found, err := sessions.FindByToken(ctx, "tok")
		require.NoError(t, err)
		assert.True(t, found.Active)
		assert.Equal(t, user.ID, found.User.ID)
	}
	assert.Equal(t, 1, repo.reads)
	assert.True(t, mr.Exists("session:"+auth.HashToken("tok")))
}

func TestSessionService_InvalidateEvictsCachedSession(t *testing.T) {
	store, repo, sessions, mr := newCachedSessions(t)
	ctx := context.Background()
	user := seedUser(t, store, model.RoleStudent, "s@campus.test")

	_, err := sessions.Create(ctx, user.ID, "tok", "jti", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = sessions.FindByToken(ctx, "tok")
	require.NoError(t, err)

	require.NoError(t, sessions.Invalidate(ctx, "tok"))
	assert.False(t, mr.Exists("session:"+auth.HashToken("tok")))

	found, err := sessions.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, found.Active)
	assert.Equal(t, 2, repo.reads)
}

// A logout that lands between the row read and the cache write must not be undone.
func TestSessionService_LogoutDuringLookup(t *testing.T) {
	store, repo, sessions, mr := newCachedSessions(t)
	ctx := context.Background()
	user := seedUser(t, store, model.RoleStudent, "s@campus.test")

	_, err := sessions.Create(ctx, user.ID, "tok", "jti", time.Now().Add(time.Hour))
	require.NoError(t, err)

	repo.afterRead = func() {
		require.NoError(t, sessions.Invalidate(ctx, "tok"))
	}
	inFlight, err := sessions.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, inFlight.Active)
	assert.False(t, mr.Exists("session:"+auth.HashToken("tok")))

	found, err := sessions.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, found.Active)
}

func TestSessionService_LogoutAllDuringLookup(t *testing.T) {
	store, repo, sessions, mr := newCachedSessions(t)
	ctx := context.Background()
	user := seedUser(t, store, model.RoleStudent, "s@campus.test")
	expires := time.Now().Add(time.Hour)

	for _, tok := range []string{"t1", "t2"} {
		_, err := sessions.Create(ctx, user.ID, tok, tok, expires)
		require.NoError(t, err)
	}
	_, err := sessions.FindByToken(ctx, "t2")
	require.NoError(t, err)

	repo.afterRead = func() {
		n, err := sessions.InvalidateAllForUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	}
	_, err = sessions.FindByToken(ctx, "t1")
	require.NoError(t, err)

	for _, tok := range []string{"t1", "t2"} {
		assert.False(t, mr.Exists("session:"+auth.HashToken(tok)), tok)
		found, err := sessions.FindByToken(ctx, tok)
		require.NoError(t, err)
		assert.False(t, found.Active, tok)
	}
}
