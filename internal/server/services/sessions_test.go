package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionFixture(t *testing.T) (*SessionService, string, *time.Time) {
	t.Helper()
	db, m := newTestDB(t)
	cfg := newTestConfig()
	a := mustRegister(t, NewAccountService(db, m, cfg), "alice", []byte("auth"))

	// tokens are checked against the wall clock, so start from it
	now := time.Now().UTC().Truncate(time.Second)
	s := NewSessionService(db, m, cfg)
	s.now = steppingClock(&now)
	return s, a.ID, &now
}

func TestSessionService_OpenAuthenticateSlides(t *testing.T) {
	s, accountID, now := newSessionFixture(t)
	ctx := context.Background()

	issued, err := s.Open(ctx, accountID)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	assert.Equal(t, now.Add(5*time.Minute), issued.Session.ExpiresAt)

	*now = now.Add(4 * time.Minute)
	sess, err := s.Authenticate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, accountID, sess.AccountID)
	assert.Equal(t, now.Add(5*time.Minute), sess.ExpiresAt)

	// still inside the window that the previous call extended
	*now = now.Add(4 * time.Minute)
	_, err = s.Authenticate(ctx, issued.Token)
	require.NoError(t, err)
}

func TestSessionService_IdleExpiry(t *testing.T) {
	s, accountID, now := newSessionFixture(t)
	ctx := context.Background()

	issued, err := s.Open(ctx, accountID)
	require.NoError(t, err)

	*now = now.Add(5 * time.Minute)
	_, err = s.Authenticate(ctx, issued.Token)
	assert.ErrorIs(t, err, common.ErrSessionExpired)

	_, err = s.Info(ctx, issued.Session.ID)
	assert.ErrorIs(t, err, common.ErrSessionExpired, "expired row is removed")
}

func TestSessionService_MaxLifetimeCapsSliding(t *testing.T) {
	s, accountID, now := newSessionFixture(t)
	ctx := context.Background()
	start := *now

	issued, err := s.Open(ctx, accountID)
	require.NoError(t, err)

	for i := 0; i < 14; i++ {
		*now = now.Add(4 * time.Minute)
		sess, err := s.Authenticate(ctx, issued.Token)
		require.NoError(t, err)
		assert.False(t, sess.ExpiresAt.After(start.Add(time.Hour)))
	}

	*now = start.Add(time.Hour)
	_, err = s.Authenticate(ctx, issued.Token)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestSessionService_CloseAndBadTokens(t *testing.T) {
	s, accountID, _ := newSessionFixture(t)
	ctx := context.Background()

	issued, err := s.Open(ctx, accountID)
	require.NoError(t, err)

	require.NoError(t, s.Close(ctx, issued.Session.ID))
	require.NoError(t, s.Close(ctx, issued.Session.ID))

	_, err = s.Authenticate(ctx, issued.Token)
	assert.ErrorIs(t, err, common.ErrSessionExpired)

	_, err = s.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSessionService_RefreshAndInfo(t *testing.T) {
	s, accountID, now := newSessionFixture(t)
	ctx := context.Background()

	issued, err := s.Open(ctx, accountID)
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)
	info, err := s.Info(ctx, issued.Session.ID)
	require.NoError(t, err)
	assert.True(t, info.ExpiresAt.Equal(issued.Session.ExpiresAt), "info does not extend")

	refreshed, err := s.Refresh(ctx, issued.Session.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.ExpiresAt.Equal(now.Add(5*time.Minute)))
	assert.Equal(t, 5*time.Minute, s.IdleTimeout())
}

func TestSessionService_PurgeExpired(t *testing.T) {
	s, accountID, now := newSessionFixture(t)
	ctx := context.Background()

	_, err := s.Open(ctx, accountID)
	require.NoError(t, err)
	*now = now.Add(time.Minute)
	live, err := s.Open(ctx, accountID)
	require.NoError(t, err)

	*now = now.Add(4*time.Minute + 30*time.Second)
	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Info(ctx, live.Session.ID)
	assert.NoError(t, err)
}
