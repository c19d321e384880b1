package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/cryptox"
	"github.com/dmitrijs2005/cryptnotes/internal/dbx"
	"github.com/dmitrijs2005/cryptnotes/internal/server/config"
	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
	"github.com/dmitrijs2005/cryptnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cryptnotes/internal/server/storetest"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *config.Config {
	return &config.Config{
		SecretKey:          "test-secret-key-0123456789",
		SessionIdleTimeout: 5 * time.Minute,
		SessionMaxLifetime: time.Hour,
	}
}

func newTestDB(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	return storetest.OpenSQLite(t), repomanager.NewSQLRepositoryManager(dbx.SQLite)
}

// testAccount builds an account whose verifier matches authKey.
func testAccount(username string, authKey []byte) *models.Account {
	return &models.Account{
		Username:          username,
		Email:             username + "@example.com",
		Verifier:          cryptox.MakeVerifier(authKey),
		PublicKey:         make([]byte, cryptox.PublicKeySize),
		WrappedPrivateKey: make([]byte, cryptox.PrivateKeySize+16),
		PrivateKeyIV:      make([]byte, cryptox.NonceSize),
		WrappedNoteKey:    make([]byte, cryptox.WrappedNoteKeySize),
		Salt:              []byte("0123456789abcdef"),
	}
}

func mustRegister(t *testing.T, s *AccountService, username string, authKey []byte) *models.Account {
	t.Helper()
	a, err := s.Register(context.Background(), testAccount(username, authKey))
	require.NoError(t, err)
	return a
}

// steppingClock returns a clock that reads *cur, so tests can move time.
func steppingClock(cur *time.Time) func() time.Time {
	return func() time.Time { return *cur }
}
