// Package storetest opens a migrated in-memory SQLite database for tests.
package storetest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/cryptnotes/internal/dbx"
	"github.com/dmitrijs2005/cryptnotes/internal/server/migrations"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// OpenSQLite returns a fresh, fully migrated database private to t.
func OpenSQLite(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := sql.Open(dbx.SQLite.DriverName(), dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	fsys, err := migrations.For(dbx.SQLite)
	require.NoError(t, err)

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	require.NoError(t, err)
	_, err = provider.Up(context.Background())
	require.NoError(t, err)

	return db
}
