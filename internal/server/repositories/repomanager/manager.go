// Package repomanager vends dialect-specific repositories bound to a
// dbx.DBTX, opens the database from a DSN and applies the embedded goose
// migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cryptnotes/internal/dbx"
	"github.com/dmitrijs2005/cryptnotes/internal/server/migrations"
	"github.com/dmitrijs2005/cryptnotes/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/cryptnotes/internal/server/repositories/notes"
	"github.com/dmitrijs2005/cryptnotes/internal/server/repositories/sessions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type RepositoryManager interface {
	Dialect() dbx.Dialect
	RunMigrations(ctx context.Context, db *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Notes(db dbx.DBTX) notes.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}

// SQLRepositoryManager serves both PostgreSQL and SQLite; only the
// placeholder style, driver and migration set differ.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

func NewSQLRepositoryManager(d dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: d}
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect {
	return m.dialect
}

func (m *SQLRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Notes(db dbx.DBTX) notes.Repository {
	return notes.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLRepository(db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	fsys, err := migrations.For(m.dialect)
	if err != nil {
		return err
	}
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(m.dialect.GooseDialect()); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// Open connects to dsn with the driver its dialect needs and verifies the
// connection. SQLite gets foreign keys switched on.
func Open(ctx context.Context, dsn string) (*sql.DB, *SQLRepositoryManager, error) {
	d := dbx.DialectFromDSN(dsn)
	if d == dbx.SQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if d == dbx.SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent sessions
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	return db, NewSQLRepositoryManager(d), nil
}

func sqliteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
