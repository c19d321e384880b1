package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/dbx"
	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `id, username, email, verifier, public_key, wrapped_private_key,
       private_key_iv, wrapped_note_key, salt, created_at`

// SQLRepository implements Repository over dbx.DBTX for PostgreSQL and
// SQLite.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
	now     func() time.Time
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: d, now: func() time.Time { return time.Now().UTC() }}
}

func (r *SQLRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	query := r.dialect.Rebind(`
		INSERT INTO accounts (id, username, email, verifier, public_key, wrapped_private_key,
		                      private_key_iv, wrapped_note_key, salt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	out := *a
	out.ID = uuid.NewString()
	out.CreatedAt = r.now()

	_, err := r.db.ExecContext(ctx, query,
		out.ID, out.Username, out.Email, out.Verifier, out.PublicKey, out.WrappedPrivateKey,
		out.PrivateKeyIV, out.WrappedNoteKey, out.Salt, out.CreatedAt)
	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			return nil, common.Duplicate(duplicateField(constraint))
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

func (r *SQLRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := r.dialect.Rebind(`SELECT ` + selectColumns + ` FROM accounts WHERE username = ?`)
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := r.dialect.Rebind(`SELECT ` + selectColumns + ` FROM accounts WHERE id = ?`)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLRepository) scanOne(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Verifier, &a.PublicKey, &a.WrappedPrivateKey,
		&a.PrivateKeyIV, &a.WrappedNoteKey, &a.Salt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// duplicateField maps a constraint name ("accounts_email_key") or SQLite
// column reference ("accounts.email") to the request field.
func duplicateField(constraint string) string {
	if strings.Contains(constraint, "email") {
		return "email"
	}
	return "username"
}
