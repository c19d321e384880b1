package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/dbx"
	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `id, owner_id, encrypted_title, encrypted_content, iv, created_at, updated_at`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
	now     func() time.Time
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: d, now: func() time.Time { return time.Now().UTC() }}
}

func (r *SQLRepository) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	query := r.dialect.Rebind(`
		INSERT INTO notes (id, owner_id, encrypted_title, encrypted_content, iv, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	out := *n
	out.ID = uuid.NewString()
	out.CreatedAt = r.now()
	out.UpdatedAt = out.CreatedAt

	if _, err := r.db.ExecContext(ctx, query, out.ID, out.OwnerID, out.EncryptedTitle, out.EncryptedContent,
		out.IV, out.CreatedAt, out.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error) {
	query := r.dialect.Rebind(`SELECT ` + selectColumns + ` FROM notes
		WHERE owner_id = ?
		ORDER BY updated_at DESC, id DESC`)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Note, 0)
	for rows.Next() {
		n := &models.Note{}
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.EncryptedTitle, &n.EncryptedContent, &n.IV,
			&n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Get(ctx context.Context, id, ownerID string) (*models.Note, error) {
	query := r.dialect.Rebind(`SELECT ` + selectColumns + ` FROM notes WHERE id = ? AND owner_id = ?`)

	n := &models.Note{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(&n.ID, &n.OwnerID, &n.EncryptedTitle,
		&n.EncryptedContent, &n.IV, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Update(ctx context.Context, n *models.Note) (*models.Note, error) {
	query := r.dialect.Rebind(`
		UPDATE notes
		SET encrypted_title = ?, encrypted_content = ?, iv = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`)

	res, err := r.db.ExecContext(ctx, query, n.EncryptedTitle, n.EncryptedContent, n.IV, r.now(), n.ID, n.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return r.Get(ctx, n.ID, n.OwnerID)
}

func (r *SQLRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := r.dialect.Rebind(`DELETE FROM notes WHERE id = ? AND owner_id = ?`)

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
