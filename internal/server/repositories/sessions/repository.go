// Package sessions persists server-side login sessions. A session row is
// what a bearer token points at; deleting the row revokes the token.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error

	// Find returns common.ErrNotFound when the session does not exist.
	Find(ctx context.Context, id string) (*models.Session, error)

	// Touch moves the expiry of a session forward.
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// Delete is idempotent.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes sessions whose expiry is before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
