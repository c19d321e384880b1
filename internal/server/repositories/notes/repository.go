// Package notes stores encrypted notes. Every query is scoped by owner;
// a note owned by someone else is indistinguishable from a missing one.
package notes

import (
	"context"

	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, n *models.Note) (*models.Note, error)

	// ListByOwner returns the owner's notes, most recently updated first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error)

	Get(ctx context.Context, id, ownerID string) (*models.Note, error)

	// Update replaces title, content and iv together and bumps updated_at.
	Update(ctx context.Context, n *models.Note) (*models.Note, error)

	Delete(ctx context.Context, id, ownerID string) error
}
