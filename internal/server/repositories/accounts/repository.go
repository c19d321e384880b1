// Package accounts stores registered accounts and their wrapped key
// material.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
)

// Repository is the account half of the storage facade.
type Repository interface {
	// Create inserts a new account. A username or email collision yields a
	// common.FieldError wrapping common.ErrDuplicate.
	Create(ctx context.Context, a *models.Account) (*models.Account, error)

	// FindByUsername returns common.ErrNotFound when no account matches.
	FindByUsername(ctx context.Context, username string) (*models.Account, error)

	FindByID(ctx context.Context, id string) (*models.Account, error)
}
