package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/cryptox"
	"github.com/dmitrijs2005/cryptnotes/internal/server/config"
	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
	"github.com/dmitrijs2005/cryptnotes/internal/server/repositories/repomanager"
)

// KeyMaterial is what a client needs to rebuild its keys after login.
type KeyMaterial struct {
	Salt              []byte
	PublicKey         []byte
	WrappedPrivateKey []byte
	PrivateKeyIV      []byte
	WrappedNoteKey    []byte
	// Verifier never leaves the server.
	Verifier []byte
}

type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
}

func NewAccountService(db *sql.DB, repomanager repomanager.RepositoryManager, config *config.Config) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

// Register stores a new account. Duplicate usernames and emails come back
// as common.FieldError wrapping common.ErrDuplicate.
func (s *AccountService) Register(ctx context.Context, a *models.Account) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).Create(ctx, a)
}

// GetKeyMaterial returns the stored envelope for username, or a decoy of
// identical shape when no such account exists.
func (s *AccountService) GetKeyMaterial(ctx context.Context, username string) (*KeyMaterial, error) {
	a, err := s.repomanager.Accounts(s.db).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return decoyKeyMaterial([]byte(s.config.SecretKey), username), nil
		}
		return nil, err
	}
	return keyMaterialOf(a), nil
}

// VerifyCredentials checks the client's auth key against the stored
// verifier. Unknown users are compared against the decoy verifier so both
// paths do the same work; either failure is common.ErrAuthentication.
func (s *AccountService) VerifyCredentials(ctx context.Context, username string, authKey []byte) (*models.Account, error) {
	var expected []byte

	a, err := s.repomanager.Accounts(s.db).FindByUsername(ctx, username)
	switch {
	case err == nil:
		expected = a.Verifier
	case errors.Is(err, common.ErrNotFound):
		expected = decoyKeyMaterial([]byte(s.config.SecretKey), username).Verifier
		a = nil
	default:
		return nil, err
	}

	got := cryptox.MakeVerifier(authKey)
	if subtle.ConstantTimeCompare(got, expected) != 1 || a == nil {
		return nil, common.ErrAuthentication
	}
	return a, nil
}

func keyMaterialOf(a *models.Account) *KeyMaterial {
	return &KeyMaterial{
		Salt:              a.Salt,
		PublicKey:         a.PublicKey,
		WrappedPrivateKey: a.WrappedPrivateKey,
		PrivateKeyIV:      a.PrivateKeyIV,
		WrappedNoteKey:    a.WrappedNoteKey,
		Verifier:          a.Verifier,
	}
}
