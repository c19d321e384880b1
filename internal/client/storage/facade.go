// Package storage defines what the client core needs from the server: an
// opaque store for accounts and notes that never sees plaintext. Notes are
// always scoped to the account of the current session.
package storage

import (
	"context"
	"time"
)

// Registration is everything the server keeps about a new account.
type Registration struct {
	Username          string
	Email             string
	PublicKey         []byte
	WrappedPrivateKey []byte
	PrivateKeyIV      []byte
	WrappedNoteKey    []byte
	Salt              []byte
	Verifier          []byte
}

// KeyMaterial is the wrapped key envelope looked up by username. Unknown
// usernames yield a decoy of the same shape.
type KeyMaterial struct {
	Salt              []byte
	PublicKey         []byte
	WrappedPrivateKey []byte
	PrivateKeyIV      []byte
	WrappedNoteKey    []byte
}

// LoginResult describes the server session opened by a successful login.
type LoginResult struct {
	AccountID   string
	IdleTimeout time.Duration
	ExpiresAt   time.Time
}

// SealedNote carries the three ciphertext fields of a note. They are
// always written together.
type SealedNote struct {
	EncryptedTitle   []byte
	EncryptedContent []byte
	IV               []byte
}

// NoteRecord is a stored note.
type NoteRecord struct {
	ID string
	SealedNote
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExportResult names the object a ciphertext export was written to. URL
// is a short-lived download link for it.
type ExportResult struct {
	Key   string
	URL   string
	Count int
}

// Facade is the account and note store.
type Facade interface {
	CreateAccount(ctx context.Context, r *Registration) (accountID string, err error)
	FindKeyMaterial(ctx context.Context, username string) (*KeyMaterial, error)

	CreateNote(ctx context.Context, n *SealedNote) (*NoteRecord, error)
	// ListNotes returns notes most recently updated first.
	ListNotes(ctx context.Context) ([]*NoteRecord, error)
	GetNote(ctx context.Context, id string) (*NoteRecord, error)
	UpdateNote(ctx context.Context, id string, n *SealedNote) (*NoteRecord, error)
	DeleteNote(ctx context.Context, id string) error
	ExportNotes(ctx context.Context) (*ExportResult, error)
}

// Authenticator opens and closes the server session that scopes Facade
// note calls.
type Authenticator interface {
	Login(ctx context.Context, username string, authKey []byte) (*LoginResult, error)
	Logout(ctx context.Context) error
}
