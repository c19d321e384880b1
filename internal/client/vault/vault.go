// Package vault is the client core: it registers accounts by generating
// and wrapping key material, drives login through a session, and seals or
// opens notes around the storage facade. Nothing it sends to the facade is
// plaintext.
package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/client/session"
	"github.com/dmitrijs2005/cryptnotes/internal/client/storage"
	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/cryptox"
)

// Note is a decrypted note.
type Note struct {
	ID        string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Vault struct {
	facade  storage.Facade
	session *session.Session
}

func New(f storage.Facade, s *session.Session) *Vault {
	return &Vault{facade: f, session: s}
}

func (v *Vault) Session() *session.Session {
	return v.session
}

// Register creates an account for username. Key material is generated
// here and only wrapped forms leave the process.
func (v *Vault) Register(ctx context.Context, username, email string, password []byte) (string, error) {
	salt := cryptox.NewSalt()

	derived, err := cryptox.DeriveKeys(password, salt)
	if err != nil {
		return "", err
	}
	defer derived.Wipe()

	kp, err := cryptox.GenerateKeyPair()
	if err != nil {
		return "", err
	}
	defer kp.Wipe()

	wrappedPriv, privIV, err := cryptox.WrapPrivateKey(kp.Private, derived.MasterKey)
	if err != nil {
		return "", err
	}

	noteKey := cryptox.NewNoteKey()
	defer common.WipeByteArray(noteKey)

	wrappedNoteKey, err := cryptox.WrapNoteKey(noteKey, kp.Public)
	if err != nil {
		return "", err
	}

	return v.facade.CreateAccount(ctx, &storage.Registration{
		Username:          username,
		Email:             email,
		PublicKey:         kp.Public[:],
		WrappedPrivateKey: wrappedPriv,
		PrivateKeyIV:      privIV,
		WrappedNoteKey:    wrappedNoteKey,
		Salt:              salt,
		Verifier:          cryptox.MakeVerifier(derived.AuthKey),
	})
}

func (v *Vault) Login(ctx context.Context, username string, password []byte) error {
	return v.session.Login(ctx, username, password)
}

func (v *Vault) Logout(ctx context.Context) error {
	return v.session.Logout(ctx)
}

// noteKey returns a private copy of the session note key and marks
// activity. The caller wipes it.
func (v *Vault) noteKey() ([]byte, error) {
	keys, err := v.session.Keys()
	if err != nil {
		return nil, err
	}
	v.session.Touch()

	key := keys.NoteKey
	keys.NoteKey = nil
	keys.Wipe()
	return key, nil
}

// active fails unless a session is unwrapped and marks activity.
func (v *Vault) active() error {
	key, err := v.noteKey()
	common.WipeByteArray(key)
	return err
}

// check drops the local session when the server says it is gone.
func (v *Vault) check(err error) error {
	if errors.Is(err, common.ErrSessionExpired) || errors.Is(err, common.ErrInvalidToken) {
		v.session.Expire()
	}
	return err
}

func (v *Vault) open(rec *storage.NoteRecord, key []byte) (*Note, error) {
	title, content, err := cryptox.OpenNote(&cryptox.SealedNote{
		EncryptedTitle:   rec.EncryptedTitle,
		EncryptedContent: rec.EncryptedContent,
		IV:               rec.IV,
	}, key)
	if err != nil {
		return nil, fmt.Errorf("note %s: %w", rec.ID, common.ErrAuthentication)
	}
	return &Note{
		ID:        rec.ID,
		Title:     title,
		Content:   content,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func seal(title, content string, key []byte) (*storage.SealedNote, error) {
	sn, err := cryptox.SealNote(title, content, key)
	if err != nil {
		return nil, err
	}
	return &storage.SealedNote{
		EncryptedTitle:   sn.EncryptedTitle,
		EncryptedContent: sn.EncryptedContent,
		IV:               sn.IV,
	}, nil
}

func (v *Vault) CreateNote(ctx context.Context, title, content string) (*Note, error) {
	key, err := v.noteKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	sealed, err := seal(title, content, key)
	if err != nil {
		return nil, err
	}
	rec, err := v.facade.CreateNote(ctx, sealed)
	if err != nil {
		return nil, v.check(err)
	}
	return &Note{ID: rec.ID, Title: title, Content: content, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}, nil
}

// ListNotes decrypts every note, most recently updated first. A note that
// fails to decrypt fails the whole call.
func (v *Vault) ListNotes(ctx context.Context) ([]*Note, error) {
	key, err := v.noteKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	recs, err := v.facade.ListNotes(ctx)
	if err != nil {
		return nil, v.check(err)
	}

	out := make([]*Note, 0, len(recs))
	for _, rec := range recs {
		n, err := v.open(rec, key)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (v *Vault) GetNote(ctx context.Context, id string) (*Note, error) {
	key, err := v.noteKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	rec, err := v.facade.GetNote(ctx, id)
	if err != nil {
		return nil, v.check(err)
	}
	return v.open(rec, key)
}

// UpdateNote re-encrypts both fields with fresh nonces.
func (v *Vault) UpdateNote(ctx context.Context, id, title, content string) (*Note, error) {
	key, err := v.noteKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	sealed, err := seal(title, content, key)
	if err != nil {
		return nil, err
	}
	rec, err := v.facade.UpdateNote(ctx, id, sealed)
	if err != nil {
		return nil, v.check(err)
	}
	return &Note{ID: rec.ID, Title: title, Content: content, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}, nil
}

func (v *Vault) DeleteNote(ctx context.Context, id string) error {
	if err := v.active(); err != nil {
		return err
	}
	return v.check(v.facade.DeleteNote(ctx, id))
}

// Export asks the server to store a ciphertext snapshot of the notes.
func (v *Vault) Export(ctx context.Context) (*storage.ExportResult, error) {
	if err := v.active(); err != nil {
		return nil, err
	}
	res, err := v.facade.ExportNotes(ctx)
	if err != nil {
		return nil, v.check(err)
	}
	return res, nil
}
