package vault

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/client/session"
	"github.com/dmitrijs2005/cryptnotes/internal/client/storage"
	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/cryptox"
	"github.com/dmitrijs2005/cryptnotes/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice     = "alice"
	alicePass = "Str0ngP@ss!"
)

type account struct {
	id  string
	reg storage.Registration
}

// memStore is a server stand-in shared by several clients.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*account
	notes    map[string]*storage.NoteRecord
	owners   map[string]string
	seq      int
	idle     time.Duration
	revoked  bool
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*account{},
		notes:    map[string]*storage.NoteRecord{},
		owners:   map[string]string{},
		idle:     time.Minute,
	}
}

// memFacade is one client's connection to a memStore.
type memFacade struct {
	store     *memStore
	accountID string
}

func (f *memFacade) CreateAccount(_ context.Context, r *storage.Registration) (string, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[r.Username]; ok {
		return "", common.Duplicate("username")
	}
	s.seq++
	a := &account{id: fmt.Sprintf("acc-%d", s.seq), reg: *r}
	s.accounts[r.Username] = a
	return a.id, nil
}

func (f *memFacade) FindKeyMaterial(_ context.Context, username string) (*storage.KeyMaterial, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[username]
	if !ok {
		return &storage.KeyMaterial{
			Salt:              bytes.Repeat([]byte{1}, cryptox.SaltSize),
			PublicKey:         bytes.Repeat([]byte{2}, cryptox.PublicKeySize),
			WrappedPrivateKey: bytes.Repeat([]byte{3}, cryptox.PrivateKeySize+16),
			PrivateKeyIV:      bytes.Repeat([]byte{4}, cryptox.NonceSize),
			WrappedNoteKey:    bytes.Repeat([]byte{5}, cryptox.WrappedNoteKeySize),
		}, nil
	}
	return &storage.KeyMaterial{
		Salt:              a.reg.Salt,
		PublicKey:         a.reg.PublicKey,
		WrappedPrivateKey: a.reg.WrappedPrivateKey,
		PrivateKeyIV:      a.reg.PrivateKeyIV,
		WrappedNoteKey:    a.reg.WrappedNoteKey,
	}, nil
}

func (f *memFacade) Login(_ context.Context, username string, authKey []byte) (*storage.LoginResult, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[username]
	if !ok || subtle.ConstantTimeCompare(cryptox.MakeVerifier(authKey), a.reg.Verifier) != 1 {
		return nil, common.ErrAuthentication
	}
	f.accountID = a.id
	s.revoked = false
	return &storage.LoginResult{AccountID: a.id, IdleTimeout: s.idle}, nil
}

func (f *memFacade) Logout(context.Context) error {
	f.accountID = ""
	return nil
}

func (f *memFacade) owner() (string, error) {
	if f.accountID == "" {
		return "", common.ErrInvalidToken
	}
	if f.store.revoked {
		return "", common.ErrSessionExpired
	}
	return f.accountID, nil
}

func (f *memFacade) CreateNote(_ context.Context, n *storage.SealedNote) (*storage.NoteRecord, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, err := f.owner()
	if err != nil {
		return nil, err
	}
	s.seq++
	now := time.Now()
	rec := &storage.NoteRecord{ID: fmt.Sprintf("note-%d", s.seq), SealedNote: *n, CreatedAt: now, UpdatedAt: now}
	s.notes[rec.ID] = rec
	s.owners[rec.ID] = owner
	return rec, nil
}

func (f *memFacade) ListNotes(context.Context) ([]*storage.NoteRecord, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, err := f.owner()
	if err != nil {
		return nil, err
	}
	var out []*storage.NoteRecord
	for id, rec := range s.notes {
		if s.owners[id] == owner {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *memFacade) GetNote(_ context.Context, id string) (*storage.NoteRecord, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, err := f.owner()
	if err != nil {
		return nil, err
	}
	rec, ok := s.notes[id]
	if !ok || s.owners[id] != owner {
		return nil, common.ErrNotFound
	}
	return rec, nil
}

func (f *memFacade) UpdateNote(_ context.Context, id string, n *storage.SealedNote) (*storage.NoteRecord, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, err := f.owner()
	if err != nil {
		return nil, err
	}
	rec, ok := s.notes[id]
	if !ok || s.owners[id] != owner {
		return nil, common.ErrNotFound
	}
	rec.SealedNote = *n
	rec.UpdatedAt = time.Now()
	return rec, nil
}

func (f *memFacade) DeleteNote(_ context.Context, id string) error {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, err := f.owner()
	if err != nil {
		return err
	}
	if s.owners[id] != owner {
		return common.ErrNotFound
	}
	delete(s.notes, id)
	delete(s.owners, id)
	return nil
}

func (f *memFacade) ExportNotes(context.Context) (*storage.ExportResult, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, err := f.owner()
	if err != nil {
		return nil, err
	}
	n := 0
	for _, o := range s.owners {
		if o == owner {
			n++
		}
	}
	return &storage.ExportResult{Key: "exports/" + owner + "/1.json", Count: n}, nil
}

func newVault(store *memStore) (*Vault, *memFacade) {
	f := &memFacade{store: store}
	return New(f, session.New(f, logging.Nop())), f
}

func registerAndLogin(t *testing.T, v *Vault, username, password string) {
	t.Helper()
	ctx := context.Background()
	_, err := v.Register(ctx, username, username+"@example.com", []byte(password))
	require.NoError(t, err)
	require.NoError(t, v.Login(ctx, username, []byte(password)))
}

func TestRegister_StoresOnlyWrappedMaterial(t *testing.T) {
	store := newMemStore()
	v, _ := newVault(store)

	id, err := v.Register(context.Background(), alice, "alice@example.com", []byte(alicePass))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	reg := store.accounts[alice].reg
	assert.Len(t, reg.Salt, cryptox.SaltSize)
	assert.Len(t, reg.PublicKey, cryptox.PublicKeySize)
	assert.Len(t, reg.PrivateKeyIV, cryptox.NonceSize)
	assert.Len(t, reg.WrappedNoteKey, cryptox.WrappedNoteKeySize)
	assert.Len(t, reg.Verifier, 32)

	for name, field := range map[string][]byte{
		"wrapped private key": reg.WrappedPrivateKey,
		"wrapped note key":    reg.WrappedNoteKey,
		"verifier":            reg.Verifier,
	} {
		assert.False(t, bytes.Contains(field, []byte(alicePass)), name)
	}

	// The wrapped private key must not be the raw key.
	require.NoError(t, v.Login(context.Background(), alice, []byte(alicePass)))
	keys, err := v.Session().Keys()
	require.NoError(t, err)
	assert.False(t, bytes.Contains(reg.WrappedPrivateKey, keys.PrivateKey[:]))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	store := newMemStore()
	v, _ := newVault(store)
	ctx := context.Background()

	_, err := v.Register(ctx, alice, "a@example.com", []byte(alicePass))
	require.NoError(t, err)
	_, err = v.Register(ctx, alice, "b@example.com", []byte("other"))
	assert.ErrorIs(t, err, common.ErrDuplicate)
}

func TestNotes_Lifecycle(t *testing.T) {
	store := newMemStore()
	v, _ := newVault(store)
	registerAndLogin(t, v, alice, alicePass)
	ctx := context.Background()

	n, err := v.CreateNote(ctx, "Hello", "first note")
	require.NoError(t, err)

	rec := store.notes[n.ID]
	for _, ct := range [][]byte{rec.EncryptedTitle, rec.EncryptedContent} {
		assert.False(t, bytes.Contains(ct, []byte("Hello")))
		assert.NotEqual(t, base64.StdEncoding.EncodeToString([]byte("Hello")), base64.StdEncoding.EncodeToString(ct))
	}
	assert.Len(t, rec.IV, cryptox.NoteIVSize)

	got, err := v.GetNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "first note", got.Content)

	oldIV := append([]byte(nil), rec.IV...)
	upd, err := v.UpdateNote(ctx, n.ID, "Hello again", "edited")
	require.NoError(t, err)
	assert.Equal(t, "Hello again", upd.Title)
	assert.NotEqual(t, oldIV, store.notes[n.ID].IV, "update uses fresh nonces")

	list, err := v.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "edited", list[0].Content)

	res, err := v.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	require.NoError(t, v.DeleteNote(ctx, n.ID))
	_, err = v.GetNote(ctx, n.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNotes_OtherUsersKeyFails(t *testing.T) {
	store := newMemStore()
	va, _ := newVault(store)
	registerAndLogin(t, va, alice, alicePass)
	n, err := va.CreateNote(context.Background(), "Hello", "secret")
	require.NoError(t, err)

	vb, fb := newVault(store)
	registerAndLogin(t, vb, "bob", "b0bs-P@ssword")

	// Simulate a server that ignores ownership.
	store.owners[n.ID] = fb.accountID

	got, err := vb.GetNote(context.Background(), n.ID)
	assert.ErrorIs(t, err, common.ErrAuthentication)
	assert.Nil(t, got, "no partial plaintext")

	_, err = vb.ListNotes(context.Background())
	assert.ErrorIs(t, err, common.ErrAuthentication)
}

func TestNotes_TamperedCiphertext(t *testing.T) {
	store := newMemStore()
	v, _ := newVault(store)
	registerAndLogin(t, v, alice, alicePass)

	n, err := v.CreateNote(context.Background(), "Hello", "world")
	require.NoError(t, err)
	store.notes[n.ID].EncryptedContent[0] ^= 0x01

	_, err = v.GetNote(context.Background(), n.ID)
	assert.ErrorIs(t, err, common.ErrAuthentication)
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newMemStore()
	v, _ := newVault(store)
	_, err := v.Register(context.Background(), alice, "alice@example.com", []byte(alicePass))
	require.NoError(t, err)

	err = v.Login(context.Background(), alice, []byte("Str0ngP@ss?"))
	assert.ErrorIs(t, err, common.ErrAuthentication)

	_, err = v.CreateNote(context.Background(), "Hello", "x")
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestNotes_RequireLogin(t *testing.T) {
	v, _ := newVault(newMemStore())
	_, err := v.ListNotes(context.Background())
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestIdleTimeout_EndsSession(t *testing.T) {
	store := newMemStore()
	store.idle = 200 * time.Millisecond
	v, _ := newVault(store)
	registerAndLogin(t, v, alice, alicePass)

	time.Sleep(300 * time.Millisecond)

	_, err := v.ListNotes(context.Background())
	assert.ErrorIs(t, err, common.ErrSessionExpired)
	assert.Equal(t, session.LoggedOut, v.Session().State())

	_, err = v.Session().Keys()
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestNoteKey_SurvivesExpiryMidOperation(t *testing.T) {
	v, _ := newVault(newMemStore())
	registerAndLogin(t, v, alice, alicePass)

	ref, err := v.Session().Keys()
	require.NoError(t, err)
	defer ref.Wipe()

	key, err := v.noteKey()
	require.NoError(t, err)
	v.Session().Expire()

	require.NotEqual(t, make([]byte, len(key)), key, "expiry must not zero a key already handed out")
	sealed, err := seal("groceries", "milk", key)
	require.NoError(t, err)

	title, content, err := cryptox.OpenNote(&cryptox.SealedNote{
		EncryptedTitle:   sealed.EncryptedTitle,
		EncryptedContent: sealed.EncryptedContent,
		IV:               sealed.IV,
	}, ref.NoteKey)
	require.NoError(t, err)
	assert.Equal(t, "groceries", title)
	assert.Equal(t, "milk", content)
}

func TestServerExpiry_DropsLocalSession(t *testing.T) {
	store := newMemStore()
	v, _ := newVault(store)
	registerAndLogin(t, v, alice, alicePass)

	store.revoked = true
	_, err := v.CreateNote(context.Background(), "Hello", "x")
	assert.ErrorIs(t, err, common.ErrSessionExpired)
	assert.Equal(t, session.LoggedOut, v.Session().State())
}

func TestLogout(t *testing.T) {
	store := newMemStore()
	v, f := newVault(store)
	registerAndLogin(t, v, alice, alicePass)

	require.NoError(t, v.Logout(context.Background()))
	assert.Empty(t, f.accountID)
	assert.ErrorIs(t, v.Logout(context.Background()), session.ErrNotLoggedIn)
}
