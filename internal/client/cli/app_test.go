package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/client/session"
	"github.com/dmitrijs2005/cryptnotes/internal/client/storage"
	"github.com/dmitrijs2005/cryptnotes/internal/client/vault"
	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/cryptox"
	"github.com/dmitrijs2005/cryptnotes/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu        sync.Mutex
	state     session.State
	idle      bool
	remaining time.Duration
	touches   int
}

func (f *fakeSession) Touch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touches++
}

func (f *fakeSession) IdleRemaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining
}

func (f *fakeSession) setRemaining(d time.Duration) {
	f.mu.Lock()
	f.remaining = d
	f.mu.Unlock()
}

func (f *fakeSession) State() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) ExpireIfIdle(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == session.Unwrapped && f.idle {
		f.state = session.LoggedOut
		return true
	}
	return false
}

type fakeVault struct {
	sess      *fakeSession
	password  string
	notes     map[string]*vault.Note
	lastPass  []byte
	registers int
	err       error
}

func newFakeVault(s *fakeSession) *fakeVault {
	return &fakeVault{sess: s, password: "Str0ngP@ss!", notes: map[string]*vault.Note{}}
}

func (f *fakeVault) Register(_ context.Context, _, _ string, password []byte) (string, error) {
	f.registers++
	f.lastPass = password
	return "acc-1", f.err
}

func (f *fakeVault) Login(_ context.Context, _ string, password []byte) error {
	f.lastPass = password
	if string(password) != f.password {
		return common.ErrAuthentication
	}
	f.sess.mu.Lock()
	f.sess.state = session.Unwrapped
	f.sess.mu.Unlock()
	return nil
}

func (f *fakeVault) Logout(context.Context) error {
	f.sess.mu.Lock()
	f.sess.state = session.LoggedOut
	f.sess.mu.Unlock()
	return nil
}

func (f *fakeVault) CreateNote(_ context.Context, title, content string) (*vault.Note, error) {
	n := &vault.Note{ID: "n1", Title: title, Content: content, UpdatedAt: time.Now()}
	f.notes[n.ID] = n
	return n, nil
}

func (f *fakeVault) ListNotes(context.Context) ([]*vault.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*vault.Note
	for _, n := range f.notes {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeVault) GetNote(_ context.Context, id string) (*vault.Note, error) {
	n, ok := f.notes[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return n, nil
}

func (f *fakeVault) UpdateNote(_ context.Context, id, title, content string) (*vault.Note, error) {
	n := f.notes[id]
	n.Title, n.Content = title, content
	return n, nil
}

func (f *fakeVault) DeleteNote(_ context.Context, id string) error {
	delete(f.notes, id)
	return nil
}

func (f *fakeVault) Export(context.Context) (*storage.ExportResult, error) {
	return &storage.ExportResult{
		Key:   "exports/acc-1/1.json",
		URL:   "https://s3.example.com/exports/acc-1/1.json",
		Count: len(f.notes),
	}, nil
}

type fakeServer struct {
	info *storage.LoginResult
	err  error
}

func (f *fakeServer) SessionInfo(context.Context) (*storage.LoginResult, error) {
	return f.info, f.err
}

func (f *fakeServer) RefreshSession(context.Context) (*storage.LoginResult, error) {
	return f.info, f.err
}

func newTestApp(t *testing.T, input string, passwords ...string) (*App, *fakeVault, *bytes.Buffer) {
	t.Helper()

	old := getPassword
	t.Cleanup(func() { getPassword = old })
	getPassword = func(string, io.Writer) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, errors.New("no password")
		}
		p := passwords[0]
		passwords = passwords[1:]
		return []byte(p), nil
	}

	origDownload, origSave := downloadExport, saveExport
	t.Cleanup(func() { downloadExport, saveExport = origDownload, origSave })
	downloadExport = func(_ context.Context, url string) ([]byte, error) {
		return []byte("ciphertext from " + url), nil
	}
	saveExport = func(dir, name string, _ []byte) (string, error) {
		return dir + "/" + name, nil
	}

	sess := &fakeSession{}
	v := newFakeVault(sess)
	out := &bytes.Buffer{}
	return &App{
		vault:   v,
		session: sess,
		server: &fakeServer{info: &storage.LoginResult{
			AccountID:   "acc-1",
			IdleTimeout: 5 * time.Minute,
			ExpiresAt:   time.Now().Add(5 * time.Minute),
		}},
		logger: logging.Nop(),
		reader: rdr(input),
		out:    out,
	}, v, out
}

func TestApp_RegisterWipesPassword(t *testing.T) {
	a, v, out := newTestApp(t, "alice\nalice@example.com\n", "Str0ngP@ss!", "Str0ngP@ss!")

	require.NoError(t, a.Register(context.Background()))
	assert.Equal(t, 1, v.registers)
	assert.Equal(t, make([]byte, len("Str0ngP@ss!")), v.lastPass, "password wiped after use")
	assert.Contains(t, out.String(), "Account created")
}

func TestApp_RegisterPasswordMismatch(t *testing.T) {
	a, v, out := newTestApp(t, "alice\nalice@example.com\n", "Str0ngP@ss!", "other")

	require.NoError(t, a.Register(context.Background()))
	assert.Zero(t, v.registers)
	assert.Contains(t, out.String(), "Passwords do not match")
}

func TestApp_RegisterDuplicate(t *testing.T) {
	a, v, out := newTestApp(t, "alice\nalice@example.com\n", "p", "p")
	v.err = common.Duplicate("username")

	assert.ErrorIs(t, a.Register(context.Background()), common.ErrDuplicate)
	assert.Contains(t, out.String(), "Invalid username: already exists")
}

func TestApp_LoginAndStatus(t *testing.T) {
	a, _, out := newTestApp(t, "alice\nalice\n", "wrong", "Str0ngP@ss!")
	ctx := context.Background()

	assert.ErrorIs(t, a.Login(ctx), common.ErrAuthentication)
	assert.Contains(t, out.String(), "Invalid credentials")
	assert.Empty(t, a.getStatus())

	require.NoError(t, a.Login(ctx))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(alice)", a.getStatus())

	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, a.getStatus())
}

func TestApp_NoteCommands(t *testing.T) {
	input := strings.Join([]string{
		"Hello",        // add: title
		"first line",   // add: content
		"",             // end content
		"",             // edit: keep title
		"second draft", // edit: content
		"",
		"y", // delete confirm
	}, "\n") + "\n"
	a, v, out := newTestApp(t, input)
	v.sess.state = session.Unwrapped
	ctx := context.Background()

	require.NoError(t, a.Add(ctx))
	require.NoError(t, a.List(ctx))
	require.NoError(t, a.Show(ctx, []string{"n1"}))
	require.NoError(t, a.Edit(ctx, []string{"n1"}))
	assert.Equal(t, "Hello", v.notes["n1"].Title)
	assert.Equal(t, "second draft", v.notes["n1"].Content)
	require.NoError(t, a.Export(ctx))
	require.NoError(t, a.Delete(ctx, []string{"n1"}))
	assert.Empty(t, v.notes)

	s := out.String()
	assert.Contains(t, s, "Note saved: n1")
	assert.Contains(t, s, "ID")
	assert.Contains(t, s, "first line")
	assert.Contains(t, s, "Exported 1 encrypted notes")
	assert.Contains(t, s, "Local copy: exports/1.json")
	assert.Contains(t, s, "Note deleted")

	assert.ErrorIs(t, a.Show(ctx, []string{"missing"}), common.ErrNotFound)
	assert.Contains(t, out.String(), "Note not found")
}

func TestApp_ListReportsExpiredSession(t *testing.T) {
	a, v, out := newTestApp(t, "")
	v.sess.state = session.Unwrapped
	v.err = common.ErrSessionExpired

	assert.Error(t, a.List(context.Background()))
	assert.Contains(t, out.String(), "Session expired")
}

func TestApp_IdleWatcherExpires(t *testing.T) {
	a, v, out := newTestApp(t, "")
	v.sess.state = session.Unwrapped
	a.userName = "alice"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.StartIdleWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	v.sess.mu.Lock()
	v.sess.idle = true
	v.sess.mu.Unlock()

	require.Eventually(t, func() bool { return !a.isLoggedIn() }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Empty(t, a.getStatus())
	a.mu.Lock()
	assert.Contains(t, out.String(), "Session expired after inactivity")
	a.mu.Unlock()
}

func TestApp_SessionStatus(t *testing.T) {
	a, v, out := newTestApp(t, "")
	v.sess.state = session.Unwrapped
	a.userName = "alice"
	ctx := context.Background()

	require.NoError(t, a.SessionStatus(ctx))
	require.NoError(t, a.Refresh(ctx))
	assert.Equal(t, 2, strings.Count(out.String(), "idle timeout 5m0s"))
	assert.Equal(t, 2, v.sess.touches, "local idle clock follows the server")

	a.server = &fakeServer{err: common.ErrSessionExpired}
	assert.ErrorIs(t, a.Refresh(ctx), common.ErrSessionExpired)
	assert.False(t, a.isLoggedIn(), "server expiry drops local keys")
	assert.Empty(t, a.getStatus())
	assert.Equal(t, 2, v.sess.touches)
}

// slidingServer is a server with one account whose session slides by
// idle on every refresh. It also backs a real session.Session.
type slidingServer struct {
	mu        sync.Mutex
	km        *storage.KeyMaterial
	verifier  []byte
	idle      time.Duration
	expiresAt time.Time
	logouts   int
}

func newSlidingServer(t *testing.T, password string, idle time.Duration) *slidingServer {
	t.Helper()

	salt := cryptox.NewSalt()
	dk, err := cryptox.DeriveKeys([]byte(password), salt)
	require.NoError(t, err)
	defer dk.Wipe()

	kp, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)
	wrapped, iv, err := cryptox.WrapPrivateKey(kp.Private, dk.MasterKey)
	require.NoError(t, err)
	wrappedNoteKey, err := cryptox.WrapNoteKey(cryptox.NewNoteKey(), kp.Public)
	require.NoError(t, err)

	return &slidingServer{
		km: &storage.KeyMaterial{
			Salt:              salt,
			PublicKey:         kp.Public[:],
			WrappedPrivateKey: wrapped,
			PrivateKeyIV:      iv,
			WrappedNoteKey:    wrappedNoteKey,
		},
		verifier: cryptox.MakeVerifier(dk.AuthKey),
		idle:     idle,
	}
}

func (s *slidingServer) FindKeyMaterial(context.Context, string) (*storage.KeyMaterial, error) {
	return s.km, nil
}

func (s *slidingServer) Login(_ context.Context, _ string, authKey []byte) (*storage.LoginResult, error) {
	if !bytes.Equal(cryptox.MakeVerifier(authKey), s.verifier) {
		return nil, common.ErrAuthentication
	}
	return s.slide(), nil
}

func (s *slidingServer) Logout(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logouts++
	return nil
}

func (s *slidingServer) SessionInfo(context.Context) (*storage.LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &storage.LoginResult{AccountID: "acc-1", IdleTimeout: s.idle, ExpiresAt: s.expiresAt}, nil
}

func (s *slidingServer) RefreshSession(context.Context) (*storage.LoginResult, error) {
	return s.slide(), nil
}

func (s *slidingServer) slide() *storage.LoginResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = time.Now().Add(s.idle)
	return &storage.LoginResult{AccountID: "acc-1", IdleTimeout: s.idle, ExpiresAt: s.expiresAt}
}

func (s *slidingServer) logoutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logouts
}

func TestApp_RefreshPostponesIdleExpiry(t *testing.T) {
	const password = "Str0ngP@ss!"
	srv := newSlidingServer(t, password, 400*time.Millisecond)
	sess := session.New(srv, logging.Nop())
	out := &bytes.Buffer{}
	a := &App{
		vault:   newFakeVault(&fakeSession{}),
		session: sess,
		server:  srv,
		logger:  logging.Nop(),
		reader:  rdr(""),
		out:     out,
	}
	ctx := context.Background()

	require.NoError(t, sess.Login(ctx, "alice", []byte(password)))

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, a.Refresh(ctx))

	time.Sleep(200 * time.Millisecond)
	assert.False(t, sess.ExpireIfIdle(ctx), "refresh must reset the local idle clock")
	assert.Equal(t, session.Unwrapped, sess.State())
	assert.Zero(t, srv.logoutCount(), "refreshed server session must stay open")

	time.Sleep(250 * time.Millisecond)
	assert.True(t, sess.ExpireIfIdle(ctx))
	assert.Equal(t, 1, srv.logoutCount())
}

func TestApp_IdleWatcherWarnsOnce(t *testing.T) {
	a, v, out := newTestApp(t, "")
	v.sess.state = session.Unwrapped
	v.sess.setRemaining(45 * time.Second)
	a.userName = "alice"

	warnings := func() int {
		a.mu.Lock()
		defer a.mu.Unlock()
		return strings.Count(out.String(), "Session ends in")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.StartIdleWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return warnings() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, warnings(), "one warning per idle period")

	// activity pushes the deadline out, the next approach warns again
	v.sess.setRemaining(5 * time.Minute)
	time.Sleep(50 * time.Millisecond)
	v.sess.setRemaining(30 * time.Second)
	require.Eventually(t, func() bool { return warnings() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	a.mu.Lock()
	s := out.String()
	a.mu.Unlock()
	assert.Contains(t, s, "Session ends in 45s due to inactivity, type 'refresh' to stay logged in")
	assert.Contains(t, s, "Session ends in 30s")
	assert.True(t, a.isLoggedIn(), "a warning does not end the session")
}

func TestApp_Search(t *testing.T) {
	a, v, out := newTestApp(t, "\n")
	v.sess.state = session.Unwrapped
	v.notes = map[string]*vault.Note{
		"n1": {ID: "n1", Title: "Groceries", Content: "milk, eggs"},
		"n2": {ID: "n2", Title: "Wifi", Content: "password is hunter2"},
		"n3": {ID: "n3", Title: "Milk recipes", Content: ""},
	}
	ctx := context.Background()

	require.NoError(t, a.Search(ctx, []string{"MILK"}))
	s := out.String()
	assert.Contains(t, s, "Groceries")
	assert.Contains(t, s, "Milk recipes")
	assert.NotContains(t, s, "Wifi")

	out.Reset()
	require.NoError(t, a.Search(ctx, []string{"hunter2"}))
	assert.Contains(t, out.String(), "Wifi")
	assert.NotContains(t, out.String(), "Groceries")

	out.Reset()
	require.NoError(t, a.Search(ctx, []string{"nothing", "here"}))
	assert.Contains(t, out.String(), `No notes match "nothing here"`)

	out.Reset()
	require.NoError(t, a.Search(ctx, nil))
	assert.Contains(t, out.String(), "Usage: search <term>")

	v.err = common.ErrSessionExpired
	assert.ErrorIs(t, a.Search(ctx, []string{"milk"}), common.ErrSessionExpired)
}

func TestMatchNotes(t *testing.T) {
	notes := []*vault.Note{
		{ID: "a", Title: "Äpfel kaufen", Content: ""},
		{ID: "b", Title: "", Content: "Line one\nSecret PIN 1234"},
	}
	assert.Len(t, matchNotes(notes, "äpfel"), 1)
	got := matchNotes(notes, "pin 12")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
	assert.Empty(t, matchNotes(notes, "zebra"))
}

func TestApp_EditClearsFields(t *testing.T) {
	a, v, out := newTestApp(t, "-\n-\n\n")
	v.sess.state = session.Unwrapped
	v.notes["n1"] = &vault.Note{ID: "n1", Title: "Draft", Content: "to be removed"}

	require.NoError(t, a.Edit(context.Background(), []string{"n1"}))
	assert.Empty(t, v.notes["n1"].Title)
	assert.Empty(t, v.notes["n1"].Content)
	assert.Contains(t, out.String(), `"-" clears`)
}

func TestEditedField(t *testing.T) {
	assert.Equal(t, "old", editedField("", "old"))
	assert.Equal(t, "", editedField("-", "old"))
	assert.Equal(t, "new", editedField("new", "old"))
	assert.Equal(t, "--", editedField("--", "old"))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Invalid credentials", describe(common.ErrAuthentication))
	assert.Equal(t, "Not logged in", describe(session.ErrNotLoggedIn))
	assert.Equal(t, "Server unavailable, try again later", describe(common.ErrUnavailable))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}
