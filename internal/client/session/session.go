// Package session holds the unwrapped key material of a logged-in user.
//
// A Session moves LoggedOut -> DerivingKey -> Unwrapping -> Unwrapped and
// back to LoggedOut on logout, idle expiry or any failure. Keys exist only
// in memory while Unwrapped and are zeroed on every transition out of it.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/client/storage"
	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/cryptox"
	"github.com/dmitrijs2005/cryptnotes/internal/logging"
)

type State int

const (
	LoggedOut State = iota
	DerivingKey
	Unwrapping
	Unwrapped
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged out"
	case DerivingKey:
		return "deriving key"
	case Unwrapping:
		return "unwrapping"
	case Unwrapped:
		return "unwrapped"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned when a login is submitted while another one is
	// running or a session is already active.
	ErrBusy = errors.New("login already in progress or session active")
	// ErrNotLoggedIn is returned by Keys when no session is active.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Backend is the part of the server the login sequence talks to.
type Backend interface {
	FindKeyMaterial(ctx context.Context, username string) (*storage.KeyMaterial, error)
	storage.Authenticator
}

// Keys is the in-memory key material of an active session.
type Keys struct {
	AccountID  string
	Username   string
	PublicKey  *[cryptox.PublicKeySize]byte
	PrivateKey *[cryptox.PrivateKeySize]byte
	NoteKey    []byte
}

// Wipe zeroes the secret halves of k.
func (k *Keys) Wipe() {
	if k == nil {
		return
	}
	if k.PrivateKey != nil {
		common.WipeByteArray(k.PrivateKey[:])
	}
	common.WipeByteArray(k.NoteKey)
}

func (k *Keys) clone() *Keys {
	c := &Keys{
		AccountID: k.AccountID,
		Username:  k.Username,
		NoteKey:   append([]byte(nil), k.NoteKey...),
	}
	if k.PublicKey != nil {
		pub := *k.PublicKey
		c.PublicKey = &pub
	}
	if k.PrivateKey != nil {
		priv := *k.PrivateKey
		c.PrivateKey = &priv
	}
	return c
}

// deriveKeys is a seam for tests.
var deriveKeys = cryptox.DeriveKeys

type Session struct {
	backend Backend
	logger  logging.Logger
	now     func() time.Time

	mu           sync.Mutex
	state        State
	keys         *Keys
	idleTimeout  time.Duration
	lastActivity time.Time
}

func New(backend Backend, l logging.Logger) *Session {
	return &Session{
		backend: backend,
		logger:  l.With("module", "session"),
		now:     time.Now,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// IdleTimeout is the inactivity window reported by the server at login.
func (s *Session) IdleTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idleTimeout
}

// Login runs the unwrap sequence for username and password. The caller
// owns password and should wipe it afterwards. Credential and key failures
// all return common.ErrAuthentication; transport failures are returned as
// they are so the user knows to retry.
func (s *Session) Login(ctx context.Context, username string, password []byte) error {
	s.mu.Lock()
	if s.state != LoggedOut {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = DerivingKey
	s.mu.Unlock()

	keys, idle, err := s.unwrap(ctx, username, password)
	if err != nil {
		s.setState(LoggedOut)
		s.logger.Debug(ctx, "login failed", "username", username)
		if isTransient(err) {
			return err
		}
		return common.ErrAuthentication
	}

	s.mu.Lock()
	s.keys = keys
	s.idleTimeout = idle
	s.lastActivity = s.now()
	s.state = Unwrapped
	s.mu.Unlock()

	s.logger.Info(ctx, "logged in", "username", username, "idle_timeout", idle)
	return nil
}

func isTransient(err error) bool {
	return errors.Is(err, common.ErrUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (s *Session) unwrap(ctx context.Context, username string, password []byte) (keys *Keys, idle time.Duration, err error) {
	km, err := s.backend.FindKeyMaterial(ctx, username)
	if err != nil {
		return nil, 0, err
	}

	derived, err := deriveKeys(password, km.Salt)
	if err != nil {
		return nil, 0, err
	}
	defer derived.Wipe()

	s.setState(Unwrapping)

	res, err := s.backend.Login(ctx, username, derived.AuthKey)
	if err != nil {
		return nil, 0, err
	}
	// from here on a server session exists and must be closed on failure
	defer func() {
		if err != nil {
			_ = s.backend.Logout(context.WithoutCancel(ctx))
		}
	}()

	priv, err := cryptox.UnwrapPrivateKey(km.WrappedPrivateKey, km.PrivateKeyIV, derived.MasterKey)
	if err != nil {
		return nil, 0, err
	}

	pub, err := cryptox.PublicFromPrivate(priv)
	if err != nil || subtle.ConstantTimeCompare(pub[:], km.PublicKey) != 1 {
		common.WipeByteArray(priv[:])
		return nil, 0, cryptox.ErrDecryption
	}

	noteKey, err := cryptox.UnwrapNoteKey(km.WrappedNoteKey, pub, priv)
	if err != nil {
		common.WipeByteArray(priv[:])
		return nil, 0, err
	}

	idle = res.IdleTimeout
	if idle <= 0 {
		idle = common.SessionIdleTimeout
	}

	return &Keys{
		AccountID:  res.AccountID,
		Username:   username,
		PublicKey:  pub,
		PrivateKey: priv,
		NoteKey:    noteKey,
	}, idle, nil
}

// Touch records user activity and postpones idle expiry.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Unwrapped {
		s.lastActivity = s.now()
	}
}

// Keys returns a copy of the active key material. The copy belongs to the
// caller, who should Wipe it when done; expiring the session does not
// touch it.
func (s *Session) Keys() (*Keys, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Unwrapped {
		return nil, ErrNotLoggedIn
	}
	if s.idleLocked() {
		s.clearLocked()
		return nil, common.ErrSessionExpired
	}
	return s.keys.clone(), nil
}

// IdleRemaining is the time left before idle expiry, zero when no session
// is active.
func (s *Session) IdleRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Unwrapped {
		return 0
	}
	if left := s.idleTimeout - s.now().Sub(s.lastActivity); left > 0 {
		return left
	}
	return 0
}

func (s *Session) idleLocked() bool {
	return s.state == Unwrapped && s.now().Sub(s.lastActivity) >= s.idleTimeout
}

func (s *Session) clearLocked() {
	s.keys.Wipe()
	s.keys = nil
	s.state = LoggedOut
}

// ExpireIfIdle ends the session when the idle window has passed. It
// reports whether it did.
func (s *Session) ExpireIfIdle(ctx context.Context) bool {
	s.mu.Lock()
	if !s.idleLocked() {
		s.mu.Unlock()
		return false
	}
	s.clearLocked()
	s.mu.Unlock()

	s.logger.Info(ctx, "session expired after inactivity")
	_ = s.backend.Logout(ctx)
	return true
}

// Expire drops local key material without contacting the server. Used
// when the server has already ended the session.
func (s *Session) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Unwrapped {
		s.clearLocked()
	}
}

// Logout wipes the keys and closes the server session.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Unwrapped {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	s.clearLocked()
	s.mu.Unlock()

	if err := s.backend.Logout(ctx); err != nil && !errors.Is(err, common.ErrSessionExpired) {
		return err
	}
	return nil
}
