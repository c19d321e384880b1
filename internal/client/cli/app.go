package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/client/session"
	"github.com/dmitrijs2005/cryptnotes/internal/client/storage"
	"github.com/dmitrijs2005/cryptnotes/internal/client/vault"
	"github.com/dmitrijs2005/cryptnotes/internal/logging"
)

const (
	// idleCheckInterval is how often the watcher looks for an idle session.
	idleCheckInterval = time.Second
	// idleWarningLead is how long before idle logout the user is warned.
	idleWarningLead = time.Minute
)

// noteVault is the part of vault.Vault the REPL drives.
type noteVault interface {
	Register(ctx context.Context, username, email string, password []byte) (string, error)
	Login(ctx context.Context, username string, password []byte) error
	Logout(ctx context.Context) error
	CreateNote(ctx context.Context, title, content string) (*vault.Note, error)
	ListNotes(ctx context.Context) ([]*vault.Note, error)
	GetNote(ctx context.Context, id string) (*vault.Note, error)
	UpdateNote(ctx context.Context, id, title, content string) (*vault.Note, error)
	DeleteNote(ctx context.Context, id string) error
	Export(ctx context.Context) (*storage.ExportResult, error)
}

// serverSession reports and extends the server side of the session.
type serverSession interface {
	SessionInfo(ctx context.Context) (*storage.LoginResult, error)
	RefreshSession(ctx context.Context) (*storage.LoginResult, error)
}

type idleSession interface {
	State() session.State
	Touch()
	IdleRemaining() time.Duration
	ExpireIfIdle(ctx context.Context) bool
}

type App struct {
	vault   noteVault
	session idleSession
	server  serverSession
	logger  logging.Logger
	reader  *bufio.Reader

	mu       sync.Mutex
	out      io.Writer
	userName string
}

func NewApp(v *vault.Vault, server serverSession, l logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		vault:   v,
		session: v.Session(),
		server:  server,
		logger:  l,
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

// Run blocks until the user quits or input ends, then closes any open
// session.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartIdleWatcher(ctx, idleCheckInterval)

	a.printf("Welcome to cryptnotes (type 'help' for commands)\n")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)

	if a.isLoggedIn() {
		_ = a.vault.Logout(context.WithoutCancel(ctx))
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == session.Unwrapped
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.userName == "" || a.session.State() != session.Unwrapped {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// StartIdleWatcher wipes the keys once the session has been idle for the
// window reported by the server. It warns once per idle period when less
// than idleWarningLead is left.
func (a *App) StartIdleWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	warned := false
	for {
		select {
		case <-ticker.C:
			if a.session.ExpireIfIdle(ctx) {
				warned = false
				a.mu.Lock()
				a.userName = ""
				a.mu.Unlock()
				a.warn("Session expired after inactivity, please log in again")
				continue
			}
			if !a.isLoggedIn() {
				warned = false
				continue
			}

			left := a.session.IdleRemaining()
			switch {
			case left > idleWarningLead:
				warned = false
			case left > 0 && !warned:
				warned = true
				a.warn(fmt.Sprintf("Session ends in %s due to inactivity, type 'refresh' to stay logged in",
					left.Round(time.Second)))
			}
		case <-ctx.Done():
			return
		}
	}
}
