// Package server wires configuration, storage, services and transports
// into the cryptnotes server process and runs it until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/dbx"
	"github.com/dmitrijs2005/cryptnotes/internal/logging"
	"github.com/dmitrijs2005/cryptnotes/internal/server/archive"
	"github.com/dmitrijs2005/cryptnotes/internal/server/config"
	"github.com/dmitrijs2005/cryptnotes/internal/server/httpapi"
	"github.com/dmitrijs2005/cryptnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cryptnotes/internal/server/services"
	"go.uber.org/zap"

	gs "github.com/dmitrijs2005/cryptnotes/internal/server/grpc"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	zap            *zap.Logger
	db             *sql.DB
	dialect        dbx.Dialect
	accountService *services.AccountService
	sessionService *services.SessionService
	noteService    *services.NoteService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, base, err := logging.NewZap(c.LogMode)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, m, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var exporter services.Exporter
	s3e, err := archive.NewS3Exporter(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("export init error: %w", err)
	}
	if s3e != nil {
		exporter = s3e
	}

	return &App{
		config:         c,
		logger:         logger,
		zap:            base,
		db:             db,
		dialect:        m.Dialect(),
		accountService: services.NewAccountService(db, m, c),
		sessionService: services.NewSessionService(db, m, c),
		noteService:    services.NewNoteService(db, m, exporter),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accountService, app.sessionService, app.noteService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := httpapi.NewHandler(app.db, app.sessionService.IdleTimeout(), app.logger)
	if err := h.Run(ctx, app.config.EndpointAddrHTTP); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

type sessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// purgeSessions removes expired sessions on every tick until ctx ends.
func purgeSessions(ctx context.Context, p sessionPurger, interval time.Duration, l logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				l.Error(ctx, "session purge failed", "error", err.Error())
				continue
			}
			if n > 0 {
				l.Debug(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"grpc", app.config.EndpointAddrGRPC,
		"http", app.config.EndpointAddrHTTP,
		"dialect", string(app.dialect),
		"idle_timeout", app.config.SessionIdleTimeout,
		"export_enabled", app.config.ExportEnabled(),
	)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		purgeSessions(ctx, app.sessionService, app.config.SessionPurgeInterval, app.logger)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
	app.logger.Info(ctx, "Stopped")
	_ = app.zap.Sync()
}
