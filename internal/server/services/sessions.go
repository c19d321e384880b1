package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/dbx"
	"github.com/dmitrijs2005/cryptnotes/internal/server/auth"
	"github.com/dmitrijs2005/cryptnotes/internal/server/config"
	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
	"github.com/dmitrijs2005/cryptnotes/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// IssuedSession is a freshly opened session and the bearer token for it.
type IssuedSession struct {
	Session *models.Session
	Token   string
}

// SessionService manages server-side sessions with a sliding idle window
// capped by a maximum lifetime.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	now         func() time.Time
}

func NewSessionService(db *sql.DB, repomanager repomanager.RepositoryManager, config *config.Config) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// IdleTimeout is the inactivity window applied to every session.
func (s *SessionService) IdleTimeout() time.Duration {
	return s.config.SessionIdleTimeout
}

func (s *SessionService) nextExpiry(sess *models.Session, now time.Time) time.Time {
	exp := now.Add(s.config.SessionIdleTimeout)
	if limit := sess.CreatedAt.Add(s.config.SessionMaxLifetime); s.config.SessionMaxLifetime > 0 && exp.After(limit) {
		return limit
	}
	return exp
}

// Open starts a session for accountID and signs a token that outlives it
// only up to the maximum lifetime.
func (s *SessionService) Open(ctx context.Context, accountID string) (*IssuedSession, error) {
	now := s.now().Truncate(time.Second)
	sess := &models.Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		CreatedAt: now,
	}
	sess.ExpiresAt = s.nextExpiry(sess, now)

	tokenExpiry := sess.ExpiresAt
	if s.config.SessionMaxLifetime > 0 {
		tokenExpiry = now.Add(s.config.SessionMaxLifetime)
	}
	token, err := auth.GenerateToken(accountID, sess.ID, []byte(s.config.SecretKey), now, tokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if err := s.repomanager.Sessions(s.db).Create(ctx, sess); err != nil {
		return nil, err
	}
	return &IssuedSession{Session: sess, Token: token}, nil
}

// Authenticate resolves token to a live session and slides its expiry.
// A missing or expired row is common.ErrSessionExpired.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	claims, err := auth.ParseToken(token, []byte(s.config.SecretKey))
	if err != nil {
		return nil, err
	}

	var (
		out     *models.Session
		expired bool
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Sessions(tx)
		sess, err := repo.Find(ctx, claims.SessionID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrSessionExpired
			}
			return err
		}
		if sess.AccountID != claims.AccountID {
			return common.ErrInvalidToken
		}

		now := s.now()
		if sess.Expired(now, s.config.SessionMaxLifetime) {
			expired = true
			return repo.Delete(ctx, sess.ID)
		}

		out, err = s.touch(ctx, tx, sess, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, common.ErrSessionExpired
	}
	return out, nil
}

func (s *SessionService) touch(ctx context.Context, db dbx.DBTX, sess *models.Session, now time.Time) (*models.Session, error) {
	exp := s.nextExpiry(sess, now)
	if err := s.repomanager.Sessions(db).Touch(ctx, sess.ID, exp); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrSessionExpired
		}
		return nil, err
	}
	out := *sess
	out.ExpiresAt = exp
	return &out, nil
}

// Info returns the session without extending it.
func (s *SessionService) Info(ctx context.Context, sessionID string) (*models.Session, error) {
	sess, err := s.repomanager.Sessions(s.db).Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrSessionExpired
		}
		return nil, err
	}
	return sess, nil
}

// Refresh pushes the session expiry to now plus the idle window.
func (s *SessionService) Refresh(ctx context.Context, sessionID string) (*models.Session, error) {
	sess, err := s.Info(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.touch(ctx, s.db, sess, s.now())
}

// Close deletes the session. Closing an already closed session is not an
// error.
func (s *SessionService) Close(ctx context.Context, sessionID string) error {
	return s.repomanager.Sessions(s.db).Delete(ctx, sessionID)
}

// PurgeExpired removes sessions whose expiry has passed.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
}
