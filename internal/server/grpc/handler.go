package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/rpc"
	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus logs unexpected errors with their detail and hands the client
// only the mapped status.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	st := rpc.ToStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, "internal error", "method", method, "error", err.Error())
	}
	return st
}

func (s *GRPCServer) currentSession(ctx context.Context) (*models.Session, error) {
	sess, ok := sessionFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return sess, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	a, err := s.accounts.Register(ctx, &models.Account{
		Username:          req.Username,
		Email:             req.Email,
		Verifier:          req.Verifier,
		PublicKey:         req.PublicKey,
		WrappedPrivateKey: req.WrappedPrivateKey,
		PrivateKeyIV:      req.PrivateKeyIV,
		WrappedNoteKey:    req.WrappedNoteKey,
		Salt:              req.Salt,
	})
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodRegister, err)
	}

	s.logger.Info(ctx, "Registered", "username", req.Username, "account_id", a.ID)
	return &rpc.RegisterResponse{AccountID: a.ID}, nil
}

func (s *GRPCServer) GetKeyMaterial(ctx context.Context, req *rpc.KeyMaterialRequest) (*rpc.KeyMaterialResponse, error) {
	km, err := s.accounts.GetKeyMaterial(ctx, req.Username)
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodGetKeyMaterial, err)
	}
	return &rpc.KeyMaterialResponse{
		Salt:              km.Salt,
		PublicKey:         km.PublicKey,
		WrappedPrivateKey: km.WrappedPrivateKey,
		PrivateKeyIV:      km.PrivateKeyIV,
		WrappedNoteKey:    km.WrappedNoteKey,
	}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	a, err := s.accounts.VerifyCredentials(ctx, req.Username, req.AuthKey)
	if err != nil {
		if errors.Is(err, common.ErrAuthentication) {
			s.logger.Warn(ctx, "Login failed", "username", req.Username)
		}
		return nil, s.toStatus(ctx, rpc.MethodLogin, err)
	}

	issued, err := s.sessions.Open(ctx, a.ID)
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodLogin, err)
	}

	s.logger.Info(ctx, "Logged in", "username", req.Username, "session_id", issued.Session.ID)
	return &rpc.LoginResponse{
		AccountID:     a.ID,
		AccessToken:   issued.Token,
		IdleTimeoutMs: s.sessions.IdleTimeout().Milliseconds(),
		ExpiresAt:     issued.Session.ExpiresAt,
	}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	sess, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Close(ctx, sess.ID); err != nil {
		return nil, s.toStatus(ctx, rpc.MethodLogout, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) sessionResponse(sess *models.Session) *rpc.SessionResponse {
	return &rpc.SessionResponse{
		AccountID:     sess.AccountID,
		IdleTimeoutMs: s.sessions.IdleTimeout().Milliseconds(),
		ExpiresAt:     sess.ExpiresAt,
	}
}

// SessionInfo reports the session as extended by the interceptor.
func (s *GRPCServer) SessionInfo(ctx context.Context, _ *rpc.Empty) (*rpc.SessionResponse, error) {
	sess, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.sessionResponse(sess), nil
}

func (s *GRPCServer) RefreshSession(ctx context.Context, _ *rpc.Empty) (*rpc.SessionResponse, error) {
	sess, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	refreshed, err := s.sessions.Refresh(ctx, sess.ID)
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodRefreshSession, err)
	}
	return s.sessionResponse(refreshed), nil
}

func toNote(n *models.Note) rpc.Note {
	return rpc.Note{
		ID:               n.ID,
		EncryptedTitle:   n.EncryptedTitle,
		EncryptedContent: n.EncryptedContent,
		IV:               n.IV,
		CreatedAt:        n.CreatedAt,
		UpdatedAt:        n.UpdatedAt,
	}
}

func (s *GRPCServer) CreateNote(ctx context.Context, req *rpc.CreateNoteRequest) (*rpc.NoteResponse, error) {
	sess, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.notes.Create(ctx, sess.AccountID, &models.Note{
		EncryptedTitle:   req.EncryptedTitle,
		EncryptedContent: req.EncryptedContent,
		IV:               req.IV,
	})
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodCreateNote, err)
	}
	return &rpc.NoteResponse{Note: toNote(n)}, nil
}

func (s *GRPCServer) ListNotes(ctx context.Context, _ *rpc.Empty) (*rpc.ListNotesResponse, error) {
	sess, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.notes.List(ctx, sess.AccountID)
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodListNotes, err)
	}

	resp := &rpc.ListNotesResponse{Notes: make([]rpc.Note, 0, len(list))}
	for _, n := range list {
		resp.Notes = append(resp.Notes, toNote(n))
	}
	return resp, nil
}

func (s *GRPCServer) GetNote(ctx context.Context, req *rpc.NoteIDRequest) (*rpc.NoteResponse, error) {
	sess, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.notes.Get(ctx, sess.AccountID, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodGetNote, err)
	}
	return &rpc.NoteResponse{Note: toNote(n)}, nil
}

func (s *GRPCServer) UpdateNote(ctx context.Context, req *rpc.UpdateNoteRequest) (*rpc.NoteResponse, error) {
	sess, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.notes.Update(ctx, sess.AccountID, &models.Note{
		ID:               req.ID,
		EncryptedTitle:   req.EncryptedTitle,
		EncryptedContent: req.EncryptedContent,
		IV:               req.IV,
	})
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodUpdateNote, err)
	}
	return &rpc.NoteResponse{Note: toNote(n)}, nil
}

func (s *GRPCServer) DeleteNote(ctx context.Context, req *rpc.NoteIDRequest) (*rpc.Empty, error) {
	sess, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.notes.Delete(ctx, sess.AccountID, req.ID); err != nil {
		return nil, s.toStatus(ctx, rpc.MethodDeleteNote, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) ExportNotes(ctx context.Context, _ *rpc.Empty) (*rpc.ExportResponse, error) {
	sess, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.notes.Export(ctx, sess.AccountID)
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodExportNotes, err)
	}
	s.logger.Info(ctx, "Exported notes", "account_id", sess.AccountID, "key", res.Key, "count", res.Count)
	return &rpc.ExportResponse{Key: res.Key, URL: res.URL, Count: res.Count}, nil
}

func (s *GRPCServer) Ping(context.Context, *rpc.Empty) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}
