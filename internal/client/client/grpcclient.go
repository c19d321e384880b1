package client

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/client/storage"
	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      rpc.NotesClient

	mu          sync.RWMutex
	accessToken string
}

var (
	_ storage.Facade        = (*GRPCClient)(nil)
	_ storage.Authenticator = (*GRPCClient)(nil)
)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) setToken(t string) {
	s.mu.Lock()
	s.accessToken = t
	s.mu.Unlock()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if t := s.token(); t != "" && !rpc.IsPublic(method) {
		ctx = withAccessToken(ctx, t)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient dials endpointURL lazily; no I/O happens until the first
// call. Every call is bounded by timeout.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = rpc.NewNotesClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) CreateAccount(ctx context.Context, r *storage.Registration) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Register(ctx, &rpc.RegisterRequest{
		Username:          r.Username,
		Email:             r.Email,
		PublicKey:         r.PublicKey,
		WrappedPrivateKey: r.WrappedPrivateKey,
		PrivateKeyIV:      r.PrivateKeyIV,
		WrappedNoteKey:    r.WrappedNoteKey,
		Salt:              r.Salt,
		Verifier:          r.Verifier,
	})
	if err != nil {
		return "", rpc.FromStatus(err)
	}
	return resp.AccountID, nil
}

func (s *GRPCClient) FindKeyMaterial(ctx context.Context, username string) (*storage.KeyMaterial, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetKeyMaterial(ctx, &rpc.KeyMaterialRequest{Username: username})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}
	return &storage.KeyMaterial{
		Salt:              resp.Salt,
		PublicKey:         resp.PublicKey,
		WrappedPrivateKey: resp.WrappedPrivateKey,
		PrivateKeyIV:      resp.PrivateKeyIV,
		WrappedNoteKey:    resp.WrappedNoteKey,
	}, nil
}

// Login opens a server session and keeps its token for later calls.
func (s *GRPCClient) Login(ctx context.Context, username string, authKey []byte) (*storage.LoginResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Login(ctx, &rpc.LoginRequest{Username: username, AuthKey: authKey})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}
	s.setToken(resp.AccessToken)

	return &storage.LoginResult{
		AccountID:   resp.AccountID,
		IdleTimeout: resp.IdleTimeout(),
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

// Logout closes the server session. The local token is dropped even when
// the server cannot be reached.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if s.token() == "" {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.Logout(ctx, &rpc.Empty{})
	s.setToken("")
	return rpc.FromStatus(err)
}

func (s *GRPCClient) SessionInfo(ctx context.Context) (*storage.LoginResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.SessionInfo(ctx, &rpc.Empty{})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}
	return sessionResult(resp), nil
}

func (s *GRPCClient) RefreshSession(ctx context.Context) (*storage.LoginResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.RefreshSession(ctx, &rpc.Empty{})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}
	return sessionResult(resp), nil
}

func sessionResult(r *rpc.SessionResponse) *storage.LoginResult {
	return &storage.LoginResult{
		AccountID:   r.AccountID,
		IdleTimeout: time.Duration(r.IdleTimeoutMs) * time.Millisecond,
		ExpiresAt:   r.ExpiresAt,
	}
}

func toRecord(n *rpc.Note) *storage.NoteRecord {
	return &storage.NoteRecord{
		ID: n.ID,
		SealedNote: storage.SealedNote{
			EncryptedTitle:   n.EncryptedTitle,
			EncryptedContent: n.EncryptedContent,
			IV:               n.IV,
		},
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (s *GRPCClient) CreateNote(ctx context.Context, n *storage.SealedNote) (*storage.NoteRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.CreateNote(ctx, &rpc.CreateNoteRequest{
		EncryptedTitle:   n.EncryptedTitle,
		EncryptedContent: n.EncryptedContent,
		IV:               n.IV,
	})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}
	return toRecord(&resp.Note), nil
}

func (s *GRPCClient) ListNotes(ctx context.Context) ([]*storage.NoteRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ListNotes(ctx, &rpc.Empty{})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}

	out := make([]*storage.NoteRecord, 0, len(resp.Notes))
	for i := range resp.Notes {
		out = append(out, toRecord(&resp.Notes[i]))
	}
	return out, nil
}

func (s *GRPCClient) GetNote(ctx context.Context, id string) (*storage.NoteRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetNote(ctx, &rpc.NoteIDRequest{ID: id})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}
	return toRecord(&resp.Note), nil
}

func (s *GRPCClient) UpdateNote(ctx context.Context, id string, n *storage.SealedNote) (*storage.NoteRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.UpdateNote(ctx, &rpc.UpdateNoteRequest{
		ID:               id,
		EncryptedTitle:   n.EncryptedTitle,
		EncryptedContent: n.EncryptedContent,
		IV:               n.IV,
	})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}
	return toRecord(&resp.Note), nil
}

func (s *GRPCClient) DeleteNote(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.DeleteNote(ctx, &rpc.NoteIDRequest{ID: id})
	return rpc.FromStatus(err)
}

func (s *GRPCClient) ExportNotes(ctx context.Context) (*storage.ExportResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ExportNotes(ctx, &rpc.Empty{})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}
	return &storage.ExportResult{Key: resp.Key, URL: resp.URL, Count: resp.Count}, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &rpc.Empty{})
	if err != nil {
		return rpc.FromStatus(err)
	}
	if resp.Status != "OK" {
		return common.ErrUnavailable
	}
	return nil
}
