// Package grpc serves the Notes service over gRPC. It authenticates
// bearer tokens against server-side sessions, converts between wire
// messages and models, and maps service errors to status codes.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/cryptnotes/internal/logging"
	"github.com/dmitrijs2005/cryptnotes/internal/rpc"
	"github.com/dmitrijs2005/cryptnotes/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	rpc.UnimplementedNotesServer
	address  string
	accounts *services.AccountService
	sessions *services.SessionService
	notes    *services.NoteService
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, as *services.AccountService, ss *services.SessionService, ns *services.NoteService) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		accounts: as,
		sessions: ss,
		notes:    ns,
	}
}

// NewServer builds a grpc.Server with the interceptor chain and the Notes
// service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	rpc.RegisterNotesServer(srv, s)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	return srv.Serve(listen)
}
