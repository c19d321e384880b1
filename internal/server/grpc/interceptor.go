package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/rpc"
	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const sessionKey ctxKey = "session"

func sessionFromContext(ctx context.Context) (*models.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*models.Session)
	return sess, ok && sess != nil
}

func tokenFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
		return values[0]
	}
	return ""
}

// accessTokenInterceptor resolves the bearer token of every non-public
// method to a live session and slides its expiry.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if rpc.IsPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	token := tokenFromContext(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	sess, err := s.sessions.Authenticate(ctx, token)
	if err != nil {
		return nil, s.toStatus(ctx, info.FullMethod, err)
	}

	return handler(context.WithValue(ctx, sessionKey, sess), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.OK:
		s.logger.Debug(ctx, "request", args...)
	case codes.Internal, codes.Unknown:
		s.logger.Error(ctx, "request failed", args...)
	default:
		s.logger.Info(ctx, "request rejected", args...)
	}
	return resp, err
}
