package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// protectedMethods need a valid session token.
var protectedMethods = map[string]bool{
	api.MethodChangePassword: true,
	api.MethodMe:             true,
	api.MethodAssignRole:     true,
}

// accessTokenFromContext reads the token from the access_token metadata
// key, falling back to "authorization: Bearer <token>".
func accessTokenFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 && values[0] != "" {
		return values[0]
	}
	for _, v := range md.Get(common.AuthorizationHeaderName) {
		if scheme, token, ok := strings.Cut(v, " "); ok && strings.EqualFold(scheme, common.TokenType) {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	accessToken := accessTokenFromContext(ctx)
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, common.ErrMalformedToken.Error())
	}

	claims, err := s.auth.VerifyToken(accessToken)
	if err != nil {
		return nil, api.ToStatus(err)
	}

	return handler(context.WithValue(ctx, claimsKey, claims), req)
}

// claimsFromContext returns the claims stored by accessTokenInterceptor.
func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	if code == codes.Internal || code == codes.Unknown {
		s.logger.Error(ctx, "rpc failed", args...)
	} else {
		s.logger.Debug(ctx, "rpc", args...)
	}

	return resp, err
}
