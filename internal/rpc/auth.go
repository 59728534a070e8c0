package rpc

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const authorizationKey = "authorization"

// bearerAuth attaches "authorization: Bearer <token>" to every outgoing call.
type bearerAuth struct {
	token  string
	logger *slog.Logger
}

// newBearerAuth accepts the token with or without a leading "Bearer ".
func newBearerAuth(token string, logger *slog.Logger) *bearerAuth {
	token = strings.TrimSpace(token)
	if len(token) > len("bearer ") && strings.EqualFold(token[:len("bearer ")], "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	return &bearerAuth{token: token, logger: logger}
}

func (a *bearerAuth) outgoing(ctx context.Context, method string) context.Context {
	if a.token == "" {
		a.logger.Warn("No authorization token provided - connection may fail", "method", method)
		return ctx
	}
	a.logger.Debug("Authorization metadata attached", "method", method)
	return metadata.AppendToOutgoingContext(ctx, authorizationKey, "Bearer "+a.token)
}

func (a *bearerAuth) unary(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(a.outgoing(ctx, method), method, req, reply, cc, opts...)
}

func (a *bearerAuth) stream(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(a.outgoing(ctx, method), desc, cc, method, opts...)
}
