// Package rpc owns the gRPC channel to the CoreCast service.
package rpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/fystack/corecast-client/internal/config"
)

// ErrConnection covers unreachable addresses and failed handshakes.
var ErrConnection = errors.New("connection failed")

type Client struct {
	conn   *grpc.ClientConn
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Dial opens the channel and waits until it is ready, bounded by
// cfg.ConnectTimeout. Extra options are appended after the defaults.
func Dial(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger, extra ...grpc.DialOption) (*Client, error) {
	var creds credentials.TransportCredentials
	if cfg.Insecure {
		creds = insecure.NewCredentials()
		logger.Debug("Using insecure gRPC transport")
	} else {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
		logger.Debug("Using TLS gRPC transport")
	}

	auth := newBearerAuth(cfg.Authorization, logger)
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithChainUnaryInterceptor(auth.unary),
		grpc.WithChainStreamInterceptor(auth.stream),
	}
	opts = append(opts, DefaultTransport.DialOptions()...)
	opts = append(opts, extra...)

	logger.Debug("Connecting to gRPC server", "address", cfg.Address, "transport", DefaultTransport)

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, cfg.Address, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := waitReady(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, cfg.Address, err)
	}

	logger.Debug("gRPC connection established", "address", cfg.Address)
	return &Client{conn: conn, logger: logger}, nil
}

func waitReady(ctx context.Context, conn *grpc.ClientConn) error {
	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.TransientFailure, connectivity.Shutdown:
			return fmt.Errorf("channel %s", state)
		}
		if !conn.WaitForStateChange(ctx, state) {
			return ctx.Err()
		}
	}
}

// Conn exposes the channel for issuing calls. It is nil on a nil client.
func (c *Client) Conn() grpc.ClientConnInterface {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn
}

// Close releases the channel. It is safe to call repeatedly and on a nil or
// never-connected client.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
		c.logger.Debug("gRPC connection closed")
	})
	return c.closeErr
}
