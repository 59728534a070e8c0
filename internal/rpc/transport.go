package rpc

import (
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// TransportParams are the HTTP/2 and keepalive settings for the CoreCast
// channel. Event volume needs large windows and an aggressive keepalive to
// avoid silent stalls.
type TransportParams struct {
	InitialWindowSize     int32
	InitialConnWindowSize int32
	MaxRecvMsgSize        int
	MaxSendMsgSize        int

	KeepaliveTime       time.Duration
	KeepaliveTimeout    time.Duration
	PermitWithoutStream bool

	// HTTP/2 ping policing. grpc-go exposes no client-side setting for
	// these, so they are only reported.
	MaxPingsWithoutData        int
	MinTimeBetweenPings        time.Duration
	MinPingIntervalWithoutData time.Duration
}

var DefaultTransport = TransportParams{
	InitialWindowSize:     16 * 1024 * 1024,  // 16MB
	InitialConnWindowSize: 128 * 1024 * 1024, // 128MB
	MaxRecvMsgSize:        64 * 1024 * 1024,  // 64MB
	MaxSendMsgSize:        64 * 1024 * 1024,  // 64MB

	KeepaliveTime:       15 * time.Second,
	KeepaliveTimeout:    5 * time.Second,
	PermitWithoutStream: true,

	MaxPingsWithoutData:        0,
	MinTimeBetweenPings:        10 * time.Second,
	MinPingIntervalWithoutData: 300 * time.Second,
}

func (p TransportParams) DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithInitialWindowSize(p.InitialWindowSize),
		grpc.WithInitialConnWindowSize(p.InitialConnWindowSize),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(p.MaxRecvMsgSize),
			grpc.MaxCallSendMsgSize(p.MaxSendMsgSize),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                p.KeepaliveTime,
			Timeout:             p.KeepaliveTimeout,
			PermitWithoutStream: p.PermitWithoutStream,
		}),
	}
}

func (p TransportParams) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("initial_window", int(p.InitialWindowSize)),
		slog.Int("initial_conn_window", int(p.InitialConnWindowSize)),
		slog.Int("max_recv_msg", p.MaxRecvMsgSize),
		slog.Int("max_send_msg", p.MaxSendMsgSize),
		slog.Duration("keepalive_time", p.KeepaliveTime),
		slog.Duration("keepalive_timeout", p.KeepaliveTimeout),
		slog.Bool("keepalive_permit_without_calls", p.PermitWithoutStream),
		slog.Int("max_pings_without_data", p.MaxPingsWithoutData),
		slog.Duration("min_time_between_pings", p.MinTimeBetweenPings),
		slog.Duration("min_ping_interval_without_data", p.MinPingIntervalWithoutData),
	)
}
