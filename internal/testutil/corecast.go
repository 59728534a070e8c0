// Package testutil runs an in-process CoreCast server over bufconn.
package testutil

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/fystack/corecast-client/internal/schema"
)

// Target is the address to dial together with Server.DialOptions.
const Target = "passthrough:///bufnet"

const bufSize = 1024 * 1024

// Call is one stream opened against the server.
type Call struct {
	Method   string
	Metadata metadata.MD
	Request  *dynamicpb.Message
}

// Handler serves one call after its request has been read.
type Handler func(call *Call, stream grpc.ServerStream) error

type Server struct {
	lis     *bufconn.Listener
	srv     *grpc.Server
	handler Handler

	mu    sync.Mutex
	calls []*Call
}

// NewServer starts a server that accepts every CoreCast method and hands it
// to h. It is stopped when the test ends.
func NewServer(t testing.TB, h Handler) *Server {
	t.Helper()
	s := &Server{
		lis:     bufconn.Listen(bufSize),
		handler: h,
	}
	s.srv = grpc.NewServer(grpc.UnknownServiceHandler(s.serve))
	go func() { _ = s.srv.Serve(s.lis) }()
	t.Cleanup(s.srv.Stop)
	return s
}

// DialOptions routes Target through the in-memory listener.
func (s *Server) DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return s.lis.DialContext(ctx)
		}),
	}
}

// Conn dials the server directly, bypassing the rpc package.
func (s *Server) Conn(t testing.TB) *grpc.ClientConn {
	t.Helper()
	opts := append(s.DialOptions(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	conn, err := grpc.NewClient(Target, opts...)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *Server) Calls() []*Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Call(nil), s.calls...)
}

func (s *Server) serve(_ any, stream grpc.ServerStream) error {
	full, ok := grpc.MethodFromServerStream(stream)
	if !ok {
		return status.Error(codes.Internal, "no method in stream")
	}
	name := full[strings.LastIndex(full, "/")+1:]
	info, err := schema.Method(name)
	if err != nil {
		return status.Error(codes.Unimplemented, err.Error())
	}

	req := dynamicpb.NewMessage(info.Request)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	md, _ := metadata.FromIncomingContext(stream.Context())
	call := &Call{Method: full, Metadata: md.Copy(), Request: req}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()

	if s.handler == nil {
		return nil
	}
	return s.handler(call, stream)
}

// Replay sends msgs in order and then ends the call with final, which may be
// nil for a clean end of stream.
func Replay(final error, msgs ...proto.Message) Handler {
	return func(_ *Call, stream grpc.ServerStream) error {
		for _, m := range msgs {
			if err := stream.SendMsg(m); err != nil {
				return err
			}
		}
		return final
	}
}

// Block holds the call open until the client goes away.
func Block(msgs ...proto.Message) Handler {
	return func(_ *Call, stream grpc.ServerStream) error {
		for _, m := range msgs {
			if err := stream.SendMsg(m); err != nil {
				return err
			}
		}
		<-stream.Context().Done()
		return stream.Context().Err()
	}
}

// NewMessage returns an empty dynamic message of a CoreCast type.
func NewMessage(t testing.TB, name string) *dynamicpb.Message {
	t.Helper()
	md, err := schema.Message(name)
	if err != nil {
		t.Fatal(err)
	}
	return dynamicpb.NewMessage(md)
}
