// Package dispatcher drives one server-streaming CoreCast subscription from
// open to a terminal state, rendering every message to the configured sinks.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/fystack/corecast-client/internal/metrics"
	"github.com/fystack/corecast-client/internal/render"
	"github.com/fystack/corecast-client/internal/subscription"
)

// ErrTransport wraps any failure of the call itself.
var ErrTransport = errors.New("transport error")

// Result is the outcome of Run.
type Result struct {
	State        State
	Received     int
	Rendered     int
	RenderErrors int
	// Err is set only for TransportError and for requests that could not be
	// issued at all.
	Err error
}

type namedSink struct {
	name string
	sink render.Sink
}

type Dispatcher struct {
	conn     grpc.ClientConnInterface
	logger   *slog.Logger
	renderer *render.Renderer
	sinks    []namedSink
	metrics  *metrics.Metrics
	summary  []string
	now      func() time.Time

	state atomic.Int32
}

type Option func(*Dispatcher)

func WithRenderer(r *render.Renderer) Option {
	return func(d *Dispatcher) { d.renderer = r }
}

// WithSink adds an output; name labels its errors in logs and metrics.
func WithSink(name string, s render.Sink) Option {
	return func(d *Dispatcher) { d.sinks = append(d.sinks, namedSink{name: name, sink: s}) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithSummaryFields sets dot paths that are logged at debug for each message.
func WithSummaryFields(paths ...string) Option {
	return func(d *Dispatcher) { d.summary = append(d.summary, paths...) }
}

func withClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New panics when conn is nil: a dispatcher without a channel is a wiring bug.
func New(conn grpc.ClientConnInterface, logger *slog.Logger, opts ...Option) *Dispatcher {
	if conn == nil {
		panic("dispatcher: nil connection")
	}
	d := &Dispatcher{
		conn:   conn,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.renderer == nil {
		d.renderer = render.New(render.Base58)
	}
	return d
}

func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

func (d *Dispatcher) setState(kind subscription.Kind, s State) {
	d.state.Store(int32(s))
	d.metrics.RecordState(kind.String(), int(s))
}

// Run opens the stream for kind with req and consumes it until the server
// ends it, the call fails or ctx is cancelled. It never retries.
func (d *Dispatcher) Run(ctx context.Context, kind subscription.Kind, req proto.Message) Result {
	var res Result
	method, err := kind.Method()
	if err != nil {
		res.State = Idle
		res.Err = err
		return res
	}

	d.setState(kind, Connected)
	d.logger.Info("Subscribing to "+kind.Label(),
		"stream", kind.String(),
		"filters", subscription.Describe(kind, req),
	)

	stream, err := d.open(ctx, method.Path, req)
	if err != nil {
		return d.finish(ctx, kind, res, err, true)
	}

	d.setState(kind, Streaming)
	d.logger.Debug("Stream open", "stream", kind.String(), "method", method.Path)

	for {
		if ctx.Err() != nil {
			return d.finish(ctx, kind, res, ctx.Err(), false)
		}
		msg := dynamicpb.NewMessage(method.Response)
		if err := stream.RecvMsg(msg); err != nil {
			return d.finish(ctx, kind, res, err, false)
		}
		d.handle(ctx, kind, msg, &res)
	}
}

func (d *Dispatcher) open(ctx context.Context, path string, req proto.Message) (grpc.ClientStream, error) {
	stream, err := d.conn.NewStream(ctx, &grpc.StreamDesc{ServerStreams: true}, path)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return stream, nil
}

// finish maps the error that ended the stream to a terminal state.
func (d *Dispatcher) finish(ctx context.Context, kind subscription.Kind, res Result, err error, initial bool) Result {
	attrs := []any{
		"stream", kind.String(),
		"received", res.Received,
		"rendered", res.Rendered,
		"render_errors", res.RenderErrors,
	}

	switch {
	case errors.Is(err, io.EOF):
		res.State = Normal
		d.logger.Info("Stream completed", attrs...)
	case ctx.Err() != nil:
		res.State = Interrupted
		d.logger.Info("Stream interrupted", attrs...)
	default:
		res.State = TransportError
		res.Err = fmt.Errorf("%w: %w", ErrTransport, err)
		if initial {
			d.logger.Error("Failed to open stream", append(attrs, "err", err)...)
		} else {
			d.logger.Debug("Stream ended by transport", append(attrs, "err", err)...)
		}
	}

	d.setState(kind, res.State)
	d.metrics.RecordTermination(kind.String(), res.State.String())
	return res
}

// handle renders one message. Nothing that goes wrong here ends the stream.
func (d *Dispatcher) handle(ctx context.Context, kind subscription.Kind, msg protoreflect.ProtoMessage, res *Result) {
	stream := kind.String()
	received := d.now()
	res.Received++
	d.metrics.RecordReceived(stream, received)

	defer func() {
		if r := recover(); r != nil {
			res.RenderErrors++
			d.metrics.RecordRenderError(stream)
			d.logger.Error("Panic while handling message", "stream", stream, "panic", fmt.Sprint(r))
		}
	}()

	if len(d.summary) > 0 && d.logger.Enabled(ctx, slog.LevelDebug) {
		d.logSummary(stream, msg.ProtoReflect())
	}

	nodes, err := d.renderer.Build(msg.ProtoReflect())
	if err != nil {
		res.RenderErrors++
		d.metrics.RecordRenderError(stream)
		d.logger.Error("Failed to render message", "stream", stream, "err", err)
		return
	}

	ev := render.Event{Stream: stream, Timestamp: received, Nodes: nodes}
	failed := false
	for _, s := range d.sinks {
		if err := s.sink.Emit(ctx, ev); err != nil {
			failed = true
			d.metrics.RecordSinkError(stream, s.name)
			d.logger.Error("Failed to emit message", "stream", stream, "sink", s.name, "err", err)
		}
	}
	if failed {
		res.RenderErrors++
		d.metrics.RecordRenderError(stream)
		return
	}
	res.Rendered++
	d.metrics.RecordRendered(stream)
}

func (d *Dispatcher) logSummary(stream string, m protoreflect.Message) {
	attrs := make([]any, 0, 2+2*len(d.summary))
	attrs = append(attrs, "stream", stream)
	for _, path := range d.summary {
		v, err := d.renderer.Lookup(m, path)
		if err != nil {
			v = "<" + err.Error() + ">"
		}
		attrs = append(attrs, path, v)
	}
	d.logger.Debug("Message received", attrs...)
}
