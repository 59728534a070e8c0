package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"

	"github.com/fystack/corecast-client/internal/config"
	"github.com/fystack/corecast-client/internal/dispatcher"
	"github.com/fystack/corecast-client/internal/events"
	"github.com/fystack/corecast-client/internal/logger"
	"github.com/fystack/corecast-client/internal/metrics"
	"github.com/fystack/corecast-client/internal/render"
	"github.com/fystack/corecast-client/internal/rpc"
	"github.com/fystack/corecast-client/internal/signals"
	"github.com/fystack/corecast-client/internal/subscription"
)

type options struct {
	configPath string
	logLevel   string

	stdout io.Writer
	stderr io.Writer

	// dialOpts is appended to the default gRPC options; tests route the
	// channel through an in-memory listener with it.
	dialOpts []grpc.DialOption

	// noSignals leaves process signal handling alone. signals overrides
	// the default SIGINT and SIGTERM.
	noSignals bool
	signals   []os.Signal
}

// run returns an error only for failures before the stream starts. A stream
// that ends normally, is interrupted, or is cut by the transport is a
// successful run.
func run(ctx context.Context, opts options) error {
	if opts.stdout == nil {
		opts.stdout = os.Stdout
	}
	if opts.stderr == nil {
		opts.stderr = os.Stderr
	}

	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintf(opts.stderr, "corecast: %v\n", err)
		return err
	}
	log := logger.New(&logger.Options{Level: level, Writer: opts.stderr})

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Error("Load config failed", "path", opts.configPath, "err", err)
		return err
	}
	log.Info("Config loaded", "path", opts.configPath)

	kind, err := subscription.ParseKind(cfg.Stream.Type)
	if err != nil {
		log.Error("Invalid stream type", "err", err)
		return err
	}
	filters := cfg.Filters.FilterSet()
	log.Debug("Filters loaded", "stream", kind.String(), "counts", filters.Counts())

	req, err := subscription.Build(kind, filters)
	if err != nil {
		log.Error("Build subscription request failed", "stream", kind.String(), "err", err)
		return err
	}

	enc, err := render.ParseEncoding(cfg.Output.Encoding)
	if err != nil {
		log.Error("Invalid output encoding", "err", err)
		return err
	}
	stdoutSink, err := render.NewWriter(cfg.Output.Format, opts.stdout)
	if err != nil {
		log.Error("Invalid output format", "err", err)
		return err
	}

	m := metrics.New()
	dispatchOpts := []dispatcher.Option{
		dispatcher.WithRenderer(render.New(enc)),
		dispatcher.WithSink("stdout", stdoutSink),
		dispatcher.WithMetrics(m),
		dispatcher.WithSummaryFields(cfg.Stream.SummaryFields...),
	}

	if cfg.Sink.NATS.Enabled() {
		nc, err := events.Connect(cfg.Sink.NATS, log)
		if err != nil {
			log.Error("Connect NATS failed", "url", cfg.Sink.NATS.URL, "err", err)
			return err
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				log.Warn("Drain NATS failed", "err", err)
			}
		}()
		emitter := events.NewEmitter(nc, cfg.Sink.NATS.Subject)
		dispatchOpts = append(dispatchOpts, dispatcher.WithSink("nats", emitter))
		log.Info("Publishing messages to NATS", "subject", emitter.Subject())
	}

	var metricsSrv *metrics.Server
	if cfg.Metrics.ListenAddress != "" {
		metricsSrv, err = m.Listen(cfg.Metrics.ListenAddress, log)
		if err != nil {
			log.Error("Start metrics server failed", "err", err)
			return err
		}
	}

	if !opts.noSignals {
		var ctrl *signals.Controller
		ctx, ctrl = signals.Install(ctx, log, opts.signals...)
		defer ctrl.Restore()
	}

	log.Info("Connecting to CoreCast", "address", cfg.Server.Address, "stream", kind.String())
	client, err := rpc.Dial(ctx, cfg.Server, log, opts.dialOpts...)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("Interrupted before the stream started")
			return nil
		}
		log.Error("Connect failed", "address", cfg.Server.Address, "err", err)
		return err
	}
	defer client.Close()

	d := dispatcher.New(client.Conn(), log, dispatchOpts...)
	res, err := runStream(ctx, d, kind, req, metricsSrv)
	if err != nil {
		log.Error("Metrics server failed", "stream", kind.String(), "err", err)
		return err
	}
	report(log, kind, res)
	if res.State == dispatcher.Idle {
		return res.Err
	}
	return nil
}

// runStream runs the dispatcher and, when configured, the metrics listener
// beside it. The listener stops once the stream reaches a terminal state.
func runStream(
	ctx context.Context,
	d *dispatcher.Dispatcher,
	kind subscription.Kind,
	req proto.Message,
	metricsSrv *metrics.Server,
) (dispatcher.Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	streamCtx, stop := context.WithCancel(gctx)
	defer stop()

	var res dispatcher.Result
	g.Go(func() error {
		defer stop()
		res = d.Run(streamCtx, kind, req)
		return nil
	})
	if metricsSrv != nil {
		g.Go(func() error {
			return metricsSrv.Serve(streamCtx)
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("metrics server: %w", err)
	}
	return res, nil
}

func report(log *slog.Logger, kind subscription.Kind, res dispatcher.Result) {
	attrs := []any{
		"stream", kind.String(),
		"state", res.State.String(),
		"received", res.Received,
		"rendered", res.Rendered,
		"render_errors", res.RenderErrors,
	}
	switch res.State {
	case dispatcher.TransportError:
		log.Warn("Stream closed by transport error", append(attrs, "err", res.Err)...)
	case dispatcher.Interrupted:
		log.Info("Stream stopped by signal", attrs...)
	default:
		log.Info("Stream finished", attrs...)
	}
}
