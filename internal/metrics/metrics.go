// Package metrics exposes Prometheus instruments for the stream loop.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "corecast"

// Metrics contains the stream instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	MessagesReceived *prometheus.CounterVec
	MessagesRendered *prometheus.CounterVec
	RenderErrors     *prometheus.CounterVec
	SinkErrors       *prometheus.CounterVec
	StreamState      *prometheus.GaugeVec
	Terminations     *prometheus.CounterVec
	LastMessage      *prometheus.GaugeVec
}

// New creates the instruments and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "messages",
				Name:      "received_total",
				Help:      "Total number of stream messages received",
			},
			[]string{"stream"},
		),

		MessagesRendered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "messages",
				Name:      "rendered_total",
				Help:      "Total number of stream messages rendered to every sink",
			},
			[]string{"stream"},
		),

		RenderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "messages",
				Name:      "render_errors_total",
				Help:      "Total number of messages that failed to render",
			},
			[]string{"stream"},
		),

		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sink",
				Name:      "errors_total",
				Help:      "Total number of sink emit failures",
			},
			[]string{"stream", "sink"},
		),

		StreamState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "state",
				Help:      "Current dispatcher state (0=idle, 1=connected, 2=streaming, 3=normal, 4=transport_error, 5=interrupted)",
			},
			[]string{"stream"},
		),

		Terminations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "terminations_total",
				Help:      "Streams ended, by terminal state",
			},
			[]string{"stream", "state"},
		),

		LastMessage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "last_message_timestamp_seconds",
				Help:      "Unix time of the most recent message",
			},
			[]string{"stream"},
		),
	}

	m.registry.MustRegister(
		m.MessagesReceived,
		m.MessagesRendered,
		m.RenderErrors,
		m.SinkErrors,
		m.StreamState,
		m.Terminations,
		m.LastMessage,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordReceived(stream string, at time.Time) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(stream).Inc()
	m.LastMessage.WithLabelValues(stream).Set(float64(at.Unix()))
}

func (m *Metrics) RecordRendered(stream string) {
	if m == nil {
		return
	}
	m.MessagesRendered.WithLabelValues(stream).Inc()
}

func (m *Metrics) RecordRenderError(stream string) {
	if m == nil {
		return
	}
	m.RenderErrors.WithLabelValues(stream).Inc()
}

func (m *Metrics) RecordSinkError(stream, sink string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(stream, sink).Inc()
}

// RecordState sets the state gauge. state is the numeric dispatcher state.
func (m *Metrics) RecordState(stream string, state int) {
	if m == nil {
		return
	}
	m.StreamState.WithLabelValues(stream).Set(float64(state))
}

func (m *Metrics) RecordTermination(stream, state string) {
	if m == nil {
		return
	}
	m.Terminations.WithLabelValues(stream, state).Inc()
}

// Server serves the registry on /metrics.
type Server struct {
	srv    *http.Server
	lis    net.Listener
	logger *slog.Logger
}

// Listen binds addr right away so a bad address fails at startup.
func (m *Metrics) Listen(addr string, logger *slog.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return &Server{
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		lis:    lis,
		logger: logger,
	}, nil
}

func (s *Server) Addr() string { return s.lis.Addr().String() }

// Serve runs until ctx is done, then shuts the listener down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Metrics server started", "addr", s.Addr())
		errCh <- s.srv.Serve(s.lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		s.logger.Debug("Metrics server stopped")
		return nil
	}
}
