package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// DecodeEvent parses a payload published by Emitter.
func DecodeEvent(data []byte) (StreamEvent, error) {
	var ev StreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return StreamEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type != EventType {
		return StreamEvent{}, fmt.Errorf("decode event: unexpected type %q", ev.Type)
	}
	return ev, nil
}

// Tailer hands every event published on a subject to fn.
type Tailer struct {
	subject string
	fn      func(subject string, ev StreamEvent)
	logger  *slog.Logger
}

func NewTailer(subject string, logger *slog.Logger, fn func(subject string, ev StreamEvent)) *Tailer {
	return &Tailer{subject: subject, fn: fn, logger: logger}
}

// Run subscribes on nc and blocks until ctx is done.
func (t *Tailer) Run(ctx context.Context, nc *nats.Conn) error {
	sub, err := nc.Subscribe(t.subject, t.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", t.subject, err)
	}
	t.logger.Info("Subscribed", "subject", t.subject)

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		t.logger.Warn("Unsubscribe failed", "subject", t.subject, "err", err)
	}
	return nil
}

func (t *Tailer) handle(msg *nats.Msg) {
	ev, err := DecodeEvent(msg.Data)
	if err != nil {
		t.logger.Warn("Skipping message", "subject", msg.Subject, "err", err)
		return
	}
	t.fn(msg.Subject, ev)
}
