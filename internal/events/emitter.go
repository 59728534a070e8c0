// Package events republishes rendered stream messages to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fystack/corecast-client/internal/render"
)

// StreamEvent is the JSON payload published for every message.
type StreamEvent struct {
	Type      string         `json:"type"`
	Stream    string         `json:"stream"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

const EventType = "corecast.message"

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Emitter is a render.Sink that publishes each message to one subject.
type Emitter struct {
	pub     Publisher
	subject string
}

func NewEmitter(pub Publisher, subject string) *Emitter {
	return &Emitter{pub: pub, subject: subject}
}

func (e *Emitter) Subject() string { return e.subject }

func (e *Emitter) Emit(_ context.Context, ev render.Event) error {
	data, err := json.Marshal(StreamEvent{
		Type:      EventType,
		Stream:    ev.Stream,
		Data:      render.ToMap(ev.Nodes),
		Timestamp: ev.Timestamp.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := e.pub.Publish(e.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", e.subject, err)
	}
	return nil
}
