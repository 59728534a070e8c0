package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Event is one rendered message handed to a sink.
type Event struct {
	Stream    string
	Timestamp time.Time
	Nodes     []Node
}

// Sink receives rendered messages. Emit is called from the stream loop only.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// TextWriter prints the indented dump format.
type TextWriter struct {
	w io.Writer
}

func NewTextWriter(w io.Writer) *TextWriter { return &TextWriter{w: w} }

func (t *TextWriter) Emit(_ context.Context, ev Event) error {
	var b strings.Builder
	writeNodes(&b, ev.Nodes, 0)
	b.WriteByte('\n')
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		return fmt.Errorf("%w: write text: %w", ErrRender, err)
	}
	return nil
}

// WriteText renders nodes in the indented dump format.
func WriteText(w io.Writer, nodes []Node) error {
	var b strings.Builder
	writeNodes(&b, nodes, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeNodes(b *strings.Builder, nodes []Node, indent int) {
	prefix := strings.Repeat(" ", indent)
	for _, n := range nodes {
		label := n.Name
		if n.Oneof {
			label += " (oneof)"
		}
		switch n.Kind {
		case KindList:
			fmt.Fprintf(b, "%s%s (repeated):\n", prefix, label)
			for _, item := range n.Children {
				if item.Kind == KindMessage {
					fmt.Fprintf(b, "%s  [%d]:\n", prefix, item.Index)
					writeNodes(b, item.Children, indent+4)
					continue
				}
				fmt.Fprintf(b, "%s  [%d]: %v\n", prefix, item.Index, item.Value)
			}
		case KindMessage:
			fmt.Fprintf(b, "%s%s:\n", prefix, label)
			writeNodes(b, n.Children, indent+4)
		default:
			fmt.Fprintf(b, "%s%s: %v\n", prefix, label, n.Value)
		}
	}
}

// JSONWriter prints one JSON object per message.
type JSONWriter struct {
	enc *json.Encoder
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONWriter{enc: enc}
}

func (j *JSONWriter) Emit(_ context.Context, ev Event) error {
	if err := j.enc.Encode(ToMap(ev.Nodes)); err != nil {
		return fmt.Errorf("%w: write json: %w", ErrRender, err)
	}
	return nil
}

// NewWriter picks the stdout sink for an output format.
func NewWriter(format string, w io.Writer) (Sink, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextWriter(w), nil
	case "json":
		return NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: unknown output format %q", ErrRender, format)
	}
}
