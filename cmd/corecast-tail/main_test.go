package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fystack/corecast-client/internal/events"
)

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, "corecast.stream", events.StreamEvent{
		Type:      events.EventType,
		Stream:    "dex_trades",
		Data:      map[string]any{"slot": 9},
		Timestamp: 1700000000000,
	})
	assert.Equal(t, "[corecast.stream] 2023-11-14T22:13:20Z dex_trades {\"slot\":9}\n", buf.String())
}

func TestCommand_Defaults(t *testing.T) {
	cmd := newCommand()
	assert.Equal(t, "corecast.stream", cmd.Flags().Lookup("subject").DefValue)
	assert.Equal(t, "INFO", cmd.Flags().Lookup("log-level").DefValue)
}
