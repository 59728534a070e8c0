package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/fystack/corecast-client/internal/config"
	"github.com/fystack/corecast-client/internal/events"
	"github.com/fystack/corecast-client/internal/logger"
	"github.com/fystack/corecast-client/internal/signals"
)

// corecast-tail prints the events corecast republishes to NATS.
func main() {
	if err := newCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		natsURL  string
		subject  string
		logLevel string
	)
	defaultURL := os.Getenv("NATS_URL")
	if defaultURL == "" {
		defaultURL = nats.DefaultURL
	}

	cmd := &cobra.Command{
		Use:          "corecast-tail",
		Short:        "Print CoreCast events published on NATS",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log := logger.New(&logger.Options{Level: level, Writer: cmd.ErrOrStderr()})

			nc, err := events.Connect(config.NATSConfig{URL: natsURL, Subject: subject}, log)
			if err != nil {
				return err
			}
			defer nc.Close()

			ctx, ctrl := signals.Install(cmd.Context(), log)
			defer ctrl.Restore()

			out := cmd.OutOrStdout()
			return events.NewTailer(subject, log, func(subj string, ev events.StreamEvent) {
				printEvent(out, subj, ev)
			}).Run(ctx, nc)
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", defaultURL, "NATS server URL")
	cmd.Flags().StringVar(&subject, "subject", config.DefaultNATSSubject, "Subject to subscribe to, wildcards allowed")
	cmd.Flags().StringVar(&logLevel, "log-level", "INFO", "Log level: DEBUG, INFO, WARNING or ERROR")
	return cmd
}

func printEvent(w io.Writer, subject string, ev events.StreamEvent) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		data = []byte(fmt.Sprintf("%q", err.Error()))
	}
	ts := time.UnixMilli(ev.Timestamp).UTC().Format(time.RFC3339Nano)
	fmt.Fprintf(w, "[%s] %s %s %s\n", subject, ts, ev.Stream, data)
}
