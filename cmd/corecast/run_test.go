package main

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/fystack/corecast-client/internal/config"
	"github.com/fystack/corecast-client/internal/subscription"
	"github.com/fystack/corecast-client/internal/testutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const bufnetConfig = `
server:
  address: "passthrough:///bufnet"
  authorization: "tok"
  insecure: true
  connect_timeout: 2s
stream:
  type: "%s"
filters:
  programs: ["P1"]
  senders: ["S1", "S2"]
output:
  encoding: hex
`

func TestRun_StreamsUntilTransportError(t *testing.T) {
	msg := testutil.NewMessage(t, "TransferMessage")
	transfer := msg.Mutable(msg.Descriptor().Fields().ByName("transfer")).Message()
	transfer.Set(transfer.Descriptor().Fields().ByName("sender"), protoreflect.ValueOfBytes([]byte{0xab, 0xcd}))

	srv := testutil.NewServer(t, testutil.Replay(status.Error(codes.Internal, "boom"), msg))
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), options{
		configPath: writeConfig(t, strings.Replace(bufnetConfig, "%s", "transfers", 1)),
		logLevel:   "INFO",
		stdout:     &stdout,
		stderr:     &stderr,
		dialOpts:   srv.DialOptions(),
		noSignals:  true,
	})
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stdout.String(), "sender: abcd")

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/solana.corecast.CoreCast/Transfers", calls[0].Method)
	assert.Equal(t, []string{"Bearer tok"}, calls[0].Metadata.Get("authorization"))

	senders, ok := subscription.Addresses(calls[0].Request, subscription.Sender)
	require.True(t, ok)
	assert.Equal(t, []string{"S1", "S2"}, senders)
	_, ok = subscription.Addresses(calls[0].Request, subscription.Program)
	assert.False(t, ok)

	assert.Contains(t, stderr.String(), "Stream closed by transport error")
	assert.NotContains(t, stderr.String(), "tok\"")
}

func TestRun_UnknownStreamTypeFailsBeforeConnecting(t *testing.T) {
	srv := testutil.NewServer(t, nil)
	var stderr bytes.Buffer

	err := run(context.Background(), options{
		configPath: writeConfig(t, strings.Replace(bufnetConfig, "%s", "nft_mints", 1)),
		stderr:     &stderr,
		dialOpts:   srv.DialOptions(),
		noSignals:  true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, subscription.ErrUnknownKind)
	assert.Empty(t, srv.Calls())
}

func TestRun_MissingConfig(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), options{
		configPath: filepath.Join(t.TempDir(), "missing.yaml"),
		stderr:     &stderr,
		noSignals:  true,
	})
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestRun_BadLogLevel(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), options{logLevel: "TRACE", stderr: &stderr, noSignals: true})
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), `unknown log level "TRACE"`)
}

func TestCommand_ErrorsReachStderr(t *testing.T) {
	cases := map[string][]string{
		"bad log level": {"--log-level", "TRACE"},
		"extra args":    {"dex_trades"},
		"unknown flag":  {"--no-such-flag"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			cmd := newCommand()
			cmd.SetOut(&stdout)
			cmd.SetErr(&stderr)
			cmd.SetArgs(args)

			require.Error(t, cmd.Execute())
			assert.NotEmpty(t, stderr.String())
		})
	}
}

// syncBuffer lets the test read stdout while run is still writing to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_SignalInterruptsBlockedStream(t *testing.T) {
	prev := make(chan os.Signal, 4)
	signal.Notify(prev, syscall.SIGUSR1)
	defer signal.Stop(prev)

	msg := testutil.NewMessage(t, "TransferMessage")
	transfer := msg.Mutable(msg.Descriptor().Fields().ByName("transfer")).Message()
	transfer.Set(transfer.Descriptor().Fields().ByName("amount"), protoreflect.ValueOfUint64(5))
	srv := testutil.NewServer(t, testutil.Block(msg))

	stdout := &syncBuffer{}
	var stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- run(context.Background(), options{
			configPath: writeConfig(t, strings.Replace(bufnetConfig, "%s", "transfers", 1)),
			logLevel:   "INFO",
			stdout:     stdout,
			stderr:     &stderr,
			dialOpts:   srv.DialOptions(),
			signals:    []os.Signal{syscall.SIGUSR1},
		})
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "amount: 5")
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the signal")
	}
	assert.Contains(t, stderr.String(), "Stream stopped by signal")

	// Drain the copy delivered while run was listening, then check the
	// earlier subscriber is the only one left.
	for len(prev) > 0 {
		<-prev
	}
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))
	select {
	case <-prev:
	case <-time.After(2 * time.Second):
		t.Fatal("signal not delivered to the previous handler after run returned")
	}
}

func TestCommand_Flags(t *testing.T) {
	cmd := newCommand()
	assert.Equal(t, defaultConfigPath, cmd.Flags().Lookup("config").DefValue)
	assert.Equal(t, "INFO", cmd.Flags().Lookup("log-level").DefValue)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--no-such-flag"})
	assert.Error(t, cmd.Execute())
}
