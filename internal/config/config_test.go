package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/corecast-client/internal/subscription"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  address: "corecast.bitquery.io:443"
  authorization: "secret"
  insecure: false
stream:
  type: "dex_trades"
  summary_fields: ["block.slot", "trade.dex.protocol_name"]
filters:
  programs:
    - "P1"
    - "P2"
  tokens: ["T1"]
sink:
  nats:
    url: "nats://127.0.0.1:4222"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "corecast.bitquery.io:443", cfg.Server.Address)
	assert.Equal(t, "secret", cfg.Server.Authorization)
	assert.False(t, cfg.Server.Insecure)
	assert.Equal(t, DefaultConnectTimeout, cfg.Server.ConnectTimeout)
	assert.Equal(t, "dex_trades", cfg.Stream.Type)
	assert.Equal(t, []string{"block.slot", "trade.dex.protocol_name"}, cfg.Stream.SummaryFields)
	assert.Equal(t, []string{"P1", "P2"}, cfg.Filters.Programs)
	assert.Empty(t, cfg.Filters.Pools)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "base58", cfg.Output.Encoding)
	assert.True(t, cfg.Sink.NATS.Enabled())
	assert.Equal(t, DefaultNATSSubject, cfg.Sink.NATS.Subject)

	fs := cfg.Filters.FilterSet()
	assert.Equal(t, []string{"P1", "P2"}, fs.Get(subscription.Program))
	assert.Equal(t, []string{"T1"}, fs.Get(subscription.Token))
	assert.Nil(t, fs.Get(subscription.Pool))
}

func TestLoadConfig_EmptyFiltersSection(t *testing.T) {
	cfg, err := Parse([]byte(`
server: {address: "localhost:50051", insecure: true, connect_timeout: 2s}
stream: {type: balances}
filters:
output: {format: JSON, encoding: hex}
`))
	require.NoError(t, err)
	assert.True(t, cfg.Server.Insecure)
	assert.Equal(t, 2*time.Second, cfg.Server.ConnectTimeout)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "hex", cfg.Output.Encoding)
	assert.False(t, cfg.Sink.NATS.Enabled())
}

func TestLoadConfig_MissingSections(t *testing.T) {
	cases := map[string]string{
		"server": `
stream: {type: dex_trades}
filters: {}
`,
		"stream": `
server: {address: "localhost:1"}
filters: {}
`,
		"filters": `
server: {address: "localhost:1"}
stream: {type: dex_trades}
`,
	}
	for section, content := range cases {
		_, err := Parse([]byte(content))
		require.Error(t, err, section)
		assert.True(t, errors.Is(err, ErrConfig))
		assert.Contains(t, err.Error(), "'"+section+"'")
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	_, err := Load("/non/existent/config.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  address: "localhost:1"
  insecure: "not-a-bool"
stream: {type: dex_trades}
filters: {}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))

	_, err = Parse([]byte("server: [unterminated"))
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := []string{
		`
server: {address: ""}
stream: {type: dex_trades}
filters: {}
`,
		`
server: {address: "localhost:1"}
stream: {type: dex_trades}
filters: {}
output: {format: xml}
`,
		`
server: {address: "localhost:1"}
stream: {type: dex_trades}
filters: {}
output: {encoding: base64}
`,
	}
	for _, content := range cases {
		_, err := Parse([]byte(content))
		assert.True(t, errors.Is(err, ErrConfig), content)
	}
}

func TestSampleConfigs(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "configs", "*.yaml"))
	require.NoError(t, err)
	require.Len(t, paths, len(subscription.Kinds()))

	for _, path := range paths {
		cfg, err := Load(path)
		require.NoError(t, err, path)

		kind, err := subscription.ParseKind(cfg.Stream.Type)
		require.NoError(t, err, path)
		assert.Equal(t, string(kind)+".yaml", filepath.Base(path))
	}
}
