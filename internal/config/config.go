package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fystack/corecast-client/internal/subscription"
)

// ErrConfig marks every failure to produce a usable configuration.
var ErrConfig = errors.New("configuration error")

const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultFormat         = "text"
	DefaultEncoding       = "base58"
	DefaultNATSSubject    = "corecast.stream"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Stream  StreamConfig  `yaml:"stream"`
	Filters FiltersConfig `yaml:"filters"`
	Output  OutputConfig  `yaml:"output"`
	Sink    SinkConfig    `yaml:"sink"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	Address        string        `yaml:"address"`
	Authorization  string        `yaml:"authorization"`
	Insecure       bool          `yaml:"insecure"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type StreamConfig struct {
	Type string `yaml:"type"`
	// SummaryFields are dot paths logged at debug level for every message.
	SummaryFields []string `yaml:"summary_fields"`
}

type FiltersConfig struct {
	Programs  []string `yaml:"programs"`
	Pools     []string `yaml:"pools"`
	Tokens    []string `yaml:"tokens"`
	Traders   []string `yaml:"traders"`
	Senders   []string `yaml:"senders"`
	Receivers []string `yaml:"receivers"`
	Addresses []string `yaml:"addresses"`
	Signers   []string `yaml:"signers"`
}

type OutputConfig struct {
	Format   string `yaml:"format"`   // text | json
	Encoding string `yaml:"encoding"` // base58 | hex
}

type SinkConfig struct {
	NATS NATSConfig `yaml:"nats"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

func (n NATSConfig) Enabled() bool { return n.URL != "" }

type MetricsConfig struct {
	ListenAddress string `yaml:"listen_address"`
}

var requiredSections = []string{"server", "stream", "filters"}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrConfig, path, err)
	}
	return Parse(data)
}

// Parse decodes YAML content, checks the required sections and applies
// defaults.
func Parse(data []byte) (*Config, error) {
	var sections map[string]yaml.Node
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %w", ErrConfig, err)
	}
	for _, name := range requiredSections {
		if _, ok := sections[name]; !ok {
			return nil, fmt.Errorf("%w: missing '%s' section", ErrConfig, name)
		}
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrConfig, err)
	}

	// Set defaults
	if config.Server.ConnectTimeout == 0 {
		config.Server.ConnectTimeout = DefaultConnectTimeout
	}
	config.Output.Format = strings.ToLower(strings.TrimSpace(config.Output.Format))
	if config.Output.Format == "" {
		config.Output.Format = DefaultFormat
	}
	config.Output.Encoding = strings.ToLower(strings.TrimSpace(config.Output.Encoding))
	if config.Output.Encoding == "" {
		config.Output.Encoding = DefaultEncoding
	}
	if config.Sink.NATS.Enabled() && config.Sink.NATS.Subject == "" {
		config.Sink.NATS.Subject = DefaultNATSSubject
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return fmt.Errorf("%w: server.address is required", ErrConfig)
	}
	if c.Server.ConnectTimeout < 0 {
		return fmt.Errorf("%w: server.connect_timeout must be positive", ErrConfig)
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: output.format %q (want text|json)", ErrConfig, c.Output.Format)
	}
	switch c.Output.Encoding {
	case "base58", "hex":
	default:
		return fmt.Errorf("%w: output.encoding %q (want base58|hex)", ErrConfig, c.Output.Encoding)
	}
	return nil
}

// FilterSet converts the configured lists into the builder's input.
func (f FiltersConfig) FilterSet() subscription.FilterSet {
	return subscription.NewFilterSet(map[subscription.Dimension][]string{
		subscription.Program:  f.Programs,
		subscription.Pool:     f.Pools,
		subscription.Token:    f.Tokens,
		subscription.Trader:   f.Traders,
		subscription.Sender:   f.Senders,
		subscription.Receiver: f.Receivers,
		subscription.Address:  f.Addresses,
		subscription.Signer:   f.Signers,
	})
}
