package config

import (
	"fmt"
	"os"
	"time"

	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/opcua"
	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/replay"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
	"gopkg.in/yaml.v3"
)

const (
	SourceReplay = "replay"
	SourceOPCUA  = "opcua"

	RemoteSheets   = "sheets"
	RemotePostgres = "postgres"
	RemoteNone     = "none"
)

// Environment fallbacks for the Sheets remote, so deployments can keep
// credentials out of the config file.
const (
	EnvSpreadsheetID   = "GOOGLE_SHEETS_ID"
	EnvCredentialsFile = "SERVICE_ACCOUNT_FILE"
)

type Config struct {
	Policy  ports.Policy  `yaml:"policy"`
	Source  string        `yaml:"source"`
	Local   LocalConfig   `yaml:"local"`
	Remote  RemoteConfig  `yaml:"remote"`
	Replay  replay.Config `yaml:"replay"`
	OPCUA   opcua.Config  `yaml:"opcua"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LocalConfig struct {
	Path string `yaml:"path"`
}

type RemoteConfig struct {
	Kind            string `yaml:"kind"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
	ConnString      string `yaml:"conn_string"`
	Table           string `yaml:"table"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a ready-to-run configuration for deployments that carry no
// config file at all.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

func (c *Config) ApplyDefaults() {
	if c.Policy.BufferCap == 0 {
		c.Policy.BufferCap = 20
	}
	if c.Policy.Debounce == 0 {
		c.Policy.Debounce = 15 * time.Second
	}
	if c.Policy.Tick == 0 {
		c.Policy.Tick = 10 * time.Second
	}
	if c.Policy.DefaultMaxAge == 0 {
		c.Policy.DefaultMaxAge = 30 * time.Second
	}
	if c.Source == "" {
		c.Source = SourceReplay
	}
	if c.Local.Path == "" {
		c.Local.Path = "./data/shared_state.json"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Remote.SpreadsheetID == "" {
		c.Remote.SpreadsheetID = os.Getenv(EnvSpreadsheetID)
	}
	if c.Remote.CredentialsFile == "" {
		c.Remote.CredentialsFile = os.Getenv(EnvCredentialsFile)
	}
	if c.Remote.Table == "" {
		c.Remote.Table = "shared_state"
	}
	if c.Remote.Kind == "" {
		if c.Remote.SpreadsheetID != "" && c.Remote.CredentialsFile != "" {
			c.Remote.Kind = RemoteSheets
		} else if c.Remote.ConnString != "" {
			c.Remote.Kind = RemotePostgres
		} else {
			c.Remote.Kind = RemoteNone
		}
	}
	// A sheets remote without credentials degrades to local-only rather than
	// failing startup.
	if c.Remote.Kind == RemoteSheets && (c.Remote.SpreadsheetID == "" || c.Remote.CredentialsFile == "") {
		c.Remote.Kind = RemoteNone
	}

	c.Replay.ApplyDefaults()
	if c.Source == SourceOPCUA {
		c.OPCUA.ApplyDefaults()
	}
}

func (c *Config) Validate() error {
	switch c.Source {
	case SourceReplay:
		if err := c.Replay.Validate(); err != nil {
			return fmt.Errorf("replay config: %w", err)
		}
	case SourceOPCUA:
		if err := c.OPCUA.Validate(); err != nil {
			return fmt.Errorf("opcua config: %w", err)
		}
	default:
		return fmt.Errorf("source must be %q or %q, got %q", SourceReplay, SourceOPCUA, c.Source)
	}

	switch c.Remote.Kind {
	case RemoteSheets, RemoteNone:
	case RemotePostgres:
		if c.Remote.ConnString == "" {
			return fmt.Errorf("remote.conn_string is required for kind %q", RemotePostgres)
		}
	default:
		return fmt.Errorf("remote.kind must be %q, %q or %q, got %q", RemoteSheets, RemotePostgres, RemoteNone, c.Remote.Kind)
	}

	if c.Local.Path == "" {
		return fmt.Errorf("local.path is required")
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}
