package statesync

import (
	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/opcua"
	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/replay"
	"github.com/tasneem33355/digitopia-gas-project/internal/app/config"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy carries the sync layer's tuning knobs.
	Policy = ports.Policy
	// LocalConfig points at the durable JSON state file.
	LocalConfig = config.LocalConfig
	// RemoteConfig selects and configures the shared remote tier.
	RemoteConfig = config.RemoteConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// ReplayConfig maps scenarios to their CSV sources.
	ReplayConfig = replay.Config
	// OPCUAConfig holds connection + node details for live capture.
	OPCUAConfig = opcua.Config
	// OPCUANodeConfig binds a monitored tag to a snapshot field.
	OPCUANodeConfig = opcua.NodeConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns a ready-to-run local-only configuration.
func DefaultConfig() *Config {
	return config.Default()
}
