package ports

import "time"

// Policy carries the sync layer's tuning knobs.
type Policy struct {
	// BufferCap bounds the snapshot window retained in every persisted record.
	BufferCap int `yaml:"buffer_cap"`
	// Debounce is the minimum interval between remote write dispatches.
	Debounce time.Duration `yaml:"debounce"`
	// Tick is the producer loop interval.
	Tick time.Duration `yaml:"tick"`
	// DefaultMaxAge is the freshness window used when a consumer does not
	// supply its own.
	DefaultMaxAge time.Duration `yaml:"default_max_age"`
}
