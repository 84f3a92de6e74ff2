package ports

import (
	"context"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
)

// Collector produces the next snapshot for a scenario. Replay collectors
// advance a per-scenario cursor; live collectors ignore the scenario and
// report their most recent readings.
type Collector interface {
	Next(ctx context.Context, scenario domain.Scenario) (*domain.Snapshot, error)
	// Cursors exposes per-scenario replay positions for persistence. Owned by
	// the producer; consumers must treat the persisted copy as read-only.
	Cursors() map[string]int
	Stop() error
}
