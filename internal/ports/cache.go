package ports

import "github.com/tasneem33355/digitopia-gas-project/internal/domain"

// PendingCache is the producer-local, single-slot, last-write-wins tier. It
// lets a producer observe its own just-written state without round-tripping
// through slower storage. Never visible outside the writer's process.
type PendingCache interface {
	Put(rec *domain.StateRecord)
	Get() (*domain.StateRecord, bool)
	Clear()
	Status() string
}
