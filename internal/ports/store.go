package ports

import (
	"context"
	"errors"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
)

// ErrAbsent means a tier holds no record. It is a valid empty result, not a
// failure; callers fall through to the next tier.
var ErrAbsent = errors.New("state: no record present")

// ErrUnavailable means a tier could not be reached or authenticated. Remote
// adapters convert every transport fault to this before it leaves the adapter.
var ErrUnavailable = errors.New("state: store unavailable")

// ErrParse means a tier returned bytes that do not decode into a StateRecord.
var ErrParse = errors.New("state: malformed record")

// StateStore is one storage tier holding exactly one logical current record.
// Write fully replaces the previous record (overwrite, never append).
type StateStore interface {
	Write(ctx context.Context, rec *domain.StateRecord) error
	Read(ctx context.Context) (*domain.StateRecord, error)
	Name() string
}
