package cache

import (
	"fmt"
	"sync"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// Slot is the in-process pending cache: one record, last write wins.
type Slot struct {
	mu  sync.Mutex
	rec *domain.StateRecord
}

func New() *Slot {
	return &Slot{}
}

func (s *Slot) Put(rec *domain.StateRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
}

func (s *Slot) Get() (*domain.StateRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, false
	}
	return s.rec, true
}

func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
}

func (s *Slot) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return "no pending state"
	}
	return fmt.Sprintf("pending state for scenario %q (%d snapshots)", s.rec.Scenario, len(s.rec.Buffer))
}

var _ ports.PendingCache = (*Slot)(nil)
