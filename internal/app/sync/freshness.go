package sync

import (
	"time"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
)

// SourcePendingCache names the producer-local tier in freshness reports; the
// storage tiers report their own adapter names.
const SourcePendingCache = "pending-cache"

// Report is the consumer-facing answer to a freshness check: the boolean plus
// the diagnostics callers surface in their sync-status panes.
type Report struct {
	Fresh  bool
	Age    time.Duration
	Source string
}

// Evaluate compares a record's age against the caller's window. maxAge is a
// per-call parameter because each consumer tolerates a different staleness.
// A nil record is never fresh.
func Evaluate(rec *domain.StateRecord, maxAge time.Duration, now time.Time) Report {
	if rec == nil {
		return Report{}
	}
	age := rec.Age(now)
	return Report{Fresh: age <= maxAge, Age: age}
}
