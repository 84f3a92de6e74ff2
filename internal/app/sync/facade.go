package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/observability"
	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// Options wires the facade's tiers. Local and Cache are required; Remote is
// optional and its absence (no credentials, no endpoint) simply degrades the
// facade to local-only operation.
type Options struct {
	Local  ports.StateStore
	Remote ports.StateStore
	Cache  ports.PendingCache
	Obs    ports.Observability
	Policy ports.Policy
	Now    func() time.Time
}

// StateSync is the single entry point both roles use: the producer saves
// through it, consumers load and check freshness through it. One instance per
// process owns all previously-global state (cached handles, last-save time,
// pending slot).
type StateSync struct {
	local  ports.StateStore
	remote ports.StateStore
	cache  ports.PendingCache
	obs    ports.Observability
	pol    ports.Policy
	now    func() time.Time
	writer *remoteWriter

	mu        sync.Mutex
	lastStamp time.Time
}

func New(opts Options) (*StateSync, error) {
	if opts.Local == nil {
		return nil, errors.New("sync: local store is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("sync: pending cache is required")
	}
	if opts.Obs == nil {
		opts.Obs = nopObs{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy.BufferCap <= 0 {
		opts.Policy.BufferCap = domain.BufferCap
	}
	if opts.Policy.Debounce <= 0 {
		opts.Policy.Debounce = 15 * time.Second
	}
	if opts.Policy.DefaultMaxAge <= 0 {
		opts.Policy.DefaultMaxAge = 30 * time.Second
	}

	s := &StateSync{
		local:  opts.Local,
		remote: opts.Remote,
		cache:  opts.Cache,
		obs:    opts.Obs,
		pol:    opts.Policy,
		now:    opts.Now,
	}
	if opts.Remote != nil {
		s.writer = newRemoteWriter(opts.Remote, opts.Obs, opts.Policy.Debounce, opts.Now)
		s.writer.Start()
	}
	return s, nil
}

// Save accepts the producer's current window. The pending cache and the local
// durable store are updated synchronously on every call; the remote tier is
// scheduled through the debounced background writer. A local write failure is
// reported but never fails the save, since the pending cache already holds
// the latest record.
func (s *StateSync) Save(ctx context.Context, buffer []domain.Snapshot, scenario domain.Scenario, rowIndices map[string]int, pred domain.Prediction) error {
	if !scenario.Valid() {
		return fmt.Errorf("sync: invalid scenario %q", scenario)
	}

	rec := domain.NewStateRecord(buffer, scenario, rowIndices, pred, s.stamp(), s.pol.BufferCap)

	s.cache.Put(rec)
	s.obs.IncCounter(observability.MetricSaves, 1)
	s.obs.SetGauge(observability.MetricPendingSet, 1)

	if err := s.local.Write(ctx, rec); err != nil {
		s.obs.IncCounter(observability.MetricLocalWriteFailures, 1)
		s.obs.LogError("local_write_failed", err, ports.Field{Key: "store", Value: s.local.Name()})
	}

	if s.writer != nil {
		s.writer.Schedule(rec)
	}
	return nil
}

// Load returns the first record any tier yields, in read-preference order:
// pending cache (this process only), remote store, local file. The returned
// source is the tier name the record came from.
func (s *StateSync) Load(ctx context.Context) (*domain.StateRecord, string, error) {
	if rec, ok := s.cache.Get(); ok {
		cp := rec.Clone()
		cp.LastUpdate = s.now()
		return cp, SourcePendingCache, nil
	}

	if s.remote != nil {
		rec, err := s.remote.Read(ctx)
		if err == nil {
			return rec, s.remote.Name(), nil
		}
		if !errors.Is(err, ports.ErrAbsent) {
			s.obs.LogError("remote_read_failed", err, ports.Field{Key: "store", Value: s.remote.Name()})
		}
	}

	rec, err := s.local.Read(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrAbsent) {
			s.obs.LogError("local_read_failed", err, ports.Field{Key: "store", Value: s.local.Name()})
		}
		return nil, "", err
	}
	return rec, s.local.Name(), nil
}

// IsFresh answers whether the current state is younger than maxAge. Pending
// data short-circuits as fresh, stamped with the current time; otherwise the
// loaded record's age decides. maxAge <= 0 falls back to the configured
// default window.
func (s *StateSync) IsFresh(ctx context.Context, maxAge time.Duration) (Report, *domain.StateRecord, error) {
	if maxAge <= 0 {
		maxAge = s.pol.DefaultMaxAge
	}

	if rec, ok := s.cache.Get(); ok {
		cp := rec.Clone()
		cp.LastUpdate = s.now()
		return Report{Fresh: true, Age: 0, Source: SourcePendingCache}, cp, nil
	}

	rec, src, err := s.Load(ctx)
	if err != nil {
		return Report{}, nil, err
	}

	rep := Evaluate(rec, maxAge, s.now())
	rep.Source = src
	s.obs.SetGauge(observability.MetricStateAge, rep.Age.Seconds())
	if !rep.Fresh {
		s.obs.IncCounter(observability.MetricStaleReads, 1)
	}
	return rep, rec, nil
}

// ClearPending drops the pending cache slot.
func (s *StateSync) ClearPending() {
	s.cache.Clear()
	s.obs.SetGauge(observability.MetricPendingSet, 0)
}

// PendingStatus describes the pending slot for diagnostics panes.
func (s *StateSync) PendingStatus() string {
	return s.cache.Status()
}

// LastRemoteAttempt reports when a remote write was last dispatched.
func (s *StateSync) LastRemoteAttempt() time.Time {
	if s.writer == nil {
		return time.Time{}
	}
	return s.writer.LastAttempt()
}

// LastRemoteSuccess reports when a remote write last completed.
func (s *StateSync) LastRemoteSuccess() time.Time {
	if s.writer == nil {
		return time.Time{}
	}
	return s.writer.LastSuccess()
}

// Close stops the background writer. Safe to call more than once.
func (s *StateSync) Close() {
	if s.writer != nil {
		s.writer.Stop()
	}
}

// stamp returns the save timestamp, never going backwards even if the wall
// clock does.
func (s *StateSync) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Before(s.lastStamp) {
		now = s.lastStamp
	}
	s.lastStamp = now
	return now
}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)             {}
func (nopObs) SetGauge(string, float64)               {}
func (nopObs) ObserveLatency(string, float64)         {}
