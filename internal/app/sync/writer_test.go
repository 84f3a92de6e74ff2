package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/observability"
	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type memStore struct {
	mu       sync.Mutex
	name     string
	rec      *domain.StateRecord
	writeErr error
	readErr  error
	writes   int
}

func (m *memStore) Write(_ context.Context, rec *domain.StateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.rec = rec
	return nil
}

func (m *memStore) Read(context.Context) (*domain.StateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.rec == nil {
		return nil, ports.ErrAbsent
	}
	return m.rec.Clone(), nil
}

func (m *memStore) Name() string { return m.name }

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memStore) last() *domain.StateRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec
}

type recObs struct {
	mu       sync.Mutex
	counters map[string]float64
	gauges   map[string]float64
	errs     []string
}

func newRecObs() *recObs {
	return &recObs{counters: make(map[string]float64), gauges: make(map[string]float64)}
}

func (o *recObs) LogInfo(string, ...ports.Field) {}

func (o *recObs) LogError(msg string, _ error, _ ...ports.Field) {
	o.mu.Lock()
	o.errs = append(o.errs, msg)
	o.mu.Unlock()
}

func (o *recObs) IncCounter(name string, v float64) {
	o.mu.Lock()
	o.counters[name] += v
	o.mu.Unlock()
}

func (o *recObs) SetGauge(name string, v float64) {
	o.mu.Lock()
	o.gauges[name] = v
	o.mu.Unlock()
}

func (o *recObs) ObserveLatency(string, float64) {}

func (o *recObs) counter(name string) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counters[name]
}

func (o *recObs) gauge(name string) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gauges[name]
}

func testRecord(ts time.Time) *domain.StateRecord {
	return domain.NewStateRecord(
		[]domain.Snapshot{domain.NewSnapshot(ts)},
		domain.ScenarioNormal,
		map[string]int{"normal": 1},
		domain.Prediction{Class: 0, Probabilities: [3]float64{0.8, 0.1, 0.1}, Confidence: 0.8},
		ts,
		domain.BufferCap,
	)
}

func TestWriterDebounce(t *testing.T) {
	clk := newFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	store := &memStore{name: "remote-test"}
	obs := newRecObs()
	w := newRemoteWriter(store, obs, 15*time.Second, clk.Now)

	if !w.Schedule(testRecord(clk.Now())) {
		t.Fatalf("first schedule should always dispatch")
	}

	clk.Advance(2 * time.Second)
	if w.Schedule(testRecord(clk.Now())) {
		t.Fatalf("schedule inside debounce window dispatched")
	}
	if got := obs.counter(observability.MetricDebounceSkips); got != 1 {
		t.Fatalf("debounce skips = %v, want 1", got)
	}

	clk.Advance(14 * time.Second)
	if !w.Schedule(testRecord(clk.Now())) {
		t.Fatalf("schedule past debounce window did not dispatch")
	}
}

func TestWriterFlushWritesLatest(t *testing.T) {
	clk := newFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	store := &memStore{name: "remote-test"}
	obs := newRecObs()
	w := newRemoteWriter(store, obs, 0, clk.Now)

	first := testRecord(clk.Now())
	clk.Advance(time.Second)
	second := testRecord(clk.Now())

	w.Schedule(first)
	w.Schedule(second)
	w.flush()

	if store.writeCount() != 1 {
		t.Fatalf("writes = %d, want 1 (latest replaces undispatched)", store.writeCount())
	}
	if got := store.last(); !got.LastUpdate.Equal(second.LastUpdate) {
		t.Fatalf("flushed record from %v, want latest %v", got.LastUpdate, second.LastUpdate)
	}
	if got := obs.counter(observability.MetricRemoteWrites); got != 1 {
		t.Fatalf("remote writes counter = %v, want 1", got)
	}

	w.flush()
	if store.writeCount() != 1 {
		t.Fatalf("flush with empty slot wrote again")
	}
}

func TestWriterStaleSequenceSkipped(t *testing.T) {
	clk := newFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	store := &memStore{name: "remote-test"}
	obs := newRecObs()
	w := newRemoteWriter(store, obs, 0, clk.Now)

	w.Schedule(testRecord(clk.Now()))
	w.flush()
	if store.writeCount() != 1 {
		t.Fatalf("writes = %d, want 1", store.writeCount())
	}

	w.mu.Lock()
	w.pending = &scheduledWrite{seq: 1, rec: testRecord(clk.Now())}
	w.mu.Unlock()
	w.flush()

	if store.writeCount() != 1 {
		t.Fatalf("stale sequence reached the store")
	}
	if got := obs.counter(observability.MetricStaleWriteSkips); got != 1 {
		t.Fatalf("stale skips = %v, want 1", got)
	}
}

func TestWriterFailureDoesNotRetry(t *testing.T) {
	clk := newFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	store := &memStore{name: "remote-test", writeErr: errors.New("quota exceeded")}
	obs := newRecObs()
	w := newRemoteWriter(store, obs, 0, clk.Now)

	w.Schedule(testRecord(clk.Now()))
	w.flush()

	if got := obs.counter(observability.MetricRemoteWriteFailures); got != 1 {
		t.Fatalf("failure counter = %v, want 1", got)
	}
	if !w.LastSuccess().IsZero() {
		t.Fatalf("failed write recorded a success time")
	}

	w.flush()
	if store.writeCount() != 1 {
		t.Fatalf("failed write was retried, writes = %d", store.writeCount())
	}
}

func TestWriterStartStop(t *testing.T) {
	clk := newFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	store := &memStore{name: "remote-test"}
	w := newRemoteWriter(store, newRecObs(), 0, clk.Now)

	w.Start()
	w.Schedule(testRecord(clk.Now()))

	deadline := time.Now().Add(2 * time.Second)
	for store.writeCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("worker never flushed the scheduled write")
		}
		time.Sleep(5 * time.Millisecond)
	}

	w.Stop()
	w.Stop() // idempotent
}
