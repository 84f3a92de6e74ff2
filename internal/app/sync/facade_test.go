package sync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/cache"
	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/observability"
	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

type fixture struct {
	sync   *StateSync
	local  *memStore
	remote *memStore
	obs    *recObs
	clk    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		local:  &memStore{name: "local-test"},
		remote: &memStore{name: "remote-test"},
		obs:    newRecObs(),
		clk:    newFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)),
	}
	s, err := New(Options{
		Local:  f.local,
		Remote: f.remote,
		Cache:  &cache.Slot{},
		Obs:    f.obs,
		Now:    f.clk.Now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	f.sync = s
	return f
}

func (f *fixture) save(t *testing.T) {
	t.Helper()
	buf := []domain.Snapshot{domain.NewSnapshot(f.clk.Now())}
	pred := domain.Prediction{Class: 0, Probabilities: [3]float64{0.8, 0.1, 0.1}, Confidence: 0.8}
	if err := f.sync.Save(context.Background(), buf, domain.ScenarioNormal, map[string]int{"normal": 5}, pred); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestSaveThenLoadServesPending(t *testing.T) {
	f := newFixture(t)
	f.save(t)

	f.clk.Advance(3 * time.Second)
	rec, src, err := f.sync.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src != SourcePendingCache {
		t.Fatalf("source = %q, want %q", src, SourcePendingCache)
	}
	if rec.Scenario != domain.ScenarioNormal {
		t.Fatalf("scenario = %q", rec.Scenario)
	}
	if rec.RowIndices["normal"] != 5 {
		t.Fatalf("row indices = %v", rec.RowIndices)
	}
	if !rec.LastUpdate.Equal(f.clk.Now()) {
		t.Fatalf("pending record not restamped: %v vs %v", rec.LastUpdate, f.clk.Now())
	}
}

func TestSaveWritesLocalSynchronously(t *testing.T) {
	f := newFixture(t)
	f.save(t)

	if f.local.writeCount() != 1 {
		t.Fatalf("local writes = %d, want 1", f.local.writeCount())
	}
	if got := f.obs.counter(observability.MetricSaves); got != 1 {
		t.Fatalf("saves counter = %v, want 1", got)
	}
	if got := f.obs.gauge(observability.MetricPendingSet); got != 1 {
		t.Fatalf("pending gauge = %v, want 1", got)
	}
}

func TestSaveInvalidScenario(t *testing.T) {
	f := newFixture(t)
	err := f.sync.Save(context.Background(), nil, "meltdown", nil, domain.Prediction{})
	if err == nil {
		t.Fatalf("invalid scenario accepted")
	}
	if f.local.writeCount() != 0 {
		t.Fatalf("invalid save reached the local store")
	}
}

func TestSaveSurvivesLocalFailure(t *testing.T) {
	f := newFixture(t)
	f.local.writeErr = errors.New("disk full")

	f.save(t)

	if got := f.obs.counter(observability.MetricLocalWriteFailures); got != 1 {
		t.Fatalf("local failure counter = %v, want 1", got)
	}
	if _, src, err := f.sync.Load(context.Background()); err != nil || src != SourcePendingCache {
		t.Fatalf("pending tier lost after local failure: src=%q err=%v", src, err)
	}
}

func TestLoadFallbackOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.clk.Now()

	f.remote.rec = domain.NewStateRecord(nil, domain.ScenarioWarning, nil, domain.Prediction{Class: 1}, now, domain.BufferCap)
	f.local.rec = domain.NewStateRecord(nil, domain.ScenarioFailure, nil, domain.Prediction{Class: 2}, now, domain.BufferCap)

	rec, src, err := f.sync.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src != "remote-test" || rec.Scenario != domain.ScenarioWarning {
		t.Fatalf("remote tier not preferred: src=%q scenario=%q", src, rec.Scenario)
	}

	f.remote.readErr = ports.ErrUnavailable
	rec, src, err = f.sync.Load(ctx)
	if err != nil {
		t.Fatalf("Load with remote down: %v", err)
	}
	if src != "local-test" || rec.Scenario != domain.ScenarioFailure {
		t.Fatalf("local fallback not used: src=%q scenario=%q", src, rec.Scenario)
	}

	f.local.rec = nil
	if _, _, err := f.sync.Load(ctx); !errors.Is(err, ports.ErrAbsent) {
		t.Fatalf("all tiers empty: err = %v, want ErrAbsent", err)
	}
}

func TestIsFreshPendingShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.save(t)

	f.clk.Advance(10 * time.Minute)
	rep, rec, err := f.sync.IsFresh(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("IsFresh: %v", err)
	}
	if !rep.Fresh || rep.Age != 0 || rep.Source != SourcePendingCache {
		t.Fatalf("pending data not reported fresh: %+v", rep)
	}
	if rec == nil {
		t.Fatalf("IsFresh returned no record")
	}
}

func TestIsFreshAgainstStoredAge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.local.rec = domain.NewStateRecord(nil, domain.ScenarioNormal, nil, domain.Prediction{}, f.clk.Now(), domain.BufferCap)
	f.remote.readErr = ports.ErrUnavailable

	f.clk.Advance(20 * time.Second)
	rep, _, err := f.sync.IsFresh(ctx, 30*time.Second)
	if err != nil {
		t.Fatalf("IsFresh: %v", err)
	}
	if !rep.Fresh || rep.Source != "local-test" {
		t.Fatalf("20s old record under 30s window: %+v", rep)
	}

	f.clk.Advance(41 * time.Second)
	rep, _, err = f.sync.IsFresh(ctx, 30*time.Second)
	if err != nil {
		t.Fatalf("IsFresh: %v", err)
	}
	if rep.Fresh {
		t.Fatalf("61s old record reported fresh")
	}
	if got := f.obs.counter(observability.MetricStaleReads); got != 1 {
		t.Fatalf("stale reads = %v, want 1", got)
	}
}

func TestIsFreshDefaultWindow(t *testing.T) {
	f := newFixture(t)
	f.remote.readErr = ports.ErrUnavailable
	f.local.rec = domain.NewStateRecord(nil, domain.ScenarioNormal, nil, domain.Prediction{}, f.clk.Now(), domain.BufferCap)

	f.clk.Advance(29 * time.Second)
	rep, _, err := f.sync.IsFresh(context.Background(), 0)
	if err != nil {
		t.Fatalf("IsFresh: %v", err)
	}
	if !rep.Fresh {
		t.Fatalf("default window did not apply: %+v", rep)
	}
}

func TestPendingStatusAndClear(t *testing.T) {
	f := newFixture(t)
	if got := f.sync.PendingStatus(); got != "no pending state" {
		t.Fatalf("empty status = %q", got)
	}

	f.save(t)
	status := f.sync.PendingStatus()
	if !strings.Contains(status, "normal") || !strings.Contains(status, "1 snapshots") {
		t.Fatalf("status = %q", status)
	}

	f.sync.ClearPending()
	if got := f.sync.PendingStatus(); got != "no pending state" {
		t.Fatalf("status after clear = %q", got)
	}
	if got := f.obs.gauge(observability.MetricPendingSet); got != 0 {
		t.Fatalf("pending gauge after clear = %v", got)
	}
}

func TestSaveCapsBuffer(t *testing.T) {
	f := newFixture(t)
	buf := make([]domain.Snapshot, 30)
	for i := range buf {
		buf[i] = domain.NewSnapshot(f.clk.Now().Add(time.Duration(i) * time.Second))
	}
	if err := f.sync.Save(context.Background(), buf, domain.ScenarioNormal, nil, domain.Prediction{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, _, err := f.sync.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rec.Buffer) != domain.BufferCap {
		t.Fatalf("buffer len = %d, want %d", len(rec.Buffer), domain.BufferCap)
	}
	if !rec.Buffer[0].Timestamp.Equal(buf[10].Timestamp) {
		t.Fatalf("oldest snapshots not evicted")
	}
}

func TestSaveDebouncesRemote(t *testing.T) {
	f := newFixture(t)
	f.save(t)
	waitForWrites(t, f.remote, 1)

	f.clk.Advance(2 * time.Second)
	f.save(t)
	if got := f.obs.counter(observability.MetricDebounceSkips); got != 1 {
		t.Fatalf("debounce skips = %v, want 1", got)
	}

	f.clk.Advance(14 * time.Second)
	f.save(t)
	if got := f.obs.counter(observability.MetricDebounceSkips); got != 1 {
		t.Fatalf("save past the window was debounced, skips = %v", got)
	}

	waitForWrites(t, f.remote, 2)
	if f.local.writeCount() != 3 {
		t.Fatalf("local writes = %d, want every save", f.local.writeCount())
	}
}

func waitForWrites(t *testing.T, store *memStore, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for store.writeCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("remote writes = %d, want %d", store.writeCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMonotonicStamp(t *testing.T) {
	f := newFixture(t)
	f.save(t)
	first := f.local.last()

	f.clk.Advance(-time.Hour) // wall clock steps backwards
	f.save(t)
	second := f.local.last()

	if second.LastUpdate.Before(first.LastUpdate) {
		t.Fatalf("stamp went backwards: %v then %v", first.LastUpdate, second.LastUpdate)
	}
}

func TestNewRequiresLocalAndCache(t *testing.T) {
	if _, err := New(Options{Cache: &cache.Slot{}}); err == nil {
		t.Fatalf("missing local store accepted")
	}
	if _, err := New(Options{Local: &memStore{name: "l"}}); err == nil {
		t.Fatalf("missing cache accepted")
	}
}
