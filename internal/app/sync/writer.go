package sync

import (
	"context"
	"sync"
	"time"

	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/observability"
	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

const remoteWriteTimeout = 30 * time.Second

type scheduledWrite struct {
	seq uint64
	rec *domain.StateRecord
}

// remoteWriter rate-limits and dispatches remote writes off the producer's
// hot path: a one-slot work queue drained by a single worker goroutine.
// Scheduling inside the debounce window is a no-op for the remote tier; a
// newer schedule replaces an undispatched one. Records carry monotonic
// sequence numbers so a write can never overwrite fresher remote data with
// staler content.
type remoteWriter struct {
	store    ports.StateStore
	obs      ports.Observability
	interval time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastAttempt time.Time
	lastSuccess time.Time
	nextSeq     uint64
	writtenSeq  uint64
	pending     *scheduledWrite

	wake     chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

func newRemoteWriter(store ports.StateStore, obs ports.Observability, interval time.Duration, now func() time.Time) *remoteWriter {
	return &remoteWriter{
		store:    store,
		obs:      obs,
		interval: interval,
		now:      now,
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (w *remoteWriter) Start() {
	go w.loop()
}

func (w *remoteWriter) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
	})
}

// Schedule queues rec for the remote tier. Returns false when the debounce
// window swallowed the call; the record is still safe in the faster tiers.
func (w *remoteWriter) Schedule(rec *domain.StateRecord) bool {
	w.mu.Lock()
	if !w.lastAttempt.IsZero() && w.now().Sub(w.lastAttempt) < w.interval {
		w.mu.Unlock()
		w.obs.IncCounter(observability.MetricDebounceSkips, 1)
		return false
	}
	w.lastAttempt = w.now()
	w.nextSeq++
	w.pending = &scheduledWrite{seq: w.nextSeq, rec: rec}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

func (w *remoteWriter) LastAttempt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastAttempt
}

func (w *remoteWriter) LastSuccess() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSuccess
}

func (w *remoteWriter) loop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case <-w.wake:
			w.flush()
		}
	}
}

func (w *remoteWriter) flush() {
	w.mu.Lock()
	p := w.pending
	w.pending = nil
	written := w.writtenSeq
	w.mu.Unlock()

	if p == nil {
		return
	}
	if p.seq <= written {
		w.obs.IncCounter(observability.MetricStaleWriteSkips, 1)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), remoteWriteTimeout)
	defer cancel()

	start := time.Now()
	err := w.store.Write(ctx, p.rec)
	w.obs.ObserveLatency(observability.MetricRemoteWriteLatency, time.Since(start).Seconds())

	if err != nil {
		// No retry here: the next debounce window carries fresher data anyway.
		w.obs.IncCounter(observability.MetricRemoteWriteFailures, 1)
		w.obs.LogError("remote_write_failed", err, ports.Field{Key: "store", Value: w.store.Name()})
		return
	}

	w.mu.Lock()
	if p.seq > w.writtenSeq {
		w.writtenSeq = p.seq
	}
	w.lastSuccess = w.now()
	w.mu.Unlock()
	w.obs.IncCounter(observability.MetricRemoteWrites, 1)
}
