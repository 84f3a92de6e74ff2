package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// Metric names used across the sync layer.
const (
	MetricSaves               = "gas_state_saves_total"
	MetricLocalWriteFailures  = "gas_local_write_failures_total"
	MetricRemoteWrites        = "gas_remote_writes_total"
	MetricRemoteWriteFailures = "gas_remote_write_failures_total"
	MetricDebounceSkips       = "gas_remote_debounce_skips_total"
	MetricStaleWriteSkips     = "gas_remote_stale_write_skips_total"
	MetricStaleReads          = "gas_stale_reads_total"
	MetricStateAge            = "gas_state_age_seconds"
	MetricPendingSet          = "gas_pending_state"
	MetricRemoteWriteLatency  = "gas_remote_write_latency_seconds"
)

// PromObs backs the Observability port with Prometheus metrics and zerolog.
type PromObs struct {
	log      zerolog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(log zerolog.Logger) *PromObs {
	saves := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricSaves,
		Help: "State records accepted by the sync facade.",
	})
	localFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricLocalWriteFailures,
		Help: "Local durable store writes that failed (non-fatal).",
	})
	remoteWrites := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricRemoteWrites,
		Help: "Remote tier writes that completed.",
	})
	remoteFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricRemoteWriteFailures,
		Help: "Remote tier writes that failed; retried on the next debounce window.",
	})
	debounceSkips := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricDebounceSkips,
		Help: "Saves that skipped the remote tier inside the debounce window.",
	})
	staleWriteSkips := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricStaleWriteSkips,
		Help: "Scheduled remote writes dropped because a newer record already landed.",
	})
	staleReads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricStaleReads,
		Help: "Freshness checks that found the record older than the caller's window.",
	})
	age := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricStateAge,
		Help: "Age of the record returned by the most recent freshness check.",
	})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricPendingSet,
		Help: "Whether the pending cache currently holds a record (0 or 1).",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricRemoteWriteLatency,
		Help:    "Round-trip latency of remote tier writes.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	prometheus.MustRegister(saves, localFailures, remoteWrites, remoteFailures,
		debounceSkips, staleWriteSkips, staleReads, age, pending, latency)

	return &PromObs{
		log: log,
		counters: map[string]prometheus.Counter{
			MetricSaves:               saves,
			MetricLocalWriteFailures:  localFailures,
			MetricRemoteWrites:        remoteWrites,
			MetricRemoteWriteFailures: remoteFailures,
			MetricDebounceSkips:       debounceSkips,
			MetricStaleWriteSkips:     staleWriteSkips,
			MetricStaleReads:          staleReads,
		},
		gauges: map[string]prometheus.Gauge{
			MetricStateAge:   age,
			MetricPendingSet: pending,
		},
		histos: map[string]prometheus.Observer{
			MetricRemoteWriteLatency: latency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	ev := p.log.Info()
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	ev := p.log.Error().Err(err)
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

var _ ports.Observability = (*PromObs)(nil)
