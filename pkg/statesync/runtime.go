package statesync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/cache"
	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/localstore"
	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/observability"
	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/opcua"
	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/pgstore"
	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/replay"
	"github.com/tasneem33355/digitopia-gas-project/internal/adapters/sheets"
	"github.com/tasneem33355/digitopia-gas-project/internal/app/config"
	"github.com/tasneem33355/digitopia-gas-project/internal/app/pipeline"
	"github.com/tasneem33355/digitopia-gas-project/internal/app/predict"
	appsync "github.com/tasneem33355/digitopia-gas-project/internal/app/sync"
)

// Option customizes the dependencies used by Runtime.
type Option func(*overrides)

type overrides struct {
	local     StateStore
	remote    StateStore
	remoteSet bool
	cache     PendingCache
	obs       Observability
	collector Collector
	predictor Predictor
	now       func() time.Time
}

// WithLocalStore injects a custom durable local tier.
func WithLocalStore(s StateStore) Option {
	return func(o *overrides) { o.local = s }
}

// WithRemoteStore injects a custom shared remote tier. Passing nil disables
// the remote tier regardless of configuration.
func WithRemoteStore(s StateStore) Option {
	return func(o *overrides) {
		o.remote = s
		o.remoteSet = true
	}
}

// WithCache injects a custom pending cache implementation.
func WithCache(c PendingCache) Option {
	return func(o *overrides) { o.cache = c }
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) Option {
	return func(o *overrides) { o.obs = obs }
}

// WithCollector injects a custom snapshot source (simulators, MQTT, etc.).
func WithCollector(col Collector) Option {
	return func(o *overrides) { o.collector = col }
}

// WithPredictor overrides the built-in threshold classifier.
func WithPredictor(p Predictor) Option {
	return func(o *overrides) { o.predictor = p }
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *overrides) { o.now = now }
}

// starter is implemented by collectors that hold a live session.
type starter interface {
	Start(ctx context.Context) error
}

// Runtime wires the collector, predictor and storage tiers together and
// exposes the save/load/freshness surface for embedding in a service.
type Runtime struct {
	cfg       *Config
	sync      *appsync.StateSync
	collector Collector
	predictor Predictor
	producer  *pipeline.Producer
	obs       Observability
	db        *sql.DB
	log       zerolog.Logger

	metricsSrv *http.Server

	producerCancel context.CancelFunc
	producerDone   chan struct{}
	stopOnce       sync.Once
}

// New bootstraps the default adapters from cfg: file-backed local store,
// one-slot pending cache, sheets or postgres remote, CSV replay or OPC UA
// collector, threshold predictor, Prometheus observability. Options override
// any dependency.
func New(cfg *Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var o overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	obs := o.obs
	if obs == nil {
		obs = observability.NewPromObs(log)
	}

	local := o.local
	if local == nil {
		local = localstore.New(cfg.Local.Path)
	}

	pending := o.cache
	if pending == nil {
		pending = &cache.Slot{}
	}

	var (
		remote StateStore
		db     *sql.DB
		err    error
	)
	if o.remoteSet {
		remote = o.remote
	} else {
		switch cfg.Remote.Kind {
		case config.RemoteSheets:
			remote = sheets.New(sheets.Config{
				SpreadsheetID:   cfg.Remote.SpreadsheetID,
				CredentialsFile: cfg.Remote.CredentialsFile,
			})
		case config.RemotePostgres:
			db, err = sql.Open("postgres", cfg.Remote.ConnString)
			if err != nil {
				return nil, err
			}
			remote = pgstore.New(db, cfg.Remote.Table)
		case config.RemoteNone:
		default:
			return nil, fmt.Errorf("unknown remote kind %q", cfg.Remote.Kind)
		}
	}

	col := o.collector
	if col == nil {
		switch cfg.Source {
		case config.SourceReplay:
			col, err = replay.New(cfg.Replay)
		case config.SourceOPCUA:
			col, err = opcua.NewCollector(cfg.OPCUA)
		default:
			err = fmt.Errorf("unknown source %q", cfg.Source)
		}
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, err
		}
	}

	pred := o.predictor
	if pred == nil {
		pred = predict.NewBaseline()
	}

	s, err := appsync.New(appsync.Options{
		Local:  local,
		Remote: remote,
		Cache:  pending,
		Obs:    obs,
		Policy: cfg.Policy,
		Now:    o.now,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	return &Runtime{
		cfg:       cfg,
		sync:      s,
		collector: col,
		predictor: pred,
		producer:  pipeline.NewProducer(col, pred, s, cfg.Policy, obs),
		obs:       obs,
		db:        db,
		log:       log,
	}, nil
}

// Start launches the producer loop and the metrics server. It returns
// immediately; call Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	if st, ok := r.collector.(starter); ok {
		if err := st.Start(ctx); err != nil {
			cancel()
			return err
		}
	}

	r.producerCancel = cancel
	r.producerDone = make(chan struct{})
	go func() {
		r.producer.Run(ctx)
		close(r.producerDone)
	}()

	r.startMetrics()
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled,
// then attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the producer, metrics server, collector and DB connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	r.stopOnce.Do(func() {
		if r.producerCancel != nil {
			r.producerCancel()
		}
	})
	if r.producerDone != nil {
		select {
		case <-r.producerDone:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if r.collector != nil {
		if err := r.collector.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	r.sync.Close()

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// SetScenario switches which replay source the producer samples from.
func (r *Runtime) SetScenario(s Scenario) error {
	return r.producer.SetScenario(s)
}

// Scenario reports the active scenario.
func (r *Runtime) Scenario() Scenario {
	return r.producer.Scenario()
}

// Save persists an externally built window through the sync facade.
func (r *Runtime) Save(ctx context.Context, buffer []Snapshot, scenario Scenario, rowIndices map[string]int, pred Prediction) error {
	return r.sync.Save(ctx, buffer, scenario, rowIndices, pred)
}

// Load returns the current state record and the tier that served it.
func (r *Runtime) Load(ctx context.Context) (*StateRecord, string, error) {
	return r.sync.Load(ctx)
}

// IsFresh reports whether the current state is younger than maxAge.
// maxAge <= 0 uses the configured default window.
func (r *Runtime) IsFresh(ctx context.Context, maxAge time.Duration) (Report, *StateRecord, error) {
	return r.sync.IsFresh(ctx, maxAge)
}

// ClearPending drops the producer-local pending slot.
func (r *Runtime) ClearPending() { r.sync.ClearPending() }

// PendingStatus describes the pending slot for diagnostics panes.
func (r *Runtime) PendingStatus() string { return r.sync.PendingStatus() }

// LastRemoteSuccess reports when the remote tier last accepted a write.
func (r *Runtime) LastRemoteSuccess() time.Time { return r.sync.LastRemoteSuccess() }

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Error().Err(err).Msg("metrics server exited")
		}
	}()
}
