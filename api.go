package gasproject

import (
	"context"
	"time"

	base "github.com/tasneem33355/digitopia-gas-project/pkg/statesync"
)

// Re-exported errors for convenience.
var (
	ErrAbsent             = base.ErrAbsent
	ErrUnavailable        = base.ErrUnavailable
	ErrParse              = base.ErrParse
	ErrChannelStoreClosed = base.ErrChannelStoreClosed
)

// Type aliases so consumers can import the module root directly.
type (
	Config          = base.Config
	Policy          = base.Policy
	LocalConfig     = base.LocalConfig
	RemoteConfig    = base.RemoteConfig
	MetricsConfig   = base.MetricsConfig
	ReplayConfig    = base.ReplayConfig
	OPCUAConfig     = base.OPCUAConfig
	OPCUANodeConfig = base.OPCUANodeConfig
	Flow            = base.Flow
	FlowOption      = base.FlowOption
	StreamInOption  = base.StreamInOption
	StreamOutOption = base.StreamOutOption
	Runtime         = base.Runtime
	Option          = base.Option
	Snapshot        = base.Snapshot
	StateRecord     = base.StateRecord
	Prediction      = base.Prediction
	Scenario        = base.Scenario
	Report          = base.Report
	StateStore      = base.StateStore
	PendingCache    = base.PendingCache
	Collector       = base.Collector
	Predictor       = base.Predictor
	Observability   = base.Observability
	Field           = base.Field
	RecordSink      = base.RecordSink
)

// Scenario values.
const (
	ScenarioNormal  = base.ScenarioNormal
	ScenarioWarning = base.ScenarioWarning
	ScenarioFailure = base.ScenarioFailure
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...Option) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInCollector(col Collector) StreamInOption {
	return base.StreamInCollector(col)
}

func StreamInPredictor(p Predictor) StreamInOption {
	return base.StreamInPredictor(p)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutLocalStore(s StateStore) StreamOutOption {
	return base.StreamOutLocalStore(s)
}

func StreamOutRemoteStore(s StateStore) StreamOutOption {
	return base.StreamOutRemoteStore(s)
}

func StreamOutCallback(name string, fn RecordSink) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Runtime and options.
func New(cfg *Config, opts ...Option) (*Runtime, error) {
	return base.New(cfg, opts...)
}

func WithCollector(col Collector) Option {
	return base.WithCollector(col)
}

func WithPredictor(p Predictor) Option {
	return base.WithPredictor(p)
}

func WithLocalStore(s StateStore) Option {
	return base.WithLocalStore(s)
}

func WithRemoteStore(s StateStore) Option {
	return base.WithRemoteStore(s)
}

func WithCache(c PendingCache) Option {
	return base.WithCache(c)
}

func WithObservability(obs Observability) Option {
	return base.WithObservability(obs)
}

func WithClock(now func() time.Time) Option {
	return base.WithClock(now)
}

// Store adapters.
func NewCallbackStore(name string, fn RecordSink) StateStore {
	return base.NewCallbackStore(name, fn)
}

func NewChannelStore(name string, buffer int) (StateStore, <-chan *StateRecord, func()) {
	return base.NewChannelStore(name, buffer)
}

// RunFromConfigFile is the one-call entry point: load config, build the
// runtime, and block until ctx is cancelled.
func RunFromConfigFile(ctx context.Context, path string, opts ...Option) error {
	rt, err := buildFromPath(path, opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

func buildFromPath(path string, opts ...Option) (*Runtime, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}
