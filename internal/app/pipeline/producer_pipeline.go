package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// Saver is the slice of the sync facade the producer pushes into.
type Saver interface {
	Save(ctx context.Context, buffer []domain.Snapshot, scenario domain.Scenario, rowIndices map[string]int, pred domain.Prediction) error
}

// Producer drives the collect → predict → save cycle. It owns the active
// scenario and the sliding snapshot window; switching scenarios resets the
// window so predictions never mix regimes.
type Producer struct {
	col  ports.Collector
	pred ports.Predictor
	sink Saver
	pol  ports.Policy
	obs  ports.Observability

	mu       sync.Mutex
	scenario domain.Scenario
	window   []domain.Snapshot
}

func NewProducer(col ports.Collector, pred ports.Predictor, sink Saver, pol ports.Policy, obs ports.Observability) *Producer {
	return &Producer{
		col:      col,
		pred:     pred,
		sink:     sink,
		pol:      pol,
		obs:      obs,
		scenario: domain.ScenarioNormal,
	}
}

// SetScenario switches which source drives the cycle.
func (p *Producer) SetScenario(s domain.Scenario) error {
	if !s.Valid() {
		return fmt.Errorf("invalid scenario %q", s)
	}
	p.mu.Lock()
	if s != p.scenario {
		p.window = nil
	}
	p.scenario = s
	p.mu.Unlock()
	return nil
}

// Scenario reports the active scenario.
func (p *Producer) Scenario() domain.Scenario {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scenario
}

// Run blocks, executing one cycle per tick until ctx is cancelled.
func (p *Producer) Run(ctx context.Context) {
	tick := p.pol.Tick
	if tick <= 0 {
		tick = 10 * time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Step(ctx)
		}
	}
}

// Step runs a single collect → predict → save cycle. Collection and
// prediction failures abort the cycle; the previous state stays served.
func (p *Producer) Step(ctx context.Context) {
	p.mu.Lock()
	scenario := p.scenario
	p.mu.Unlock()

	snap, err := p.col.Next(ctx, scenario)
	if err != nil {
		p.obs.LogError("collect_failed", err, ports.Field{Key: "scenario", Value: string(scenario)})
		return
	}

	p.mu.Lock()
	p.window = append(p.window, *snap)
	if limit := p.pol.BufferCap; limit > 0 && len(p.window) > limit {
		p.window = p.window[len(p.window)-limit:]
	}
	window := make([]domain.Snapshot, len(p.window))
	copy(window, p.window)
	p.mu.Unlock()

	pred, err := p.pred.Predict(window)
	if err != nil {
		p.obs.LogError("predict_failed", err)
		return
	}

	if err := p.sink.Save(ctx, window, scenario, p.col.Cursors(), pred); err != nil {
		p.obs.LogError("save_failed", err)
	}
}
