package predict

import (
	"errors"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// Class labels emitted by the classification step.
const (
	ClassNormal  = 0
	ClassWarning = 1
	ClassFailure = 2
)

// Baseline is a threshold classifier used when the trained model is not
// wired in. The class is chosen by explicit rules and the probability vector
// is derived from it, never the other way around.
type Baseline struct {
	PressureWarnLow  float64
	PressureWarnHigh float64
	PressureCritLow  float64
	PressureCritHigh float64
	TempWarnHigh     float64
	TempCritHigh     float64
	FlowWarnLow      float64
	FlowCritLow      float64
}

func NewBaseline() *Baseline {
	return &Baseline{
		PressureWarnLow:  25,
		PressureWarnHigh: 45,
		PressureCritLow:  20,
		PressureCritHigh: 52,
		TempWarnHigh:     35,
		TempCritHigh:     45,
		FlowWarnLow:      40,
		FlowCritLow:      25,
	}
}

var errEmptyWindow = errors.New("predict: empty snapshot window")

func (b *Baseline) Predict(window []domain.Snapshot) (domain.Prediction, error) {
	if len(window) == 0 {
		return domain.Prediction{}, errEmptyWindow
	}
	latest := window[len(window)-1]

	var warn, crit int

	if latest.AlarmTriggered != 0 {
		crit++
	}
	switch {
	case latest.Pressure < b.PressureCritLow || latest.Pressure > b.PressureCritHigh:
		crit++
	case latest.Pressure < b.PressureWarnLow || latest.Pressure > b.PressureWarnHigh:
		warn++
	}
	switch {
	case latest.Temperature > b.TempCritHigh:
		crit++
	case latest.Temperature > b.TempWarnHigh:
		warn++
	}
	switch {
	case latest.FlowRate < b.FlowCritLow:
		crit++
	case latest.FlowRate < b.FlowWarnLow:
		warn++
	}

	class := ClassNormal
	switch {
	case crit > 0:
		class = ClassFailure
	case warn > 0:
		class = ClassWarning
	}

	probs := probabilitiesFor(class)
	return domain.Prediction{
		Class:         class,
		Probabilities: probs,
		Confidence:    maxProb(probs),
	}, nil
}

func probabilitiesFor(class int) [3]float64 {
	switch class {
	case ClassFailure:
		return [3]float64{0.05, 0.15, 0.80}
	case ClassWarning:
		return [3]float64{0.15, 0.70, 0.15}
	default:
		return [3]float64{0.80, 0.15, 0.05}
	}
}

func maxProb(p [3]float64) float64 {
	m := p[0]
	for _, v := range p[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

var _ ports.Predictor = (*Baseline)(nil)
