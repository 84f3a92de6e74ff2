package ports

import "github.com/tasneem33355/digitopia-gas-project/internal/domain"

// Predictor is the opaque classification step: a snapshot window in, a class
// with probabilities out. The real model lives outside this repository.
type Predictor interface {
	Predict(window []domain.Snapshot) (domain.Prediction, error)
}
