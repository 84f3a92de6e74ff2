package domain

import "time"

// Scenario identifies which replay source drives the producer.
type Scenario string

const (
	ScenarioNormal  Scenario = "normal"
	ScenarioWarning Scenario = "warning"
	ScenarioFailure Scenario = "failure"
)

// Scenarios lists the closed enumeration in replay order.
var Scenarios = []Scenario{ScenarioNormal, ScenarioWarning, ScenarioFailure}

func (s Scenario) Valid() bool {
	switch s {
	case ScenarioNormal, ScenarioWarning, ScenarioFailure:
		return true
	}
	return false
}

// BufferCap bounds the snapshot window every tier retains. An earlier variant
// of the system kept 50; the remote-tier limit of 20 is the one carried
// forward so all tiers agree.
const BufferCap = 20

// Prediction is the output of the opaque classification step. Class is stored
// explicitly; it must never be reconstructed as an argmax over Probabilities.
type Prediction struct {
	Class         int        `json:"prediction"`
	Probabilities [3]float64 `json:"probabilities"`
	Confidence    float64    `json:"confidence"`
}

// StateRecord is the overwrite-unit exchanged between storage tiers: a capped
// window of recent snapshots plus the metadata consumers need to resume.
type StateRecord struct {
	Buffer     []Snapshot     `json:"data_buffer"`
	Scenario   Scenario       `json:"current_scenario"`
	RowIndices map[string]int `json:"row_indices"`
	Prediction Prediction     `json:"prediction_data"`
	LastUpdate time.Time      `json:"last_update"`
}

// NewStateRecord builds a record stamped at now, retaining only the most
// recent cap snapshots (FIFO eviction). The buffer and index map are copied so
// the record is safe to hand across goroutines.
func NewStateRecord(buffer []Snapshot, scenario Scenario, rowIndices map[string]int, pred Prediction, now time.Time, cap int) *StateRecord {
	if cap <= 0 {
		cap = BufferCap
	}
	if len(buffer) > cap {
		buffer = buffer[len(buffer)-cap:]
	}
	buf := make([]Snapshot, len(buffer))
	copy(buf, buffer)

	idx := make(map[string]int, len(rowIndices))
	for k, v := range rowIndices {
		idx[k] = v
	}

	return &StateRecord{
		Buffer:     buf,
		Scenario:   scenario,
		RowIndices: idx,
		Prediction: pred,
		LastUpdate: now,
	}
}

// Age reports how long ago the record was produced.
func (r *StateRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.LastUpdate)
}

// Clone returns a deep copy so cached records can be restamped without
// mutating the slot other readers share.
func (r *StateRecord) Clone() *StateRecord {
	return NewStateRecord(r.Buffer, r.Scenario, r.RowIndices, r.Prediction, r.LastUpdate, len(r.Buffer)+1)
}
