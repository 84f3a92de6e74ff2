package statesync

import (
	appsync "github.com/tasneem33355/digitopia-gas-project/internal/app/sync"
	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// Snapshot is one point-in-time reading of the gas system's sensors.
type Snapshot = domain.Snapshot

// StateRecord is the full persisted state: the snapshot window plus scenario,
// replay cursors and the latest prediction.
type StateRecord = domain.StateRecord

// Prediction is a classifier verdict over the snapshot window.
type Prediction = domain.Prediction

// Scenario identifies which replay source drives the producer.
type Scenario = domain.Scenario

const (
	ScenarioNormal  = domain.ScenarioNormal
	ScenarioWarning = domain.ScenarioWarning
	ScenarioFailure = domain.ScenarioFailure
)

// StateStore persists and retrieves the single shared state record.
type StateStore = ports.StateStore

// PendingCache is the producer-local one-slot tier.
type PendingCache = ports.PendingCache

// Collector produces snapshots, from CSV replay or a live OPC UA session.
type Collector = ports.Collector

// Predictor classifies a snapshot window.
type Predictor = ports.Predictor

// Observability emits metrics and structured logs for the sync layer.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Report is the consumer-facing answer to a freshness check.
type Report = appsync.Report

// Sentinel errors returned by store implementations.
var (
	ErrAbsent      = ports.ErrAbsent
	ErrUnavailable = ports.ErrUnavailable
	ErrParse       = ports.ErrParse
)
