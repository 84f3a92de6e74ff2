package domain

import (
	"encoding/json"
	"time"
)

// Nominal operating values used when a replay row or live reading omits a
// field. Persisted records therefore never carry nulls.
const (
	DefaultPressure          = 30.0
	DefaultFlowRate          = 60.0
	DefaultTemperature       = 10.0
	DefaultValveStatus       = 1
	DefaultPumpState         = 1
	DefaultPumpSpeed         = 1000.0
	DefaultCompressorState   = 0.5
	DefaultEnergyConsumption = 20.0
	DefaultAlarmTriggered    = 0
)

// Snapshot is one timestamped observation of the gas system's sensor fields.
type Snapshot struct {
	Timestamp         time.Time `json:"timestamp"`
	Pressure          float64   `json:"pressure"`
	FlowRate          float64   `json:"flow_rate"`
	Temperature       float64   `json:"temperature"`
	ValveStatus       int       `json:"valve_status"`
	PumpState         int       `json:"pump_state"`
	PumpSpeed         float64   `json:"pump_speed"`
	CompressorState   float64   `json:"compressor_state"`
	EnergyConsumption float64   `json:"energy_consumption"`
	AlarmTriggered    int       `json:"alarm_triggered"`
}

// NewSnapshot returns a snapshot stamped at ts with every sensor field at its
// nominal default.
func NewSnapshot(ts time.Time) Snapshot {
	return Snapshot{
		Timestamp:         ts,
		Pressure:          DefaultPressure,
		FlowRate:          DefaultFlowRate,
		Temperature:       DefaultTemperature,
		ValveStatus:       DefaultValveStatus,
		PumpState:         DefaultPumpState,
		PumpSpeed:         DefaultPumpSpeed,
		CompressorState:   DefaultCompressorState,
		EnergyConsumption: DefaultEnergyConsumption,
		AlarmTriggered:    DefaultAlarmTriggered,
	}
}

// Hour is the capture hour, derived rather than stored.
func (s Snapshot) Hour() int { return s.Timestamp.Hour() }

// DayOfWeek is the capture weekday, derived rather than stored.
func (s Snapshot) DayOfWeek() time.Weekday { return s.Timestamp.Weekday() }

// UnmarshalJSON fills missing sensor fields with their defaults and repairs a
// malformed timestamp by substituting the current time, so one corrupt item
// never fails the whole buffer.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type plain Snapshot
	def := plain(NewSnapshot(time.Time{}))
	aux := struct {
		Timestamp string `json:"timestamp"`
		*plain
	}{plain: &def}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Snapshot(def)
	s.Timestamp = RepairTimestamp(aux.Timestamp)
	return nil
}

// ParseTimestamp accepts both zoned RFC 3339 timestamps and the zone-less ISO
// form older state files carry.
func ParseTimestamp(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return ts, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", v, time.Local)
}

// RepairTimestamp parses v, substituting the current time when it is
// malformed, so one corrupt item degrades only itself.
func RepairTimestamp(v string) time.Time {
	ts, err := ParseTimestamp(v)
	if err != nil {
		return time.Now()
	}
	return ts
}
