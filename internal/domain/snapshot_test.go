package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSnapshotUnmarshalDefaults(t *testing.T) {
	raw := []byte(`{"timestamp":"2026-03-01T10:00:00Z","pressure":35.5}`)

	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Pressure != 35.5 {
		t.Fatalf("expected pressure 35.5, got %f", s.Pressure)
	}
	if s.FlowRate != DefaultFlowRate {
		t.Fatalf("expected default flow rate %f, got %f", DefaultFlowRate, s.FlowRate)
	}
	if s.PumpSpeed != DefaultPumpSpeed {
		t.Fatalf("expected default pump speed %f, got %f", DefaultPumpSpeed, s.PumpSpeed)
	}
	if s.Hour() != 10 {
		t.Fatalf("expected derived hour 10, got %d", s.Hour())
	}
	if s.DayOfWeek() != time.Sunday {
		t.Fatalf("expected Sunday, got %s", s.DayOfWeek())
	}
}

func TestSnapshotUnmarshalRepairsBadTimestamp(t *testing.T) {
	raw := []byte(`{"timestamp":"not-a-time","pressure":12.0,"alarm_triggered":1}`)

	before := time.Now()
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	after := time.Now()

	if s.Timestamp.Before(before) || s.Timestamp.After(after) {
		t.Fatalf("repaired timestamp %s not within [%s, %s]", s.Timestamp, before, after)
	}
	if s.Pressure != 12.0 || s.AlarmTriggered != 1 {
		t.Fatalf("repair must not touch other fields: %+v", s)
	}
}

func TestSnapshotUnmarshalAcceptsZonelessISO(t *testing.T) {
	raw := []byte(`{"timestamp":"2026-03-01T10:30:00.123456"}`)

	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Timestamp.Hour() != 10 || s.Timestamp.Minute() != 30 {
		t.Fatalf("unexpected parsed timestamp %s", s.Timestamp)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC)
	in := NewSnapshot(ts)
	in.Pressure = 42.5
	in.AlarmTriggered = 1

	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Timestamp.Equal(ts) || out.Pressure != 42.5 || out.AlarmTriggered != 1 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}
