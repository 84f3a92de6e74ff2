package statesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
)

func adapterRecord() *StateRecord {
	return domain.NewStateRecord(
		[]Snapshot{domain.NewSnapshot(time.Unix(1, 0))},
		ScenarioNormal,
		map[string]int{"normal": 3},
		Prediction{Class: 0, Probabilities: [3]float64{0.8, 0.1, 0.1}, Confidence: 0.8},
		time.Unix(1, 0),
		domain.BufferCap,
	)
}

func TestNewCallbackStore(t *testing.T) {
	var received *StateRecord
	store := NewCallbackStore("cb", func(rec *StateRecord) error {
		received = rec
		return nil
	})

	input := adapterRecord()
	if err := store.Write(context.Background(), input); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if received == nil || received.Scenario != input.Scenario {
		t.Fatalf("mismatched record payload: %+v", received)
	}
	if received == input {
		t.Fatalf("expected record to be copied before handoff")
	}
	if _, err := store.Read(context.Background()); !errors.Is(err, ErrAbsent) {
		t.Fatalf("expected ErrAbsent from write-only store, got %v", err)
	}
}

func TestNewCallbackStoreNilHandler(t *testing.T) {
	store := NewCallbackStore("", nil)
	if err := store.Write(context.Background(), adapterRecord()); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
}

func TestNewChannelStore(t *testing.T) {
	store, ch, closeFn := NewChannelStore("chan", 1)
	defer closeFn()

	input := adapterRecord()
	errCh := make(chan error, 1)
	go func() {
		errCh <- store.Write(context.Background(), input)
	}()

	var got *StateRecord
	select {
	case got = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel record")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if got.Scenario != input.Scenario || got.RowIndices["normal"] != 3 {
		t.Fatalf("unexpected record data: %+v", got)
	}

	closeFn()
	if err := store.Write(context.Background(), input); !errors.Is(err, ErrChannelStoreClosed) {
		t.Fatalf("expected ErrChannelStoreClosed, got %v", err)
	}
}
