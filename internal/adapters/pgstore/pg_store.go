package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// Store keeps the live record in a single-row table, overwritten in place via
// upsert. It is the remote tier for deployments that have a database instead
// of a spreadsheet; both satisfy the same StateStore contract.
type Store struct {
	db    *sql.DB
	table string
}

func New(db *sql.DB, table string) *Store {
	return &Store{db: db, table: table}
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Write(ctx context.Context, rec *domain.StateRecord) error {
	idx, err := json.Marshal(rec.RowIndices)
	if err != nil {
		return fmt.Errorf("pg encode row_indices: %w", err)
	}
	pred, err := json.Marshal(rec.Prediction)
	if err != nil {
		return fmt.Errorf("pg encode prediction_data: %w", err)
	}
	buf, err := json.Marshal(rec.Buffer)
	if err != nil {
		return fmt.Errorf("pg encode data_buffer: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, scenario, row_indices, prediction_data, data_buffer, last_update)
VALUES (1, $1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
 scenario = EXCLUDED.scenario,
 row_indices = EXCLUDED.row_indices,
 prediction_data = EXCLUDED.prediction_data,
 data_buffer = EXCLUDED.data_buffer,
 last_update = EXCLUDED.last_update`, s.table)

	if _, err := s.db.ExecContext(ctx, query, string(rec.Scenario), idx, pred, buf, rec.LastUpdate); err != nil {
		return fmt.Errorf("pg write: %w: %v", ports.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context) (*domain.StateRecord, error) {
	query := fmt.Sprintf(
		"SELECT scenario, row_indices, prediction_data, data_buffer, last_update FROM %s WHERE id = 1",
		s.table)

	var (
		scenario       string
		idx, pred, buf []byte
		lastUpdate     time.Time
	)
	err := s.db.QueryRowContext(ctx, query).Scan(&scenario, &idx, &pred, &buf, &lastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pg: %w", ports.ErrAbsent)
	}
	if err != nil {
		return nil, fmt.Errorf("pg read: %w: %v", ports.ErrUnavailable, err)
	}

	rec := &domain.StateRecord{Scenario: domain.Scenario(scenario), LastUpdate: lastUpdate}
	if err := json.Unmarshal(idx, &rec.RowIndices); err != nil {
		return nil, fmt.Errorf("pg row_indices: %w", ports.ErrParse)
	}
	if err := json.Unmarshal(pred, &rec.Prediction); err != nil {
		return nil, fmt.Errorf("pg prediction_data: %w", ports.ErrParse)
	}
	if err := json.Unmarshal(buf, &rec.Buffer); err != nil {
		return nil, fmt.Errorf("pg data_buffer: %w", ports.ErrParse)
	}
	return rec, nil
}

var _ ports.StateStore = (*Store)(nil)
