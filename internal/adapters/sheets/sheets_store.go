package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// WorksheetName is the fixed sheet holding the live record in row 2. Rows
// below it are stale append history from bootstrap or failed overwrites and
// only matter through "latest row" semantics.
const WorksheetName = "dashboard_data"

const (
	headerRange  = WorksheetName + "!A1:F1"
	liveRowRange = WorksheetName + "!A2:F2"
	dataRange    = WorksheetName + "!A2:F"
)

var headerRow = []any{"timestamp", "scenario", "row_indices", "prediction_data", "data_buffer", "last_update"}

type Config struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// rowAPI is the thin slice of the Sheets API the store needs; tests swap in a
// fake so no network is involved.
type rowAPI interface {
	ensureWorksheet(ctx context.Context) error
	overwrite(ctx context.Context, row []any) error
	appendRow(ctx context.Context, row []any) error
	rows(ctx context.Context) ([][]any, error)
}

// Store adapts a Google Sheets worksheet into a single-record StateStore.
// The service handle is memoized after the first successful dial; failures
// are not cached and are retried on the next call. Every transport fault is
// downgraded to ErrUnavailable or ErrAbsent at this boundary.
type Store struct {
	cfg  Config
	dial func(ctx context.Context, cfg Config) (rowAPI, error)

	mu    sync.Mutex
	api   rowAPI
	ready bool
}

func New(cfg Config) *Store {
	return &Store{cfg: cfg, dial: dialSheets}
}

func (s *Store) Name() string { return "google-sheets" }

func (s *Store) handle(ctx context.Context) (rowAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.api == nil {
		api, err := s.dial(ctx, s.cfg)
		if err != nil {
			return nil, fmt.Errorf("sheets connect: %w: %v", ports.ErrUnavailable, err)
		}
		s.api = api
	}
	if !s.ready {
		if err := s.api.ensureWorksheet(ctx); err != nil {
			return nil, fmt.Errorf("sheets worksheet: %w: %v", ports.ErrUnavailable, err)
		}
		s.ready = true
	}
	return s.api, nil
}

func (s *Store) Write(ctx context.Context, rec *domain.StateRecord) error {
	api, err := s.handle(ctx)
	if err != nil {
		return err
	}

	row, err := recordRow(rec)
	if err != nil {
		return fmt.Errorf("sheets encode: %w", err)
	}

	// Overwrite the live row; append only when the overwrite fails (first
	// write bootstrap, row deleted out of band).
	if err := api.overwrite(ctx, row); err == nil {
		return nil
	}
	if err := api.appendRow(ctx, row); err != nil {
		return fmt.Errorf("sheets write: %w: %v", ports.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context) (*domain.StateRecord, error) {
	api, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := api.rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets read: %w: %v", ports.ErrUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheets: %w", ports.ErrAbsent)
	}
	return parseRow(rows[len(rows)-1])
}

func recordRow(rec *domain.StateRecord) ([]any, error) {
	idx, err := json.Marshal(rec.RowIndices)
	if err != nil {
		return nil, err
	}
	pred, err := json.Marshal(rec.Prediction)
	if err != nil {
		return nil, err
	}
	buf, err := json.Marshal(rec.Buffer)
	if err != nil {
		return nil, err
	}
	ts := rec.LastUpdate.Format(time.RFC3339Nano)
	return []any{ts, string(rec.Scenario), string(idx), string(pred), string(buf), ts}, nil
}

func parseRow(row []any) (*domain.StateRecord, error) {
	if len(row) < len(headerRow) {
		return nil, fmt.Errorf("sheets row has %d cells: %w", len(row), ports.ErrAbsent)
	}
	cells := make([]string, len(headerRow))
	for i := range cells {
		cells[i] = strings.TrimSpace(fmt.Sprint(row[i]))
		if cells[i] == "" {
			return nil, fmt.Errorf("sheets row missing %q: %w", headerRow[i], ports.ErrAbsent)
		}
	}

	rec := &domain.StateRecord{Scenario: domain.Scenario(cells[1])}
	if err := json.Unmarshal([]byte(cells[2]), &rec.RowIndices); err != nil {
		return nil, fmt.Errorf("sheets row_indices: %w", ports.ErrParse)
	}
	if err := json.Unmarshal([]byte(cells[3]), &rec.Prediction); err != nil {
		return nil, fmt.Errorf("sheets prediction_data: %w", ports.ErrParse)
	}
	if err := json.Unmarshal([]byte(cells[4]), &rec.Buffer); err != nil {
		return nil, fmt.Errorf("sheets data_buffer: %w", ports.ErrParse)
	}
	ts, err := domain.ParseTimestamp(cells[5])
	if err != nil {
		return nil, fmt.Errorf("sheets last_update: %w", ports.ErrParse)
	}
	rec.LastUpdate = ts
	return rec, nil
}

// sheetsAPI is the production rowAPI over the Google Sheets v4 service.
type sheetsAPI struct {
	svc           *sheets.Service
	spreadsheetID string
}

func dialSheets(ctx context.Context, cfg Config) (rowAPI, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return &sheetsAPI{svc: svc, spreadsheetID: cfg.SpreadsheetID}, nil
}

func (a *sheetsAPI) ensureWorksheet(ctx context.Context) error {
	ss, err := a.svc.Spreadsheets.Get(a.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return err
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == WorksheetName {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: WorksheetName},
			},
		}},
	}
	if _, err := a.svc.Spreadsheets.BatchUpdate(a.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return err
	}

	vr := &sheets.ValueRange{Values: [][]any{headerRow}}
	_, err = a.svc.Spreadsheets.Values.Update(a.spreadsheetID, headerRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (a *sheetsAPI) overwrite(ctx context.Context, row []any) error {
	vr := &sheets.ValueRange{Values: [][]any{row}}
	_, err := a.svc.Spreadsheets.Values.Update(a.spreadsheetID, liveRowRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (a *sheetsAPI) appendRow(ctx context.Context, row []any) error {
	vr := &sheets.ValueRange{Values: [][]any{row}}
	_, err := a.svc.Spreadsheets.Values.Append(a.spreadsheetID, dataRange, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (a *sheetsAPI) rows(ctx context.Context) ([][]any, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(a.spreadsheetID, dataRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

var _ ports.StateStore = (*Store)(nil)
