package replay

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// Config maps each scenario to the CSV file that replays it.
type Config struct {
	Sources map[string]string `yaml:"sources"`
}

func (c *Config) ApplyDefaults() {
	if len(c.Sources) == 0 {
		c.Sources = map[string]string{
			string(domain.ScenarioNormal):  "./data/normal_4h_before.csv",
			string(domain.ScenarioWarning): "./data/warning_4h_before.csv",
			string(domain.ScenarioFailure): "./data/failure_2h_before.csv",
		}
	}
}

func (c *Config) Validate() error {
	for name := range c.Sources {
		if !domain.Scenario(name).Valid() {
			return fmt.Errorf("unknown replay scenario %q", name)
		}
	}
	return nil
}

// Collector replays pre-recorded scenario CSVs row by row, keeping an
// advancing cursor per scenario with wraparound. Rows are restamped with the
// capture time; missing or unparseable cells fall back to the field defaults.
type Collector struct {
	mu     sync.Mutex
	frames map[domain.Scenario][]domain.Snapshot
	cursor map[domain.Scenario]int
	now    func() time.Time
}

func New(cfg Config) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Collector{
		frames: make(map[domain.Scenario][]domain.Snapshot),
		cursor: make(map[domain.Scenario]int),
		now:    time.Now,
	}
	for name, path := range cfg.Sources {
		frames, err := loadFrames(path)
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", name, err)
		}
		c.frames[domain.Scenario(name)] = frames
	}
	return c, nil
}

func (c *Collector) Next(_ context.Context, scenario domain.Scenario) (*domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	frames, ok := c.frames[scenario]
	if !ok || len(frames) == 0 {
		return nil, fmt.Errorf("replay: no frames for scenario %q", scenario)
	}

	i := c.cursor[scenario] % len(frames)
	snap := frames[i]
	snap.Timestamp = c.now()
	c.cursor[scenario] = i + 1
	return &snap, nil
}

func (c *Collector) Cursors() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.cursor))
	for scenario, i := range c.cursor {
		out[string(scenario)] = i
	}
	return out
}

func (c *Collector) Stop() error { return nil }

func loadFrames(path string) ([]domain.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}

	frames := make([]domain.Snapshot, 0, len(rows)-1)
	for _, row := range rows[1:] {
		snap := domain.NewSnapshot(time.Time{})
		setFloat(row, col, "pressure", &snap.Pressure)
		setFloat(row, col, "flow_rate", &snap.FlowRate)
		setFloat(row, col, "temperature", &snap.Temperature)
		setInt(row, col, "valve_status", &snap.ValveStatus)
		setInt(row, col, "pump_state", &snap.PumpState)
		setFloat(row, col, "pump_speed", &snap.PumpSpeed)
		setFloat(row, col, "compressor_state", &snap.CompressorState)
		setFloat(row, col, "energy_consumption", &snap.EnergyConsumption)
		setInt(row, col, "alarm_triggered", &snap.AlarmTriggered)
		frames = append(frames, snap)
	}
	return frames, nil
}

func setFloat(row []string, col map[string]int, name string, dst *float64) {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return
	}
	if v, err := strconv.ParseFloat(row[i], 64); err == nil {
		*dst = v
	}
}

func setInt(row []string, col map[string]int, name string, dst *int) {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return
	}
	if v, err := strconv.ParseFloat(row[i], 64); err == nil {
		*dst = int(v)
	}
}

var _ ports.Collector = (*Collector)(nil)
