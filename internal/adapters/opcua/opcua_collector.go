package opcua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// Config captures the runtime details required to open an OPC UA session
// against the plant's gas instrumentation.
type Config struct {
	Endpoint        string        `yaml:"endpoint"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	SecurityMode    string        `yaml:"security_mode"`
	SecurityPolicy  string        `yaml:"security_policy"`
	ApplicationName string        `yaml:"application_name"`
	PublishInterval time.Duration `yaml:"publish_interval"`
	Nodes           []NodeConfig  `yaml:"nodes"`
}

// NodeConfig binds a monitored node to one Snapshot sensor field.
type NodeConfig struct {
	NodeID string `yaml:"node_id"`
	Field  string `yaml:"field"`
}

func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "Gas System Monitor"
	}
	if c.PublishInterval <= 0 {
		c.PublishInterval = 250 * time.Millisecond
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if len(c.Nodes) == 0 {
		return errors.New("at least one node must be configured")
	}
	for _, n := range c.Nodes {
		if _, ok := fieldSetters[n.Field]; !ok {
			return fmt.Errorf("node %q maps to unknown field %q", n.NodeID, n.Field)
		}
	}
	return nil
}

// Collector subscribes to the configured nodes and folds every data change
// into the current field map. Next materializes that map into a Snapshot
// stamped at the capture time; fields with no reading yet keep their defaults.
type Collector struct {
	cfg    Config
	client *opcua.Client
	sub    *opcua.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time

	mu      sync.Mutex
	handles map[uint32]string // client handle -> snapshot field
	current map[string]float64
	started bool
}

func NewCollector(cfg Config) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Collector{
		cfg:     cfg,
		now:     time.Now,
		current: make(map[string]float64),
	}, nil
}

// Start opens the session and begins monitoring. Callers pair it with Stop.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("opcua collector already started")
	}
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())

	client, err := opcua.NewClient(c.cfg.Endpoint, c.clientOptions()...)
	if err != nil {
		cancel()
		return fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		cancel()
		return fmt.Errorf("opcua connect: %w", err)
	}

	notifyCh := make(chan *opcua.PublishNotificationData, len(c.cfg.Nodes)*4)
	sub, err := client.Subscribe(ctx, &opcua.SubscriptionParameters{
		Interval: c.cfg.PublishInterval,
	}, notifyCh)
	if err != nil {
		cancel()
		_ = client.Close(ctx)
		return fmt.Errorf("opcua subscribe: %w", err)
	}

	handles := make(map[uint32]string, len(c.cfg.Nodes))
	for i, node := range c.cfg.Nodes {
		nodeID, err := ua.ParseNodeID(node.NodeID)
		if err != nil {
			c.teardown(ctx, cancel, sub, client)
			return fmt.Errorf("parse node id %q: %w", node.NodeID, err)
		}
		handle := uint32(i + 1)
		req := opcua.NewMonitoredItemCreateRequestWithDefaults(nodeID, ua.AttributeIDValue, handle)
		res, err := sub.Monitor(ctx, ua.TimestampsToReturnBoth, req)
		if err != nil {
			c.teardown(ctx, cancel, sub, client)
			return fmt.Errorf("monitor node %q: %w", node.NodeID, err)
		}
		if len(res.Results) == 0 || res.Results[0].StatusCode != ua.StatusOK {
			c.teardown(ctx, cancel, sub, client)
			return fmt.Errorf("monitor node %q rejected", node.NodeID)
		}
		handles[handle] = node.Field
	}

	c.mu.Lock()
	c.client = client
	c.sub = sub
	c.cancel = cancel
	c.handles = handles
	c.started = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.consume(runCtx, notifyCh)
	return nil
}

// Next materializes the latest readings. A live source has no replay cursor,
// so the scenario argument only labels the record built from it.
func (c *Collector) Next(_ context.Context, _ domain.Scenario) (*domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil, errors.New("opcua collector not started")
	}

	snap := domain.NewSnapshot(c.now())
	for field, v := range c.current {
		fieldSetters[field](&snap, v)
	}
	return &snap, nil
}

// Cursors is empty for a live source.
func (c *Collector) Cursors() map[string]int { return map[string]int{} }

func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	cancel, sub, client := c.cancel, c.sub, c.client
	c.started = false
	c.cancel, c.sub, c.client = nil, nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ctxCancel()

	var err error
	if sub != nil {
		if e := sub.Cancel(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}
	if client != nil {
		if e := client.Close(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}

	c.wg.Wait()
	return err
}

func (c *Collector) consume(ctx context.Context, ch <-chan *opcua.PublishNotificationData) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case notif := <-ch:
			if notif == nil || notif.Error != nil {
				continue
			}
			data, ok := notif.Value.(*ua.DataChangeNotification)
			if !ok {
				continue
			}
			c.fold(data)
		}
	}
}

func (c *Collector) fold(data *ua.DataChangeNotification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range data.MonitoredItems {
		field, ok := c.handles[item.ClientHandle]
		if !ok {
			continue
		}
		if v, ok := variantToFloat(item.Value.Value); ok {
			c.current[field] = v
		}
	}
}

func (c *Collector) clientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(c.cfg.SecurityMode)),
		opcua.SecurityPolicy(c.cfg.SecurityPolicy),
		opcua.ApplicationName(c.cfg.ApplicationName),
		opcua.AutoReconnect(true),
	}
	if c.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(c.cfg.Username, c.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func (c *Collector) teardown(ctx context.Context, cancel context.CancelFunc, sub *opcua.Subscription, client *opcua.Client) {
	cancel()
	if sub != nil {
		_ = sub.Cancel(ctx)
	}
	if client != nil {
		_ = client.Close(ctx)
	}
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

var fieldSetters = map[string]func(*domain.Snapshot, float64){
	"pressure":           func(s *domain.Snapshot, v float64) { s.Pressure = v },
	"flow_rate":          func(s *domain.Snapshot, v float64) { s.FlowRate = v },
	"temperature":        func(s *domain.Snapshot, v float64) { s.Temperature = v },
	"valve_status":       func(s *domain.Snapshot, v float64) { s.ValveStatus = int(v) },
	"pump_state":         func(s *domain.Snapshot, v float64) { s.PumpState = int(v) },
	"pump_speed":         func(s *domain.Snapshot, v float64) { s.PumpSpeed = v },
	"compressor_state":   func(s *domain.Snapshot, v float64) { s.CompressorState = v },
	"energy_consumption": func(s *domain.Snapshot, v float64) { s.EnergyConsumption = v },
	"alarm_triggered":    func(s *domain.Snapshot, v float64) { s.AlarmTriggered = int(v) },
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

var _ ports.Collector = (*Collector)(nil)
