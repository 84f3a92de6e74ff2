package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gasproject "github.com/tasneem33355/digitopia-gas-project"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "status":
		err = statusCommand(os.Args[2:])
	case "watch":
		err = watchCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("gasmon %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	scenario := fs.String("scenario", "normal", "Initial scenario (normal, warning, failure)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := gasproject.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rt, err := gasproject.New(cfg)
	if err != nil {
		return err
	}
	if err := rt.SetScenario(gasproject.Scenario(*scenario)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := gasproject.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

// statusCommand loads the current shared state through the sync facade and
// prints a one-shot freshness report.
func statusCommand(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	maxAge := fs.Duration("max-age", 0, "Freshness window (0 uses the configured default)")
	asJSON := fs.Bool("json", false, "Print the full state record as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := gasproject.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Consumer-side: no snapshot source is needed to read state.
	rt, err := gasproject.New(cfg, gasproject.WithCollector(noopCollector{}))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rep, rec, err := rt.IsFresh(ctx, *maxAge)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	fmt.Printf("source=%s fresh=%t age=%s scenario=%s snapshots=%d prediction=%d\n",
		rep.Source, rep.Fresh, rep.Age.Round(time.Millisecond),
		rec.Scenario, len(rec.Buffer), rec.Prediction.Class)

	if *asJSON {
		raw, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
	}
	return nil
}

// watchCommand polls the shared state the way a consumer dashboard would,
// printing a freshness line per interval.
func watchCommand(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	maxAge := fs.Duration("max-age", 0, "Freshness window (0 uses the configured default)")
	interval := fs.Duration("interval", 5*time.Second, "Poll interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := gasproject.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rt, err := gasproject.New(cfg, gasproject.WithCollector(noopCollector{}))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Watching shared state (Ctrl+C to stop)\n")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rep, rec, err := rt.IsFresh(ctx, *maxAge)
			if err != nil {
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
				continue
			}
			fmt.Printf("[%s] source=%s fresh=%t age=%s scenario=%s prediction=%d\n",
				time.Now().Format(time.RFC3339), rep.Source, rep.Fresh,
				rep.Age.Round(time.Millisecond), rec.Scenario, rec.Prediction.Class)
		}
	}
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"gas_state_saves_total":   0,
		"gas_remote_writes_total": 0,
		"gas_state_age_seconds":   0,
		"gas_pending_state":       0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] saves=%.0f remote_writes=%.0f state_age=%.1fs pending=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets["gas_state_saves_total"],
		targets["gas_remote_writes_total"],
		targets["gas_state_age_seconds"],
		targets["gas_pending_state"],
	)
	return nil
}

type noopCollector struct{}

func (noopCollector) Next(context.Context, gasproject.Scenario) (*gasproject.Snapshot, error) {
	return nil, fmt.Errorf("no snapshot source configured")
}
func (noopCollector) Cursors() map[string]int { return nil }
func (noopCollector) Stop() error             { return nil }

func printUsage() {
	fmt.Printf(`Gas system state monitor

Usage:
  gasmon <command> [flags]

Commands:
  run        Start the producer runtime using the provided config
  validate   Load and validate a config file without starting the runtime
  status     Print a one-shot freshness report for the shared state
  watch      Poll the shared state and print freshness lines
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  gasmon run -config ./data/config.yaml -scenario warning
  gasmon validate -config ./data/config.yaml
  gasmon status -config ./data/config.yaml -max-age 60s
  gasmon watch -config ./data/config.yaml -interval 5s
  gasmon stats -url http://localhost:9100/metrics -interval 1s
`)
}
