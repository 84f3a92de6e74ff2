package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv(EnvSpreadsheetID, "")
	t.Setenv(EnvCredentialsFile, "")

	path := writeConfig(t, `
policy:
  buffer_cap: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Policy.BufferCap != 10 {
		t.Fatalf("expected BufferCap 10, got %d", cfg.Policy.BufferCap)
	}
	if cfg.Policy.Debounce != 15*time.Second {
		t.Fatalf("expected Debounce default 15s, got %s", cfg.Policy.Debounce)
	}
	if cfg.Policy.DefaultMaxAge != 30*time.Second {
		t.Fatalf("expected DefaultMaxAge default 30s, got %s", cfg.Policy.DefaultMaxAge)
	}
	if cfg.Source != SourceReplay {
		t.Fatalf("expected default source replay, got %s", cfg.Source)
	}
	if cfg.Local.Path != "./data/shared_state.json" {
		t.Fatalf("expected default local path, got %s", cfg.Local.Path)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.Remote.Kind != RemoteNone {
		t.Fatalf("expected remote to degrade to none, got %s", cfg.Remote.Kind)
	}
	if cfg.Replay.Sources["normal"] == "" {
		t.Fatalf("expected replay sources to get defaults")
	}
}

func TestLoadSheetsFromEnv(t *testing.T) {
	t.Setenv(EnvSpreadsheetID, "sheet-123")
	t.Setenv(EnvCredentialsFile, "/etc/creds.json")

	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Remote.Kind != RemoteSheets {
		t.Fatalf("expected sheets remote from env, got %s", cfg.Remote.Kind)
	}
	if cfg.Remote.SpreadsheetID != "sheet-123" || cfg.Remote.CredentialsFile != "/etc/creds.json" {
		t.Fatalf("env fallbacks not applied: %+v", cfg.Remote)
	}
}

func TestLoadSheetsWithoutCredentialsDegrades(t *testing.T) {
	t.Setenv(EnvSpreadsheetID, "")
	t.Setenv(EnvCredentialsFile, "")

	cfg, err := Load(writeConfig(t, `
remote:
  kind: sheets
  spreadsheet_id: sheet-123
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Remote.Kind != RemoteNone {
		t.Fatalf("expected degrade to none without credentials, got %s", cfg.Remote.Kind)
	}
}

func TestLoadPostgresRequiresConnString(t *testing.T) {
	_, err := Load(writeConfig(t, `
remote:
  kind: postgres
`))
	if err == nil {
		t.Fatalf("expected error for postgres without conn_string")
	}
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	_, err := Load(writeConfig(t, `
source: mqtt
`))
	if err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestLoadOPCUASource(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
source: opcua
opcua:
  endpoint: opc.tcp://localhost:4840
  nodes:
    - node_id: "ns=2;s=Gas.Pressure"
      field: pressure
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.OPCUA.Endpoint != "opc.tcp://localhost:4840" {
		t.Fatalf("endpoint = %s", cfg.OPCUA.Endpoint)
	}
	if cfg.OPCUA.PublishInterval == 0 {
		t.Fatalf("expected publish interval default applied")
	}
}
