package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "revived.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
restart:
  active_trigger: true
  reg_exprs:
    - "ERROR"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Driver != "bbolt" {
		t.Errorf("Store.Driver = %q, want bbolt default", cfg.Store.Driver)
	}
	if cfg.Store.Path == "" {
		t.Error("Store.Path default not applied")
	}
	if cfg.Sweep.IntervalSec != 60 {
		t.Errorf("Sweep.IntervalSec = %d, want 60", cfg.Sweep.IntervalSec)
	}
	if cfg.Sweep.BuildBacklog != 50 {
		t.Errorf("Sweep.BuildBacklog = %d, want 50", cfg.Sweep.BuildBacklog)
	}
	if cfg.Restart.CronTime != "* * * * *" {
		t.Errorf("Restart.CronTime = %q, want every-minute default", cfg.Restart.CronTime)
	}
	if !cfg.Restart.ActiveTrigger {
		t.Error("active_trigger not parsed")
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
logging:
  format: text
  level: debug
store:
  driver: json
  path: ./state.json
restart:
  cron_time: "0 3 * * *"
  active_cron: true
  active_trigger: true
  max_depth: 3
  no_change: true
  reg_exprs:
    - "OutOfMemoryError"
    - "connection reset"
sweep:
  interval_sec: 30
action:
  command: ./requeue.sh
  timeout_sec: 10
jobs:
  flaky-integration:
    locally_configured: true
    enabled: true
    max_depth: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Restart.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", cfg.Restart.MaxDepth)
	}
	if len(cfg.Restart.RegExprs) != 2 || cfg.Restart.RegExprs[0] != "OutOfMemoryError" {
		t.Errorf("RegExprs = %v, order not preserved", cfg.Restart.RegExprs)
	}
	local, ok := cfg.Jobs["flaky-integration"]
	if !ok {
		t.Fatal("local override not parsed")
	}
	if !local.LocallyConfigured || !local.Enabled || local.MaxDepth != 5 {
		t.Errorf("local override = %+v", local)
	}
	if cfg.Action.Command != "./requeue.sh" {
		t.Errorf("Action.Command = %q", cfg.Action.Command)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{
			name:    "bad yaml",
			content: "restart: [",
			errPart: "parse YAML",
		},
		{
			name: "bad driver",
			content: `
store:
  driver: postgres
`,
			errPart: "invalid store driver",
		},
		{
			name: "bad cron",
			content: `
restart:
  cron_time: "whenever"
`,
			errPart: "cron_time",
		},
		{
			name: "bad regex",
			content: `
restart:
  reg_exprs:
    - "[unclosed"
`,
			errPart: "does not compile",
		},
		{
			name: "negative depth",
			content: `
restart:
  max_depth: -2
`,
			errPart: "max_depth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() error = nil, want validation failure")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q does not mention %q", err, tt.errPart)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() error = nil for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revived.yaml")

	cfg := &Config{
		Store: Store{Driver: "json", Path: "./state.json"},
		Restart: Global{
			CronTime:      "*/10 * * * *",
			ActiveCron:    true,
			ActiveTrigger: true,
			MaxDepth:      2,
			RegExprs:      []string{"ERROR"},
		},
		Sweep: Sweep{IntervalSec: 60, BuildBacklog: 50},
	}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}
	if loaded.Restart.CronTime != cfg.Restart.CronTime {
		t.Errorf("CronTime = %q, want %q", loaded.Restart.CronTime, cfg.Restart.CronTime)
	}
	if len(loaded.Restart.RegExprs) != 1 {
		t.Errorf("RegExprs = %v", loaded.Restart.RegExprs)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revived.yaml")

	cfg := &Config{
		Store:   Store{Driver: "json", Path: "./state.json"},
		Restart: Global{CronTime: "nope"},
		Sweep:   Sweep{IntervalSec: 60},
	}

	if err := Save(cfg, path); err == nil {
		t.Fatal("Save() error = nil, want validation failure")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid config was written to disk")
	}
}
