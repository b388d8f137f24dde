package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a revived configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "bbolt"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./.revived.db"
	}
	if cfg.Sweep.IntervalSec == 0 {
		cfg.Sweep.IntervalSec = 60
	}
	if cfg.Sweep.BuildBacklog == 0 {
		cfg.Sweep.BuildBacklog = 50
	}
	if cfg.Action.TimeoutSec == 0 {
		cfg.Action.TimeoutSec = 30
	}
	if cfg.Restart.CronTime == "" {
		cfg.Restart.CronTime = "* * * * *"
	}
}

// validate checks the configuration for errors and inconsistencies.
func validate(cfg *Config) error {
	validDrivers := map[string]bool{
		"bbolt": true,
		"json":  true,
	}
	if !validDrivers[cfg.Store.Driver] {
		return fmt.Errorf("invalid store driver: %s (must be 'bbolt' or 'json')", cfg.Store.Driver)
	}

	if err := ValidateGlobal(&cfg.Restart); err != nil {
		return err
	}

	for id, local := range cfg.Jobs {
		if id == "" {
			return fmt.Errorf("job override with empty job ID")
		}
		if local.MaxDepth < 0 {
			return fmt.Errorf("job %s: max_depth must be non-negative", id)
		}
	}

	if cfg.Sweep.IntervalSec < 1 {
		return fmt.Errorf("sweep.interval_sec must be at least 1")
	}
	if cfg.Action.TimeoutSec < 0 {
		return fmt.Errorf("action.timeout_sec must be non-negative")
	}

	return nil
}

// ValidateGlobal checks the system-wide restart settings. It is called
// both at load time and when the configuration API replaces the global
// section at runtime.
func ValidateGlobal(g *Global) error {
	if err := ValidateCronField(g.CronTime); err != nil {
		return fmt.Errorf("invalid cron_time: %w", err)
	}
	if g.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative (0 means unlimited)")
	}
	for i, expr := range g.RegExprs {
		if strings.TrimSpace(expr) == "" {
			return fmt.Errorf("reg_exprs[%d] is empty", i)
		}
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("reg_exprs[%d] does not compile: %w", i, err)
		}
	}
	return nil
}

// ValidateCronField performs a structural check on a cron expression.
// Supports standard 5-field cron, the 6-field (with seconds) variant, and
// @-prefixed descriptors. The scheduler performs the authoritative parse
// at evaluation time; this check catches obvious errors at the config
// boundary.
func ValidateCronField(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}

	if strings.HasPrefix(expr, "@") {
		descriptors := []string{"@annually", "@yearly", "@monthly", "@weekly", "@daily", "@hourly"}
		for _, d := range descriptors {
			if expr == d {
				return nil
			}
		}
		if strings.HasPrefix(expr, "@every ") {
			interval := strings.TrimPrefix(expr, "@every ")
			if matched, _ := regexp.MatchString(`^\d+(s|m|h)$`, interval); matched {
				return nil
			}
			return fmt.Errorf("invalid @every interval: %s (must be like '30s', '5m', '1h')", interval)
		}
		return fmt.Errorf("unknown schedule descriptor: %s", expr)
	}

	fields := strings.Fields(expr)
	if len(fields) < 5 || len(fields) > 6 {
		return fmt.Errorf("cron expression must have 5 or 6 fields, got %d", len(fields))
	}

	return nil
}

// Save writes a Config to a YAML file with an atomic rename, so a crash
// mid-write never leaves a truncated config behind.
func Save(cfg *Config, path string) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
