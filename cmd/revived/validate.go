package main

import (
	"fmt"
	"os"

	"github.com/reviveci/revive/internal/config"
	"github.com/reviveci/revive/internal/scheduler"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a revived configuration file",
	Long: `Validate the syntax and semantics of a revived configuration file.

This command loads and validates the configuration file without starting
the service. It checks for:
  - Valid YAML syntax
  - A parsable sweep cron expression
  - Compilable regular expression rules
  - Valid store driver configuration
  - Sane depth and interval values

Example:
  revived validate --config ./revived.yaml`,
	RunE: validateConfig,
}

func init() {
	validateCmd.Flags().StringP("config", "c", "revived.yaml", "Path to configuration file")
	validateCmd.MarkFlagRequired("config")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	logger.Info("validating configuration", "path", configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Error("configuration file not found", "path", configPath)
		return fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("configuration validation failed", "error", err)
		return fmt.Errorf("validation failed: %w", err)
	}

	// The loader checks cron structure; run the authoritative parse too.
	if err := scheduler.ValidateSchedule(cfg.Restart.CronTime); err != nil {
		logger.Error("cron expression rejected by scheduler", "error", err)
		return fmt.Errorf("validation failed: %w", err)
	}

	logger.Info("configuration is valid",
		"path", configPath,
		"cron_time", cfg.Restart.CronTime,
		"active_cron", cfg.Restart.ActiveCron,
		"active_trigger", cfg.Restart.ActiveTrigger,
		"max_depth", cfg.Restart.MaxDepth,
		"no_change", cfg.Restart.NoChange,
		"store_driver", cfg.Store.Driver)

	for i, expr := range cfg.Restart.RegExprs {
		logger.Info(fmt.Sprintf("regex rule %d", i+1), "pattern", expr)
	}

	for id, local := range cfg.Jobs {
		logger.Info("local override",
			"job_id", id,
			"locally_configured", local.LocallyConfigured,
			"enabled", local.Enabled,
			"max_depth", local.MaxDepth)
	}

	fmt.Fprintf(os.Stdout, "\n✓ Configuration is valid: %s\n", configPath)
	fmt.Fprintf(os.Stdout, "  Sweep cron: %s (active: %v)\n", cfg.Restart.CronTime, cfg.Restart.ActiveCron)
	fmt.Fprintf(os.Stdout, "  Regex rules: %d\n", len(cfg.Restart.RegExprs))
	fmt.Fprintf(os.Stdout, "  Store: %s (%s)\n", cfg.Store.Driver, cfg.Store.Path)

	return nil
}
