package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reviveci/revive/internal/config"
	"github.com/reviveci/revive/internal/engine"
	"github.com/reviveci/revive/internal/host"
	"github.com/reviveci/revive/internal/logging"
	"github.com/reviveci/revive/internal/restart"
	"github.com/reviveci/revive/internal/scheduler"
	"github.com/reviveci/revive/internal/server"
	"github.com/reviveci/revive/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the restart decision service",
	Long: `Start the restart decision service.

This command loads the configuration file, opens the build history store,
starts the periodic sweep, and serves the HTTP API the CI system reports
completed builds to.

Example:
  revived serve --config ./revived.yaml --addr :8080`,
	RunE: runServer,
}

func init() {
	serveCmd.Flags().StringP("config", "c", "revived.yaml", "Path to configuration file")
	serveCmd.Flags().StringP("addr", "a", ":8080", "HTTP server address (host:port)")
	serveCmd.Flags().Bool("watch-config", true, "Reload the config file when it changes on disk")
	serveCmd.MarkFlagRequired("config")
}

func runServer(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	addr, _ := cmd.Flags().GetString("addr")
	watchConfig, _ := cmd.Flags().GetBool("watch-config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply logging config from YAML if provided
	if cfg.Logging.Output != "" || cfg.Logging.Level != "" || cfg.Logging.Format != "" {
		serveLogger, err := logging.NewFromConfig(cfg.Logging.Format, cfg.Logging.Level, cfg.Logging.Output)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = serveLogger
		slog.SetDefault(serveLogger)
	}

	logger.Info("starting revived",
		"config", configPath,
		"addr", addr)
	logger.Info("configuration loaded",
		"cron_time", cfg.Restart.CronTime,
		"active_cron", cfg.Restart.ActiveCron,
		"active_trigger", cfg.Restart.ActiveTrigger,
		"max_depth", cfg.Restart.MaxDepth,
		"regex_rules", len(cfg.Restart.RegExprs),
		"local_overrides", len(cfg.Jobs),
		"store_driver", cfg.Store.Driver)

	st, err := store.NewStore(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	logger.Info("store initialized", "driver", cfg.Store.Driver, "path", cfg.Store.Path)

	provider := config.NewProvider(cfg)
	hostGlue := host.New(st, provider, logger)

	restarter := restart.NewRecorder(
		restart.NewCommandRestarter(
			cfg.Action.Command,
			time.Duration(cfg.Action.TimeoutSec)*time.Second,
			logger,
		),
		st,
		logger,
	)

	eng := engine.New(logger, restarter, hostGlue.Unchanged)

	ctx := setupSignalHandler()

	sweeper := scheduler.New(
		ctx,
		time.Duration(cfg.Sweep.IntervalSec)*time.Second,
		provider,
		eng,
		hostGlue,
		logger,
	)

	srv := server.New(
		addr,
		server.NewEngineAdapter(hostGlue, eng, provider),
		server.NewHostAdapter(hostGlue),
		server.NewStoreAdapter(st),
		server.NewConfigAdapter(provider, configPath),
		logger,
	)

	g, gCtx := errgroup.WithContext(ctx)

	// Start periodic sweep
	g.Go(func() error {
		sweeper.Start()
		<-gCtx.Done()
		return nil
	})

	// Start HTTP server
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.Start(gCtx); err != nil && err != context.Canceled {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Watch the config file for changes made behind the API's back
	if watchConfig {
		g.Go(func() error {
			if err := config.Watch(gCtx, configPath, provider, logger); err != nil && err != context.Canceled {
				logger.Error("config watcher stopped", "error", err)
			}
			return nil
		})
	}

	// Shutdown handler
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down gracefully...")

		sweeper.Stop()

		if err := srv.Stop(context.Background()); err != nil {
			logger.Error("error stopping server", "error", err)
		}

		return nil
	})

	logger.Info("revived started",
		"sweep_interval_sec", cfg.Sweep.IntervalSec,
		"api_url", fmt.Sprintf("http://localhost%s", addr))

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("error during execution", "error", err)
		return err
	}

	logger.Info("revived stopped")
	return nil
}
