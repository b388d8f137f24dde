package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags at build time)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global logger
	logger *slog.Logger
)

func main() {
	logHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger = slog.New(logHandler)
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "revived",
	Short: "Automatic reincarnation of failed builds",
	Long: `Revived watches a CI system's completed builds and automatically
restarts ("reincarnates") the ones that failed, without causing restart
storms or touching healthy jobs.

Two independent triggers feed the restart decision engine:
  - an after-build hook, fired once per completed build reported over HTTP
  - a periodic sweep that re-evaluates every known job on a cron schedule

A build qualifies for a restart when a configured regular expression hits
its console output, when its configuration is unchanged since the previous
failure, or when its job is locally forced. Consecutive automatic restarts
are depth-limited per trigger family.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("revived %s (commit %s, built %s)\n", version, commit, buildTime)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	return ctx
}
