package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the write+rename event bursts editors and
// atomic savers produce into a single reload.
const debounceDelay = 250 * time.Millisecond

// Watch reloads the config file into the provider whenever it changes on
// disk. A reload that fails to parse or validate is logged and discarded;
// the last good configuration stays in effect. Watch blocks until the
// context is cancelled.
func Watch(ctx context.Context, path string, provider *Provider, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: atomic saves replace the inode
	// and a file-level watch would go stale after the first rename.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	var debounce *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			cfg, err := Load(path)
			if err != nil {
				logger.Warn("config reload failed, keeping previous configuration",
					"path", path, "error", err)
				continue
			}
			provider.Replace(cfg)
			logger.Info("configuration reloaded",
				"path", path,
				"active_trigger", cfg.Restart.ActiveTrigger,
				"active_cron", cfg.Restart.ActiveCron,
				"regex_rules", len(cfg.Restart.RegExprs))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error", "error", err)
		}
	}
}
