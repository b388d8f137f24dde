package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const watcherConfigV1 = `
restart:
  active_trigger: true
  max_depth: 2
  reg_exprs:
    - "ERROR"
`

const watcherConfigV2 = `
restart:
  active_trigger: true
  max_depth: 7
  reg_exprs:
    - "ERROR"
    - "OutOfMemoryError"
`

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func startWatcher(t *testing.T, path string, provider *Provider) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	go func() {
		defer close(done)
		Watch(ctx, path, provider, logger)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// Give the watcher a moment to register with fsnotify before the
	// test starts rewriting the file.
	time.Sleep(100 * time.Millisecond)
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revived.yaml")
	writeConfigFile(t, path, watcherConfigV1)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	provider := NewProvider(cfg)
	startWatcher(t, path, provider)

	writeConfigFile(t, path, watcherConfigV2)

	ok := waitFor(t, 3*time.Second, func() bool {
		return provider.Global().MaxDepth == 7
	})
	if !ok {
		t.Fatalf("config not reloaded: max_depth = %d, want 7", provider.Global().MaxDepth)
	}
	if rules := provider.Global().RegExprs; len(rules) != 2 {
		t.Errorf("reg_exprs = %v, want 2 rules", rules)
	}
}

func TestWatchKeepsLastGoodConfigOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revived.yaml")
	writeConfigFile(t, path, watcherConfigV1)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	provider := NewProvider(cfg)
	startWatcher(t, path, provider)

	// Prove the watcher is live before feeding it garbage.
	writeConfigFile(t, path, watcherConfigV2)
	if !waitFor(t, 3*time.Second, func() bool { return provider.Global().MaxDepth == 7 }) {
		t.Fatalf("config not reloaded: max_depth = %d, want 7", provider.Global().MaxDepth)
	}

	tests := []struct {
		name    string
		content string
	}{
		{"unparsable yaml", "restart: [not: closed\n"},
		{"fails validation", "restart:\n  max_depth: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfigFile(t, path, tt.content)

			// The debounce plus reload window; the snapshot must not move.
			changed := waitFor(t, 1*time.Second, func() bool {
				return provider.Global().MaxDepth != 7
			})
			if changed {
				t.Fatalf("bad reload replaced the config: %+v", provider.Global())
			}
			if rules := provider.Global().RegExprs; len(rules) != 2 {
				t.Errorf("reg_exprs = %v, want the previous 2 rules", rules)
			}
		})
	}
}
