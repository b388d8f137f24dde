package engine

import (
	"log/slog"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Suppress logs during tests
	}))
}

func TestMatcherFind(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		console  []string
		want     string // matched pattern, "" for no match
	}{
		{
			name:     "single match",
			patterns: []string{"ERROR"},
			console:  []string{"compiling...", "ERROR: failed", "done"},
			want:     "ERROR",
		},
		{
			name:     "first rule in list order wins",
			patterns: []string{"timeout", "ERROR"},
			console:  []string{"ERROR: connection timeout"},
			want:     "timeout",
		},
		{
			name:     "list order decides, not line order",
			patterns: []string{"second", "first"},
			console:  []string{"first problem", "second problem"},
			want:     "second",
		},
		{
			name:     "regex semantics",
			patterns: []string{`exit code [1-9]\d*`},
			console:  []string{"process finished with exit code 137"},
			want:     `exit code [1-9]\d*`,
		},
		{
			name:     "case sensitive",
			patterns: []string{"error"},
			console:  []string{"ERROR: failed"},
			want:     "",
		},
		{
			name:     "no match",
			patterns: []string{"ERROR"},
			console:  []string{"all good"},
			want:     "",
		},
		{
			name:     "empty console",
			patterns: []string{"ERROR"},
			console:  nil,
			want:     "",
		},
		{
			name:     "empty rule list",
			patterns: nil,
			console:  []string{"ERROR: failed"},
			want:     "",
		},
		{
			name:     "invalid pattern is skipped, later rules still apply",
			patterns: []string{"[unclosed", "ERROR"},
			console:  []string{"ERROR: failed"},
			want:     "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(tt.patterns, testLogger())
			rule := m.Find(tt.console)

			if tt.want == "" {
				if rule != nil {
					t.Errorf("Find() matched %q, want no match", rule.Pattern)
				}
				return
			}
			if rule == nil {
				t.Fatalf("Find() = nil, want match on %q", tt.want)
			}
			if rule.Pattern != tt.want {
				t.Errorf("Find() matched %q, want %q", rule.Pattern, tt.want)
			}
		})
	}
}
