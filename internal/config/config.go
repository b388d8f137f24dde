// Package config defines the revived configuration model, its YAML
// loader, and the snapshot provider the triggers read from.
package config

// Config is the top-level configuration for revived.
type Config struct {
	Logging Logging          `yaml:"logging"`
	Store   Store            `yaml:"store"`
	Restart Global           `yaml:"restart"`
	Sweep   Sweep            `yaml:"sweep"`
	Action  Action           `yaml:"action"`
	Jobs    map[string]Local `yaml:"jobs"` // per-job local overrides, keyed by job ID
}

// Logging configures the structured logger.
type Logging struct {
	Format string `yaml:"format"` // "json" or "text"
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Output string `yaml:"output"` // "stderr", "stdout", "discard", or a file path
}

// Store configuration for build history and restart ledger persistence.
type Store struct {
	Driver string `yaml:"driver"` // "bbolt" or "json"
	Path   string `yaml:"path"`   // file path for the store
}

// Global holds the system-wide restart settings, read by both triggers and
// written only through the configuration API.
type Global struct {
	CronTime      string   `yaml:"cron_time"`      // cron expression gating the periodic sweep
	ActiveCron    bool     `yaml:"active_cron"`    // enables the periodic sweep trigger
	ActiveTrigger bool     `yaml:"active_trigger"` // enables the after-build trigger
	MaxDepth      int      `yaml:"max_depth"`      // consecutive auto-restarts allowed per trigger family; <=0 means unlimited
	NoChange      bool     `yaml:"no_change"`      // enables unchanged-configuration restarts
	RegExprs      []string `yaml:"reg_exprs"`      // ordered regex list, first match wins
}

// Local is the optional per-job restart configuration. When
// LocallyConfigured is set, it fully overrides the global after-build
// behavior for that job.
type Local struct {
	LocallyConfigured bool `yaml:"locally_configured"`
	Enabled           bool `yaml:"enabled"`
	MaxDepth          int  `yaml:"max_depth"`
}

// Sweep configures the periodic sweep timer itself. The interval is the
// fixed recurrence period of the tick; which ticks actually sweep is
// decided by the global cron_time expression.
type Sweep struct {
	IntervalSec  int `yaml:"interval_sec"`
	BuildBacklog int `yaml:"build_backlog"` // builds per job loaded for the depth scan
}

// Action configures the host restart command that re-queues a build.
type Action struct {
	Command    string `yaml:"command"` // executable invoked per restart request
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Effective is the resolved after-build configuration for one job.
type Effective struct {
	Enabled       bool
	MaxDepth      int
	LocallyForced bool
}

// Resolve applies the local-over-global precedence rule. A job with a
// local configuration flagged LocallyConfigured opts out of the global
// after-build behavior entirely: its own enabled flag and depth apply, and
// the regex/unchanged checks are bypassed.
func Resolve(local *Local, global Global) Effective {
	if local != nil && local.LocallyConfigured {
		return Effective{
			Enabled:       local.Enabled,
			MaxDepth:      local.MaxDepth,
			LocallyForced: true,
		}
	}
	return Effective{
		Enabled:  global.ActiveTrigger,
		MaxDepth: global.MaxDepth,
	}
}
