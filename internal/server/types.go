package server

import "time"

// BuildReport is a completed build as posted by the CI system.
type BuildReport struct {
	JobID        string   `json:"job_id"`
	BuildID      string   `json:"build_id"`
	Result       string   `json:"result"`
	Console      []string `json:"console,omitempty"`
	ConfigDigest string   `json:"config_digest,omitempty"`

	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// DecisionResponse reports the outcome of an after-build evaluation.
type DecisionResponse struct {
	JobID     string         `json:"job_id"`
	BuildID   string         `json:"build_id,omitempty"`
	Restarted bool           `json:"restarted"`
	Causes    []CauseSummary `json:"causes,omitempty"`
}

// CauseSummary is one issued restart cause.
type CauseSummary struct {
	CauseID     string    `json:"cause_id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Pattern     string    `json:"pattern,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// JobSummary represents a known job with its latest build.
type JobSummary struct {
	ID                string     `json:"id"`
	LastBuildID       *string    `json:"last_build_id,omitempty"`
	LastResult        *string    `json:"last_result,omitempty"`
	LastCompletedAt   *time.Time `json:"last_completed_at,omitempty"`
	Builds            int        `json:"builds"`
	LocallyConfigured bool       `json:"locally_configured"`
}

// RestartEntry is one restart ledger entry.
type RestartEntry struct {
	RestartID   string    `json:"restart_id"`
	JobID       string    `json:"job_id"`
	BuildID     string    `json:"build_id,omitempty"`
	Category    string    `json:"category"`
	Reason      string    `json:"reason"`
	Pattern     string    `json:"pattern,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// GlobalConfig is the UI-facing view of the system-wide restart settings.
type GlobalConfig struct {
	CronTime      string   `json:"cron_time"`
	ActiveCron    bool     `json:"active_cron"`
	ActiveTrigger bool     `json:"active_trigger"`
	MaxDepth      int      `json:"max_depth"`
	NoChange      bool     `json:"no_change"`
	RegExprs      []string `json:"reg_exprs"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
