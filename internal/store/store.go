// Package store persists the per-job build history and the restart
// ledger. Builds are kept as an append-only, sequence-keyed series per
// job; the previous-build chain is reconstructed from the stored order,
// never from live references.
package store

import (
	"time"
)

// Store defines the persistence interface for build history, pending
// causes, and the restart ledger.
type Store interface {
	// SaveBuild appends a completed build to the job's history and
	// assigns its sequence number.
	SaveBuild(rec *BuildRecord) error

	// GetBuildChain retrieves the most recent builds for a job, newest
	// first. Returns up to limit records.
	GetBuildChain(jobID string, limit int) ([]*BuildRecord, error)

	// ListJobs returns the IDs of all jobs with recorded builds.
	ListJobs() ([]string, error)

	// SetPendingCause parks a cause for the job's next build. A restart
	// request stores its cause here; the next ingested build adopts it.
	SetPendingCause(jobID string, cause *CauseRecord) error

	// TakePendingCause returns and clears the job's parked cause, or nil
	// when none is pending.
	TakePendingCause(jobID string) (*CauseRecord, error)

	// SaveRestart appends an entry to the restart ledger.
	SaveRestart(rec *RestartRecord) error

	// GetRestarts retrieves the most recent ledger entries for a job,
	// newest first.
	GetRestarts(jobID string, limit int) ([]*RestartRecord, error)

	// GetAllRestarts retrieves the most recent ledger entries across all
	// jobs, newest first.
	GetAllRestarts(limit int) ([]*RestartRecord, error)

	// Close releases any resources held by the store.
	Close() error
}

// BuildRecord is one completed build as reported by the host.
type BuildRecord struct {
	// BuildID is the host's identifier for the build (typically UUID).
	BuildID string `json:"build_id"`

	// JobID identifies which job this build belongs to.
	JobID string `json:"job_id"`

	// Number is the position in the job's append-only history, assigned
	// by the store on save. Higher numbers are newer.
	Number int `json:"number"`

	// Result is the terminal outcome ("success", "failure", ...).
	Result string `json:"result"`

	// ConsoleTail holds the last lines of console output.
	ConsoleTail []string `json:"console_tail,omitempty"`

	// ConfigDigest fingerprints the job configuration used by the build.
	ConfigDigest string `json:"config_digest,omitempty"`

	// Cause is set when this build was queued by a restart request.
	Cause *CauseRecord `json:"cause,omitempty"`

	// CompletedAt is when the build finished.
	CompletedAt time.Time `json:"completed_at"`
}

// CauseRecord is the stored form of a restart cause.
type CauseRecord struct {
	CauseID     string    `json:"cause_id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Pattern     string    `json:"pattern,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RestartRecord is one restart ledger entry: a restart the engine
// requested, with the cause that justified it.
type RestartRecord struct {
	RestartID   string      `json:"restart_id"`
	JobID       string      `json:"job_id"`
	BuildID     string      `json:"build_id,omitempty"`
	Cause       CauseRecord `json:"cause"`
	RequestedAt time.Time   `json:"requested_at"`
}
