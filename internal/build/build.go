// Package build defines the build/job data model shared by the decision
// engine and the host-facing glue, plus the contracts the host system
// must provide.
package build

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/reviveci/revive/internal/config"
)

// Result is the terminal outcome of a build.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultAborted Result = "aborted"
	ResultUnknown Result = "unknown"
)

// Category discriminates why an automatic restart was issued.
type Category string

const (
	CategoryRegexHit        Category = "regex-hit"
	CategoryUnchangedConfig Category = "unchanged-config"
	CategoryLocallyForced   Category = "locally-forced"
	CategoryPeriodicSweep   Category = "periodic-sweep"
)

// Job is a buildable unit owned by the host system. The engine only reads
// it: the latest build, the chain hanging off it, and the optional local
// restart configuration.
type Job struct {
	ID     string
	Latest *Build
	Local  *config.Local
}

// LocalConfig returns the job's local restart configuration, or nil when
// the job follows the global settings.
func (j *Job) LocalConfig() *config.Local {
	if j == nil {
		return nil
	}
	return j.Local
}

// LatestBuild returns the most recent build, or nil for a job that has
// never built.
func (j *Job) LatestBuild() *Build {
	if j == nil {
		return nil
	}
	return j.Latest
}

// Build is one execution attempt of a Job. Prev links to the previous
// build of the same job, forming a finite chronological chain. Cause is
// set once, when the build was queued by this system, and never mutated.
type Build struct {
	ID           string
	JobID        string
	Number       int
	Result       Result
	Console      []string
	ConfigDigest string
	Cause        *Cause
	Prev         *Build
	CompletedAt  time.Time
}

// Previous returns the preceding build of the same job, or nil at the
// start of the chain.
func (b *Build) Previous() *Build {
	if b == nil {
		return nil
	}
	return b.Prev
}

// Succeeded reports whether the build finished successfully.
func (b *Build) Succeeded() bool {
	return b != nil && b.Result == ResultSuccess
}

// Cause records why an automatic restart happened. Immutable once
// attached to a build.
type Cause struct {
	ID          string
	Category    Category
	Description string

	// Pattern is the regex that matched, set only for regex-hit causes.
	Pattern string

	CreatedAt time.Time
}

// NewCause creates a cause with a fresh UUID.
func NewCause(category Category, description, pattern string) *Cause {
	return &Cause{
		ID:          uuid.New().String(),
		Category:    category,
		Description: description,
		Pattern:     pattern,
		CreatedAt:   time.Now(),
	}
}

// Restarter is the host-side restart action: re-queue a build for the job
// and attach the cause to the resulting build. The host performs no
// deduplication; depth limiting is the caller's job.
type Restarter interface {
	Restart(ctx context.Context, job *Job, cause *Cause) error
}

// Source enumerates all jobs known to the host, each with its build chain
// assembled. Used by the periodic sweep.
type Source interface {
	Jobs(ctx context.Context) ([]*Job, error)
}

// UnchangedFunc is the external diff predicate: reports whether the job
// qualifies for an unchanged-configuration restart.
type UnchangedFunc func(job *Job) bool
