// Package host bridges the stored build history to the engine's data
// model: it assembles previous-build chains from the append-only store,
// ingests build completions reported by the CI system, and provides the
// default unchanged-configuration predicate.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reviveci/revive/internal/build"
	"github.com/reviveci/revive/internal/config"
	"github.com/reviveci/revive/internal/store"
)

// Host implements build.Source over the store.
type Host struct {
	store    store.Store
	provider *config.Provider
	logger   *slog.Logger
}

// New creates a Host.
func New(st store.Store, provider *config.Provider, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		store:    st,
		provider: provider,
		logger:   logger,
	}
}

// CompletedBuild is a build completion as reported by the CI system.
type CompletedBuild struct {
	JobID        string    `json:"job_id"`
	BuildID      string    `json:"build_id"`
	Result       string    `json:"result"`
	Console      []string  `json:"console,omitempty"`
	ConfigDigest string    `json:"config_digest,omitempty"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
}

// Jobs enumerates all known jobs with their build chains assembled.
func (h *Host) Jobs(ctx context.Context) ([]*build.Job, error) {
	ids, err := h.store.ListJobs()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]*build.Job, 0, len(ids))
	for _, id := range ids {
		job, err := h.Job(ctx, id)
		if err != nil {
			// One broken job must not hide the rest from the sweep.
			h.logger.Error("failed to assemble job", "job_id", id, "error", err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Job assembles a single job with its build chain, newest first.
func (h *Host) Job(ctx context.Context, jobID string) (*build.Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	backlog := h.provider.Current().Sweep.BuildBacklog
	records, err := h.store.GetBuildChain(jobID, backlog)
	if err != nil {
		return nil, fmt.Errorf("load build chain for %s: %w", jobID, err)
	}

	return &build.Job{
		ID:     jobID,
		Latest: linkChain(records),
		Local:  h.provider.Local(jobID),
	}, nil
}

// RecordCompleted ingests a completed build: the cause parked by a prior
// restart request, if any, is adopted; the record is appended to the
// job's history; the reassembled job is returned for decision making.
// Reporting the same build twice is a no-op beyond the first, so repeated
// notifications never double-count restart depth.
func (h *Host) RecordCompleted(ctx context.Context, in CompletedBuild) (*build.Job, *build.Build, error) {
	if in.JobID == "" {
		return nil, nil, fmt.Errorf("job_id is required")
	}
	if in.BuildID == "" {
		return nil, nil, fmt.Errorf("build_id is required")
	}

	latest, err := h.store.GetBuildChain(in.JobID, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("load build chain for %s: %w", in.JobID, err)
	}

	if len(latest) == 0 || latest[0].BuildID != in.BuildID {
		cause, err := h.store.TakePendingCause(in.JobID)
		if err != nil {
			return nil, nil, fmt.Errorf("take pending cause for %s: %w", in.JobID, err)
		}

		completedAt := in.CompletedAt
		if completedAt.IsZero() {
			completedAt = time.Now()
		}

		rec := &store.BuildRecord{
			BuildID:      in.BuildID,
			JobID:        in.JobID,
			Result:       in.Result,
			ConsoleTail:  in.Console,
			ConfigDigest: in.ConfigDigest,
			Cause:        cause,
			CompletedAt:  completedAt,
		}
		if err := h.store.SaveBuild(rec); err != nil {
			return nil, nil, fmt.Errorf("save build: %w", err)
		}
	} else {
		h.logger.Debug("build already recorded, skipping",
			"job_id", in.JobID, "build_id", in.BuildID)
	}

	job, err := h.Job(ctx, in.JobID)
	if err != nil {
		return nil, nil, err
	}
	return job, job.LatestBuild(), nil
}

// Unchanged is the default unchanged-configuration predicate: the latest
// build failed and used the same configuration fingerprint as the one
// before it. Hosts with a real config differ can inject their own.
func (h *Host) Unchanged(j *build.Job) bool {
	latest := j.LatestBuild()
	if latest == nil || latest.Succeeded() {
		return false
	}
	prev := latest.Previous()
	if prev == nil {
		return false
	}
	return latest.ConfigDigest != "" && latest.ConfigDigest == prev.ConfigDigest
}

// linkChain turns newest-first records into a linked build chain and
// returns its head.
func linkChain(records []*store.BuildRecord) *build.Build {
	var head, tail *build.Build
	for _, rec := range records {
		b := toBuild(rec)
		if head == nil {
			head = b
		} else {
			tail.Prev = b
		}
		tail = b
	}
	return head
}

func toBuild(rec *store.BuildRecord) *build.Build {
	b := &build.Build{
		ID:           rec.BuildID,
		JobID:        rec.JobID,
		Number:       rec.Number,
		Result:       build.Result(rec.Result),
		Console:      rec.ConsoleTail,
		ConfigDigest: rec.ConfigDigest,
		CompletedAt:  rec.CompletedAt,
	}
	if rec.Cause != nil {
		b.Cause = &build.Cause{
			ID:          rec.Cause.CauseID,
			Category:    build.Category(rec.Cause.Category),
			Description: rec.Cause.Description,
			Pattern:     rec.Cause.Pattern,
			CreatedAt:   rec.Cause.CreatedAt,
		}
	}
	return b
}
