// Package engine makes the single yes/no restart decision for completed
// builds. It combines the regex matcher, the depth guard, and the
// local-over-global configuration precedence, and delegates the actual
// re-queue to the host's restart action.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reviveci/revive/internal/build"
	"github.com/reviveci/revive/internal/config"
)

// Cause description texts. The family marker prefix is load-bearing: the
// depth scan recognizes restarts issued by each trigger through it.
const (
	descRegexHit = "RegEx hit in console output: %s"
	descNoChange = "No difference between last two builds"
	descLocal    = "Locally configured project."
)

// Engine evaluates restart eligibility. It holds no per-build state;
// everything it needs lives in the build history and the configuration
// snapshot passed per call.
type Engine struct {
	logger    *slog.Logger
	restarter build.Restarter
	unchanged build.UnchangedFunc
}

// New creates an Engine. unchanged is the external diff predicate used by
// the unchanged-configuration rule; nil disables that rule.
func New(logger *slog.Logger, restarter build.Restarter, unchanged build.UnchangedFunc) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:    logger,
		restarter: restarter,
		unchanged: unchanged,
	}
}

// Decision reports the outcome of one evaluation: every cause issued for
// the build, in the order the qualification rules fired.
type Decision struct {
	JobID     string         `json:"job_id"`
	BuildID   string         `json:"build_id,omitempty"`
	Restarted bool           `json:"restarted"`
	Causes    []*build.Cause `json:"causes,omitempty"`
}

// OnBuildCompleted is the after-build trigger entry point, invoked once
// per completed build. Missing data degrades to a no-restart decision;
// only restart-action failures surface as errors.
func (e *Engine) OnBuildCompleted(ctx context.Context, global config.Global, job *build.Job, b *build.Build) (*Decision, error) {
	decision := &Decision{}
	if job == nil || b == nil {
		return decision, nil
	}
	decision.JobID = job.ID
	decision.BuildID = b.ID

	if b.Succeeded() {
		return decision, nil
	}

	eff := config.Resolve(job.LocalConfig(), global)
	if !eff.Enabled {
		return decision, nil
	}

	if eff.LocallyForced {
		if !withinDepth(b, eff.MaxDepth, afterbuildMarker) {
			e.logDepthExceeded(job, eff.MaxDepth, "afterbuild")
			return decision, nil
		}
		cause := build.NewCause(build.CategoryLocallyForced, afterbuildMarker+" "+descLocal, "")
		err := e.requestRestart(ctx, job, cause, decision)
		return decision, err
	}

	var errs []error

	// Regex and unchanged-config are independent qualifications, each
	// gated by its own depth check.
	matcher := NewMatcher(global.RegExprs, e.logger)
	if rule := matcher.Find(b.Console); rule != nil {
		if withinDepth(b, eff.MaxDepth, afterbuildMarker) {
			desc := fmt.Sprintf(afterbuildMarker+" "+descRegexHit, rule.Pattern)
			cause := build.NewCause(build.CategoryRegexHit, desc, rule.Pattern)
			if err := e.requestRestart(ctx, job, cause, decision); err != nil {
				errs = append(errs, err)
			}
		} else {
			e.logDepthExceeded(job, eff.MaxDepth, "afterbuild")
		}
	}

	if global.NoChange && e.unchanged != nil && e.unchanged(job) {
		if withinDepth(b, eff.MaxDepth, afterbuildMarker) {
			cause := build.NewCause(build.CategoryUnchangedConfig, afterbuildMarker+" "+descNoChange, "")
			if err := e.requestRestart(ctx, job, cause, decision); err != nil {
				errs = append(errs, err)
			}
		} else {
			e.logDepthExceeded(job, eff.MaxDepth, "afterbuild")
		}
	}

	return decision, errors.Join(errs...)
}

// EvaluateForSweep applies the periodic qualification rules to a job's
// latest build. The periodic path has no fresh completion event, so only
// the regex and unchanged-config rules apply, tracked under the periodic
// trigger family.
func (e *Engine) EvaluateForSweep(ctx context.Context, global config.Global, job *build.Job) (*Decision, error) {
	decision := &Decision{}
	if job == nil {
		return decision, nil
	}
	decision.JobID = job.ID

	b := job.LatestBuild()
	if b == nil || b.Succeeded() {
		return decision, nil
	}
	decision.BuildID = b.ID

	var errs []error

	matcher := NewMatcher(global.RegExprs, e.logger)
	if rule := matcher.Find(b.Console); rule != nil {
		if withinDepth(b, global.MaxDepth, periodicMarker) {
			desc := fmt.Sprintf(periodicMarker+" "+descRegexHit, rule.Pattern)
			cause := build.NewCause(build.CategoryPeriodicSweep, desc, rule.Pattern)
			if err := e.requestRestart(ctx, job, cause, decision); err != nil {
				errs = append(errs, err)
			}
		} else {
			e.logDepthExceeded(job, global.MaxDepth, "periodic")
		}
	}

	if global.NoChange && e.unchanged != nil && e.unchanged(job) {
		if withinDepth(b, global.MaxDepth, periodicMarker) {
			cause := build.NewCause(build.CategoryPeriodicSweep, periodicMarker+" "+descNoChange, "")
			if err := e.requestRestart(ctx, job, cause, decision); err != nil {
				errs = append(errs, err)
			}
		} else {
			e.logDepthExceeded(job, global.MaxDepth, "periodic")
		}
	}

	return decision, errors.Join(errs...)
}

// Sweep evaluates every known job once. A failure on one job never stops
// the remaining evaluations; the collected errors are returned alongside
// the number of restarts issued.
func (e *Engine) Sweep(ctx context.Context, global config.Global, jobs []*build.Job) (int, error) {
	restarted := 0
	var errs []error

	for _, job := range jobs {
		decision, err := e.EvaluateForSweep(ctx, global, job)
		if err != nil {
			e.logger.Error("sweep evaluation failed",
				"job_id", job.ID, "error", err)
			errs = append(errs, fmt.Errorf("job %s: %w", job.ID, err))
		}
		if decision.Restarted {
			restarted++
		}
	}

	return restarted, errors.Join(errs...)
}

// requestRestart invokes the host restart action and records the issued
// cause on the decision. Failures propagate; the next trigger is the
// retry.
func (e *Engine) requestRestart(ctx context.Context, job *build.Job, cause *build.Cause, decision *Decision) error {
	if e.restarter == nil {
		return fmt.Errorf("no restart action configured")
	}
	if err := e.restarter.Restart(ctx, job, cause); err != nil {
		e.logger.Error("restart request failed",
			"job_id", job.ID,
			"category", string(cause.Category),
			"error", err)
		return fmt.Errorf("restart %s: %w", job.ID, err)
	}

	decision.Restarted = true
	decision.Causes = append(decision.Causes, cause)
	e.logger.Info("restart requested",
		"job_id", job.ID,
		"category", string(cause.Category),
		"reason", cause.Description)
	return nil
}

func (e *Engine) logDepthExceeded(job *build.Job, maxDepth int, family string) {
	e.logger.Info("restart suppressed, depth limit reached",
		"job_id", job.ID,
		"max_depth", maxDepth,
		"family", family)
}
