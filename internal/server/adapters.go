package server

import (
	"context"
	"fmt"

	"github.com/reviveci/revive/internal/build"
	"github.com/reviveci/revive/internal/config"
	"github.com/reviveci/revive/internal/engine"
	"github.com/reviveci/revive/internal/host"
	"github.com/reviveci/revive/internal/scheduler"
	"github.com/reviveci/revive/internal/store"
)

// EngineAdapter implements Ingestor over the host glue and the decision
// engine.
type EngineAdapter struct {
	host     *host.Host
	engine   *engine.Engine
	provider *config.Provider
}

// NewEngineAdapter creates an adapter for build ingestion.
func NewEngineAdapter(h *host.Host, eng *engine.Engine, provider *config.Provider) *EngineAdapter {
	return &EngineAdapter{host: h, engine: eng, provider: provider}
}

// IngestBuild records the completed build and runs the after-build
// decision against it.
func (a *EngineAdapter) IngestBuild(ctx context.Context, report BuildReport) (*DecisionResponse, error) {
	job, latest, err := a.host.RecordCompleted(ctx, host.CompletedBuild{
		JobID:        report.JobID,
		BuildID:      report.BuildID,
		Result:       report.Result,
		Console:      report.Console,
		ConfigDigest: report.ConfigDigest,
		CompletedAt:  report.CompletedAt,
	})
	if err != nil {
		return nil, err
	}

	decision, err := a.engine.OnBuildCompleted(ctx, a.provider.Global(), job, latest)
	if err != nil {
		return nil, err
	}

	return toDecisionResponse(decision), nil
}

func toDecisionResponse(d *engine.Decision) *DecisionResponse {
	resp := &DecisionResponse{
		JobID:     d.JobID,
		BuildID:   d.BuildID,
		Restarted: d.Restarted,
	}
	for _, c := range d.Causes {
		resp.Causes = append(resp.Causes, CauseSummary{
			CauseID:     c.ID,
			Category:    string(c.Category),
			Description: c.Description,
			Pattern:     c.Pattern,
			CreatedAt:   c.CreatedAt,
		})
	}
	return resp
}

// HostAdapter implements JobDirectory over the host glue.
type HostAdapter struct {
	host *host.Host
}

// NewHostAdapter creates an adapter for the job directory.
func NewHostAdapter(h *host.Host) *HostAdapter {
	return &HostAdapter{host: h}
}

// GetJobs returns summaries for all known jobs.
func (a *HostAdapter) GetJobs(ctx context.Context) ([]JobSummary, error) {
	jobs, err := a.host.Jobs(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]JobSummary, 0, len(jobs))
	for _, j := range jobs {
		summaries = append(summaries, toJobSummary(j))
	}
	return summaries, nil
}

// GetJob returns the summary for one job.
func (a *HostAdapter) GetJob(ctx context.Context, jobID string) (*JobSummary, error) {
	job, err := a.host.Job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.LatestBuild() == nil {
		return nil, fmt.Errorf("job %s has no recorded builds", jobID)
	}
	summary := toJobSummary(job)
	return &summary, nil
}

func toJobSummary(j *build.Job) JobSummary {
	summary := JobSummary{
		ID:                j.ID,
		LocallyConfigured: j.Local != nil && j.Local.LocallyConfigured,
	}
	count := 0
	for b := j.LatestBuild(); b != nil; b = b.Previous() {
		count++
	}
	summary.Builds = count
	if latest := j.LatestBuild(); latest != nil {
		id := latest.ID
		result := string(latest.Result)
		completed := latest.CompletedAt
		summary.LastBuildID = &id
		summary.LastResult = &result
		summary.LastCompletedAt = &completed
	}
	return summary
}

// StoreAdapter implements Ledger over the store.
type StoreAdapter struct {
	store store.Store
}

// NewStoreAdapter creates an adapter for the restart ledger.
func NewStoreAdapter(st store.Store) *StoreAdapter {
	return &StoreAdapter{store: st}
}

// GetRestarts returns recent ledger entries, optionally filtered by job.
func (a *StoreAdapter) GetRestarts(ctx context.Context, jobID *string, limit int) ([]RestartEntry, error) {
	var records []*store.RestartRecord
	var err error

	if jobID != nil {
		records, err = a.store.GetRestarts(*jobID, limit)
	} else {
		records, err = a.store.GetAllRestarts(limit)
	}
	if err != nil {
		return nil, err
	}

	entries := make([]RestartEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, RestartEntry{
			RestartID:   rec.RestartID,
			JobID:       rec.JobID,
			BuildID:     rec.BuildID,
			Category:    rec.Cause.Category,
			Reason:      rec.Cause.Description,
			Pattern:     rec.Cause.Pattern,
			RequestedAt: rec.RequestedAt,
		})
	}
	return entries, nil
}

// ConfigAdapter implements ConfigAccess over the config provider. When a
// persist path is set, accepted updates are also written back to the
// config file.
type ConfigAdapter struct {
	provider    *config.Provider
	persistPath string
}

// NewConfigAdapter creates an adapter for the configuration API.
// persistPath may be empty to keep updates in memory only.
func NewConfigAdapter(provider *config.Provider, persistPath string) *ConfigAdapter {
	return &ConfigAdapter{provider: provider, persistPath: persistPath}
}

// GetGlobal returns the current system-wide restart settings.
func (a *ConfigAdapter) GetGlobal(ctx context.Context) (GlobalConfig, error) {
	g := a.provider.Global()
	return GlobalConfig{
		CronTime:      g.CronTime,
		ActiveCron:    g.ActiveCron,
		ActiveTrigger: g.ActiveTrigger,
		MaxDepth:      g.MaxDepth,
		NoChange:      g.NoChange,
		RegExprs:      g.RegExprs,
	}, nil
}

// UpdateGlobal validates and applies new system-wide restart settings.
// On a validation failure the running configuration stays in effect.
func (a *ConfigAdapter) UpdateGlobal(ctx context.Context, in GlobalConfig) error {
	g := config.Global{
		CronTime:      in.CronTime,
		ActiveCron:    in.ActiveCron,
		ActiveTrigger: in.ActiveTrigger,
		MaxDepth:      in.MaxDepth,
		NoChange:      in.NoChange,
		RegExprs:      in.RegExprs,
	}

	if err := config.ValidateGlobal(&g); err != nil {
		return err
	}
	// The authoritative cron parse, beyond the structural check.
	if err := scheduler.ValidateSchedule(g.CronTime); err != nil {
		return err
	}

	a.provider.SetGlobal(g)

	if a.persistPath != "" {
		if err := config.Save(a.provider.Current(), a.persistPath); err != nil {
			return fmt.Errorf("settings applied but not persisted: %w", err)
		}
	}
	return nil
}
