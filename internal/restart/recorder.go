package restart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reviveci/revive/internal/build"
	"github.com/reviveci/revive/internal/store"
)

// Recorder wraps a Restarter: after a successful re-queue it parks the
// cause for the job's next build and appends a restart ledger entry. It
// is the single place new causes enter the store, which keeps the depth
// scan free of torn reads.
type Recorder struct {
	next   build.Restarter
	store  store.Store
	logger *slog.Logger
}

// NewRecorder wraps next with ledger recording.
func NewRecorder(next build.Restarter, st store.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		next:   next,
		store:  st,
		logger: logger,
	}
}

// Restart delegates to the wrapped restarter, then records the cause.
func (r *Recorder) Restart(ctx context.Context, job *build.Job, cause *build.Cause) error {
	if err := r.next.Restart(ctx, job, cause); err != nil {
		return err
	}

	causeRec := store.CauseRecord{
		CauseID:     cause.ID,
		Category:    string(cause.Category),
		Description: cause.Description,
		Pattern:     cause.Pattern,
		CreatedAt:   cause.CreatedAt,
	}

	if err := r.store.SetPendingCause(job.ID, &causeRec); err != nil {
		return fmt.Errorf("park cause for %s: %w", job.ID, err)
	}

	buildID := ""
	if latest := job.LatestBuild(); latest != nil {
		buildID = latest.ID
	}

	rec := &store.RestartRecord{
		RestartID:   uuid.New().String(),
		JobID:       job.ID,
		BuildID:     buildID,
		Cause:       causeRec,
		RequestedAt: time.Now(),
	}
	if err := r.store.SaveRestart(rec); err != nil {
		// The restart itself went through; a ledger write failure is
		// observability loss, not a decision failure.
		r.logger.Error("failed to record restart in ledger",
			"job_id", job.ID, "error", err)
	}

	return nil
}
