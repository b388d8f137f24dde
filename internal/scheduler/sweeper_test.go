package scheduler

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/reviveci/revive/internal/build"
	"github.com/reviveci/revive/internal/config"
	"github.com/reviveci/revive/internal/engine"
)

type mockSource struct {
	jobs  []*build.Job
	calls int
}

func (m *mockSource) Jobs(ctx context.Context) ([]*build.Job, error) {
	m.calls++
	return m.jobs, nil
}

type countingRestarter struct {
	calls int
}

func (m *countingRestarter) Restart(ctx context.Context, job *build.Job, cause *build.Cause) error {
	m.calls++
	return nil
}

func newTestSweeper(t *testing.T, g config.Global, source *mockSource, restarter *countingRestarter) *Sweeper {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	provider := config.NewProvider(&config.Config{Restart: g})
	eng := engine.New(logger, restarter, nil)
	return New(context.Background(), time.Minute, provider, eng, source, logger)
}

func failingJob(id string) *build.Job {
	return &build.Job{
		ID: id,
		Latest: &build.Build{
			ID:      id + "-b1",
			JobID:   id,
			Result:  build.ResultFailure,
			Console: []string{"ERROR: failed"},
		},
	}
}

func TestRunOnceDisabledSkipsTick(t *testing.T) {
	source := &mockSource{jobs: []*build.Job{failingJob("job-1")}}
	restarter := &countingRestarter{}
	s := newTestSweeper(t, config.Global{
		CronTime:   "* * * * *",
		ActiveCron: false,
		RegExprs:   []string{"ERROR"},
	}, source, restarter)

	s.RunOnce(context.Background(), time.Now())

	if source.calls != 0 {
		t.Error("jobs enumerated while the periodic trigger is disabled")
	}
	if restarter.calls != 0 {
		t.Error("restarts issued while the periodic trigger is disabled")
	}
}

func TestRunOnceSweepsWhenDue(t *testing.T) {
	source := &mockSource{jobs: []*build.Job{failingJob("job-1"), failingJob("job-2")}}
	restarter := &countingRestarter{}
	s := newTestSweeper(t, config.Global{
		CronTime:   "* * * * *",
		ActiveCron: true,
		RegExprs:   []string{"ERROR"},
	}, source, restarter)

	s.RunOnce(context.Background(), time.Now())

	if source.calls != 1 {
		t.Errorf("source calls = %d, want 1", source.calls)
	}
	if restarter.calls != 2 {
		t.Errorf("restarts = %d, want 2", restarter.calls)
	}

	lastSweep, sweeps := s.Stats()
	if sweeps != 1 || lastSweep.IsZero() {
		t.Errorf("Stats() = %v, %d", lastSweep, sweeps)
	}
}

func TestRunOnceSkipsWhenNotDue(t *testing.T) {
	source := &mockSource{jobs: []*build.Job{failingJob("job-1")}}
	restarter := &countingRestarter{}
	s := newTestSweeper(t, config.Global{
		CronTime:   "0 3 * * *",
		ActiveCron: true,
		RegExprs:   []string{"ERROR"},
	}, source, restarter)

	s.RunOnce(context.Background(), time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	if source.calls != 0 || restarter.calls != 0 {
		t.Error("sweep ran outside its cron window")
	}
}

func TestRunOnceMalformedCronSkipsTick(t *testing.T) {
	source := &mockSource{jobs: []*build.Job{failingJob("job-1")}}
	restarter := &countingRestarter{}
	s := newTestSweeper(t, config.Global{
		CronTime:   "definitely not cron",
		ActiveCron: true,
		RegExprs:   []string{"ERROR"},
	}, source, restarter)

	s.RunOnce(context.Background(), time.Now())

	if restarter.calls != 0 {
		t.Error("restarts issued despite malformed cron expression")
	}
}

func TestSweeperStartStop(t *testing.T) {
	source := &mockSource{}
	restarter := &countingRestarter{}
	s := newTestSweeper(t, config.Global{CronTime: "* * * * *"}, source, restarter)

	s.Start()
	s.Stop()
}
