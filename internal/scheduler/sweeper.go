// Package scheduler owns the periodic sweep timer: a fixed-interval tick
// that re-evaluates every known job for restart eligibility, gated by the
// global cron expression and enable flag.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/reviveci/revive/internal/build"
	"github.com/reviveci/revive/internal/config"
	"github.com/reviveci/revive/internal/engine"
	"github.com/robfig/cron/v3"
)

// Sweeper drives the periodic sweep trigger. It ticks on a fixed
// recurrence period regardless of configuration; each tick snapshots the
// current config and decides whether a sweep is actually due.
type Sweeper struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
	provider *config.Provider
	engine   *engine.Engine
	source   build.Source
	interval time.Duration
	wg       sync.WaitGroup

	mu        sync.Mutex
	lastSweep time.Time
	sweeps    int64
}

// New creates a Sweeper ticking at the given interval. The interval is
// the recurrence period of the tick itself; the global cron_time
// expression selects which ticks sweep.
func New(ctx context.Context, interval time.Duration, provider *config.Provider, eng *engine.Engine, source build.Source, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}

	sweepCtx, cancel := context.WithCancel(ctx)

	cronLogger := &cronSlogAdapter{logger: logger}
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
		),
	)

	s := &Sweeper{
		cron:     c,
		ctx:      sweepCtx,
		cancel:   cancel,
		logger:   logger,
		provider: provider,
		engine:   eng,
		source:   source,
		interval: interval,
	}

	c.Schedule(cron.Every(interval), cron.FuncJob(s.tick))

	return s
}

func (s *Sweeper) tick() {
	s.wg.Add(1)
	defer s.wg.Done()
	s.RunOnce(s.ctx, time.Now())
}

// RunOnce performs a single sweep tick at the given wall-clock time.
// Exposed so hosts with their own timers can drive the sweep directly.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) {
	global := s.provider.Global()

	if !global.ActiveCron {
		s.logger.Debug("periodic sweep disabled, skipping tick")
		return
	}

	due, err := Due(global.CronTime, now)
	if err != nil {
		// Last valid schedule stays in effect elsewhere; an unparsable
		// expression here just means this tick does nothing.
		s.logger.Warn("cron expression did not parse, skipping tick",
			"cron_time", global.CronTime, "error", err)
		return
	}
	if !due {
		return
	}

	jobs, err := s.source.Jobs(ctx)
	if err != nil {
		s.logger.Error("failed to enumerate jobs for sweep", "error", err)
		return
	}

	start := time.Now()
	restarted, err := s.engine.Sweep(ctx, global, jobs)
	if err != nil {
		s.logger.Error("sweep finished with errors", "error", err)
	}

	s.mu.Lock()
	s.lastSweep = now
	s.sweeps++
	s.mu.Unlock()

	s.logger.Info("periodic sweep completed",
		"jobs", len(jobs),
		"restarted", restarted,
		"duration", time.Since(start))
}

// Start begins ticking.
func (s *Sweeper) Start() {
	s.logger.Info("starting periodic sweep", "interval", s.interval)
	s.cron.Start()
}

// Stop stops the timer and waits for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.logger.Info("stopping periodic sweep")
	s.cancel()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.wg.Wait()
	s.logger.Info("periodic sweep stopped")
}

// Stats reports when the last sweep ran and how many sweeps have run.
func (s *Sweeper) Stats() (lastSweep time.Time, sweeps int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSweep, s.sweeps
}

// cronSlogAdapter adapts slog.Logger to cron.Logger.
type cronSlogAdapter struct {
	logger *slog.Logger
}

func (a *cronSlogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, keysAndValues...)
}

func (a *cronSlogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	attrs := make([]any, 0, len(keysAndValues)+2)
	attrs = append(attrs, "error", err.Error())
	attrs = append(attrs, keysAndValues...)
	a.logger.Error(msg, attrs...)
}
