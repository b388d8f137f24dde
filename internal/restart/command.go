// Package restart implements the restart action: the side-effecting
// operation that asks the host CI system to re-queue a build.
package restart

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/reviveci/revive/internal/build"
)

// CommandRestarter re-queues a build by invoking a host-provided
// executable. The job and cause are passed through environment variables
// so any shell script can act as the bridge to the CI system.
type CommandRestarter struct {
	logger  *slog.Logger
	command string
	timeout time.Duration
}

// NewCommandRestarter creates a restarter around the given executable.
func NewCommandRestarter(command string, timeout time.Duration, logger *slog.Logger) *CommandRestarter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandRestarter{
		logger:  logger,
		command: command,
		timeout: timeout,
	}
}

// Restart invokes the configured command. A non-zero exit or a timeout is
// an error for the caller to handle; there is no in-process retry.
func (r *CommandRestarter) Restart(ctx context.Context, job *build.Job, cause *build.Cause) error {
	if r.command == "" {
		return fmt.Errorf("no restart command configured")
	}

	execCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, r.command)
	cmd.Env = buildEnvironment(job, cause)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("executing restart command",
		"command", r.command,
		"job_id", job.ID,
		"cause_id", cause.ID,
		"category", string(cause.Category))

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			r.logger.Warn("restart command exited non-zero",
				"job_id", job.ID,
				"exit_code", exitErr.ExitCode(),
				"stderr", stderr.String())
			return fmt.Errorf("restart command exited with code %d", exitErr.ExitCode())
		}
		r.logger.Error("restart command failed",
			"job_id", job.ID,
			"error", err)
		return fmt.Errorf("restart command failed: %w", err)
	}

	r.logger.Info("restart command completed",
		"job_id", job.ID,
		"duration", duration)

	if stderr.Len() > 0 {
		r.logger.Debug("restart command stderr",
			"job_id", job.ID,
			"stderr", stderr.String())
	}

	return nil
}

// buildEnvironment creates the environment for the restart command.
func buildEnvironment(job *build.Job, cause *build.Cause) []string {
	env := os.Environ()

	buildID := ""
	if latest := job.LatestBuild(); latest != nil {
		buildID = latest.ID
	}

	vars := map[string]string{
		"REVIVE_JOB_ID":     job.ID,
		"REVIVE_BUILD_ID":   buildID,
		"REVIVE_CAUSE_ID":   cause.ID,
		"REVIVE_CATEGORY":   string(cause.Category),
		"REVIVE_REASON":     cause.Description,
		"REVIVE_PATTERN":    cause.Pattern,
		"REVIVE_CREATED_AT": cause.CreatedAt.UTC().Format(time.RFC3339),
	}

	for k, v := range vars {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
