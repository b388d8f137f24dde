package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	version      = "v0.1.0"
	defaultLimit = 100
	maxLimit     = 1000
)

// handleHealth returns the health status of the server.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "ok",
		Version: version,
		Uptime:  s.Uptime(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleListJobs returns all known jobs.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.jobs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "job directory not available", nil)
		return
	}

	jobs, err := s.jobs.GetJobs(ctx)
	if err != nil {
		s.logger.Error("failed to get jobs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve jobs", err)
		return
	}

	s.writeJSON(w, http.StatusOK, jobs)
}

// handleGetJob returns a specific job by ID.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("id")

	if jobID == "" {
		s.writeError(w, http.StatusBadRequest, "job ID is required", nil)
		return
	}

	if s.jobs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "job directory not available", nil)
		return
	}

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Error("failed to get job", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusNotFound, "job not found", err)
		return
	}

	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, job)
}

// handleBuildCompleted ingests a completed build and returns the
// after-build restart decision for it.
func (s *Server) handleBuildCompleted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.ingestor == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ingestor not available", nil)
		return
	}

	var report BuildReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid build report", err)
		return
	}

	if report.JobID == "" || report.BuildID == "" {
		s.writeError(w, http.StatusBadRequest, "job_id and build_id are required", nil)
		return
	}

	decision, err := s.ingestor.IngestBuild(ctx, report)
	if err != nil {
		s.logger.Error("failed to process completed build",
			"job_id", report.JobID, "build_id", report.BuildID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to process completed build", err)
		return
	}

	s.writeJSON(w, http.StatusOK, decision)
}

// handleGetJobRestarts returns the restart ledger for a specific job.
func (s *Server) handleGetJobRestarts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("id")

	if jobID == "" {
		s.writeError(w, http.StatusBadRequest, "job ID is required", nil)
		return
	}

	limit := s.parseLimitParam(r)

	if s.ledger == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ledger not available", nil)
		return
	}

	entries, err := s.ledger.GetRestarts(ctx, &jobID, limit)
	if err != nil {
		s.logger.Error("failed to get restarts", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve restarts", err)
		return
	}

	s.writeJSON(w, http.StatusOK, entries)
}

// handleListRestarts returns recent restart ledger entries across jobs.
func (s *Server) handleListRestarts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := s.parseLimitParam(r)

	if s.ledger == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ledger not available", nil)
		return
	}

	entries, err := s.ledger.GetRestarts(ctx, nil, limit)
	if err != nil {
		s.logger.Error("failed to get restarts", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve restarts", err)
		return
	}

	s.writeJSON(w, http.StatusOK, entries)
}

// handleGetConfig returns the system-wide restart settings.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.config == nil {
		s.writeError(w, http.StatusServiceUnavailable, "config not available", nil)
		return
	}

	cfg, err := s.config.GetGlobal(ctx)
	if err != nil {
		s.logger.Error("failed to get config", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve config", err)
		return
	}

	s.writeJSON(w, http.StatusOK, cfg)
}

// handleUpdateConfig replaces the system-wide restart settings. A payload
// that fails validation (malformed cron string, broken regex) is rejected
// and the running configuration stays untouched.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.config == nil {
		s.writeError(w, http.StatusServiceUnavailable, "config not available", nil)
		return
	}

	var cfg GlobalConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid config payload", err)
		return
	}

	if err := s.config.UpdateGlobal(ctx, cfg); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error(), err)
		return
	}

	s.writeJSON(w, http.StatusOK, cfg)
}

// parseLimitParam parses the limit query parameter.
func (s *Server) parseLimitParam(r *http.Request) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return defaultLimit
	}

	var limit int
	if _, err := fmt.Sscanf(limitStr, "%d", &limit); err != nil {
		return defaultLimit
	}

	if limit <= 0 {
		return defaultLimit
	}

	if limit > maxLimit {
		return maxLimit
	}

	return limit
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil && s.logger != nil {
		s.logger.Error("API error", "status", status, "message", message, "error", err)
	}

	s.writeJSON(w, status, response)
}
