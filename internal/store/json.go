package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// JSONStore implements the Store interface using a single JSON file.
// Everything is kept in memory and persisted on each write. Suitable for
// small deployments and testing.
type JSONStore struct {
	path     string
	builds   map[string][]*BuildRecord // job ID -> builds in save order
	pending  map[string]*CauseRecord
	restarts map[string][]*RestartRecord
	mu       sync.RWMutex
}

// jsonPersistence is the on-disk format for the JSON store.
type jsonPersistence struct {
	Builds   map[string][]*BuildRecord   `json:"builds"`
	Pending  map[string]*CauseRecord     `json:"pending"`
	Restarts map[string][]*RestartRecord `json:"restarts"`
}

// NewJSONStore creates a new JSON file-backed store at the given path.
func NewJSONStore(path string) (Store, error) {
	s := &JSONStore{
		path:     path,
		builds:   make(map[string][]*BuildRecord),
		pending:  make(map[string]*CauseRecord),
		restarts: make(map[string][]*RestartRecord),
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("load existing data: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return s, nil
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var p jsonPersistence
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if p.Builds != nil {
		s.builds = p.Builds
	}
	if p.Pending != nil {
		s.pending = p.Pending
	}
	if p.Restarts != nil {
		s.restarts = p.Restarts
	}
	return nil
}

// persist writes the full state to disk. Caller holds the write lock.
func (s *JSONStore) persist() error {
	p := jsonPersistence{
		Builds:   s.builds,
		Pending:  s.pending,
		Restarts: s.restarts,
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// SaveBuild appends a completed build to the job's history.
func (s *JSONStore) SaveBuild(rec *BuildRecord) error {
	if rec.BuildID == "" {
		return fmt.Errorf("build_id is required")
	}
	if rec.JobID == "" {
		return fmt.Errorf("job_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Number = len(s.builds[rec.JobID]) + 1
	s.builds[rec.JobID] = append(s.builds[rec.JobID], rec)
	return s.persist()
}

// GetBuildChain retrieves the most recent builds for a job, newest first.
func (s *JSONStore) GetBuildChain(jobID string, limit int) ([]*BuildRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.builds[jobID]
	records := make([]*BuildRecord, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(records) < limit; i-- {
		records = append(records, history[i])
	}
	return records, nil
}

// ListJobs returns the IDs of all jobs with recorded builds.
func (s *JSONStore) ListJobs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.builds))
	for id := range s.builds {
		jobs = append(jobs, id)
	}
	sort.Strings(jobs)
	return jobs, nil
}

// SetPendingCause parks a cause for the job's next build.
func (s *JSONStore) SetPendingCause(jobID string, cause *CauseRecord) error {
	if jobID == "" {
		return fmt.Errorf("job_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[jobID] = cause
	return s.persist()
}

// TakePendingCause returns and clears the job's parked cause.
func (s *JSONStore) TakePendingCause(jobID string) (*CauseRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cause, ok := s.pending[jobID]
	if !ok {
		return nil, nil
	}
	delete(s.pending, jobID)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return cause, nil
}

// SaveRestart appends an entry to the restart ledger.
func (s *JSONStore) SaveRestart(rec *RestartRecord) error {
	if rec.RestartID == "" {
		return fmt.Errorf("restart_id is required")
	}
	if rec.JobID == "" {
		return fmt.Errorf("job_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.restarts[rec.JobID] = append(s.restarts[rec.JobID], rec)
	return s.persist()
}

// GetRestarts retrieves the most recent ledger entries for a job.
func (s *JSONStore) GetRestarts(jobID string, limit int) ([]*RestartRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger := s.restarts[jobID]
	records := make([]*RestartRecord, 0, min(limit, len(ledger)))
	for i := len(ledger) - 1; i >= 0 && len(records) < limit; i-- {
		records = append(records, ledger[i])
	}
	return records, nil
}

// GetAllRestarts retrieves the most recent ledger entries across all jobs.
func (s *JSONStore) GetAllRestarts(limit int) ([]*RestartRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*RestartRecord
	for _, ledger := range s.restarts {
		records = append(records, ledger...)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RequestedAt.After(records[j].RequestedAt)
	})

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close is a no-op for the JSON store; state is persisted on each write.
func (s *JSONStore) Close() error {
	return nil
}
