package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// buildsBucket holds one sub-bucket per job, keyed by sequence number.
	buildsBucket = "builds"
	// pendingBucket maps job ID to the cause parked for its next build.
	pendingBucket = "pending_causes"
	// restartsBucket holds one sub-bucket per job with the restart ledger.
	restartsBucket = "restarts"
)

// BoltStore implements the Store interface using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store at the given path.
func NewBoltStore(path string) (Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{buildsBucket, pendingBucket, restartsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// SaveBuild appends a completed build to the job's history.
func (s *BoltStore) SaveBuild(rec *BuildRecord) error {
	if rec.BuildID == "" {
		return fmt.Errorf("build_id is required")
	}
	if rec.JobID == "" {
		return fmt.Errorf("job_id is required")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		builds := tx.Bucket([]byte(buildsBucket))

		jobBucket, err := builds.CreateBucketIfNotExists([]byte(rec.JobID))
		if err != nil {
			return fmt.Errorf("create job bucket %s: %w", rec.JobID, err)
		}

		seq, err := jobBucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		rec.Number = int(seq)

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal build: %w", err)
		}

		if err := jobBucket.Put(seqKey(seq), data); err != nil {
			return fmt.Errorf("put build: %w", err)
		}
		return nil
	})
}

// GetBuildChain retrieves the most recent builds for a job, newest first.
func (s *BoltStore) GetBuildChain(jobID string, limit int) ([]*BuildRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}
	if limit <= 0 {
		limit = 100
	}

	var records []*BuildRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		builds := tx.Bucket([]byte(buildsBucket))
		jobBucket := builds.Bucket([]byte(jobID))
		if jobBucket == nil {
			// No builds for this job yet
			return nil
		}

		// Sequence keys sort chronologically, so a reverse cursor walk
		// yields newest first.
		c := jobBucket.Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			rec := &BuildRecord{}
			if err := json.Unmarshal(v, rec); err != nil {
				return fmt.Errorf("unmarshal build %x: %w", k, err)
			}
			records = append(records, rec)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListJobs returns the IDs of all jobs with recorded builds.
func (s *BoltStore) ListJobs() ([]string, error) {
	var jobs []string

	err := s.db.View(func(tx *bolt.Tx) error {
		builds := tx.Bucket([]byte(buildsBucket))
		return builds.ForEachBucket(func(k []byte) error {
			jobs = append(jobs, string(k))
			return nil
		})
	})

	if err != nil {
		return nil, err
	}
	sort.Strings(jobs)
	return jobs, nil
}

// SetPendingCause parks a cause for the job's next build.
func (s *BoltStore) SetPendingCause(jobID string, cause *CauseRecord) error {
	if jobID == "" {
		return fmt.Errorf("job_id is required")
	}
	data, err := json.Marshal(cause)
	if err != nil {
		return fmt.Errorf("marshal cause: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(pendingBucket)).Put([]byte(jobID), data)
	})
}

// TakePendingCause returns and clears the job's parked cause.
func (s *BoltStore) TakePendingCause(jobID string) (*CauseRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	var cause *CauseRecord

	err := s.db.Update(func(tx *bolt.Tx) error {
		pending := tx.Bucket([]byte(pendingBucket))
		data := pending.Get([]byte(jobID))
		if data == nil {
			return nil
		}
		cause = &CauseRecord{}
		if err := json.Unmarshal(data, cause); err != nil {
			return fmt.Errorf("unmarshal pending cause: %w", err)
		}
		return pending.Delete([]byte(jobID))
	})

	if err != nil {
		return nil, err
	}
	return cause, nil
}

// SaveRestart appends an entry to the restart ledger.
func (s *BoltStore) SaveRestart(rec *RestartRecord) error {
	if rec.RestartID == "" {
		return fmt.Errorf("restart_id is required")
	}
	if rec.JobID == "" {
		return fmt.Errorf("job_id is required")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal restart: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		restarts := tx.Bucket([]byte(restartsBucket))

		jobBucket, err := restarts.CreateBucketIfNotExists([]byte(rec.JobID))
		if err != nil {
			return fmt.Errorf("create job bucket %s: %w", rec.JobID, err)
		}

		seq, err := jobBucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}

		if err := jobBucket.Put(seqKey(seq), data); err != nil {
			return fmt.Errorf("put restart: %w", err)
		}
		return nil
	})
}

// GetRestarts retrieves the most recent ledger entries for a job.
func (s *BoltStore) GetRestarts(jobID string, limit int) ([]*RestartRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}
	if limit <= 0 {
		limit = 100
	}

	var records []*RestartRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		restarts := tx.Bucket([]byte(restartsBucket))
		jobBucket := restarts.Bucket([]byte(jobID))
		if jobBucket == nil {
			return nil
		}

		c := jobBucket.Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			rec := &RestartRecord{}
			if err := json.Unmarshal(v, rec); err != nil {
				return fmt.Errorf("unmarshal restart %x: %w", k, err)
			}
			records = append(records, rec)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetAllRestarts retrieves the most recent ledger entries across all jobs.
func (s *BoltStore) GetAllRestarts(limit int) ([]*RestartRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var records []*RestartRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		restarts := tx.Bucket([]byte(restartsBucket))
		return restarts.ForEachBucket(func(jobID []byte) error {
			jobBucket := restarts.Bucket(jobID)
			return jobBucket.ForEach(func(k, v []byte) error {
				rec := &RestartRecord{}
				if err := json.Unmarshal(v, rec); err != nil {
					return fmt.Errorf("unmarshal restart %x: %w", k, err)
				}
				records = append(records, rec)
				return nil
			})
		})
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RequestedAt.After(records[j].RequestedAt)
	})

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// seqKey encodes a bucket sequence number as a sortable big-endian key.
func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
