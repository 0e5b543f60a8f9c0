package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mnardelli/audimed/pkg/models"
)

// MemoryStore keeps jobs in process memory. It is the default backend: jobs
// are ephemeral and a restart loses them, matching a single-instance
// deployment where clients poll while the job runs.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.Job)}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) CreateJob(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return ErrDuplicateKey
	}
	cp, err := copyJob(job)
	if err != nil {
		return err
	}
	s.jobs[job.ID] = cp
	return nil
}

func (s *MemoryStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyJob(job)
}

func (s *MemoryStore) UpdateJob(ctx context.Context, id string, patch func(*models.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	patch(job)
	return nil
}

// copyJob deep-copies via JSON so callers can't mutate stored state. Job is a
// plain data struct, so the round trip is lossless.
func copyJob(job *models.Job) (*models.Job, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("copy job: %w", err)
	}
	var cp models.Job
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("copy job: %w", err)
	}
	return &cp, nil
}
