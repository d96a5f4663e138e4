package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/domain"
)

// MemoryStore is the default in-process job store. A single RWMutex gives
// concurrent polling reads and serialized writes; every job is only ever
// written by its own orchestrator goroutine, so per-key write contention
// does not occur in practice.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreAt(time.Now)
}

// NewMemoryStoreAt creates a store on the given clock. Tests use it to
// create records whose retention window has already elapsed.
func NewMemoryStoreAt(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		jobs: make(map[string]*domain.Job),
		now:  now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, spec domain.JobSpec) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	job := &domain.Job{
		JobID:        uuid.New().String(),
		Status:       domain.JobStatusPending,
		Progress:     0,
		VideoURLs:    append([]string(nil), spec.VideoURLs...),
		OutputFormat: spec.OutputFormat,
		Quality:      spec.Quality,
		CreatedAt:    now,
		ExpiresAt:    now.Add(domain.RetentionWindow),
	}
	s.jobs[job.JobID] = job

	snapshot := *job
	return &snapshot, nil
}

func (s *MemoryStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}

	snapshot := *job
	snapshot.VideoURLs = append([]string(nil), job.VideoURLs...)
	return &snapshot, nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, jobID, status string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}

	job.Status = status
	if progress != ProgressUnchanged {
		job.Progress = progress
	}
	return nil
}

func (s *MemoryStore) SetDownloadURL(ctx context.Context, jobID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}

	job.DownloadURL = url
	job.Status = domain.JobStatusCompleted
	job.Progress = 100
	return nil
}

func (s *MemoryStore) SetError(ctx context.Context, jobID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}

	job.ErrorMessage = message
	job.Status = domain.JobStatusFailed
	return nil
}

func (s *MemoryStore) ListActive(ctx context.Context) ([]domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []domain.Job
	for _, job := range s.jobs {
		if job.Active() {
			snapshot := *job
			snapshot.VideoURLs = append([]string(nil), job.VideoURLs...)
			active = append(active, snapshot)
		}
	}
	return active, nil
}

func (s *MemoryStore) SweepExpired(ctx context.Context) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed []domain.Job
	for id, job := range s.jobs {
		if job.Expired(now) {
			removed = append(removed, *job)
			delete(s.jobs, id)
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
