package store

import (
	"context"

	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/domain"
)

// ProgressUnchanged tells SetStatus to leave the recorded progress as is.
const ProgressUnchanged = -1

// Store is the keyed job record store. Reads may run concurrently with
// writes; writes to the same job id are serialized by the implementation.
//
// All mutations are no-ops (not errors) when the job id is absent: mutation
// races with expiry sweeping are expected and must not fail the caller.
type Store interface {
	// Create inserts a new job in pending state with progress 0.
	Create(ctx context.Context, spec domain.JobSpec) (*domain.Job, error)

	// Get returns the job, or domain.ErrJobNotFound.
	Get(ctx context.Context, jobID string) (*domain.Job, error)

	// SetStatus updates status and, unless progress is ProgressUnchanged,
	// progress.
	SetStatus(ctx context.Context, jobID, status string, progress int) error

	// SetDownloadURL records the output reference and implicitly moves the
	// job to completed with progress 100.
	SetDownloadURL(ctx context.Context, jobID, url string) error

	// SetError records the failure message and implicitly moves the job to
	// failed. Progress keeps its last recorded value.
	SetError(ctx context.Context, jobID, message string) error

	// ListActive returns all jobs in pending or processing state.
	ListActive(ctx context.Context) ([]domain.Job, error)

	// SweepExpired removes every record whose retention window has elapsed,
	// regardless of status, and returns the removed jobs so callers can
	// delete their artifacts.
	SweepExpired(ctx context.Context) ([]domain.Job, error)

	// Close releases any resources held by the store.
	Close() error
}
