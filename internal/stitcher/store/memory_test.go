package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/domain"
)

func testSpec() domain.JobSpec {
	return domain.JobSpec{
		VideoURLs:    []string{"https://h/a.mp4", "https://h/b.mp4"},
		OutputFormat: domain.FormatMP4,
		Quality:      domain.QualityAuto,
	}
}

func TestMemoryStoreCreate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job, err := s.Create(ctx, testSpec())
	require.NoError(t, err)
	require.NotEmpty(t, job.JobID)

	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Empty(t, job.DownloadURL)
	assert.Empty(t, job.ErrorMessage)
	assert.Equal(t, job.CreatedAt.Add(domain.RetentionWindow), job.ExpiresAt)

	got, err := s.Get(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://h/a.mp4", "https://h/b.mp4"}, got.VideoURLs)
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestMemoryStoreSetStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job, err := s.Create(ctx, testSpec())
	require.NoError(t, err)

	require.NoError(t, s.SetStatus(ctx, job.JobID, domain.JobStatusProcessing, 40))

	got, err := s.Get(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, got.Status)
	assert.Equal(t, 40, got.Progress)

	// ProgressUnchanged keeps the last value.
	require.NoError(t, s.SetStatus(ctx, job.JobID, domain.JobStatusProcessing, ProgressUnchanged))

	got, err = s.Get(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)
}

func TestMemoryStoreSetDownloadURL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job, err := s.Create(ctx, testSpec())
	require.NoError(t, err)

	require.NoError(t, s.SetDownloadURL(ctx, job.JobID, "/api/v1/download/stitched_x.mp4"))

	got, err := s.Get(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "/api/v1/download/stitched_x.mp4", got.DownloadURL)
	assert.Empty(t, got.ErrorMessage)
}

func TestMemoryStoreSetError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job, err := s.Create(ctx, testSpec())
	require.NoError(t, err)

	require.NoError(t, s.SetStatus(ctx, job.JobID, domain.JobStatusProcessing, 40))
	require.NoError(t, s.SetError(ctx, job.JobID, "failed to download https://h/b.mp4: HTTP 404"))

	got, err := s.Get(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, "failed to download https://h/b.mp4: HTTP 404", got.ErrorMessage)
	assert.Empty(t, got.DownloadURL)
	// Progress keeps whatever was last recorded before the failure.
	assert.Equal(t, 40, got.Progress)
}

func TestMemoryStoreMutationsOnAbsentID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Mutation races with sweeping are expected; none of these may error.
	assert.NoError(t, s.SetStatus(ctx, "gone", domain.JobStatusProcessing, 10))
	assert.NoError(t, s.SetDownloadURL(ctx, "gone", "/api/v1/download/x.mp4"))
	assert.NoError(t, s.SetError(ctx, "gone", "boom"))
}

func TestMemoryStoreListActive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	pending, err := s.Create(ctx, testSpec())
	require.NoError(t, err)

	processing, err := s.Create(ctx, testSpec())
	require.NoError(t, err)
	require.NoError(t, s.SetStatus(ctx, processing.JobID, domain.JobStatusProcessing, 10))

	done, err := s.Create(ctx, testSpec())
	require.NoError(t, err)
	require.NoError(t, s.SetDownloadURL(ctx, done.JobID, "/api/v1/download/x.mp4"))

	failed, err := s.Create(ctx, testSpec())
	require.NoError(t, err)
	require.NoError(t, s.SetError(ctx, failed.JobID, "boom"))

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)

	ids := []string{active[0].JobID, active[1].JobID}
	assert.Contains(t, ids, pending.JobID)
	assert.Contains(t, ids, processing.JobID)
}

func TestMemoryStoreSweepExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	past := time.Now().Add(-25 * time.Hour)
	s.now = func() time.Time { return past }

	// Expired jobs in every state, processing included: sweeping reaps
	// unconditionally of status.
	expiredPending, err := s.Create(ctx, testSpec())
	require.NoError(t, err)

	expiredProcessing, err := s.Create(ctx, testSpec())
	require.NoError(t, err)
	require.NoError(t, s.SetStatus(ctx, expiredProcessing.JobID, domain.JobStatusProcessing, 60))

	s.now = time.Now
	fresh, err := s.Create(ctx, testSpec())
	require.NoError(t, err)

	removed, err := s.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	_, err = s.Get(ctx, expiredPending.JobID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = s.Get(ctx, expiredProcessing.JobID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	_, err = s.Get(ctx, fresh.JobID)
	assert.NoError(t, err)

	// Idempotent: a second sweep with nothing newly expired removes nothing.
	removed, err = s.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Empty(t, removed)
}
