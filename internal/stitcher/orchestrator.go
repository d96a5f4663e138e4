package stitcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/domain"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/files"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/media"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/store"
)

// Stage progress checkpoints on the unified 0-100 scale. Concatenation
// progress is remapped into the band between concatenating and publishing.
const (
	progressDownloading   = 10
	progressValidating    = 40
	progressConcatenating = 60
	progressPublishing    = 95
)

// Fetcher downloads a job's source videos, order-preserving, all-or-nothing.
type Fetcher interface {
	FetchAll(ctx context.Context, urls []string, jobID string) ([]string, error)
}

// MediaProcessor probes and concatenates local video files.
type MediaProcessor interface {
	Probe(ctx context.Context, path string) (*media.Info, error)
	Concatenate(ctx context.Context, inputs []string, outputPath, format, quality string, onProgress func(int)) error
}

// Orchestrator drives one job at a time per goroutine through
// download -> validate -> concatenate -> publish. It is the only writer of
// a job's record while the job is in flight; callers observe results solely
// through the store.
type Orchestrator struct {
	store         store.Store
	fetcher       Fetcher
	media         MediaProcessor
	files         *files.Manager
	concatTimeout time.Duration // 0 = unlimited
	logger        *slog.Logger
}

// Config holds orchestrator dependencies.
type Config struct {
	Store         store.Store
	Fetcher       Fetcher
	Media         MediaProcessor
	Files         *files.Manager
	ConcatTimeout time.Duration
	Logger        *slog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg *Config) *Orchestrator {
	return &Orchestrator{
		store:         cfg.Store,
		fetcher:       cfg.Fetcher,
		media:         cfg.Media,
		files:         cfg.Files,
		concatTimeout: cfg.ConcatTimeout,
		logger:        cfg.Logger,
	}
}

// Launch starts processing a job in the background. The submission request
// returns immediately; all outcomes are recorded on the job record.
func (o *Orchestrator) Launch(jobID string) {
	go o.Process(context.Background(), jobID)
}

// Process runs the full stage sequence for one job. Every failure is caught
// here and converted to a terminal failed status; nothing escapes the
// goroutine.
func (o *Orchestrator) Process(ctx context.Context, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Job processing panicked",
				slog.String("job_id", jobID),
				slog.Any("panic", r),
			)
			_ = o.store.SetError(ctx, jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		// Reaped or never existed; there is nothing to record on.
		o.logger.Warn("Job vanished before processing started",
			slog.String("job_id", jobID),
		)
		return
	}

	if err := o.run(ctx, job); err != nil {
		o.fail(ctx, job, err)
	}
}

func (o *Orchestrator) run(ctx context.Context, job *domain.Job) error {
	jobID := job.JobID

	if len(job.VideoURLs) < domain.MinVideos {
		return domain.ErrTooFewVideos
	}

	if err := o.store.SetStatus(ctx, jobID, domain.JobStatusProcessing, progressDownloading); err != nil {
		return err
	}

	inputs, err := o.fetcher.FetchAll(ctx, job.VideoURLs, jobID)
	if err != nil {
		return err
	}

	if err := o.store.SetStatus(ctx, jobID, domain.JobStatusProcessing, progressValidating); err != nil {
		return err
	}

	for _, input := range inputs {
		if _, err := o.media.Probe(ctx, input); err != nil {
			return err
		}
	}

	if err := o.store.SetStatus(ctx, jobID, domain.JobStatusProcessing, progressConcatenating); err != nil {
		return err
	}

	outputPath := o.files.OutputPath(jobID, job.OutputFormat)

	concatCtx := ctx
	if o.concatTimeout > 0 {
		var cancel context.CancelFunc
		concatCtx, cancel = context.WithTimeout(ctx, o.concatTimeout)
		defer cancel()
	}

	err = o.media.Concatenate(concatCtx, inputs, outputPath, job.OutputFormat, job.Quality,
		func(progress int) {
			// Fire-and-forget telemetry remapped into the concat band.
			mapped := remapConcatProgress(progress)
			_ = o.store.SetStatus(ctx, jobID, domain.JobStatusProcessing, mapped)
		})
	if err != nil {
		return err
	}

	if err := o.store.SetStatus(ctx, jobID, domain.JobStatusProcessing, progressPublishing); err != nil {
		return err
	}

	if err := o.store.SetDownloadURL(ctx, jobID, o.files.PublicURL(outputPath)); err != nil {
		return err
	}

	o.files.Cleanup(inputs)

	o.logger.Info("Job completed successfully",
		slog.String("job_id", jobID),
		slog.String("output", outputPath),
	)
	return nil
}

// fail records the terminal failure, then makes a best-effort pass to remove
// any scratch files by re-fetching the job's URLs purely to learn their
// paths. The re-fetch mirrors the download stage's own cleanup semantics, so
// a failed pass leaves nothing behind either way; its errors are swallowed.
func (o *Orchestrator) fail(ctx context.Context, job *domain.Job, cause error) {
	o.logger.Error("Job failed",
		slog.String("job_id", job.JobID),
		slog.String("error", cause.Error()),
	)

	if err := o.store.SetError(ctx, job.JobID, cause.Error()); err != nil {
		o.logger.Warn("Failed to record job error",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
	}

	inputs, err := o.fetcher.FetchAll(ctx, job.VideoURLs, job.JobID)
	if err != nil {
		o.logger.Warn("Failure-path cleanup fetch did not complete",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		return
	}
	o.files.Cleanup(inputs)
}

// remapConcatProgress linearly maps adapter progress 0-100 into [60,95].
func remapConcatProgress(progress int) int {
	return int(math.Round(progressConcatenating + float64(progress)*0.35))
}
