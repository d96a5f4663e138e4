package domain

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrJobNotFound is returned when a job id does not exist in the store
	ErrJobNotFound = errors.New("job not found")

	// ErrTooFewVideos is returned when a degenerate URL list reaches the orchestrator
	ErrTooFewVideos = errors.New("at least two videos are required")
)

// DownloadError reports a failed fetch of one source video. The whole batch
// is aborted when any single fetch fails.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// InvalidMediaError reports a downloaded file that ffprobe could not
// recognize as video.
type InvalidMediaError struct {
	Path string
	Err  error
}

func (e *InvalidMediaError) Error() string {
	return fmt.Sprintf("invalid video file: %s", filepath.Base(e.Path))
}

func (e *InvalidMediaError) Unwrap() error {
	return e.Err
}

// ConcatError reports a non-zero exit from the concatenation tool.
type ConcatError struct {
	ExitCode int
	Err      error
}

func (e *ConcatError) Error() string {
	return fmt.Sprintf("ffmpeg process exited with code %d", e.ExitCode)
}

func (e *ConcatError) Unwrap() error {
	return e.Err
}
