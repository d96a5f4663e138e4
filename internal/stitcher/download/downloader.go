package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/domain"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/files"
)

// Downloader fetches a job's source videos to scratch storage. All URLs are
// fetched concurrently with a per-fetch timeout; the batch is all-or-nothing.
type Downloader struct {
	client  *http.Client
	files   *files.Manager
	timeout time.Duration
	logger  *slog.Logger
}

// NewDownloader creates a Downloader with the given per-fetch timeout.
func NewDownloader(fm *files.Manager, timeout time.Duration, logger *slog.Logger) *Downloader {
	return &Downloader{
		client:  &http.Client{},
		files:   fm,
		timeout: timeout,
		logger:  logger,
	}
}

// FetchAll downloads every URL concurrently and returns the local paths in
// input order, which is the concatenation order. If any fetch fails, every
// file downloaded for this batch is deleted and a *domain.DownloadError for
// the first failing URL is returned.
func (d *Downloader) FetchAll(ctx context.Context, urls []string, jobID string) ([]string, error) {
	paths := make([]string, len(urls))
	errs := make([]error, len(urls))

	var wg sync.WaitGroup
	for i, rawURL := range urls {
		wg.Add(1)
		go func(i int, rawURL string) {
			defer wg.Done()
			paths[i], errs[i] = d.fetchOne(ctx, rawURL, jobID, i)
		}(i, rawURL)
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}

		var downloaded []string
		for j, path := range paths {
			if errs[j] == nil && path != "" {
				downloaded = append(downloaded, path)
			}
		}
		d.files.Cleanup(downloaded)

		d.logger.Error("Download batch failed",
			slog.String("job_id", jobID),
			slog.String("url", urls[i]),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return paths, nil
}

// fetchOne downloads a single URL to a fresh scratch path. The partial file
// is removed before returning any error.
func (d *Downloader) fetchOne(ctx context.Context, rawURL, jobID string, index int) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", &domain.DownloadError{URL: rawURL, Err: fmt.Errorf("invalid URL")}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &domain.DownloadError{URL: rawURL, Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || fetchCtx.Err() == context.DeadlineExceeded {
			return "", &domain.DownloadError{URL: rawURL, Err: errors.New("download timeout")}
		}
		return "", &domain.DownloadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &domain.DownloadError{URL: rawURL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	path := d.files.ScratchPath(jobID, index)
	file, err := os.Create(path)
	if err != nil {
		return "", &domain.DownloadError{URL: rawURL, Err: err}
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(path)
		if fetchCtx.Err() == context.DeadlineExceeded {
			return "", &domain.DownloadError{URL: rawURL, Err: errors.New("download timeout")}
		}
		return "", &domain.DownloadError{URL: rawURL, Err: err}
	}

	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", &domain.DownloadError{URL: rawURL, Err: err}
	}

	return path, nil
}
