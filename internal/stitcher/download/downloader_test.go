package download

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/domain"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/files"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDownloader(t *testing.T, timeout time.Duration) (*Downloader, string) {
	t.Helper()

	baseDir := t.TempDir()
	fm, err := files.NewManager(baseDir, discardLogger())
	require.NoError(t, err)

	return NewDownloader(fm, timeout, discardLogger()), filepath.Join(baseDir, "downloads")
}

func scratchFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFetchAllPreservesOrder(t *testing.T) {
	// The first server responds slowly so its fetch finishes last; returned
	// paths must still follow submission order.
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		io.WriteString(w, "first-video")
	}))
	defer slow.Close()

	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "second-video")
	}))
	defer fast.Close()

	d, _ := newTestDownloader(t, 5*time.Second)

	paths, err := d.FetchAll(context.Background(), []string{slow.URL, fast.URL}, "job-1")
	require.NoError(t, err)
	require.Len(t, paths, 2)

	first, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	second, err := os.ReadFile(paths[1])
	require.NoError(t, err)

	assert.Equal(t, "first-video", string(first))
	assert.Equal(t, "second-video", string(second))

	assert.Contains(t, filepath.Base(paths[0]), "job-1_0_")
	assert.Contains(t, filepath.Base(paths[1]), "job-1_1_")
}

func TestFetchAllFailureCleansUpBatch(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "video-bytes")
	}))
	defer ok.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer broken.Close()

	d, scratchDir := newTestDownloader(t, 5*time.Second)

	_, err := d.FetchAll(context.Background(), []string{ok.URL, broken.URL}, "job-2")
	require.Error(t, err)

	var dlErr *domain.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, broken.URL, dlErr.URL)
	assert.Contains(t, err.Error(), "HTTP 404")

	// All-or-nothing: the successful download must be gone too.
	assert.Empty(t, scratchFiles(t, scratchDir))
}

func TestFetchAllTimeout(t *testing.T) {
	hang := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer hang.Close()

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "video-bytes")
	}))
	defer ok.Close()

	d, scratchDir := newTestDownloader(t, 100*time.Millisecond)

	start := time.Now()
	_, err := d.FetchAll(context.Background(), []string{ok.URL, hang.URL}, "job-3")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var dlErr *domain.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Contains(t, strings.ToLower(err.Error()), "timeout")

	// No dangling partial file survives.
	assert.Empty(t, scratchFiles(t, scratchDir))
}

func TestFetchAllRejectsMalformedURL(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "video-bytes")
	}))
	defer ok.Close()

	d, scratchDir := newTestDownloader(t, 5*time.Second)

	_, err := d.FetchAll(context.Background(), []string{ok.URL, "ftp://not-http/video.mp4"}, "job-4")
	require.Error(t, err)

	var dlErr *domain.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Contains(t, err.Error(), "invalid URL")

	assert.Empty(t, scratchFiles(t, scratchDir))
}
