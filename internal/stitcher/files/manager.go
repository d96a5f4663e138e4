package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Manager owns the scratch layout on disk: one directory for downloaded
// inputs, one for stitched outputs. Scratch names embed the job id, the
// sequence index, and a random fragment so concurrent jobs and retries
// never collide.
type Manager struct {
	downloadsDir string
	outputDir    string
	logger       *slog.Logger
}

// NewManager creates the manager and its directories under baseDir.
func NewManager(baseDir string, logger *slog.Logger) (*Manager, error) {
	m := &Manager{
		downloadsDir: filepath.Join(baseDir, "downloads"),
		outputDir:    filepath.Join(baseDir, "output"),
		logger:       logger,
	}

	for _, dir := range []string{m.downloadsDir, m.outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return m, nil
}

// ScratchPath returns a collision-free path for one downloaded input.
func (m *Manager) ScratchPath(jobID string, index int) string {
	name := fmt.Sprintf("%s_%d_%s.mp4", jobID, index, uuid.New().String()[:8])
	return filepath.Join(m.downloadsDir, name)
}

// OutputPath returns the path the stitched artifact is written to.
func (m *Manager) OutputPath(jobID, format string) string {
	return filepath.Join(m.outputDir, fmt.Sprintf("stitched_%s.%s", jobID, format))
}

// OutputDir returns the directory stitched artifacts live in.
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// PublicURL converts an output path into the retrieval reference handed to
// clients.
func (m *Manager) PublicURL(outputPath string) string {
	return "/api/v1/download/" + filepath.Base(outputPath)
}

// Cleanup removes the given files best-effort. Failures are logged and
// swallowed; cleanup must never mask the error that led here.
func (m *Manager) Cleanup(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("Failed to clean up file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}
}

// RemoveOutputs deletes any stitched artifacts belonging to a job,
// regardless of format. Used by the expiry sweeper.
func (m *Manager) RemoveOutputs(jobID string) {
	matches, err := filepath.Glob(filepath.Join(m.outputDir, "stitched_"+jobID+".*"))
	if err != nil {
		return
	}
	m.Cleanup(matches)
}
