package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ibuhs/ShubisVideoStitcher/internal/api/dto"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/domain"
)

// CreateStitchJob handles POST /api/v1/stitch
// Validates the submission, creates the job record, and hands off to the
// orchestrator. The response carries only the job id and pending status;
// everything else is observed by polling.
func (h *StitchHandler) CreateStitchJob(c *gin.Context) {
	var req dto.StitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid stitch request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if req.Format == "" {
		req.Format = domain.FormatMP4
	}
	if req.Quality == "" {
		req.Quality = domain.QualityAuto
	}

	job, err := h.store.Create(c.Request.Context(), domain.JobSpec{
		VideoURLs:    req.Videos,
		OutputFormat: req.Format,
		Quality:      req.Quality,
	})
	if err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	h.logger.Info("Stitch job created",
		slog.String("job_id", job.JobID),
		slog.Int("videos", len(req.Videos)),
		slog.String("format", req.Format),
		slog.String("quality", req.Quality),
	)

	h.launch.Launch(job.JobID)

	c.JSON(http.StatusOK, dto.StitchResponse{
		JobID:   job.JobID,
		Status:  job.Status,
		Message: "Video processing job created successfully",
	})
}

// GetJob handles GET /api/v1/jobs/:job_id
// Returns the polling view of one job.
func (h *StitchHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job status",
		})
		return
	}

	c.JSON(http.StatusOK, jobStatusView(job))
}

// ListActiveJobs handles GET /api/v1/jobs
// Returns all jobs still pending or processing.
func (h *StitchHandler) ListActiveJobs(c *gin.Context) {
	jobs, err := h.store.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list active jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	resp := dto.ActiveJobsResponse{Jobs: make([]dto.JobStatusResponse, 0, len(jobs))}
	for i := range jobs {
		resp.Jobs = append(resp.Jobs, *jobStatusView(&jobs[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadArtifact handles GET /api/v1/download/:filename
// Streams a stitched output file as an attachment.
func (h *StitchHandler) DownloadArtifact(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid filename",
		})
		return
	}

	path := filepath.Join(h.files.OutputDir(), filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "File not found",
		})
		return
	}

	c.Header("Content-Type", contentTypeFor(filename))
	c.FileAttachment(path, filename)
}

// TriggerCleanup handles POST /api/v1/cleanup
// Runs one sweep pass on demand. Sweep failures are internal; the endpoint
// always reports completion.
func (h *StitchHandler) TriggerCleanup(c *gin.Context) {
	removed := h.sweeper.SweepOnce(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"message": "Cleanup completed",
		"removed": removed,
	})
}

// jobStatusView builds the polling response, exposing the download
// reference or error message only in the matching terminal state.
func jobStatusView(job *domain.Job) *dto.JobStatusResponse {
	resp := &dto.JobStatusResponse{
		JobID:     job.JobID,
		Status:    job.Status,
		Progress:  job.Progress,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		ExpiresAt: job.ExpiresAt.Format(time.RFC3339),
	}

	switch job.Status {
	case domain.JobStatusCompleted:
		resp.DownloadURL = job.DownloadURL
	case domain.JobStatusFailed:
		resp.Error = job.ErrorMessage
	}
	return resp
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	default:
		return "video/mp4"
	}
}
