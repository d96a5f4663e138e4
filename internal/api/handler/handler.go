package handler

import (
	"context"
	"log/slog"

	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/files"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/store"
)

// JobLauncher starts background processing for a created job.
type JobLauncher interface {
	Launch(jobID string)
}

// MaintenanceSweeper is the on-demand side of the expiry sweeper.
type MaintenanceSweeper interface {
	SweepOnce(ctx context.Context) int
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Store   store.Store
	Launch  JobLauncher
	Sweeper MaintenanceSweeper
	Files   *files.Manager
}

// StitchHandler handles video stitching HTTP requests
type StitchHandler struct {
	logger  *slog.Logger
	store   store.Store
	launch  JobLauncher
	sweeper MaintenanceSweeper
	files   *files.Manager
}

// NewStitchHandler creates a new StitchHandler instance
func NewStitchHandler(deps *Dependencies) *StitchHandler {
	return &StitchHandler{
		logger:  deps.Logger,
		store:   deps.Store,
		launch:  deps.Launch,
		sweeper: deps.Sweeper,
		files:   deps.Files,
	}
}
