package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ibuhs/ShubisVideoStitcher/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "video-stitcher-service",
		})
	})

	stitchHandler := handler.NewStitchHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// POST /api/v1/stitch - Submit a stitching job
		v1.POST("/stitch", stitchHandler.CreateStitchJob)

		// GET /api/v1/jobs - List active jobs
		v1.GET("/jobs", stitchHandler.ListActiveJobs)

		// GET /api/v1/jobs/:job_id - Poll job status
		v1.GET("/jobs/:job_id", stitchHandler.GetJob)

		// GET /api/v1/download/:filename - Retrieve a stitched artifact
		v1.GET("/download/:filename", stitchHandler.DownloadArtifact)

		// POST /api/v1/cleanup - Trigger an expiry sweep on demand
		v1.POST("/cleanup", stitchHandler.TriggerCleanup)
	}

	return r
}
