package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ibuhs/ShubisVideoStitcher/internal/api/handler"
	"github.com/ibuhs/ShubisVideoStitcher/internal/api/router"
	"github.com/ibuhs/ShubisVideoStitcher/internal/config"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/download"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/files"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/media"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/store"
	"github.com/ibuhs/ShubisVideoStitcher/shared/logger"
	"github.com/ibuhs/ShubisVideoStitcher/shared/postgresql"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("STITCHER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/stitcher-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	appLogger.Info("Starting stitcher service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize the job store
	jobStore, err := initStore(cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize job store: %w", err)
	}
	defer jobStore.Close()

	// Scratch and output storage
	fileManager, err := files.NewManager(cfg.Stitcher.TempDir, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize file manager: %w", err)
	}

	// External tool adapter
	mediaAdapter, err := media.NewAdapter(
		cfg.Stitcher.FFmpegPath,
		cfg.Stitcher.FFprobePath,
		cfg.Stitcher.TempDir,
		appLogger.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize media adapter: %w", err)
	}

	downloader := download.NewDownloader(fileManager, cfg.Stitcher.DownloadTimeout, appLogger.Logger)

	orchestrator := stitcher.NewOrchestrator(&stitcher.Config{
		Store:         jobStore,
		Fetcher:       downloader,
		Media:         mediaAdapter,
		Files:         fileManager,
		ConcatTimeout: cfg.Stitcher.ConcatTimeout,
		Logger:        appLogger.Logger,
	})

	sweeper := stitcher.NewSweeper(jobStore, fileManager, cfg.Stitcher.SweepInterval, appLogger.Logger)

	// Background expiry sweeping, stopped on shutdown
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.Run(sweepCtx)

	// Initialize router
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.SetupRouter(&handler.Dependencies{
		Logger:  appLogger.Logger,
		Store:   jobStore,
		Launch:  orchestrator,
		Sweeper: sweeper,
		Files:   fileManager,
	})

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("Stitcher service is running",
		slog.String("address", addr),
		slog.String("store", cfg.Store.Backend),
		slog.String("temp_dir", filepath.Clean(cfg.Stitcher.TempDir)),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initStore selects the job store backend from configuration.
func initStore(cfg *config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		client, err := postgresql.NewClient(&postgresql.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, log)
		if err != nil {
			return nil, err
		}
		return store.NewPostgresStore(client)
	default:
		return store.NewMemoryStore(), nil
	}
}
