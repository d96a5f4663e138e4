package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/domain"
	"github.com/ibuhs/ShubisVideoStitcher/shared/postgresql"
)

// PostgresStore is the database-backed Store used when jobs should survive
// process restarts. Per-key write serialization comes from row-level locking
// in the database; the schema mirrors the job entity one to one.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a store on an established connection and ensures
// the jobs table exists.
func NewPostgresStore(client *postgresql.Client) (*PostgresStore, error) {
	s := &PostgresStore{db: client.GetDB()}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS stitch_jobs (
			job_id        TEXT PRIMARY KEY,
			status        TEXT NOT NULL,
			progress      INTEGER NOT NULL DEFAULT 0,
			video_urls    TEXT[] NOT NULL,
			output_format TEXT NOT NULL,
			quality       TEXT NOT NULL,
			download_url  TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL,
			expires_at    TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_stitch_jobs_expires ON stitch_jobs(expires_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate stitch_jobs table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, spec domain.JobSpec) (*domain.Job, error) {
	now := time.Now()
	job := &domain.Job{
		JobID:        uuid.New().String(),
		Status:       domain.JobStatusPending,
		Progress:     0,
		VideoURLs:    append([]string(nil), spec.VideoURLs...),
		OutputFormat: spec.OutputFormat,
		Quality:      spec.Quality,
		CreatedAt:    now,
		ExpiresAt:    now.Add(domain.RetentionWindow),
	}

	query := `
		INSERT INTO stitch_jobs (
			job_id, status, progress, video_urls,
			output_format, quality, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.Status,
		job.Progress,
		pq.Array(job.VideoURLs),
		job.OutputFormat,
		job.Quality,
		job.CreatedAt,
		job.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

func (s *PostgresStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		SELECT job_id, status, progress, video_urls,
		       output_format, quality, download_url, error_message,
		       created_at, expires_at
		FROM stitch_jobs
		WHERE job_id = $1
	`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, jobID, status string, progress int) error {
	var err error
	if progress == ProgressUnchanged {
		_, err = s.db.ExecContext(ctx,
			`UPDATE stitch_jobs SET status = $1 WHERE job_id = $2`,
			status, jobID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE stitch_jobs SET status = $1, progress = $2 WHERE job_id = $3`,
			status, progress, jobID)
	}
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetDownloadURL(ctx context.Context, jobID, url string) error {
	query := `
		UPDATE stitch_jobs
		SET download_url = $1, status = $2, progress = 100
		WHERE job_id = $3
	`

	if _, err := s.db.ExecContext(ctx, query, url, domain.JobStatusCompleted, jobID); err != nil {
		return fmt.Errorf("failed to record download url: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetError(ctx context.Context, jobID, message string) error {
	query := `
		UPDATE stitch_jobs
		SET error_message = $1, status = $2
		WHERE job_id = $3
	`

	if _, err := s.db.ExecContext(ctx, query, message, domain.JobStatusFailed, jobID); err != nil {
		return fmt.Errorf("failed to record job error: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]domain.Job, error) {
	query := `
		SELECT job_id, status, progress, video_urls,
		       output_format, quality, download_url, error_message,
		       created_at, expires_at
		FROM stitch_jobs
		WHERE status IN ($1, $2)
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, domain.JobStatusPending, domain.JobStatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}
	defer rows.Close()

	var active []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		active = append(active, *job)
	}
	return active, rows.Err()
}

func (s *PostgresStore) SweepExpired(ctx context.Context) ([]domain.Job, error) {
	query := `
		DELETE FROM stitch_jobs
		WHERE expires_at < NOW()
		RETURNING job_id, status, progress, video_urls,
		          output_format, quality, download_url, error_message,
		          created_at, expires_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep expired jobs: %w", err)
	}
	defer rows.Close()

	var removed []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan swept job: %w", err)
		}
		removed = append(removed, *job)
	}
	return removed, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var urls pq.StringArray

	err := row.Scan(
		&job.JobID,
		&job.Status,
		&job.Progress,
		&urls,
		&job.OutputFormat,
		&job.Quality,
		&job.DownloadURL,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	job.VideoURLs = []string(urls)
	return &job, nil
}
