package domain

import "time"

// Job represents one video stitching request and its processing state.
type Job struct {
	JobID        string    `db:"job_id" json:"job_id"`
	Status       string    `db:"status" json:"status"`
	Progress     int       `db:"progress" json:"progress"`
	VideoURLs    []string  `db:"-" json:"video_urls"`
	OutputFormat string    `db:"output_format" json:"output_format"`
	Quality      string    `db:"quality" json:"quality"`
	DownloadURL  string    `db:"download_url" json:"download_url,omitempty"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
}

// JobSpec holds the immutable submission parameters for a new job.
type JobSpec struct {
	VideoURLs    []string
	OutputFormat string
	Quality      string
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Active reports whether the job is still awaiting or undergoing processing.
func (j *Job) Active() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusProcessing
}

// Expired reports whether the job's retention window has elapsed.
func (j *Job) Expired(now time.Time) bool {
	return j.ExpiresAt.Before(now)
}
