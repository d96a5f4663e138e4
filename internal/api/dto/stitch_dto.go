package dto

// StitchRequest is the submission payload. Validation mirrors the job
// contract: 2-10 well-formed URLs, known format and quality values.
type StitchRequest struct {
	Videos  []string `json:"videos" binding:"required,min=2,max=10,dive,url"`
	Format  string   `json:"format" binding:"omitempty,oneof=mp4 webm mov"`
	Quality string   `json:"quality" binding:"omitempty,oneof=auto high medium low"`
}

// StitchResponse acknowledges a created job.
type StitchResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobStatusResponse is the polling view of a job. DownloadURL and Error are
// mutually exclusive and only present in terminal states.
type JobStatusResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at"`
	DownloadURL string `json:"download_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ActiveJobsResponse lists jobs still pending or processing.
type ActiveJobsResponse struct {
	Jobs []JobStatusResponse `json:"jobs"`
}
