package domain

import "time"

// Job status constants
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Output format constants
const (
	FormatMP4  = "mp4"
	FormatWebM = "webm"
	FormatMOV  = "mov"
)

// Quality preset constants. QualityAuto means stream copy without re-encoding.
const (
	QualityAuto   = "auto"
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// Submission bounds on the number of source videos
const (
	MinVideos = 2
	MaxVideos = 10
)

// RetentionWindow is how long job records and artifacts are kept after creation.
const RetentionWindow = 24 * time.Hour
