package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusTextOK  JobStatus = "TEXT_OK" // stage 1 completed (text extracted)
	JobStatusParsed  JobStatus = "PARSED"  // stage 2 completed (record extracted)
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)

// TextConfidenceThreshold flags extracted text that carries few Bill-of-Lading markers.
const TextConfidenceThreshold = 0.4
