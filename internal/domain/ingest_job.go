package domain

import (
	"fmt"
	"time"
)

// IngestJobStatus represents the status of an ingest job
type IngestJobStatus string

const (
	IngestJobStatusPending    IngestJobStatus = "pending"
	IngestJobStatusProcessing IngestJobStatus = "processing"
	IngestJobStatusCompleted  IngestJobStatus = "completed"
	IngestJobStatusFailed     IngestJobStatus = "failed"
)

// IngestJob represents an async site-ingestion job: crawl a site, chunk and
// embed its pages, and store the vectors.
type IngestJob struct {
	ID           string
	SiteURL      string
	Collection   string
	Status       IngestJobStatus
	Retries      int32
	Error        string
	PagesStored  int
	ChunksStored int
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// ValidateIngestJob validates an IngestJob instance
func ValidateIngestJob(j *IngestJob) error {
	if j == nil {
		return fmt.Errorf("ingest job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("ingest job ID is required")
	}

	if j.SiteURL == "" {
		return fmt.Errorf("ingest job site URL is required")
	}

	if !isValidIngestJobStatus(j.Status) {
		return fmt.Errorf("ingest job status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("ingest job retries cannot be negative")
	}

	return nil
}

func isValidIngestJobStatus(s IngestJobStatus) bool {
	switch s {
	case IngestJobStatusPending, IngestJobStatusProcessing,
		IngestJobStatusCompleted, IngestJobStatusFailed:
		return true
	}
	return false
}
