package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/doculens-ai/doculens/internal/domain"
	"github.com/doculens-ai/doculens/internal/service"
	"github.com/doculens-ai/doculens/internal/telemetry"
)

// MaxRetries is the maximum number of attempts for a failed ingest job
const MaxRetries = 3

// claimBatchSize bounds how many jobs one poll picks up.
const claimBatchSize = 10

// IngestJobRepository defines the interface for ingest job persistence
type IngestJobRepository interface {
	// ClaimPending atomically claims up to limit pending jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error)

	// UpdateStatus updates the status of an ingest job
	UpdateStatus(ctx context.Context, id string, status domain.IngestJobStatus, errMsg string) error

	// RecordResult stores the page and chunk counts of a completed run
	RecordResult(ctx context.Context, id string, pagesStored, chunksStored int) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// Ingester runs one site ingest end to end.
type Ingester interface {
	IngestSite(ctx context.Context, siteURL, collection string) (*service.IngestReport, error)
}

// IngestWorker processes queued site-ingest jobs.
type IngestWorker struct {
	repo     IngestJobRepository
	ingester Ingester
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(repo IngestJobRepository, ingester Ingester) *IngestWorker {
	return &IngestWorker{
		repo:     repo,
		ingester: ingester,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending ingest jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing ingest job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IngestWorker) processJob(ctx context.Context, job *domain.IngestJob) error {
	log.Printf("Ingesting %s into collection %s (job %s)", job.SiteURL, job.Collection, job.ID)

	ctx, span := telemetry.StartSpan(ctx, "ingest.job", telemetry.SpanAttributes{
		Collection: job.Collection,
		SiteURL:    job.SiteURL,
		Operation:  "ingest_site",
	})
	defer span.End()

	report, err := w.ingester.IngestSite(ctx, job.SiteURL, job.Collection)
	if err != nil {
		span.SetError(err)
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.RecordResult(ctx, job.ID, report.PagesCrawled-report.PagesFailed, report.ChunksStored); err != nil {
		return fmt.Errorf("failed to record job result: %w", err)
	}
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Ingest job %s completed: %d pages, %d chunks", job.ID, report.PagesCrawled, report.ChunksStored)
	return nil
}

// handleJobFailure retries a failed job until MaxRetries, then marks it
// failed for good.
func (w *IngestWorker) handleJobFailure(ctx context.Context, job *domain.IngestJob, jobErr error) error {
	log.Printf("Ingest job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Ingest job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Ingest job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
