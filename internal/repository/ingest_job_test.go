//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doculens-ai/doculens/internal/domain"
	"github.com/doculens-ai/doculens/internal/testutil"
)

func newPendingJob() *domain.IngestJob {
	return &domain.IngestJob{
		ID:         uuid.NewString(),
		SiteURL:    "https://docs.example.com",
		Collection: "documents",
		Status:     domain.IngestJobStatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestIngestJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../db/migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	job := newPendingJob()
	require.NoError(t, repo.Create(ctx, job))

	retrieved, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, retrieved.ID)
	assert.Equal(t, job.SiteURL, retrieved.SiteURL)
	assert.Equal(t, domain.IngestJobStatusPending, retrieved.Status)
	assert.Equal(t, int32(0), retrieved.Retries)
	assert.Empty(t, retrieved.Error)
	assert.Nil(t, retrieved.ProcessedAt)
}

func TestIngestJobRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../db/migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrIngestJobNotFound)
}

func TestIngestJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../db/migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	first := newPendingJob()
	second := newPendingJob()
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	claimed, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, job := range claimed {
		assert.Equal(t, domain.IngestJobStatusProcessing, job.Status)
	}

	// A second claim finds nothing pending
	claimed, err = repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestIngestJobRepository_CompleteLifecycle(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../db/migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	job := newPendingJob()
	require.NoError(t, repo.Create(ctx, job))

	claimed, err := repo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, repo.RecordResult(ctx, job.ID, 9, 42))
	require.NoError(t, repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusCompleted, ""))

	retrieved, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusCompleted, retrieved.Status)
	assert.Equal(t, 9, retrieved.PagesStored)
	assert.Equal(t, 42, retrieved.ChunksStored)
	assert.NotNil(t, retrieved.ProcessedAt)
}

func TestIngestJobRepository_RetryFlow(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../db/migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	job := newPendingJob()
	require.NoError(t, repo.Create(ctx, job))

	_, err := repo.ClaimPending(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, repo.IncrementRetries(ctx, job.ID))
	require.NoError(t, repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusPending, "retry 1: crawl timed out"))

	retrieved, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusPending, retrieved.Status)
	assert.Equal(t, int32(1), retrieved.Retries)
	assert.Equal(t, "retry 1: crawl timed out", retrieved.Error)

	// Job is claimable again after the retry reset
	claimed, err := repo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, job.ID, claimed[0].ID)
}

func TestChatLogRepository_CreateAndCount(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../db/migrations")
	defer pool.Close()

	repo := NewChatLogRepository(pool)

	id, err := repo.CreateChatLog(ctx, ChatLogEntry{
		SessionID:       "s1",
		Message:         "how do I install?",
		Response:        "Use npm install doculens.",
		Sources:         []string{"https://docs.example.com/install"},
		ChunksRetrieved: 3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = repo.CreateChatLog(ctx, ChatLogEntry{
		SessionID: "s1",
		Message:   "and on windows?",
		Response:  "Same command.",
		Degraded:  true,
	})
	require.NoError(t, err)

	count, err := repo.CountBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountBySession(ctx, "other")
	require.NoError(t, err)
	assert.Zero(t, count)
}
