//go:build integration

package vectorstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doculens-ai/doculens/internal/domain"
	"github.com/doculens-ai/doculens/internal/testutil"
)

func setupStore(t *testing.T) (*PostgresStore, *pgxpool.Pool, func()) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pc, "../../db/migrations")

	cleanup := func() {
		pool.Close()
		_ = pc.Terminate(ctx)
	}
	return NewPostgresStore(pool), pool, cleanup
}

func somePoint(vector []float32, content string) Point {
	return Point{
		ID:     uuid.New().String(),
		Vector: vector,
		Payload: map[string]any{
			"content":    content,
			"source_url": "https://docs.example.com/" + content,
			"title":      content,
		},
	}
}

func TestPostgresStore_EnsureCollection(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "docs", 3))

	// Re-ensuring an existing collection clears its points
	require.NoError(t, store.Upsert(ctx, "docs", []Point{
		somePoint([]float32{1, 0, 0}, "a"),
	}))
	require.NoError(t, store.EnsureCollection(ctx, "docs", 3))

	hits, err := store.Search(ctx, "docs", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestPostgresStore_EnsureCollection_DimensionMismatch(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "docs", 3))
	err := store.EnsureCollection(ctx, "docs", 4)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

func TestPostgresStore_SearchOrdering(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "docs", 3))

	exact := somePoint([]float32{1, 0, 0}, "exact")
	near := somePoint([]float32{0.9, 0.1, 0}, "near")
	far := somePoint([]float32{0, 0, 1}, "far")
	require.NoError(t, store.Upsert(ctx, "docs", []Point{far, near, exact}))

	hits, err := store.Search(ctx, "docs", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, exact.ID, hits[0].ID)
	assert.Equal(t, near.ID, hits[1].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 0.001)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, "exact", hits[0].Payload["content"])
}

func TestPostgresStore_UpsertReplacesExisting(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "docs", 3))

	p := somePoint([]float32{1, 0, 0}, "before")
	require.NoError(t, store.Upsert(ctx, "docs", []Point{p}))

	p.Payload["content"] = "after"
	require.NoError(t, store.Upsert(ctx, "docs", []Point{p}))

	hits, err := store.Search(ctx, "docs", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "after", hits[0].Payload["content"])
}

func TestPostgresStore_UnknownCollection(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	err := store.Upsert(ctx, "missing", []Point{somePoint([]float32{1, 0, 0}, "a")})
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

	_, err = store.Search(ctx, "missing", []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestPostgresStore_DropCollection(t *testing.T) {
	store, pool, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "docs", 3))
	require.NoError(t, store.Upsert(ctx, "docs", []Point{somePoint([]float32{1, 0, 0}, "a")}))

	require.NoError(t, store.DropCollection(ctx, "docs"))

	// Points cascade with the collection row
	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM points`).Scan(&count))
	assert.Zero(t, count)

	assert.ErrorIs(t, store.DropCollection(ctx, "docs"), domain.ErrCollectionNotFound)
}
