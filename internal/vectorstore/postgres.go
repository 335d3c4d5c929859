package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/doculens-ai/doculens/internal/domain"
)

// upsertBatchSize bounds a single insert round-trip.
const upsertBatchSize = 50

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresStore implements Store on Postgres with the pgvector extension.
// Points live in a single table keyed by (collection, id); similarity is
// cosine, reported as 1 - distance.
type PostgresStore struct {
	db dbtx
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func NewPostgresStoreWithTx(tx dbtx) *PostgresStore {
	return &PostgresStore{db: tx}
}

// EnsureCollection registers the collection and clears any existing points,
// so re-ingesting a site never accumulates duplicates.
func (s *PostgresStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if dim <= 0 {
		return fmt.Errorf("collection dimension must be positive, got %d", dim)
	}

	var existingDim int
	err := s.db.QueryRow(ctx,
		`SELECT dim FROM collections WHERE name = $1`, name,
	).Scan(&existingDim)
	switch {
	case err == pgx.ErrNoRows:
		if _, err := s.db.Exec(ctx,
			`INSERT INTO collections (name, dim) VALUES ($1, $2)`, name, dim,
		); err != nil {
			return fmt.Errorf("failed to create collection %q: %w", name, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up collection %q: %w", name, err)
	}

	if existingDim != dim {
		return fmt.Errorf("collection %q has dimension %d, requested %d", name, existingDim, dim)
	}

	if _, err := s.db.Exec(ctx,
		`DELETE FROM points WHERE collection = $1`, name,
	); err != nil {
		return fmt.Errorf("failed to clear collection %q: %w", name, err)
	}
	return nil
}

// Upsert writes points in batches of upsertBatchSize.
func (s *PostgresStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if err := s.requireCollection(ctx, collection); err != nil {
		return err
	}

	for start := 0; start < len(points); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(points) {
			end = len(points)
		}

		batch := &pgx.Batch{}
		for _, p := range points[start:end] {
			batch.Queue(
				`INSERT INTO points (collection, id, embedding, payload)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (collection, id)
				 DO UPDATE SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload`,
				collection,
				p.ID,
				pgvector.NewVector(p.Vector),
				p.Payload,
			)
		}

		results := s.db.SendBatch(ctx, batch)
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to upsert points into %q: %w", collection, err)
		}
	}
	return nil
}

// Search returns the nearest points by cosine similarity, best first.
func (s *PostgresStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]SearchHit, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", limit)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, 1 - (embedding <=> $2) AS score, payload
		 FROM points
		 WHERE collection = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		collection,
		pgvector.NewVector(vector),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %q: %w", collection, err)
	}
	defer rows.Close()

	hits := make([]SearchHit, 0, limit)
	for rows.Next() {
		var hit SearchHit
		if err := rows.Scan(&hit.ID, &hit.Score, &hit.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}
	return hits, nil
}

// DropCollection removes the collection; points cascade.
func (s *PostgresStore) DropCollection(ctx context.Context, name string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM collections WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to drop collection %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCollectionNotFound
	}
	return nil
}

func (s *PostgresStore) requireCollection(ctx context.Context, name string) error {
	var dim int
	err := s.db.QueryRow(ctx, `SELECT dim FROM collections WHERE name = $1`, name).Scan(&dim)
	if err == pgx.ErrNoRows {
		return domain.ErrCollectionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up collection %q: %w", name, err)
	}
	return nil
}

