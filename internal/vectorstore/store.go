// Package vectorstore persists and searches embedding vectors behind a
// gateway interface backed by Postgres with pgvector.
package vectorstore

import "context"

// Point is a stored vector with its denormalized payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchHit is one similarity-search result. Score is cosine similarity in
// [0, 1], higher meaning closer.
type SearchHit struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Store defines the vector store gateway consumed by the ingest and
// retrieval pipelines.
type Store interface {
	// EnsureCollection registers a collection with the given dimensionality.
	// Re-ensuring an existing collection clears its points, so ingestion is
	// idempotent and never duplicates entries.
	EnsureCollection(ctx context.Context, name string, dim int) error
	// Upsert writes points into a collection in batches.
	Upsert(ctx context.Context, collection string, points []Point) error
	// Search returns the limit nearest points to the query vector, best first.
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]SearchHit, error)
	// DropCollection removes a collection and all of its points.
	DropCollection(ctx context.Context, name string) error
}
