package service

import (
	"context"
	"fmt"
	"time"

	"github.com/doculens-ai/doculens/internal/domain"
	"github.com/doculens-ai/doculens/internal/openai"
)

// embedBatchSize bounds one embedding API call.
const embedBatchSize = 64

// Embedder defines the embedding gateway consumed by the ingest and
// retrieval paths.
type Embedder interface {
	Embed(ctx context.Context, texts []string, intent openai.Intent) ([][]float32, error)
	Dimensions() int
}

// EmbeddingService turns document chunks and queries into vectors ready for
// the vector store.
type EmbeddingService struct {
	embedder Embedder
}

// NewEmbeddingService creates a new EmbeddingService instance
func NewEmbeddingService(embedder Embedder) *EmbeddingService {
	return &EmbeddingService{embedder: embedder}
}

// Dimensions returns the vector dimensionality of the underlying model.
func (s *EmbeddingService) Dimensions() int {
	return s.embedder.Dimensions()
}

// EmbedChunks generates one embedding vector per chunk, batched. The vector
// carries the chunk's content and source denormalized into its metadata so
// retrieval needs no chunk lookup. Gateway errors propagate.
func (s *EmbeddingService) EmbedChunks(ctx context.Context, chunks []domain.DocumentChunk) ([]domain.EmbeddingVector, error) {
	if len(chunks) == 0 {
		return []domain.EmbeddingVector{}, nil
	}

	vectors := make([]domain.EmbeddingVector, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Content
		}

		embedded, err := s.embedder.Embed(ctx, texts, openai.IntentDocument)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk batch: %w", err)
		}
		if len(embedded) != len(batch) {
			return nil, fmt.Errorf("embedding batch size mismatch: sent %d, got %d", len(batch), len(embedded))
		}

		now := time.Now().UTC()
		for i, ch := range batch {
			vectors = append(vectors, domain.EmbeddingVector{
				ID:              ch.ID,
				Vector:          embedded[i],
				DocumentChunkID: ch.ID,
				Metadata: map[string]any{
					"content":           ch.Content,
					"source_url":        ch.SourceURL,
					"title":             ch.SectionTitle,
					"document_chunk_id": ch.ID,
					"created_at":        now.Format(time.RFC3339),
				},
				CreatedAt: now,
			})
		}
	}

	return vectors, nil
}

// EmbedQuery generates the query-side embedding for similarity search.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	embedded, err := s.embedder.Embed(ctx, []string{query}, openai.IntentQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embedded) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(embedded))
	}
	return embedded[0], nil
}
