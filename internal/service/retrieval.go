package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/doculens-ai/doculens/internal/domain"
	"github.com/doculens-ai/doculens/internal/retry"
	"github.com/doculens-ai/doculens/internal/vectorstore"
)

// MaxTopK bounds how many chunks a single retrieve may request.
const MaxTopK = 100

// StoreProvider hands out live vector store handles per operation.
type StoreProvider interface {
	Store(ctx context.Context) (vectorstore.Store, error)
}

// QueryEmbedder is the embedding collaborator the retriever needs.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// RetrievalService answers free-text queries with ranked chunks from the
// vector store.
//
// Its failure policy is asymmetric on purpose: validation errors propagate
// to the caller, while infrastructure failures are retried per the backoff
// policy and then degraded to an empty result. Callers depend on "no
// results" being indistinguishable from "nothing relevant found" so the
// pipeline stays available under partial outages.
type RetrievalService struct {
	stores     StoreProvider
	embedder   QueryEmbedder
	collection string
	policy     retry.Policy
}

// NewRetrievalService creates a new RetrievalService instance
func NewRetrievalService(stores StoreProvider, embedder QueryEmbedder, collection string) *RetrievalService {
	return NewRetrievalServiceWithPolicy(stores, embedder, collection, retry.DefaultPolicy())
}

// NewRetrievalServiceWithPolicy creates a RetrievalService with an explicit
// retry policy, for tests and non-default deployments.
func NewRetrievalServiceWithPolicy(stores StoreProvider, embedder QueryEmbedder, collection string, policy retry.Policy) *RetrievalService {
	if policy.Retryable == nil {
		policy.Retryable = func(err error) bool {
			return !domain.IsValidationError(err)
		}
	}
	return &RetrievalService{
		stores:     stores,
		embedder:   embedder,
		collection: collection,
		policy:     policy,
	}
}

// Retrieve embeds the query and runs a top-k similarity search, returning
// chunks ranked best first. Infrastructure failures yield an empty slice,
// never an error; only invalid input errors out.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if topK <= 0 || topK > MaxTopK {
		return nil, domain.ErrInvalidTopK
	}

	var chunks []domain.RetrievedChunk
	err := s.policy.Do(ctx, func() error {
		var attemptErr error
		chunks, attemptErr = s.retrieveOnce(ctx, query, topK)
		return attemptErr
	})
	if err != nil {
		if domain.IsValidationError(err) {
			return nil, err
		}
		log.Printf("retrieval: degrading to empty results for collection %q: %v", s.collection, err)
		return []domain.RetrievedChunk{}, nil
	}

	return chunks, nil
}

// retrieveOnce is one embed+search attempt under the retry policy.
func (s *RetrievalService) retrieveOnce(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	store, err := s.stores.Store(ctx)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := store.Search(ctx, s.collection, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	now := time.Now().UTC()
	chunks := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		content := payloadString(hit.Payload, "content", "text", "body")
		if strings.TrimSpace(content) == "" {
			continue
		}
		chunks = append(chunks, domain.RetrievedChunk{
			ID:          hit.ID,
			Content:     content,
			SourceURL:   payloadString(hit.Payload, "source_url", "url", "source"),
			Title:       payloadString(hit.Payload, "title", "heading", "header"),
			Score:       hit.Score,
			Metadata:    hit.Payload,
			RetrievedAt: now,
		})
	}
	return chunks, nil
}

// payloadString returns the first non-empty string value among keys.
// Stored payloads from older ingest runs used varying field names.
func payloadString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
