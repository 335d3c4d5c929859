package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doculens-ai/doculens/internal/domain"
)

// DefaultValidationThreshold is the accuracy a retrieval must reach to pass.
const DefaultValidationThreshold = 0.5

// Retriever is the retrieval collaborator used for live accuracy checks.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error)
}

// ValidationService scores retrieval quality against ground-truth source
// URLs. The pass threshold is configured once, not per call site.
type ValidationService struct {
	retriever Retriever
	threshold float64
}

// NewValidationService creates a new ValidationService instance
func NewValidationService(retriever Retriever, threshold float64) *ValidationService {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultValidationThreshold
	}
	return &ValidationService{retriever: retriever, threshold: threshold}
}

// Threshold returns the configured pass threshold.
func (s *ValidationService) Threshold() float64 {
	return s.threshold
}

// ValidateRetrievedChunks scores retrieved against expectedSources. Relevant
// count is set containment: an expected source matches once no matter how
// many retrieved chunks came from it. An empty expected set scores 0.0, not
// NaN. Pure, no I/O.
func (s *ValidationService) ValidateRetrievedChunks(query string, retrieved []domain.RetrievedChunk, expectedSources []string) domain.ValidationResult {
	retrievedIDs := make([]string, 0, len(retrieved))
	retrievedSources := make(map[string]bool, len(retrieved))
	for _, chunk := range retrieved {
		retrievedIDs = append(retrievedIDs, chunk.ID)
		if chunk.SourceURL != "" {
			retrievedSources[chunk.SourceURL] = true
		}
	}

	expected := dedupe(expectedSources)
	relevant := 0
	for _, source := range expected {
		if retrievedSources[source] {
			relevant++
		}
	}

	accuracy := 0.0
	if len(expected) > 0 {
		accuracy = float64(relevant) / float64(len(expected))
	}

	return domain.ValidationResult{
		QueryID:          uuid.New().String(),
		RetrievedChunks:  retrievedIDs,
		ExpectedChunks:   expected,
		AccuracyScore:    accuracy,
		RelevantCount:    relevant,
		TotalRetrieved:   len(retrieved),
		ValidationPassed: accuracy >= s.threshold,
		Notes:            fmt.Sprintf("Matched %d of %d expected sources", relevant, len(expected)),
		CreatedAt:        time.Now().UTC(),
	}
}

// ValidateRetrievalAccuracy runs a live retrieve for query and scores the
// result. An empty expected set is a caller error here, unlike the pure
// scoring path.
func (s *ValidationService) ValidateRetrievalAccuracy(ctx context.Context, query string, expectedSources []string, topK int) (*domain.ValidationResult, error) {
	if len(expectedSources) == 0 {
		return nil, domain.ErrEmptyExpectedSources
	}

	retrieved, err := s.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	result := s.ValidateRetrievedChunks(query, retrieved, expectedSources)
	return &result, nil
}

// RelevanceScore is a crude lexical fallback metric: the fraction of the
// query's words that appear in content, over lowercased whitespace tokens.
// It is distinct from embedding similarity and never conflated with it.
func (s *ValidationService) RelevanceScore(query, content string) float64 {
	queryWords := tokenSet(query)
	if len(queryWords) == 0 {
		return 0.0
	}
	contentWords := tokenSet(content)

	overlap := 0
	for word := range queryWords {
		if contentWords[word] {
			overlap++
		}
	}

	score := float64(overlap) / float64(len(queryWords))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func tokenSet(text string) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
