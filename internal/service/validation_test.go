package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doculens-ai/doculens/internal/domain"
)

// MockRetriever is a mock retrieval collaborator
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

func retrievedFrom(sources ...string) []domain.RetrievedChunk {
	chunks := make([]domain.RetrievedChunk, 0, len(sources))
	for i, src := range sources {
		chunks = append(chunks, domain.RetrievedChunk{
			ID:        string(rune('a' + i)),
			Content:   "chunk content",
			SourceURL: src,
			Score:     0.9,
		})
	}
	return chunks
}

func TestValidationService_PartialMatch(t *testing.T) {
	svc := NewValidationService(nil, 0.5)

	result := svc.ValidateRetrievedChunks("q", retrievedFrom("A", "B"), []string{"A", "C"})

	assert.Equal(t, 1, result.RelevantCount)
	assert.Equal(t, 0.5, result.AccuracyScore)
	assert.Equal(t, 2, result.TotalRetrieved)
	assert.True(t, result.ValidationPassed)
	assert.Equal(t, "Matched 1 of 2 expected sources", result.Notes)
}

func TestValidationService_EmptyExpectedScoresZero(t *testing.T) {
	svc := NewValidationService(nil, 0.5)

	result := svc.ValidateRetrievedChunks("q", nil, nil)

	assert.Equal(t, 0.0, result.AccuracyScore)
	assert.Equal(t, 0, result.RelevantCount)
	assert.False(t, result.ValidationPassed)
}

func TestValidationService_DuplicateRetrievedCountsOnce(t *testing.T) {
	svc := NewValidationService(nil, 0.5)

	result := svc.ValidateRetrievedChunks("q", retrievedFrom("A", "A", "A"), []string{"A", "B"})

	assert.Equal(t, 1, result.RelevantCount)
	assert.Equal(t, 0.5, result.AccuracyScore)
	assert.Equal(t, 3, result.TotalRetrieved)
}

func TestValidationService_FullMatchPasses(t *testing.T) {
	svc := NewValidationService(nil, 0.8)

	result := svc.ValidateRetrievedChunks("q", retrievedFrom("A", "B"), []string{"A", "B"})

	assert.Equal(t, 1.0, result.AccuracyScore)
	assert.True(t, result.ValidationPassed)
}

func TestValidationService_BelowThresholdFails(t *testing.T) {
	svc := NewValidationService(nil, 0.8)

	result := svc.ValidateRetrievedChunks("q", retrievedFrom("A"), []string{"A", "B", "C", "D"})

	assert.Equal(t, 0.25, result.AccuracyScore)
	assert.False(t, result.ValidationPassed)
}

func TestNewValidationService_InvalidThresholdUsesDefault(t *testing.T) {
	svc := NewValidationService(nil, 0)

	assert.Equal(t, DefaultValidationThreshold, svc.Threshold())
}

func TestValidationService_RelevanceScore(t *testing.T) {
	svc := NewValidationService(nil, 0.5)

	tests := []struct {
		name    string
		query   string
		content string
		want    float64
	}{
		{"full overlap", "install the package", "install the package now", 1.0},
		{"partial overlap", "install the package", "remove the binary", 1.0 / 3.0},
		{"no overlap", "install", "unrelated words here", 0.0},
		{"empty query", "", "anything", 0.0},
		{"empty content", "install", "", 0.0},
		{"case insensitive", "Install Package", "install the package", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, svc.RelevanceScore(tt.query, tt.content), 1e-9)
		})
	}
}

func TestValidationService_ValidateRetrievalAccuracy(t *testing.T) {
	retriever := new(MockRetriever)
	svc := NewValidationService(retriever, 0.5)

	ctx := context.Background()
	retriever.On("Retrieve", ctx, "how to install", 5).
		Return(retrievedFrom("https://docs.example.com/install"), nil)

	result, err := svc.ValidateRetrievalAccuracy(ctx, "how to install", []string{"https://docs.example.com/install"}, 5)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1.0, result.AccuracyScore)
	assert.True(t, result.ValidationPassed)
	retriever.AssertExpectations(t)
}

func TestValidationService_ValidateRetrievalAccuracy_EmptyExpected(t *testing.T) {
	retriever := new(MockRetriever)
	svc := NewValidationService(retriever, 0.5)

	result, err := svc.ValidateRetrievalAccuracy(context.Background(), "query", nil, 5)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrEmptyExpectedSources)
	retriever.AssertNotCalled(t, "Retrieve")
}

func TestValidationService_ValidateRetrievalAccuracy_PropagatesValidationError(t *testing.T) {
	retriever := new(MockRetriever)
	svc := NewValidationService(retriever, 0.5)

	ctx := context.Background()
	retriever.On("Retrieve", ctx, "", 5).Return(nil, domain.ErrEmptyQuery)

	result, err := svc.ValidateRetrievalAccuracy(ctx, "", []string{"A"}, 5)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}
