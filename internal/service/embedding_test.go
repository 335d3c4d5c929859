package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doculens-ai/doculens/internal/domain"
	"github.com/doculens-ai/doculens/internal/openai"
)

// MockEmbedder is a mock embedding gateway
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string, intent openai.Intent) ([][]float32, error) {
	args := m.Called(ctx, texts, intent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockEmbedder) Dimensions() int {
	args := m.Called()
	return args.Int(0)
}

func testChunks() []domain.DocumentChunk {
	return []domain.DocumentChunk{
		{ID: "chunk-1", Content: "first chunk", SourceURL: "https://docs.example.com/a", SectionTitle: "Intro"},
		{ID: "chunk-2", Content: "second chunk", SourceURL: "https://docs.example.com/b", SectionTitle: "Setup"},
	}
}

func TestEmbeddingService_EmbedChunks(t *testing.T) {
	embedder := new(MockEmbedder)
	svc := NewEmbeddingService(embedder)

	ctx := context.Background()
	embedder.On("Embed", ctx, []string{"first chunk", "second chunk"}, openai.IntentDocument).
		Return([][]float32{{0.1, 0.2}, {0.3, 0.4}}, nil)

	vectors, err := svc.EmbedChunks(ctx, testChunks())

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, "chunk-1", vectors[0].ID)
	assert.Equal(t, "chunk-1", vectors[0].DocumentChunkID)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0].Vector)
	assert.Equal(t, "first chunk", vectors[0].Metadata["content"])
	assert.Equal(t, "https://docs.example.com/a", vectors[0].Metadata["source_url"])
	assert.Equal(t, "Intro", vectors[0].Metadata["title"])
	assert.Equal(t, "chunk-1", vectors[0].Metadata["document_chunk_id"])
	assert.NotEmpty(t, vectors[0].Metadata["created_at"])
	embedder.AssertExpectations(t)
}

func TestEmbeddingService_EmbedChunks_Empty(t *testing.T) {
	embedder := new(MockEmbedder)
	svc := NewEmbeddingService(embedder)

	vectors, err := svc.EmbedChunks(context.Background(), nil)

	require.NoError(t, err)
	assert.NotNil(t, vectors)
	assert.Empty(t, vectors)
	embedder.AssertNotCalled(t, "Embed")
}

func TestEmbeddingService_EmbedChunks_GatewayError(t *testing.T) {
	embedder := new(MockEmbedder)
	svc := NewEmbeddingService(embedder)

	ctx := context.Background()
	embedder.On("Embed", ctx, mock.Anything, openai.IntentDocument).
		Return(nil, errors.New("quota exceeded"))

	vectors, err := svc.EmbedChunks(ctx, testChunks())

	assert.Nil(t, vectors)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed chunk batch")
}

func TestEmbeddingService_EmbedChunks_CountMismatch(t *testing.T) {
	embedder := new(MockEmbedder)
	svc := NewEmbeddingService(embedder)

	ctx := context.Background()
	embedder.On("Embed", ctx, mock.Anything, openai.IntentDocument).
		Return([][]float32{{0.1}}, nil)

	vectors, err := svc.EmbedChunks(ctx, testChunks())

	assert.Nil(t, vectors)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestEmbeddingService_EmbedQuery(t *testing.T) {
	embedder := new(MockEmbedder)
	svc := NewEmbeddingService(embedder)

	ctx := context.Background()
	embedder.On("Embed", ctx, []string{"how to install"}, openai.IntentQuery).
		Return([][]float32{{0.5, 0.6}}, nil)

	vector, err := svc.EmbedQuery(ctx, "how to install")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, vector)
	embedder.AssertExpectations(t)
}

func TestEmbeddingService_EmbedQuery_Empty(t *testing.T) {
	embedder := new(MockEmbedder)
	svc := NewEmbeddingService(embedder)

	vector, err := svc.EmbedQuery(context.Background(), "")

	assert.Nil(t, vector)
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	embedder.AssertNotCalled(t, "Embed")
}
