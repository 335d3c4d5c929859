package domain

import (
	"fmt"
	"strings"
	"time"
)

// DocumentChunk represents a bounded contiguous span of source text prepared
// for embedding. Chunks are immutable after creation.
type DocumentChunk struct {
	ID           string
	Content      string
	SourceURL    string
	SectionTitle string
	CreatedAt    time.Time
}

// NewDocumentChunk creates a new DocumentChunk instance
func NewDocumentChunk(id, content, sourceURL, sectionTitle string, createdAt time.Time) *DocumentChunk {
	return &DocumentChunk{
		ID:           id,
		Content:      content,
		SourceURL:    sourceURL,
		SectionTitle: sectionTitle,
		CreatedAt:    createdAt,
	}
}

// ValidateDocumentChunk validates a DocumentChunk instance
func ValidateDocumentChunk(c *DocumentChunk) error {
	if c == nil {
		return fmt.Errorf("document chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("document chunk ID is required")
	}

	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("document chunk content cannot be empty")
	}

	if c.SourceURL == "" {
		return fmt.Errorf("document chunk source URL is required")
	}

	return nil
}

// EmbeddingVector pairs a document chunk with its embedding. The chunk is
// referenced by ID only; it may be discarded once the vector is stored.
type EmbeddingVector struct {
	ID              string
	Vector          []float32
	DocumentChunkID string
	Metadata        map[string]any
	CreatedAt       time.Time
}

// ValidateEmbeddingVector validates an EmbeddingVector instance
func ValidateEmbeddingVector(v *EmbeddingVector) error {
	if v == nil {
		return fmt.Errorf("embedding vector cannot be nil")
	}

	if v.ID == "" {
		return fmt.Errorf("embedding vector ID is required")
	}

	if len(v.Vector) == 0 {
		return fmt.Errorf("embedding vector is empty")
	}

	if v.DocumentChunkID == "" {
		return fmt.Errorf("embedding vector must reference a document chunk")
	}

	return nil
}
