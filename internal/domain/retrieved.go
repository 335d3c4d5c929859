package domain

import (
	"fmt"
	"strings"
	"time"
)

// RetrievedChunk is a value object produced per query by similarity search.
// The score is the store's similarity value, higher meaning more relevant,
// preserved verbatim with no renormalization. Absent payload fields are
// populated as empty strings at the gateway boundary, never via dynamic
// accessor defaulting.
type RetrievedChunk struct {
	ID          string
	Content     string
	SourceURL   string
	Title       string
	Score       float32
	Metadata    map[string]any
	RetrievedAt time.Time
}

// ValidateRetrievedChunk validates a RetrievedChunk instance
func ValidateRetrievedChunk(c *RetrievedChunk) error {
	if c == nil {
		return fmt.Errorf("retrieved chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("retrieved chunk ID is required")
	}

	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("retrieved chunk content cannot be empty")
	}

	if c.Score < 0 || c.Score > 1 {
		return fmt.Errorf("retrieved chunk score must be in [0, 1], got %f", c.Score)
	}

	return nil
}
