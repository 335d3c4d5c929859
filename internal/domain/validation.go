package domain

import (
	"fmt"
	"time"
)

// ValidationResult scores a retrieval run against ground-truth expected
// sources. Read-only after creation.
type ValidationResult struct {
	QueryID          string
	RetrievedChunks  []string
	ExpectedChunks   []string
	AccuracyScore    float64
	RelevantCount    int
	TotalRetrieved   int
	ValidationPassed bool
	Notes            string
	CreatedAt        time.Time
}

// ValidateValidationResult validates a ValidationResult instance
func ValidateValidationResult(r *ValidationResult) error {
	if r == nil {
		return fmt.Errorf("validation result cannot be nil")
	}

	if r.QueryID == "" {
		return fmt.Errorf("validation result query ID is required")
	}

	if r.AccuracyScore < 0 || r.AccuracyScore > 1 {
		return fmt.Errorf("accuracy score must be in [0, 1], got %f", r.AccuracyScore)
	}

	if r.RelevantCount < 0 {
		return fmt.Errorf("relevant count cannot be negative")
	}

	if r.RelevantCount > len(r.ExpectedChunks) {
		return fmt.Errorf("relevant count cannot exceed expected chunk count")
	}

	return nil
}
