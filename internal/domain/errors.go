package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors. These always propagate to the caller and are never
// retried or converted into empty results.
var (
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query text cannot be empty")
	ErrEmptyMessage         = NewDomainError(ErrCodeValidation, "message cannot be empty")
	ErrInvalidTopK          = NewDomainError(ErrCodeValidation, "top_k must be between 1 and 100")
	ErrEmptySourceURL       = NewDomainError(ErrCodeValidation, "source URL is required")
	ErrEmptyExpectedSources = NewDomainError(ErrCodeValidation, "expected sources cannot be empty for validation")
	ErrHistoryOverflow      = NewDomainError(ErrCodeValidation, "message history exceeds maximum size")
)

// Infrastructure errors. Retried per backoff policy, then degraded to empty
// results at the retrieval boundary.
var (
	ErrStoreUnavailable   = NewDomainError(ErrCodeUnavailable, "vector store is not available")
	ErrCollectionNotFound = NewDomainError(ErrCodeNotFound, "collection does not exist")
)

// Configuration errors are fatal at startup.
var (
	ErrMissingAPIKey      = NewDomainError(ErrCodeConfiguration, "embedding API key is not configured")
	ErrMissingDatabaseURL = NewDomainError(ErrCodeConfiguration, "database URL is not configured")
)

// IsValidationError reports whether err carries the VALIDATION_ERROR code,
// unwrapping as needed.
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == ErrCodeValidation
}
