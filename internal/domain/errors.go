package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a missing or malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotReady signals that the card index has not been built yet.
	ErrNotReady = errors.New("index not ready")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// DimensionMismatchError wraps ErrVectorDimMismatch with both lengths.
type DimensionMismatchError struct {
	Left  int
	Right int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %d != %d", ErrVectorDimMismatch.Error(), e.Left, e.Right)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(left, right int) error {
	return &DimensionMismatchError{Left: left, Right: right}
}

// ProviderError wraps ErrEmbeddingProviderError with the provider's status and message.
// StatusCode is 0 when the provider was never reached.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", ErrEmbeddingProviderError.Error(), e.Message)
	}
	return fmt.Sprintf("%s %d: %s", ErrEmbeddingProviderError.Error(), e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrEmbeddingProviderError }

// NewProviderError creates a provider error.
func NewProviderError(statusCode int, message string) error {
	return &ProviderError{StatusCode: statusCode, Message: message}
}
