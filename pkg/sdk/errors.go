package casecards

import "github.com/kailas-cloud/casecards/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrNotReady               = domain.ErrNotReady
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)

// ProviderError carries the embedding provider's status code and message.
// Use errors.As() to extract it.
type ProviderError = domain.ProviderError
