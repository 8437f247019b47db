package health

import "context"

// IndexReadiness reports whether the card index has been published.
type IndexReadiness interface {
	Ready() bool
}

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
