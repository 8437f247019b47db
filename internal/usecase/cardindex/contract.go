package cardindex

import (
	"context"

	"github.com/kailas-cloud/casecards/internal/domain"
)

// Embedder vectorizes card text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
