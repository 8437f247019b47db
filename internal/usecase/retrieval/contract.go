package retrieval

import (
	"context"

	"github.com/kailas-cloud/casecards/internal/domain"
	"github.com/kailas-cloud/casecards/internal/domain/card"
	"github.com/kailas-cloud/casecards/internal/domain/index"
)

// IndexBuilder embeds a card set into an index snapshot.
type IndexBuilder interface {
	Build(ctx context.Context, cards []card.Card) (*index.Snapshot, error)
}

// Embedder vectorizes questions into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
