package cardindex

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/casecards/internal/domain"
	"github.com/kailas-cloud/casecards/internal/domain/card"
	"github.com/kailas-cloud/casecards/internal/domain/index"
)

// DefaultConcurrency embeds cards one at a time.
const DefaultConcurrency = 1

// Builder embeds a card set into an index snapshot.
type Builder struct {
	embed       Embedder
	concurrency int
	now         func() time.Time
}

// New creates a builder with sequential embedding.
func New(embed Embedder) *Builder {
	return &Builder{embed: embed, concurrency: DefaultConcurrency, now: time.Now}
}

// WithConcurrency sets how many embedding calls may be in flight at once.
// Values below 1 are ignored.
func (b *Builder) WithConcurrency(n int) *Builder {
	if n > 0 {
		b.concurrency = n
	}
	return b
}

// Build embeds every card once and returns a snapshot with exactly one entry per card.
// Any embedding failure aborts the whole build: no partial snapshot is returned.
func (b *Builder) Build(ctx context.Context, cards []card.Card) (*index.Snapshot, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: no cards to index", domain.ErrInvalidInput)
	}

	entries := make([]index.Entry, len(cards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := range cards {
		if gctx.Err() != nil {
			break
		}
		c := &cards[i]
		g.Go(func() error {
			res, err := b.embed.Embed(gctx, c.EmbeddingText())
			if err != nil {
				return fmt.Errorf("embed card %q: %w", c.ID(), err)
			}
			if len(res.Embedding) == 0 {
				return fmt.Errorf("embed card %q: empty vector: %w", c.ID(), domain.ErrEmbeddingProviderError)
			}
			entries[i] = index.NewEntry(c.ID(), c.CaseID(), res.Embedding)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already carries the card ID
	}
	// Loop may have stopped early on a cancelled parent context without any Go call failing.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build cancelled: %w", err)
	}

	snap, err := index.NewSnapshot(entries, b.now())
	if err != nil {
		return nil, fmt.Errorf("assemble snapshot: %w", err)
	}
	return snap, nil
}
