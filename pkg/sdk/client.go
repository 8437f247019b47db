package casecards

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/kailas-cloud/casecards/internal/db/redis"
	"github.com/kailas-cloud/casecards/internal/domain"
	"github.com/kailas-cloud/casecards/internal/domain/card"
	"github.com/kailas-cloud/casecards/internal/repository/cards"
	"github.com/kailas-cloud/casecards/internal/repository/embcache"
	"github.com/kailas-cloud/casecards/internal/transport/openai"
	"github.com/kailas-cloud/casecards/internal/usecase/cardindex"
	healthuc "github.com/kailas-cloud/casecards/internal/usecase/health"
	"github.com/kailas-cloud/casecards/internal/usecase/retrieval"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCachePrefix      = "casecards:"
)

// retrievalUseCase is the internal interface for swapping in tests.
type retrievalUseCase interface {
	BuildIndex(ctx context.Context, cards []card.Card) error
	Ready() bool
	Stats() retrieval.Stats
	InitialCard(caseID string) (card.Card, error)
	Ask(ctx context.Context, caseID, question string, revealed []string) (retrieval.Answer, error)
}

// Client is the casecards SDK entry point.
type Client struct {
	store     *dbRedis.Store
	svc       retrievalUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. An embedder is required (WithEmbedder or WithOpenAI).
// When an embedding cache is configured, ctx bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		cachePrefix: defaultCachePrefix,
		threshold:   retrieval.DefaultThreshold,
		topK:        retrieval.DefaultTopK,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.topK < 1 {
		return nil, fmt.Errorf("casecards: top k must be positive: %w", ErrInvalidInput)
	}
	if cfg.threshold < -1 || cfg.threshold > 1 {
		return nil, fmt.Errorf("casecards: threshold must be within [-1, 1]: %w", ErrInvalidInput)
	}

	emb, checker, scope, err := createEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	var store *dbRedis.Store
	if cfg.cacheAddr != "" {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.cacheAddr},
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("casecards: create cache store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("casecards: cache not ready: %w", err)
		}
		emb = embcache.New(emb, store, cfg.cachePrefix, scope, nil, nil).WithTTL(cfg.cacheTTL)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	return wireClient(cfg, emb, checker, store, obs), nil
}

// createEmbedder returns the domain embedder, an optional health checker and the
// scope used to key cached vectors.
func createEmbedder(cfg *clientConfig) (domain.Embedder, healthuc.EmbeddingChecker, embcache.Scope, error) {
	switch {
	case cfg.embedder != nil:
		a := &embedderAdapter{inner: cfg.embedder}
		scope := customScope(cfg)
		if hc, ok := cfg.embedder.(interface{ HealthCheck(context.Context) error }); ok {
			return a, hc, scope, nil
		}
		return a, nil, scope, nil
	case cfg.openAI != nil:
		if cfg.openAI.model == "" {
			return nil, nil, embcache.Scope{}, fmt.Errorf("casecards: embedding model required: %w", ErrInvalidInput)
		}
		e := openai.NewEmbedder(&openai.Config{
			APIKey:   cfg.openAI.apiKey,
			BaseURL:  cfg.openAI.baseURL,
			Model:    cfg.openAI.model,
			Provider: "openai",
			Timeout:  cfg.openAI.timeout,
		})
		scope := embcache.Scope{Provider: "openai:" + cfg.openAI.baseURL, Model: cfg.openAI.model}
		return e, e, scope, nil
	default:
		return nil, nil, embcache.Scope{}, errors.New("casecards: embedder required (use WithEmbedder or WithOpenAI)")
	}
}

func customScope(cfg *clientConfig) embcache.Scope {
	name := cfg.embedderName
	if name == "" {
		name = fmt.Sprintf("%T", cfg.embedder)
	}
	return embcache.Scope{Provider: "custom", Model: name, Dimensions: cfg.embedderDims}
}

func wireClient(
	cfg *clientConfig,
	emb domain.Embedder,
	checker healthuc.EmbeddingChecker,
	store *dbRedis.Store,
	obs *observer,
) *Client {
	builder := cardindex.New(emb)
	if cfg.buildConcurrency > 0 {
		builder = builder.WithConcurrency(cfg.buildConcurrency)
	}
	svc := retrieval.New(builder, emb).
		WithThreshold(cfg.threshold).
		WithTopK(cfg.topK)

	var cache healthuc.CachePinger
	if store != nil {
		cache = store
	}

	return &Client{
		store:     store,
		svc:       svc,
		healthSvc: healthuc.New(svc, checker, cache),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// LoadCards reads cards from a JSON or YAML file, chosen by extension.
func LoadCards(path string) ([]Card, error) {
	loaded, err := cards.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	out := make([]Card, 0, len(loaded))
	for i := range loaded {
		out = append(out, cardFromDomain(&loaded[i]))
	}
	return out, nil
}

// BuildIndex embeds every card and replaces the current index.
// On failure the previous index stays in service.
func (c *Client) BuildIndex(ctx context.Context, in []Card) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("build_index", start, err) }()

	domCards, err := cardsToDomain(in)
	if err != nil {
		return err
	}
	return c.svc.BuildIndex(ctx, domCards) //nolint:wrapcheck // already prefixed by the service
}

// Ready reports whether an index has been built.
func (c *Client) Ready() bool {
	return c.svc.Ready()
}

// Stats describes the current index.
func (c *Client) Stats() IndexStats {
	s := c.svc.Stats()
	return IndexStats{
		Ready:     s.Ready,
		Cards:     s.Cards,
		Cases:     s.Cases,
		Dimension: s.Dimension,
		BuiltAt:   s.BuiltAt,
	}
}

// InitialCard returns the card shown before any question is asked.
func (c *Client) InitialCard(caseID string) (_ Card, err error) {
	start := time.Now()
	defer func() { c.obs.observe("initial_card", start, err) }()

	cd, err := c.svc.InitialCard(caseID)
	if err != nil {
		return Card{}, fmt.Errorf("initial card: %w", err)
	}
	return cardFromDomain(&cd), nil
}

// Ask returns the unrevealed cards of caseID that best answer question.
func (c *Client) Ask(ctx context.Context, caseID, question string, revealed []string) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	ans, err := c.svc.Ask(ctx, caseID, question, revealed)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	out := Answer{NoHit: ans.NoHit, Matches: make([]Match, 0, len(ans.Matches))}
	for i := range ans.Matches {
		out.Matches = append(out.Matches, Match{
			Card:  cardFromDomain(&ans.Matches[i].Card),
			Score: ans.Matches[i].Score,
		})
	}
	return out, nil
}

func cardsToDomain(in []Card) ([]card.Card, error) {
	out := make([]card.Card, 0, len(in))
	for i := range in {
		cd, err := card.New(in[i].ID, in[i].CaseID, in[i].Title, in[i].Content, in[i].Synonyms, in[i].Initial)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		out = append(out, cd)
	}
	return out, nil
}

func cardFromDomain(c *card.Card) Card {
	return Card{
		ID:       c.ID(),
		CaseID:   c.CaseID(),
		Title:    c.Title(),
		Content:  c.Content(),
		Synonyms: c.Synonyms(),
		Initial:  c.Initial(),
	}
}

// embedderAdapter bridges the public Embedder to domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingProviderError) || errors.Is(err, domain.ErrRateLimited) {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.NewProviderError(0, err.Error()), err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
