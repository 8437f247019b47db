package casecards

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type openAIConfig struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
}

type clientConfig struct {
	embedder     Embedder
	embedderName string
	embedderDims int
	openAI       *openAIConfig

	cacheAddr     string
	cachePassword string
	cachePrefix   string
	cacheTTL      time.Duration

	threshold        float64
	topK             int
	buildConcurrency int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithEmbedder sets a custom text embedding provider.
// Takes precedence over WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithEmbedderIdentity names a custom embedder and its vector size for the
// embedding cache. Embedders with different identities never share cached
// vectors. Without it, the embedder's Go type names the cache scope.
func WithEmbedderIdentity(name string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedderName = name
		c.embedderDims = dimensions
	})
}

// WithOpenAI uses an OpenAI-compatible embeddings endpoint (DeepSeek, OpenAI, Nebius).
func WithOpenAI(baseURL, apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &openAIConfig{baseURL: baseURL, apiKey: apiKey, model: model, timeout: 30 * time.Second}
	})
}

// WithEmbeddingCache caches embeddings in Valkey or Redis at addr.
// ttl of zero keeps entries forever.
func WithEmbeddingCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddr = addr
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithCacheKeyPrefix sets the cache key namespace. Default: "casecards:".
func WithCacheKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cachePrefix = prefix
	})
}

// WithThreshold sets the minimum cosine similarity for a card to be revealed.
// Default: 0.40.
func WithThreshold(threshold float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = threshold
	})
}

// WithTopK sets the maximum number of cards revealed per question. Default: 1.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithBuildConcurrency sets how many cards are embedded in parallel during BuildIndex.
// Default: 1.
func WithBuildConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.buildConcurrency = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
