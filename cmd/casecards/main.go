package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casecards/internal/config"
	"github.com/kailas-cloud/casecards/internal/db"
	dbRedis "github.com/kailas-cloud/casecards/internal/db/redis"
	"github.com/kailas-cloud/casecards/internal/domain"
	logpkg "github.com/kailas-cloud/casecards/internal/logger"
	"github.com/kailas-cloud/casecards/internal/metrics"
	budgetrepo "github.com/kailas-cloud/casecards/internal/repository/budget"
	cardsrepo "github.com/kailas-cloud/casecards/internal/repository/cards"
	"github.com/kailas-cloud/casecards/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/casecards/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/casecards/internal/transport/openai"
	"github.com/kailas-cloud/casecards/internal/usecase/cardindex"
	embeddinguc "github.com/kailas-cloud/casecards/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/casecards/internal/usecase/health"
	"github.com/kailas-cloud/casecards/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/casecards/internal/usecase/usage"
	"github.com/kailas-cloud/casecards/internal/version"
)

func main() {
	// .env first so ${VAR} expansion in the YAML config sees it
	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting casecards API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Float64("threshold", cfg.Retrieval.ThresholdValue()),
		zap.Int("top_k", cfg.Retrieval.TopK),
	)

	// W3C trace context and baggage flow through otelhttp into request contexts.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	ctx := context.Background()

	// Optional embedding cache
	var store db.Store
	if cfg.Database.Enabled() {
		store = connectStore(ctx, cfg.Database, logger)
		defer store.Close()
	}

	// Single BudgetTracker shared by the embedder chain and the usage report.
	var budget *embeddinguc.BudgetTracker
	if cfg.Embedding.Budget.Enabled() {
		budget = embeddinguc.NewBudgetTracker(
			cfg.Embedding.Provider, cfg.Storage.KeyPrefix,
			cfg.Embedding.Budget.DailyTokenLimit, cfg.Embedding.Budget.MonthlyTokenLimit,
			embeddinguc.BudgetAction(cfg.Embedding.Budget.Action), logger,
		)
		if store != nil {
			budget.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
		}
	}

	// nil interfaces, not typed nil pointers, when the budget is off
	var budgetChecker embeddinguc.BudgetChecker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetChecker = budget
		budgetReader = budget
	}

	embedder := buildEmbedder(cfg.Embedding, cfg.Storage.KeyPrefix, store, budgetChecker, logger)

	cards, err := cardsrepo.Load(cfg.Cards.Path)
	if err != nil {
		logger.Fatal("Failed to load cards", zap.String("path", cfg.Cards.Path), zap.Error(err))
	}
	logger.Info("Loaded cards", zap.Int("count", len(cards)), zap.String("path", cfg.Cards.Path))

	builder := cardindex.New(embedder).WithConcurrency(cfg.Retrieval.BuildConcurrency)
	retrievalSvc := retrieval.New(builder, embedder).
		WithThreshold(cfg.Retrieval.ThresholdValue()).
		WithTopK(cfg.Retrieval.TopK)

	// The listener only starts once the index is published.
	start := time.Now()
	err = retrievalSvc.BuildIndex(ctx, cards)
	metrics.ObserveIndexBuild(len(cards), time.Since(start), err)
	if err != nil {
		logger.Fatal("Failed to build card index", zap.Error(err))
	}
	stats := retrievalSvc.Stats()
	logger.Info("Indexed cards",
		zap.Int("cards", stats.Cards),
		zap.Int("cases", stats.Cases),
		zap.Int("dimension", stats.Dimension),
		zap.Duration("duration", time.Since(start)),
	)

	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(retrievalSvc, newEmbeddingHealthChecker(embedder), cachePinger)

	server := chiTransport.NewServer(retrievalSvc, healthSvc, logger).
		WithUsage(usageuc.New(budgetReader))
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:   cfg.Auth.APIKeys,
		StaticDir: cfg.Static.Dir,
		Middlewares: []func(http.Handler) http.Handler{
			jsonRecoverer(logger),
			chiMiddleware.RequestID,
			wideEventMiddleware(logger),
			metrics.Middleware(),
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(router, "casecards"),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// connectStore opens the Valkey/Redis store and waits for it. Both drivers speak RESP via rueidis.
func connectStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) db.Store {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to embedding cache",
		zap.String("driver", cfg.Driver),
		zap.Strings("addrs", cfg.Addrs),
	)
	return store
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> RateLimited -> Cached -> Instrumented (budget).
// The cache sits above the limiter so hits never wait for a token, and cached vectors report no tokens to the budget.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	keyPrefix string,
	store db.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	// Base provider (with transport metrics built-in)
	var embedder domain.Embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    timeout,
		Logger:     logger,
	})

	if cfg.RateLimitRPS > 0 {
		embedder = embeddinguc.NewRateLimitedEmbedder(embedder, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	if store != nil {
		embedder = embcache.New(embedder, store, keyPrefix, embcache.Scope{
			Provider:   cfg.Provider,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}, metrics.EmbeddingCacheTotal, logger).
			WithTTL(time.Duration(cfg.CacheTTLHours) * time.Hour)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, timeout, logger).
		WithBudget(budget)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":  "internal_error",
						"error": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if tokens := ww.Header().Get("X-Embedding-Tokens"); tokens != "" {
				fields = append(fields, zap.String("embedding_tokens", tokens))
			}

			// Canonical log line, one per request
			reqLogger.Info("http_request", fields...)
		})
	}
}
