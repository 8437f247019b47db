package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casecards/internal/domain"
	"github.com/kailas-cloud/casecards/internal/domain/card"
	domusage "github.com/kailas-cloud/casecards/internal/domain/usage"
	"github.com/kailas-cloud/casecards/internal/logger"
	"github.com/kailas-cloud/casecards/internal/metrics"
	healthuc "github.com/kailas-cloud/casecards/internal/usecase/health"
	"github.com/kailas-cloud/casecards/internal/usecase/retrieval"
)

const (
	defaultCaseID   = "1"
	maxRequestBytes = 1 << 20
)

// Retriever answers questions and serves initial cards.
type Retriever interface {
	Ask(ctx context.Context, caseID, question string, revealed []string) (retrieval.Answer, error)
	InitialCard(caseID string) (card.Card, error)
}

// UsageReporter reports embedding token usage for a budget period.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthChecker produces a health report.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the case card HTTP API.
type Server struct {
	retriever     Retriever
	health        HealthChecker
	usage         UsageReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(retriever Retriever, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		retriever: retriever,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable, codeNotReady),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
	return s
}

// WithUsage enables GET /usage.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	caseID := strings.TrimSpace(string(req.CaseID))
	if caseID == "" || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "case_id & question required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	answer, err := s.retriever.Ask(ctx, caseID, req.Question, req.revealed())
	setEmbeddingHeaders(w, usage)

	scores := make([]float64, 0, len(answer.Matches))
	for _, m := range answer.Matches {
		scores = append(scores, m.Score)
	}
	metrics.ObserveQuery(scores, err)

	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	resp := askResponse{
		ReplyBlocks:      make([]replyBlock, 0, len(answer.Matches)),
		NewlyRevealedIDs: make([]string, 0, len(answer.Matches)),
		NoHit:            answer.NoHit,
	}
	for _, m := range answer.Matches {
		resp.ReplyBlocks = append(resp.ReplyBlocks, cardToBlock(&m.Card))
		resp.NewlyRevealedIDs = append(resp.NewlyRevealedIDs, m.Card.ID())
	}

	logger.FromContextOr(r.Context(), s.logger).Debug("question answered",
		zap.String("case_id", caseID),
		zap.Strings("revealed", resp.NewlyRevealedIDs),
		zap.Float64s("scores", scores),
	)

	writeJSON(w, http.StatusOK, resp)
}

// Bootstrap handles GET /bootstrap?case_id=.
func (s *Server) Bootstrap(w http.ResponseWriter, r *http.Request) {
	caseID := defaultCaseID
	if err := runtime.BindQueryParameter("form", true, false, "case_id", r.URL.Query(), &caseID); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid format for parameter case_id: "+err.Error())
		return
	}
	if strings.TrimSpace(caseID) == "" {
		caseID = defaultCaseID
	}

	c, err := s.retriever.InitialCard(caseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "No initial card")
			return
		}
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, bootstrapResponse{Initial: cardToBlock(&c)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if !report.OK() {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		OK:     report.OK(),
		Status: string(report.Status),
		Checks: checks,
	})
}

// GetUsage handles GET /usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid format for parameter period: "+err.Error())
		return
	}
	period, ok := domusage.ParsePeriod(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, codeBadRequest, "period must be \"day\" or \"month\"")
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, usageResponse{
		Period:          string(report.Period()),
		PeriodStartAt:   report.Start().UTC(),
		PeriodEndAt:     report.End().UTC(),
		TokensUsed:      report.TokensUsed(),
		TokensLimit:     report.TokensLimit(),
		TokensRemaining: report.TokensRemaining(),
		IsExhausted:     report.Exhausted(),
	})
}

func cardToBlock(c *card.Card) replyBlock {
	return replyBlock{ID: c.ID(), Title: c.Title(), Content: c.Content()}
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Error: message,
		Code:  code,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Provider errors keep the upstream status so operators can tell auth failures from outages.
func safeDomainMessage(err error) string {
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		return domain.ErrEmbeddingProviderError.Error() + " (upstream status " + strconv.Itoa(pe.StatusCode) + ")"
	}
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrNotReady,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContextOr(ctx, s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
