package chi

import (
	"time"

	"github.com/kailas-cloud/casecards/internal/domain/card"
)

// errorCode is the machine-readable code in error responses.
type errorCode string

const (
	codeBadRequest             errorCode = "bad_request"
	codeUnauthorized           errorCode = "unauthorized"
	codeNotFound               errorCode = "not_found"
	codeNotReady               errorCode = "not_ready"
	codeRateLimited            errorCode = "rate_limited"
	codeEmbeddingProviderError errorCode = "embedding_provider_error"
	codeInternalError          errorCode = "internal_error"
)

// errorResponse keeps the "error" key the frontend already reads.
type errorResponse struct {
	Error string    `json:"error"`
	Code  errorCode `json:"code"`
}

// askRequest is the POST /ask body.
type askRequest struct {
	CaseID      card.FlexID   `json:"case_id"`
	Question    string        `json:"question"`
	RevealedIDs []card.FlexID `json:"revealed_ids"`
}

func (r askRequest) revealed() []string {
	return card.FlexIDStrings(r.RevealedIDs)
}

// replyBlock is one revealed card as rendered by the frontend.
type replyBlock struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// askResponse is the POST /ask reply.
type askResponse struct {
	ReplyBlocks      []replyBlock `json:"reply_blocks"`
	NewlyRevealedIDs []string     `json:"newly_revealed_ids"`
	NoHit            bool         `json:"nohit"`
}

// bootstrapResponse is the GET /bootstrap reply.
type bootstrapResponse struct {
	Initial replyBlock `json:"initial"`
}

// healthResponse is the GET /health reply.
type healthResponse struct {
	OK     bool              `json:"ok"`
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// usageResponse is the GET /usage reply. Limit 0 and remaining -1 mean unlimited.
type usageResponse struct {
	Period          string    `json:"period"`
	PeriodStartAt   time.Time `json:"period_start_at"`
	PeriodEndAt     time.Time `json:"period_end_at"`
	TokensUsed      int64     `json:"tokens_used"`
	TokensLimit     int64     `json:"tokens_limit"`
	TokensRemaining int64     `json:"tokens_remaining"`
	IsExhausted     bool      `json:"is_exhausted"`
}
