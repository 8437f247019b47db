package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional dependency is failing; questions may still be answered.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer questions.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckNotReady indicates the index is still building.
	CheckNotReady CheckResult = "not_ready"
)

// Check names reported in Report.Checks.
const (
	CheckIndex     = "index"
	CheckEmbedding = "embedding"
	CheckCache     = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// OK reports whether the service can answer questions.
func (r Report) OK() bool {
	return r.Status != Unhealthy
}

// Service coordinates health checks.
type Service struct {
	index     IndexReadiness
	embedding EmbeddingChecker
	cache     CachePinger
}

// New creates a Service. embedding and cache can be nil.
func New(index IndexReadiness, embedding EmbeddingChecker, cache CachePinger) *Service {
	return &Service{index: index, embedding: embedding, cache: cache}
}

// Check runs health checks against all components.
// An unbuilt index is Unhealthy; a failing provider or cache only degrades.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.index.Ready() {
		checks[CheckIndex] = CheckOK
	} else {
		checks[CheckIndex] = CheckNotReady
		status = Unhealthy
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks[CheckEmbedding] = CheckError
			status = degrade(status)
		} else {
			checks[CheckEmbedding] = CheckOK
		}
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks[CheckCache] = CheckError
			status = degrade(status)
		} else {
			checks[CheckCache] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}

func degrade(s Status) Status {
	if s == Healthy {
		return Degraded
	}
	return s
}
