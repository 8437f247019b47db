package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// APIKeys enables bearer auth on /ask, /bootstrap and /usage when non-empty.
	APIKeys []string
	// StaticDir serves the single-page app. Empty disables static serving.
	StaticDir string
	// Middlewares run for every route, outermost first.
	Middlewares []func(http.Handler) http.Handler
}

// NewRouter mounts the server's handlers on a chi router.
func NewRouter(s *Server, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	for _, mw := range cfg.Middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(BearerAuthMiddleware(cfg.APIKeys))
		api.Post("/ask", s.Ask)
		api.Get("/bootstrap", s.Bootstrap)
		if s.usage != nil {
			api.Get("/usage", s.GetUsage)
		}
	})

	if cfg.StaticDir != "" {
		r.Get("/*", newSPAHandler(cfg.StaticDir).ServeHTTP)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	return r
}
