package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ulule/limiter/v3"

	"github.com/wolfman30/chatbot-decision-core/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/chatbot-decision-core/internal/http/middleware"
	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	DecisionHandler    *handlers.DecisionHandler
	KnowledgeHandler   *handlers.KnowledgeHandler
	MetricsHandler     http.Handler
	RateLimiter        *limiter.Limiter
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.DecisionHandler.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1", func(v1 chi.Router) {
		if cfg.RateLimiter != nil {
			v1.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		v1.Post("/messages/evaluate", cfg.DecisionHandler.EvaluateMessage)
		v1.Post("/fallback", cfg.DecisionHandler.Fallback)
		v1.Post("/prompts/analyze", cfg.DecisionHandler.AnalyzePrompt)

		if cfg.KnowledgeHandler != nil {
			v1.Route("/knowledge", func(k chi.Router) {
				k.Post("/categorize", cfg.KnowledgeHandler.Categorize)
				k.Post("/chunk", cfg.KnowledgeHandler.Ingest)
				if cfg.KnowledgeHandler.CanImport() {
					k.Post("/import", cfg.KnowledgeHandler.Import)
				}
			})
		}
	})

	return r
}
