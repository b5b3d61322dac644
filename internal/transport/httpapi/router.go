package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/budgetly/backend/internal/transport/httpapi/handler"
	"github.com/budgetly/backend/internal/transport/httpapi/middleware"
	"github.com/budgetly/backend/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger             *logger.Logger
	AllowedOrigins     []string
	DebtHandler        *handler.DebtHandler
	TransactionHandler *handler.TransactionHandler
	CategoryHandler    *handler.CategoryHandler
	AssistantHandler   *handler.AssistantHandler
	HealthHandler      *handler.HealthHandler
	// Identity puts the acting owner into the request context.
	// Without it every API route answers 401.
	Identity func(http.Handler) http.Handler
	// RateLimit overrides the default per-IP limiter
	RateLimit func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	rateLimit := cfg.RateLimit
	if rateLimit == nil {
		rateLimit = middleware.RateLimit() // 100 req/s with burst of 20
	}

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(rateLimit)

	// Health check endpoints (no identity required)
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Identity != nil {
			r.Use(cfg.Identity)
		}

		if cfg.DebtHandler != nil {
			r.Route("/debts", func(r chi.Router) {
				r.Post("/", cfg.DebtHandler.CreateDebt)
				r.Get("/", cfg.DebtHandler.ListDebts)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.DebtHandler.GetDebt)
					r.Put("/", cfg.DebtHandler.UpdateDebt)
					r.Delete("/", cfg.DebtHandler.DeleteDebt)
					r.Get("/remaining", cfg.DebtHandler.GetRemaining)

					r.Post("/transactions", cfg.DebtHandler.AddTransaction)
					r.Get("/transactions", cfg.DebtHandler.ListTransactions)
					r.Get("/transactions/export", cfg.DebtHandler.ExportTransactions)
					r.Put("/transactions/{txId}", cfg.DebtHandler.UpdateTransaction)
					r.Delete("/transactions/{txId}", cfg.DebtHandler.DeleteTransaction)
				})
			})
		}

		if cfg.TransactionHandler != nil {
			r.Get("/transactions", cfg.TransactionHandler.GetTransactions)
			r.Get("/transactions/{id}", cfg.TransactionHandler.GetTransaction)
		}

		if cfg.CategoryHandler != nil {
			r.Get("/categories", cfg.CategoryHandler.ListCategories)
		}

		if cfg.AssistantHandler != nil {
			r.Post("/assistant/ask", cfg.AssistantHandler.Ask)
		}
	})

	return r
}
