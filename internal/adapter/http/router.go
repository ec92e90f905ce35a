package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gesledger/internal/adapter/http/handler"
	"github.com/iho/gesledger/internal/adapter/http/middleware"
	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
	"github.com/iho/gesledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CatalogHandler   *handler.CatalogHandler
	PortfolioHandler *handler.PortfolioHandler
	RequestHandler   *handler.RequestHandler
	AdminHandler     *handler.AdminHandler
	HealthHandler    *handler.HealthHandler

	// Authenticator puts a domain.Principal into the request context.
	// Defaults to middleware.HeaderAuth.
	Authenticator func(http.Handler) http.Handler

	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	authenticate := cfg.Authenticator
	if authenticate == nil {
		authenticate = middleware.HeaderAuth
	}
	logging := middleware.RequestLogger(cfg.Logger)
	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		limit = cfg.RateLimiter.Limit
	}

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalogue
		r.Group(func(r chi.Router) {
			r.Use(logging, limit)

			r.Get("/projects", cfg.CatalogHandler.ListProjects)
			r.Get("/projects/{id}", cfg.CatalogHandler.GetProject)
			r.Get("/fx/usd-try", cfg.CatalogHandler.USDTRY)
			r.Get("/tiers", cfg.CatalogHandler.Tiers)
			r.Get("/banks", cfg.CatalogHandler.ListBanks)
		})

		// Authenticated routes, logged and limited per caller
		r.Group(func(r chi.Router) {
			r.Use(authenticate, logging, limit)
			if cfg.IdempotencyStore != nil {
				idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
				r.Use(idempotencyMiddleware.Wrap)
			}

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleInvestor))

				r.Get("/portfolio", cfg.PortfolioHandler.Get)
				r.Get("/portfolio/withdrawal-check", cfg.PortfolioHandler.WithdrawalCheck)
				r.Get("/entries", cfg.PortfolioHandler.Entries)
				r.Get("/transactions", cfg.RequestHandler.Transactions)

				r.Route("/requests", func(r chi.Router) {
					r.Get("/", cfg.RequestHandler.List)
					r.Post("/deposit", cfg.RequestHandler.CreateDeposit)
					r.Post("/withdraw", cfg.RequestHandler.CreateWithdraw)
					r.Post("/buy", cfg.RequestHandler.CreateBuy)
					r.Post("/sell", cfg.RequestHandler.CreateSell)
					r.Post("/{id}/cancel", cfg.RequestHandler.Cancel)
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))

				r.Get("/requests", cfg.AdminHandler.ListRequests)
				r.Put("/requests/{id}", cfg.AdminHandler.Decide)
				r.Get("/investors", cfg.AdminHandler.ListInvestors)
				r.Post("/investors", cfg.AdminHandler.RegisterInvestor)
				r.Put("/investors/{id}/kyc", cfg.AdminHandler.SetKYC)
				r.Post("/projects", cfg.CatalogHandler.CreateProject)
				r.Post("/banks", cfg.CatalogHandler.CreateBank)
				r.Get("/reconciliation", cfg.AdminHandler.Reconciliation)
			})
		})
	})

	return r
}
