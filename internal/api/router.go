package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/hugh/startup-vault/internal/api/handlers"
	"github.com/hugh/startup-vault/internal/api/middleware"
	"github.com/hugh/startup-vault/internal/auth"
	"github.com/hugh/startup-vault/internal/claims"
	"github.com/hugh/startup-vault/internal/deals"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	AsynqClient    *asynq.Client
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow localhost in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// CSRF protection for cookie-authenticated browser sessions
	csrfStore := middleware.NewCSRFStore()
	r.Use(middleware.CSRF(csrfStore))

	// Initialize services
	dealService := deals.NewService(cfg.DB)
	claimService := claims.NewService(cfg.DB)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.AsynqClient, cfg.Logger)
	dealHandler := handlers.NewDealHandler(dealService, claimService, cfg.AuthService, cfg.Logger)
	claimHandler := handlers.NewClaimHandler(claimService, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/verify-email", authHandler.VerifyEmail)
		r.Post("/auth/logout", authHandler.Logout)

		// Catalog is browsable anonymously; identity is attached when a
		// valid token is presented so listings can mark claimed deals.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTService))

			r.Get("/deals", dealHandler.List)
			r.Get("/deals/{id}", dealHandler.Get)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", authHandler.Me)
			r.Put("/profile", authHandler.UpdateProfile)

			r.Post("/deals/{id}/claim", dealHandler.Claim)

			r.Route("/claims", func(r chi.Router) {
				r.Get("/", claimHandler.List)
				r.Get("/stats", claimHandler.Stats)
				r.Get("/{id}", claimHandler.Get)
			})
		})
	})

	return &Router{r}
}
