// Package api provides the HTTP API for PlumeWatch.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/sublyime/plumewatch/internal/api/handler"
	"github.com/sublyime/plumewatch/internal/api/middleware"
	"github.com/sublyime/plumewatch/internal/auth"
	"github.com/sublyime/plumewatch/internal/chemical"
	"github.com/sublyime/plumewatch/internal/plume"
	"github.com/sublyime/plumewatch/internal/provider/resilience"
	"github.com/sublyime/plumewatch/internal/release"
	"github.com/sublyime/plumewatch/internal/weather"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version          string
	BuildTime        string
	Logger           zerolog.Logger
	ServiceName      string
	Metrics          *middleware.Metrics
	AuthService      *auth.Service
	ChemicalService  *chemical.Service
	ReleaseService   *release.Service
	PlumeService     *plume.Service
	WeatherService   *weather.Service
	ProviderRegistry *resilience.Registry

	// Pool backs the readiness check. Nil skips the database probe.
	Pool *pgxpool.Pool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "plumewatch-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	var cache handler.WeatherCache
	if cfg.WeatherService != nil {
		cache = cfg.WeatherService
	}
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Pool, cfg.ProviderRegistry, cache)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	chemicalHandler := handler.NewChemicalHandler(cfg.ChemicalService)
	var dropper handler.SnapshotDropper
	if cfg.PlumeService != nil {
		dropper = cfg.PlumeService
	}
	releaseHandler := handler.NewReleaseHandler(cfg.ReleaseService, dropper)
	plumeHandler := handler.NewPlumeHandler(cfg.PlumeService)
	weatherHandler := handler.NewWeatherHandler(cfg.WeatherService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByOperator(middleware.StandardRateLimit)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
			// logout-all requires authentication
			r.With(authMiddleware).Post("/logout-all", authHandler.LogoutAll)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Chemical catalog (authenticated). Mutations are admin only.
		r.Route("/chemicals", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Get("/", chemicalHandler.ListChemicals)
			r.With(adminOnly).Post("/", chemicalHandler.CreateChemical)
			r.Route("/{chemicalId}", func(r chi.Router) {
				r.Get("/", chemicalHandler.GetChemical)
				r.With(adminOnly).Put("/", chemicalHandler.UpdateChemical)
				r.With(adminOnly).Delete("/", chemicalHandler.DeleteChemical)
			})
		})

		// Release events (authenticated)
		r.Route("/releases", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Get("/", releaseHandler.ListReleases)
			r.Post("/", releaseHandler.CreateRelease)
			r.Route("/{releaseId}", func(r chi.Router) {
				r.Get("/", releaseHandler.GetRelease)
				r.Put("/", releaseHandler.UpdateRelease)
				r.With(adminOnly).Delete("/", releaseHandler.DeleteRelease)
				r.Post("/stop", releaseHandler.StopRelease)

				// Plume footprints. Compute and receptor evaluation run
				// the dispersion engine, so they get the expensive limit.
				r.Get("/plume", plumeHandler.GetPlume)
				r.With(expensiveRateLimit).Post("/plume:compute", plumeHandler.ComputePlume)
				r.With(expensiveRateLimit).Post("/receptors", plumeHandler.EvaluateReceptors)
			})
		})

		// Current weather at a point (authenticated)
		r.With(authMiddleware, standardRateLimit).Get("/weather", weatherHandler.GetCurrentWeather)
	})

	return r
}
