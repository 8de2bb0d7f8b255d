// Package main provides the entrypoint for the PlumeWatch API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sublyime/plumewatch/internal/api"
	"github.com/sublyime/plumewatch/internal/api/middleware"
	"github.com/sublyime/plumewatch/internal/auth"
	"github.com/sublyime/plumewatch/internal/chemical"
	"github.com/sublyime/plumewatch/internal/database"
	"github.com/sublyime/plumewatch/internal/plume"
	"github.com/sublyime/plumewatch/internal/provider/resilience"
	"github.com/sublyime/plumewatch/internal/release"
	"github.com/sublyime/plumewatch/internal/telemetry"
	"github.com/sublyime/plumewatch/internal/weather"
	"github.com/sublyime/plumewatch/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "plumewatch-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting PlumeWatch API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize auth repositories and service
	operatorRepo := auth.NewPostgresOperatorRepository(pool)
	refreshRepo := auth.NewPostgresRefreshTokenRepository(pool)

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
	})

	authService := auth.NewService(auth.ServiceConfig{
		JWTService:   jwtService,
		OperatorRepo: operatorRepo,
		RefreshRepo:  refreshRepo,
	})

	// Provision the bootstrap admin when configured. A fresh deployment
	// has no operators yet; this is the only way in.
	if err := authService.EnsureBootstrapAdmin(ctx, os.Getenv("BOOTSTRAP_ADMIN_EMAIL"), os.Getenv("BOOTSTRAP_ADMIN_API_KEY")); err != nil {
		log.Fatal().Err(err).Msg("failed to provision bootstrap admin")
	}
	log.Info().Msg("auth service initialized")

	// Initialize weather provider behind the resilience wrapper
	owmAPIKey := os.Getenv("OPENWEATHERMAP_API_KEY")
	if owmAPIKey == "" {
		log.Warn().Msg("OPENWEATHERMAP_API_KEY not set - weather requests will fail")
	}
	weatherClient := resilience.NewClient(resilience.DefaultClientConfig(openweathermap.ProviderName))
	resilience.GlobalRegistry.Register(openweathermap.ProviderName, weatherClient)

	weatherProvider := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     owmAPIKey,
		HTTPClient: weatherClient,
		Logger:     log,
	})
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherProvider,
		Logger:   log,
	})
	log.Info().Msg("weather service initialized")

	// Initialize chemical catalog
	chemicalService := chemical.NewService(chemical.NewPostgresRepository(pool), log)
	if err := chemicalService.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed chemical catalog")
	}
	log.Info().Msg("chemical service initialized")

	// Initialize release tracking
	releaseService := release.NewService(release.ServiceConfig{
		Repo:    release.NewPostgresRepository(pool),
		Catalog: chemicalService,
		Logger:  log,
	})
	log.Info().Msg("release service initialized")

	// Initialize the dispersion pipeline
	plumeService := plume.NewService(plume.ServiceConfig{
		Releases:  releaseService,
		Catalog:   chemicalService,
		Weather:   weatherService,
		Snapshots: plume.NewPostgresSnapshotRepository(pool),
		Logger:    log,
	})
	log.Info().Msg("plume service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          metrics,
		AuthService:      authService,
		ChemicalService:  chemicalService,
		ReleaseService:   releaseService,
		PlumeService:     plumeService,
		WeatherService:   weatherService,
		ProviderRegistry: resilience.GlobalRegistry,
		Pool:             pool,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
