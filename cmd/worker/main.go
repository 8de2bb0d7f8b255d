// Package main provides the entrypoint for the PlumeWatch recompute
// worker. The worker keeps plume footprints fresh: it sweeps active
// releases on a fixed interval and also reacts to job messages on a
// Pub/Sub subscription.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sublyime/plumewatch/internal/broadcast"
	"github.com/sublyime/plumewatch/internal/chemical"
	"github.com/sublyime/plumewatch/internal/database"
	"github.com/sublyime/plumewatch/internal/plume"
	"github.com/sublyime/plumewatch/internal/provider/resilience"
	"github.com/sublyime/plumewatch/internal/release"
	"github.com/sublyime/plumewatch/internal/weather"
	"github.com/sublyime/plumewatch/internal/weather/openweathermap"
	"github.com/sublyime/plumewatch/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "plumewatch-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting PlumeWatch worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	// Weather provider behind the resilience wrapper
	weatherClient := resilience.NewClient(resilience.DefaultClientConfig(openweathermap.ProviderName))
	resilience.GlobalRegistry.Register(openweathermap.ProviderName, weatherClient)

	weatherProvider := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     os.Getenv("OPENWEATHERMAP_API_KEY"),
		HTTPClient: weatherClient,
		Logger:     log,
	})
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherProvider,
		Logger:   log,
	})

	// Domain services backing the pipeline
	chemicalService := chemical.NewService(chemical.NewPostgresRepository(pool), log)
	releaseService := release.NewService(release.ServiceConfig{
		Repo:    release.NewPostgresRepository(pool),
		Catalog: chemicalService,
		Logger:  log,
	})
	plumeService := plume.NewService(plume.ServiceConfig{
		Releases:  releaseService,
		Catalog:   chemicalService,
		Weather:   weatherService,
		Snapshots: plume.NewPostgresSnapshotRepository(pool),
		Logger:    log,
	})

	// Optional snapshot broadcast. Enabled when the topic is configured.
	var broadcaster worker.Broadcaster
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	if topic := os.Getenv("PUBSUB_SNAPSHOT_TOPIC"); topic != "" && projectID != "" {
		publisher, pubErr := broadcast.NewPublisher(ctx, broadcast.PublisherConfig{
			ProjectID: projectID,
			TopicName: topic,
			Logger:    log,
		})
		if pubErr != nil {
			log.Fatal().Err(pubErr).Msg("failed to create snapshot publisher")
		}
		defer publisher.Close()
		broadcaster = publisher
		log.Info().Str("topic", topic).Msg("snapshot broadcast enabled")
	} else {
		log.Info().Msg("snapshot broadcast disabled")
	}

	recomputeJob := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Config:      recomputeConfigFromEnv(log),
		Logger:      log,
		Releases:    releaseService,
		Plumes:      plumeService,
		Broadcaster: broadcaster,
	})

	// Periodic recompute loop
	go recomputeJob.RunPeriodic(ctx)

	// Optional Pub/Sub job subscription
	if sub := os.Getenv("PUBSUB_JOB_SUBSCRIPTION"); sub != "" && projectID != "" {
		handler, subErr := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: sub,
			RecomputeJob:     recomputeJob,
			Logger:           log,
		})
		if subErr != nil {
			log.Fatal().Err(subErr).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if recvErr := handler.Start(ctx); recvErr != nil && !errors.Is(recvErr, context.Canceled) {
				log.Error().Err(recvErr).Msg("pubsub handler stopped")
			}
		}()
	}

	// Health check server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(recomputeJob.MetricsSnapshot()); err != nil {
			log.Error().Err(err).Msg("failed to write metrics")
		}
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// recomputeConfigFromEnv reads the recompute tuning knobs, falling back
// to defaults for anything unset or malformed.
func recomputeConfigFromEnv(log zerolog.Logger) worker.RecomputeConfig {
	cfg := worker.DefaultRecomputeConfig()

	if raw := os.Getenv("RECOMPUTE_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Interval = d
		} else {
			log.Warn().Str("value", raw).Msg("invalid RECOMPUTE_INTERVAL, using default")
		}
	}
	if raw := os.Getenv("RECOMPUTE_CONCURRENCY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Concurrency = n
		} else {
			log.Warn().Str("value", raw).Msg("invalid RECOMPUTE_CONCURRENCY, using default")
		}
	}

	return cfg
}
