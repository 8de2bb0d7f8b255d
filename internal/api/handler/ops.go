// Package handler provides HTTP handlers for the PlumeWatch API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sublyime/plumewatch/internal/api/models"
	"github.com/sublyime/plumewatch/internal/api/response"
	"github.com/sublyime/plumewatch/internal/provider/resilience"
	"github.com/sublyime/plumewatch/internal/weather"
)

// WeatherCache exposes the weather service's cache statistics for the
// status endpoint.
type WeatherCache interface {
	CacheStats() weather.CacheStats
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	pool      *pgxpool.Pool
	registry  *resilience.Registry
	cache     WeatherCache
}

// NewOpsHandler creates a new OpsHandler. pool, registry, and cache may
// be nil; the corresponding checks are then skipped.
func NewOpsHandler(version, buildTime string, pool *pgxpool.Pool, registry *resilience.Registry, cache WeatherCache) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		pool:      pool,
		registry:  registry,
		cache:     cache,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Fails
// when the database cannot be reached.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pool.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem
// status in one view.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	status.Subsystems = append(status.Subsystems, h.databaseStatus(r.Context()))
	if h.cache != nil {
		status.Subsystems = append(status.Subsystems, weatherCacheStatus(h.cache.CacheStats()))
	}

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			status.Providers = append(status.Providers, providerStatus(ph))
		}
	}

	for _, sub := range status.Subsystems {
		if sub.Status == models.HealthStatusFail {
			status.Status = models.HealthStatusFail
		}
	}
	if status.Status == models.HealthStatusOK {
		for _, prov := range status.Providers {
			if prov.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
				break
			}
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) databaseStatus(ctx context.Context) models.SubsystemStatus {
	sub := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
	if h.pool == nil {
		detail := "not configured"
		sub.Status = models.HealthStatusDegraded
		sub.Detail = &detail
		return sub
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.pool.Ping(pingCtx); err != nil {
		detail := err.Error()
		sub.Status = models.HealthStatusFail
		sub.Detail = &detail
	}
	return sub
}

func weatherCacheStatus(stats weather.CacheStats) models.SubsystemStatus {
	sub := models.SubsystemStatus{Name: "weather-cache", Status: models.HealthStatusOK}
	if stats.WeatherEntries > 0 && stats.WeatherFreshEntries == 0 {
		// Everything cached has gone stale; the provider is likely down
		// and the pipeline is running on stale-if-error data.
		detail := "all cached observations are stale"
		sub.Status = models.HealthStatusDegraded
		sub.Detail = &detail
	}
	return sub
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	out := models.ProviderStatus{
		Provider: ph.Name,
		Status:   models.HealthStatusOK,
	}
	switch {
	case ph.IsUnhealthy():
		out.Status = models.HealthStatusFail
	case ph.IsDegraded():
		out.Status = models.HealthStatusDegraded
	}
	if ph.LastSuccessAt != nil {
		ts := models.Timestamp(*ph.LastSuccessAt)
		out.LastSuccessAt = &ts
	}
	if ph.LastFailureAt != nil {
		ts := models.Timestamp(*ph.LastFailureAt)
		out.LastFailureAt = &ts
	}
	if ph.LastError != "" {
		msg := ph.LastError
		out.Message = &msg
	}
	return out
}
