package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sublyime/plumewatch/internal/api/models"
	"github.com/sublyime/plumewatch/internal/api/response"
	"github.com/sublyime/plumewatch/internal/plume"
	"github.com/sublyime/plumewatch/internal/release"
)

// PlumeHandler handles plume footprint endpoints.
type PlumeHandler struct {
	plumes *plume.Service
}

// NewPlumeHandler creates a new PlumeHandler.
func NewPlumeHandler(plumes *plume.Service) *PlumeHandler {
	return &PlumeHandler{
		plumes: plumes,
	}
}

// GetPlume handles GET /v1/releases/{releaseId}/plume - latest snapshot.
func (h *PlumeHandler) GetPlume(w http.ResponseWriter, r *http.Request) {
	releaseID := chi.URLParam(r, "releaseId")

	snap, err := h.plumes.Latest(r.Context(), releaseID)
	if err != nil {
		if errors.Is(err, plume.ErrSnapshotNotFound) {
			response.NotFound(w, r, "no plume computed for this release yet")
			return
		}
		response.InternalError(w, r, "failed to get plume")
		return
	}

	// The worker refreshes snapshots on its own cadence; clients can
	// cache for a short window.
	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, models.SnapshotFromDomain(snap))
}

// ComputePlume handles POST /v1/releases/{releaseId}/plume:compute -
// run the dispersion pipeline now instead of waiting for the worker.
func (h *PlumeHandler) ComputePlume(w http.ResponseWriter, r *http.Request) {
	releaseID := chi.URLParam(r, "releaseId")

	snap, err := h.plumes.Compute(r.Context(), releaseID)
	if err != nil {
		h.writeComputeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SnapshotFromDomain(snap))
}

// EvaluateReceptors handles POST /v1/releases/{releaseId}/receptors -
// concentration at caller-supplied points under current conditions.
func (h *PlumeHandler) EvaluateReceptors(w http.ResponseWriter, r *http.Request) {
	releaseID := chi.URLParam(r, "releaseId")

	var req models.ReceptorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	results, err := h.plumes.EvaluateReceptors(r.Context(), releaseID, req.ToDomain())
	if err != nil {
		h.writeComputeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.ReceptorResponseFromDomain(releaseID, results))
}

func (h *PlumeHandler) writeComputeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, release.ErrReleaseNotFound):
		response.NotFound(w, r, "release not found")
	case errors.Is(err, plume.ErrCalmConditions):
		// Not a client error and not an outage. The standard Gaussian
		// model has no answer below the minimum wind speed.
		response.ServiceUnavailable(w, r, "wind is too calm for plume modelling, try again when conditions change")
	case errors.Is(err, plume.ErrWeatherUnavailable):
		response.ServiceUnavailable(w, r, "weather data unavailable for the release location")
	default:
		response.InternalError(w, r, "plume computation failed")
	}
}
