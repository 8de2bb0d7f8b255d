package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sublyime/plumewatch/internal/api/models"
	"github.com/sublyime/plumewatch/internal/api/response"
	"github.com/sublyime/plumewatch/internal/release"
)

// SnapshotDropper removes the stored plume snapshots for a release.
type SnapshotDropper interface {
	DropSnapshots(ctx context.Context, releaseID string) error
}

// ReleaseHandler handles release event endpoints.
type ReleaseHandler struct {
	releases  *release.Service
	snapshots SnapshotDropper
}

// NewReleaseHandler creates a new ReleaseHandler. snapshots may be nil;
// deleting a release then leaves its last footprint in place.
func NewReleaseHandler(releases *release.Service, snapshots SnapshotDropper) *ReleaseHandler {
	return &ReleaseHandler{
		releases:  releases,
		snapshots: snapshots,
	}
}

// ListReleases handles GET /v1/releases - list release events.
// Supports ?status=ACTIVE|STOPPED and ?limit=.
func (h *ReleaseHandler) ListReleases(w http.ResponseWriter, r *http.Request) {
	var opts release.ListOptions

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := release.Status(strings.ToUpper(raw))
		if status != release.StatusActive && status != release.StatusStopped {
			response.BadRequest(w, r, "status must be ACTIVE or STOPPED", nil)
			return
		}
		opts.Status = status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			response.BadRequest(w, r, "limit must be a positive integer", nil)
			return
		}
		opts.Limit = limit
	}

	result, err := h.releases.List(r.Context(), opts)
	if err != nil {
		response.InternalError(w, r, "failed to list releases")
		return
	}

	response.JSON(w, r, http.StatusOK, models.ReleaseListResponse{
		Items:      models.ReleasesFromDomain(result.Items),
		NextCursor: result.NextCursor,
	})
}

// GetRelease handles GET /v1/releases/{releaseId}.
func (h *ReleaseHandler) GetRelease(w http.ResponseWriter, r *http.Request) {
	releaseID := chi.URLParam(r, "releaseId")

	rel, err := h.releases.Get(r.Context(), releaseID)
	if err != nil {
		if errors.Is(err, release.ErrReleaseNotFound) {
			response.NotFound(w, r, "release not found")
			return
		}
		response.InternalError(w, r, "failed to get release")
		return
	}

	response.JSON(w, r, http.StatusOK, models.ReleaseFromDomain(rel))
}

// CreateRelease handles POST /v1/releases - report a new release.
func (h *ReleaseHandler) CreateRelease(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	rel, err := h.releases.Create(r.Context(), req.ToDomain())
	if err != nil {
		if errors.Is(err, release.ErrInvalidRelease) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.InternalError(w, r, "failed to create release")
		return
	}

	response.Created(w, r, "/v1/releases/"+rel.ID, models.ReleaseFromDomain(rel))
}

// UpdateRelease handles PUT /v1/releases/{releaseId} - amend a report.
func (h *ReleaseHandler) UpdateRelease(w http.ResponseWriter, r *http.Request) {
	releaseID := chi.URLParam(r, "releaseId")

	var req models.UpdateReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	rel, err := h.releases.Get(r.Context(), releaseID)
	if err != nil {
		if errors.Is(err, release.ErrReleaseNotFound) {
			response.NotFound(w, r, "release not found")
			return
		}
		response.InternalError(w, r, "failed to get release")
		return
	}

	req.Apply(rel)

	updated, err := h.releases.Update(r.Context(), rel)
	if err != nil {
		if errors.Is(err, release.ErrInvalidRelease) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.InternalError(w, r, "failed to update release")
		return
	}

	response.JSON(w, r, http.StatusOK, models.ReleaseFromDomain(updated))
}

// StopRelease handles POST /v1/releases/{releaseId}/stop - mark a
// release as ended. Stopped releases drop out of the recompute set.
func (h *ReleaseHandler) StopRelease(w http.ResponseWriter, r *http.Request) {
	releaseID := chi.URLParam(r, "releaseId")

	rel, err := h.releases.Stop(r.Context(), releaseID)
	if err != nil {
		if errors.Is(err, release.ErrReleaseNotFound) {
			response.NotFound(w, r, "release not found")
			return
		}
		if errors.Is(err, release.ErrAlreadyStopped) {
			response.Conflict(w, r, "release is already stopped")
			return
		}
		response.InternalError(w, r, "failed to stop release")
		return
	}

	response.JSON(w, r, http.StatusOK, models.ReleaseFromDomain(rel))
}

// DeleteRelease handles DELETE /v1/releases/{releaseId}. Admin only.
func (h *ReleaseHandler) DeleteRelease(w http.ResponseWriter, r *http.Request) {
	releaseID := chi.URLParam(r, "releaseId")

	if err := h.releases.Delete(r.Context(), releaseID); err != nil {
		if errors.Is(err, release.ErrReleaseNotFound) {
			response.NotFound(w, r, "release not found")
			return
		}
		response.InternalError(w, r, "failed to delete release")
		return
	}

	if h.snapshots != nil {
		// Best effort. An orphaned snapshot is unreachable once the
		// release is gone.
		_ = h.snapshots.DropSnapshots(r.Context(), releaseID)
	}

	response.NoContent(w, r)
}
