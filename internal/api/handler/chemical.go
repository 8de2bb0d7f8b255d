package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sublyime/plumewatch/internal/api/models"
	"github.com/sublyime/plumewatch/internal/api/response"
	"github.com/sublyime/plumewatch/internal/chemical"
)

// ChemicalHandler handles chemical catalog endpoints.
type ChemicalHandler struct {
	chemicals *chemical.Service
}

// NewChemicalHandler creates a new ChemicalHandler.
func NewChemicalHandler(chemicals *chemical.Service) *ChemicalHandler {
	return &ChemicalHandler{
		chemicals: chemicals,
	}
}

// ListChemicals handles GET /v1/chemicals - list catalog entries.
// Supports ?q= substring search on name and CAS number.
func (h *ChemicalHandler) ListChemicals(w http.ResponseWriter, r *http.Request) {
	opts := chemical.ListOptions{
		Query: r.URL.Query().Get("q"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			response.BadRequest(w, r, "limit must be a positive integer", nil)
			return
		}
		opts.Limit = limit
	}

	result, err := h.chemicals.List(r.Context(), opts)
	if err != nil {
		response.InternalError(w, r, "failed to list chemicals")
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"items":      models.ChemicalsFromDomain(result.Items),
		"nextCursor": result.NextCursor,
	})
}

// GetChemical handles GET /v1/chemicals/{chemicalId}.
func (h *ChemicalHandler) GetChemical(w http.ResponseWriter, r *http.Request) {
	chemicalID := chi.URLParam(r, "chemicalId")

	chem, err := h.chemicals.Get(r.Context(), chemicalID)
	if err != nil {
		if errors.Is(err, chemical.ErrChemicalNotFound) {
			response.NotFound(w, r, "chemical not found")
			return
		}
		response.InternalError(w, r, "failed to get chemical")
		return
	}

	response.JSON(w, r, http.StatusOK, models.ChemicalFromDomain(chem))
}

// CreateChemical handles POST /v1/chemicals - add a catalog entry.
// Admin only.
func (h *ChemicalHandler) CreateChemical(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertChemicalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	chem, err := h.chemicals.Create(r.Context(), req.ToDomain())
	if err != nil {
		if errors.Is(err, chemical.ErrDuplicateCAS) {
			response.Conflict(w, r, "chemical with this CAS number already exists")
			return
		}
		if errors.Is(err, chemical.ErrInvalidChemical) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.InternalError(w, r, "failed to create chemical")
		return
	}

	response.Created(w, r, "/v1/chemicals/"+chem.ID, models.ChemicalFromDomain(chem))
}

// UpdateChemical handles PUT /v1/chemicals/{chemicalId}. Admin only.
func (h *ChemicalHandler) UpdateChemical(w http.ResponseWriter, r *http.Request) {
	chemicalID := chi.URLParam(r, "chemicalId")

	var req models.UpsertChemicalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	chem := req.ToDomain()
	chem.ID = chemicalID

	updated, err := h.chemicals.Update(r.Context(), chem)
	if err != nil {
		if errors.Is(err, chemical.ErrChemicalNotFound) {
			response.NotFound(w, r, "chemical not found")
			return
		}
		if errors.Is(err, chemical.ErrDuplicateCAS) {
			response.Conflict(w, r, "chemical with this CAS number already exists")
			return
		}
		if errors.Is(err, chemical.ErrInvalidChemical) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.InternalError(w, r, "failed to update chemical")
		return
	}

	response.JSON(w, r, http.StatusOK, models.ChemicalFromDomain(updated))
}

// DeleteChemical handles DELETE /v1/chemicals/{chemicalId}. Admin only.
func (h *ChemicalHandler) DeleteChemical(w http.ResponseWriter, r *http.Request) {
	chemicalID := chi.URLParam(r, "chemicalId")

	if err := h.chemicals.Delete(r.Context(), chemicalID); err != nil {
		if errors.Is(err, chemical.ErrChemicalNotFound) {
			response.NotFound(w, r, "chemical not found")
			return
		}
		response.InternalError(w, r, "failed to delete chemical")
		return
	}

	response.NoContent(w, r)
}
