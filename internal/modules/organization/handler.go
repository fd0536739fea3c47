package organization

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
	"github.com/tradeweave/tradeweave-backend/internal/modules/auth"
)

// Handler exposes organization HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Post("/api/v1/organizations", h.createOrganization)
	r.Get("/api/v1/organizations/{id}", h.getOrganization)
	r.Get("/api/v1/organizations/{id}/visibility", h.getSettings)
	r.Patch("/api/v1/organizations/{id}/visibility", h.patchSettings)
}

func (h *Handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	org, err := h.service.CreateOrganization(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, org)
}

func (h *Handler) getOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid organization id"})
		return
	}
	org, err := h.service.GetOrganization(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, org)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.ownOrgRequest(w, r)
	if !ok {
		return
	}
	settings, err := h.service.GetVisibilitySettings(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, settings)
}

func (h *Handler) patchSettings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.ownOrgRequest(w, r)
	if !ok {
		return
	}
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	settings, err := h.service.UpdateVisibilitySettings(r.Context(), orgID, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, settings)
}

// ownOrgRequest parses the path org id and requires the caller to belong to it.
func (h *Handler) ownOrgRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid organization id"})
		return uuid.Nil, false
	}
	callerOrg, ok := auth.CallerOrg(r.Context())
	if !ok || callerOrg != orgID {
		respond(w, http.StatusForbidden, map[string]string{"error": "caller does not belong to this organization"})
		return uuid.Nil, false
	}
	return orgID, true
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
