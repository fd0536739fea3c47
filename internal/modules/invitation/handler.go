package invitation

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
	"github.com/tradeweave/tradeweave-backend/internal/modules/auth"
)

// Handler exposes invitation HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Post("/api/v1/organizations/{id}/invitations", h.createInvitation) // POST /api/v1/organizations/{id}/invitations
	r.Get("/api/v1/organizations/{id}/invitations", h.listInvitations)   // GET  /api/v1/organizations/{id}/invitations
	r.Post("/api/v1/invitations/{token}", h.resolveInvitation)           // POST /api/v1/invitations/{token}
}

func (h *Handler) createInvitation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.ownOrgRequest(w, r)
	if !ok {
		return
	}
	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	inv, token, err := h.service.Create(r.Context(), orgID, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{
		"invitation": inv,
		"token":      token,
	})
}

func (h *Handler) listInvitations(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.ownOrgRequest(w, r)
	if !ok {
		return
	}
	invs, err := h.service.ListBySender(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	if invs == nil {
		invs = []*Invitation{}
	}
	respond(w, http.StatusOK, invs)
}

func (h *Handler) resolveInvitation(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	callerOrg, ok := auth.CallerOrg(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "missing caller organization"})
		return
	}
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result, err := h.service.Resolve(r.Context(), token, callerOrg, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, result)
}

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
