package relationship

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
	"github.com/tradeweave/tradeweave-backend/internal/modules/auth"
)

// Handler exposes relationship HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/relationships", func(r chi.Router) {
		r.Get("/{id}", h.getRelationship)                   // GET   /api/v1/relationships/{id}
		r.Patch("/{id}/status", h.changeStatus)             // PATCH /api/v1/relationships/{id}/status
		r.Get("/{id}/permissions", h.getPermissions)        // GET   /api/v1/relationships/{id}/permissions
		r.Put("/{id}/permissions", h.setPermissions)        // PUT   /api/v1/relationships/{id}/permissions
		r.Get("/{id}/interactions", h.listInteractions)     // GET   /api/v1/relationships/{id}/interactions
	})
	r.Get("/api/v1/organizations/{id}/relationships", h.listForOrganization)
}

func (h *Handler) getRelationship(w http.ResponseWriter, r *http.Request) {
	relID, actorOrg, ok := h.relationshipRequest(w, r)
	if !ok {
		return
	}
	rel, err := h.service.GetRelationship(r.Context(), relID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !rel.IsParty(actorOrg) {
		respond(w, http.StatusForbidden, map[string]string{"error": "organization is not a party to this relationship"})
		return
	}
	respond(w, http.StatusOK, rel)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	relID, actorOrg, ok := h.relationshipRequest(w, r)
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rel, err := h.service.ChangeStatus(r.Context(), relID, Status(req.Status), actorOrg)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, rel)
}

func (h *Handler) getPermissions(w http.ResponseWriter, r *http.Request) {
	relID, actorOrg, ok := h.relationshipRequest(w, r)
	if !ok {
		return
	}
	perms, err := h.service.GetPermissions(r.Context(), relID, actorOrg)
	if err != nil {
		respondError(w, err)
		return
	}
	if perms == nil {
		perms = []*RelationshipPermission{}
	}
	respond(w, http.StatusOK, perms)
}

func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	relID, actorOrg, ok := h.relationshipRequest(w, r)
	if !ok {
		return
	}
	var inputs []PermissionInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	perms, err := h.service.SetPermissions(r.Context(), relID, actorOrg, inputs)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, perms)
}

func (h *Handler) listInteractions(w http.ResponseWriter, r *http.Request) {
	relID, actorOrg, ok := h.relationshipRequest(w, r)
	if !ok {
		return
	}
	items, err := h.service.ListInteractions(r.Context(), relID, actorOrg)
	if err != nil {
		respondError(w, err)
		return
	}
	if items == nil {
		items = []*RelationshipInteraction{}
	}
	respond(w, http.StatusOK, items)
}

func (h *Handler) listForOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid organization id"})
		return
	}
	actorOrg, ok := auth.CallerOrg(r.Context())
	if !ok || actorOrg != orgID {
		respond(w, http.StatusForbidden, map[string]string{"error": "caller does not belong to this organization"})
		return
	}
	rels, err := h.service.ListForOrganization(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	if rels == nil {
		rels = []*BusinessRelationship{}
	}
	respond(w, http.StatusOK, rels)
}

// relationshipRequest parses the path id and the caller's organization.
func (h *Handler) relationshipRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	relID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid relationship id"})
		return uuid.Nil, uuid.Nil, false
	}
	actorOrg, ok := auth.CallerOrg(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "missing caller organization"})
		return uuid.Nil, uuid.Nil, false
	}
	return relID, actorOrg, true
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
