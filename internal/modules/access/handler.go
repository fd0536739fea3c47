package access

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
	"github.com/tradeweave/tradeweave-backend/internal/modules/auth"
)

// Handler exposes the resolution endpoint.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	// GET /api/v1/organizations/{id}/products/{productId}/access?quantity=5&as_of=RFC3339
	r.Get("/api/v1/organizations/{id}/products/{productId}/access", h.checkProductAccess)
}

func (h *Handler) checkProductAccess(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid organization id"})
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	viewerID, ok := auth.CallerOrg(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "missing caller organization"})
		return
	}

	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil || quantity <= 0 {
			respond(w, http.StatusBadRequest, map[string]string{"error": "quantity must be a positive integer"})
			return
		}
	}
	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "as_of must be RFC3339"})
			return
		}
	}

	result, err := h.service.CheckProductAccess(r.Context(), viewerID, ownerID, productID, quantity, asOf)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
		return
	}
	respond(w, http.StatusOK, result)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
