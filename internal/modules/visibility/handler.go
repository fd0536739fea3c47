package visibility

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
	"github.com/tradeweave/tradeweave-backend/internal/modules/auth"
)

// Handler exposes visibility HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/api/v1/organizations/{id}/products/visibility", h.getProductVisibility)
	r.Post("/api/v1/organizations/{id}/products/visibility", h.postProductVisibility)
	r.Get("/api/v1/organizations/{id}/prices/visibility", h.getPriceVisibility)
	r.Post("/api/v1/organizations/{id}/prices/visibility", h.postPriceVisibility)
}

func (h *Handler) getProductVisibility(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.ownOrgRequest(w, r)
	if !ok {
		return
	}
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		productID, err := uuid.Parse(raw)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product_id"})
			return
		}
		pv, err := h.service.GetProductVisibility(r.Context(), orgID, productID)
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, pv)
		return
	}
	records, err := h.service.ListProductVisibility(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	if records == nil {
		records = []*ProductVisibility{}
	}
	respond(w, http.StatusOK, records)
}

func (h *Handler) postProductVisibility(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.ownOrgRequest(w, r)
	if !ok {
		return
	}
	var items []ProductVisibilityInput
	if err := decodeSingleOrArray(r.Body, &items); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	records, err := h.service.UpsertProductVisibility(r.Context(), orgID, items)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, records)
}

func (h *Handler) getPriceVisibility(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.ownOrgRequest(w, r)
	if !ok {
		return
	}
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		productID, err := uuid.Parse(raw)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product_id"})
			return
		}
		pv, err := h.service.GetPriceVisibility(r.Context(), orgID, productID)
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, pv)
		return
	}
	records, err := h.service.ListPriceVisibility(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	if records == nil {
		records = []*PriceVisibility{}
	}
	respond(w, http.StatusOK, records)
}

func (h *Handler) postPriceVisibility(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.ownOrgRequest(w, r)
	if !ok {
		return
	}
	var items []PriceVisibilityInput
	if err := decodeSingleOrArray(r.Body, &items); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	records, err := h.service.UpsertPriceVisibility(r.Context(), orgID, items)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, records)
}

// decodeSingleOrArray accepts either one object or an array of objects.
// Callers re-publish whole catalogs in one call, so both shapes are valid.
func decodeSingleOrArray[T any](body io.Reader, out *[]T) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(raw, out)
	}
	var single T
	if err := json.Unmarshal(raw, &single); err != nil {
		return err
	}
	*out = []T{single}
	return nil
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
