package visibility

import (
	"time"

	"github.com/google/uuid"
)

// ── Product visibility ────────────────────────────────────────────────────────

// ProductVisibility is a per-product override layered on top of the
// relationship-level VIEW_PRODUCTS gate. Absence of a record means the product
// is visible to anyone who passes that gate.
type ProductVisibility struct {
	OrganizationID uuid.UUID   `json:"organization_id"`
	ProductID      uuid.UUID   `json:"product_id"`
	IsPublic       bool        `json:"is_public"`
	VisibleToIDs   []uuid.UUID `json:"visible_to_ids,omitempty"`
	HiddenFromIDs  []uuid.UUID `json:"hidden_from_ids,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// AllowsViewer applies the allow/deny lists: public records hide the ids in
// HiddenFromIDs, private records admit only the ids in VisibleToIDs.
func (pv *ProductVisibility) AllowsViewer(viewerOrgID uuid.UUID) bool {
	if pv.IsPublic {
		for _, id := range pv.HiddenFromIDs {
			if id == viewerOrgID {
				return false
			}
		}
		return true
	}
	for _, id := range pv.VisibleToIDs {
		if id == viewerOrgID {
			return true
		}
	}
	return false
}

// ── Price visibility ──────────────────────────────────────────────────────────

// PriceSchedule is one custom-pricing tier for a viewer: a unit price bounded
// by an effective window and a minimum order quantity.
type PriceSchedule struct {
	Price           float64    `json:"price"`
	Currency        string     `json:"currency"`
	EffectiveFrom   *time.Time `json:"effective_from,omitempty"`
	EffectiveTo     *time.Time `json:"effective_to,omitempty"`
	MinimumQuantity int        `json:"minimum_quantity"`
}

// AppliesAt reports whether the tier covers the given quantity and instant.
// Open-ended bounds are treated as unbounded.
func (ps *PriceSchedule) AppliesAt(quantity int, asOf time.Time) bool {
	if quantity < ps.MinimumQuantity {
		return false
	}
	if ps.EffectiveFrom != nil && asOf.Before(*ps.EffectiveFrom) {
		return false
	}
	if ps.EffectiveTo != nil && asOf.After(*ps.EffectiveTo) {
		return false
	}
	return true
}

// PriceVisibility controls who sees a product's price and which override
// applies. CustomPricing maps viewer organization ids to their tiers, kept
// ordered by MinimumQuantity ascending.
type PriceVisibility struct {
	OrganizationID uuid.UUID                  `json:"organization_id"`
	ProductID      uuid.UUID                  `json:"product_id"`
	IsPublic       bool                       `json:"is_public"`
	CustomPricing  map[string][]PriceSchedule `json:"custom_pricing,omitempty"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

// ScheduleFor picks the viewer's applicable tier: the highest MinimumQuantity
// not exceeding the requested quantity whose window covers asOf. Returns nil
// when no tier applies (caller falls back to the catalog price).
func (pv *PriceVisibility) ScheduleFor(viewerOrgID uuid.UUID, quantity int, asOf time.Time) *PriceSchedule {
	entries := pv.CustomPricing[viewerOrgID.String()]
	var best *PriceSchedule
	for i := range entries {
		entry := &entries[i]
		if !entry.AppliesAt(quantity, asOf) {
			continue
		}
		if best == nil || entry.MinimumQuantity > best.MinimumQuantity {
			best = entry
		}
	}
	return best
}

// ── Request payloads ──────────────────────────────────────────────────────────

// ProductVisibilityInput is one item of a product visibility upsert batch.
type ProductVisibilityInput struct {
	ProductID     string   `json:"product_id"`
	IsPublic      bool     `json:"is_public"`
	VisibleToIDs  []string `json:"visible_to_ids,omitempty"`
	HiddenFromIDs []string `json:"hidden_from_ids,omitempty"`
}

// PriceScheduleInput is one tier of a price visibility upsert.
type PriceScheduleInput struct {
	Price           float64    `json:"price"`
	Currency        string     `json:"currency"`
	EffectiveFrom   *time.Time `json:"effective_from,omitempty"`
	EffectiveTo     *time.Time `json:"effective_to,omitempty"`
	MinimumQuantity int        `json:"minimum_quantity"`
}

// PriceVisibilityInput is one item of a price visibility upsert batch.
type PriceVisibilityInput struct {
	ProductID     string                          `json:"product_id"`
	IsPublic      bool                            `json:"is_public"`
	CustomPricing map[string][]PriceScheduleInput `json:"custom_pricing,omitempty"`
}
