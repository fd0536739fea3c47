package organization

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradeweave/tradeweave-backend/internal/modules/relationship"
)

// BusinessType classifies an organization's role in the supply chain.
type BusinessType string

const (
	TypeBrandOwner  BusinessType = "BRAND_OWNER"
	TypeDistributor BusinessType = "DISTRIBUTOR"
	TypeWholesaler  BusinessType = "WHOLESALER"
	TypeRetailer    BusinessType = "RETAILER"
	TypeOther       BusinessType = "OTHER"
)

// ParseBusinessType validates a business type string.
func ParseBusinessType(s string) (BusinessType, bool) {
	switch BusinessType(s) {
	case TypeBrandOwner, TypeDistributor, TypeWholesaler, TypeRetailer, TypeOther:
		return BusinessType(s), true
	}
	return "", false
}

// Organization is a tenant: it owns products, prices, and relationships.
type Organization struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	BusinessType BusinessType `json:"business_type"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PermissionDefault is one entry of an organization's default permission
// template, applied to viewers with no formal relationship.
type PermissionDefault struct {
	IsGranted bool               `json:"is_granted"`
	Scope     relationship.Scope `json:"scope"`
}

// VisibilitySettings is an organization's fallback policy. Created lazily;
// until a row exists the hard defaults below apply.
type VisibilitySettings struct {
	OrganizationID     uuid.UUID                                         `json:"organization_id"`
	Discoverable       bool                                              `json:"discoverable"`
	ShowContactInfo    bool                                              `json:"show_contact_info"`
	ShowProducts       bool                                              `json:"show_products"`
	ShowPricing        bool                                              `json:"show_pricing"`
	DefaultPermissions map[relationship.PermissionType]PermissionDefault `json:"default_permissions"`
	CreatedAt          time.Time                                         `json:"created_at"`
	UpdatedAt          time.Time                                         `json:"updated_at"`
}

// HardDefaultGrant is the process-wide fallback used when an organization has
// no settings row at all: open catalog, closed books.
func HardDefaultGrant(permType relationship.PermissionType) bool {
	switch permType {
	case relationship.PermViewProducts, relationship.PermPlaceOrders,
		relationship.PermViewPromotions, relationship.PermViewContacts:
		return true
	default:
		return false
	}
}

// DefaultPermissionTemplate returns the template seeded into a lazily created
// settings row. Mirrors HardDefaultGrant so a fresh row changes nothing.
func DefaultPermissionTemplate() map[relationship.PermissionType]PermissionDefault {
	template := make(map[relationship.PermissionType]PermissionDefault, len(relationship.AllPermissionTypes))
	for _, p := range relationship.AllPermissionTypes {
		if HardDefaultGrant(p) {
			template[p] = PermissionDefault{IsGranted: true, Scope: relationship.ScopeAll}
		} else {
			template[p] = PermissionDefault{IsGranted: false, Scope: relationship.ScopeNone}
		}
	}
	return template
}

// DefaultVisibilitySettings returns the documented defaults for a new row.
func DefaultVisibilitySettings(orgID uuid.UUID) *VisibilitySettings {
	return &VisibilitySettings{
		OrganizationID:     orgID,
		Discoverable:       true,
		ShowContactInfo:    true,
		ShowProducts:       true,
		ShowPricing:        false,
		DefaultPermissions: DefaultPermissionTemplate(),
	}
}

// CreateOrganizationRequest is the payload for creating an organization.
type CreateOrganizationRequest struct {
	Name         string `json:"name"`
	BusinessType string `json:"business_type"`
}

// UpdateSettingsRequest is a partial patch of visibility settings. Nil fields
// are left untouched.
type UpdateSettingsRequest struct {
	Discoverable       *bool                             `json:"discoverable,omitempty"`
	ShowContactInfo    *bool                             `json:"show_contact_info,omitempty"`
	ShowProducts       *bool                             `json:"show_products,omitempty"`
	ShowPricing        *bool                             `json:"show_pricing,omitempty"`
	DefaultPermissions map[string]PermissionDefaultInput `json:"default_permissions,omitempty"`
}

// PermissionDefaultInput is one template entry of an update request.
type PermissionDefaultInput struct {
	IsGranted bool   `json:"is_granted"`
	Scope     string `json:"scope"`
}
