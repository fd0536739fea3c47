package relationship

import (
	"time"

	"github.com/google/uuid"
)

// ── Relationship ──────────────────────────────────────────────────────────────

// Status represents the lifecycle state of a business relationship.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusRejected Status = "REJECTED"
	StatusBlocked  Status = "BLOCKED"
	StatusArchived Status = "ARCHIVED"
)

// validTransitions defines the allowed relationship state machine transitions.
// REJECTED and ARCHIVED are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusActive, StatusRejected, StatusBlocked, StatusArchived},
	StatusActive:   {StatusBlocked, StatusArchived},
	StatusBlocked:  {StatusActive, StatusArchived},
	StatusRejected: {},
	StatusArchived: {},
}

// CanTransition returns true if the status change is allowed.
func CanTransition(current, next Status) bool {
	allowed, ok := validTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

// ParseStatus validates a status string against the closed enum.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusActive, StatusRejected, StatusBlocked, StatusArchived:
		return Status(s), true
	}
	return "", false
}

// Type classifies a relationship.
type Type string

const (
	TypeGeneral  Type = "GENERAL"
	TypeSupplier Type = "SUPPLIER"
	TypeBuyer    Type = "BUYER"
)

// BusinessRelationship links exactly two distinct organizations. Creation is
// directed (requester grants access to target) but lookups are symmetric: at
// most one relationship exists per unordered pair at a time.
type BusinessRelationship struct {
	ID                uuid.UUID `json:"id"`
	RequesterID       uuid.UUID `json:"requester_id"`
	TargetID          uuid.UUID `json:"target_id"`
	Status            Status    `json:"status"`
	Type              Type      `json:"type"`
	CreatedAt         time.Time `json:"created_at"`
	LastInteractionAt time.Time `json:"last_interaction_at"`
}

// IsParty returns true if the organization is one of the two parties.
func (r *BusinessRelationship) IsParty(orgID uuid.UUID) bool {
	return r.RequesterID == orgID || r.TargetID == orgID
}

// Other returns the counterparty of the given organization.
func (r *BusinessRelationship) Other(orgID uuid.UUID) uuid.UUID {
	if r.RequesterID == orgID {
		return r.TargetID
	}
	return r.RequesterID
}

// ── Permissions ───────────────────────────────────────────────────────────────

// PermissionType is the closed set of capabilities a relationship can grant.
type PermissionType string

const (
	PermViewProducts   PermissionType = "VIEW_PRODUCTS"
	PermViewPrices     PermissionType = "VIEW_PRICES"
	PermViewInventory  PermissionType = "VIEW_INVENTORY"
	PermPlaceOrders    PermissionType = "PLACE_ORDERS"
	PermViewAnalytics  PermissionType = "VIEW_ANALYTICS"
	PermViewPromotions PermissionType = "VIEW_PROMOTIONS"
	PermViewContacts   PermissionType = "VIEW_CONTACTS"
)

// AllPermissionTypes lists every permission type in a stable order.
var AllPermissionTypes = []PermissionType{
	PermViewProducts, PermViewPrices, PermViewInventory, PermPlaceOrders,
	PermViewAnalytics, PermViewPromotions, PermViewContacts,
}

// ParsePermissionType validates a permission type string.
func ParsePermissionType(s string) (PermissionType, bool) {
	for _, p := range AllPermissionTypes {
		if PermissionType(s) == p {
			return p, true
		}
	}
	return "", false
}

// Scope limits which entities a permission applies to.
type Scope string

const (
	ScopeAll      Scope = "ALL"
	ScopeSelected Scope = "SELECTED"
	ScopeNone     Scope = "NONE"
)

// ParseScope validates a scope string.
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case ScopeAll, ScopeSelected, ScopeNone:
		return Scope(s), true
	}
	return "", false
}

// RelationshipPermission is one capability grant owned by a relationship.
// Unique per (relationship, permission type).
type RelationshipPermission struct {
	ID             uuid.UUID      `json:"id"`
	RelationshipID uuid.UUID      `json:"relationship_id"`
	PermissionType PermissionType `json:"permission_type"`
	IsGranted      bool           `json:"is_granted"`
	Scope          Scope          `json:"scope"`
	ScopeIDs       []uuid.UUID    `json:"scope_ids,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PermissionInput is one entry of a SetPermissions request.
type PermissionInput struct {
	PermissionType string   `json:"permission_type"`
	IsGranted      bool     `json:"is_granted"`
	Scope          string   `json:"scope"`
	ScopeIDs       []string `json:"scope_ids,omitempty"`
}

// ── Interactions ──────────────────────────────────────────────────────────────

// InteractionType classifies an audit log entry.
type InteractionType string

const (
	InteractionConnectionAccepted InteractionType = "CONNECTION_ACCEPTED"
	InteractionStatusChanged      InteractionType = "STATUS_CHANGED"
	InteractionPermissionsUpdated InteractionType = "PERMISSIONS_UPDATED"
)

// RelationshipInteraction is an append-only audit record. The engine writes
// these but never reads them for decisions.
type RelationshipInteraction struct {
	ID             uuid.UUID         `json:"id"`
	RelationshipID uuid.UUID         `json:"relationship_id"`
	Type           InteractionType   `json:"type"`
	InitiatorOrgID uuid.UUID         `json:"initiator_org_id"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ChangeStatusRequest is the payload for a relationship status change.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}
