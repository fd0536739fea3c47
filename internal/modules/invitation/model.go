package invitation

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle of an invitation. Accept and reject both resolve
// it; resolved and expired invitations cannot be acted on again.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusExpired  Status = "EXPIRED"
)

// Invitation is a one-time offer from an organization to connect. The token
// secret is bcrypt-hashed at rest; the clear token leaves the system exactly
// once, in the create response.
type Invitation struct {
	ID              uuid.UUID  `json:"id"`
	SenderOrgID     uuid.UUID  `json:"sender_org_id"`
	RecipientEmail  string     `json:"recipient_email"`
	Status          Status     `json:"status"`
	TokenHash       string     `json:"-"`
	ExpiresAt       time.Time  `json:"expires_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolvedByOrgID *uuid.UUID `json:"resolved_by_org_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Expired reports whether the invitation's window has passed.
func (inv *Invitation) Expired(now time.Time) bool {
	return now.After(inv.ExpiresAt)
}

// CreateInvitationRequest is the payload for issuing an invitation.
type CreateInvitationRequest struct {
	RecipientEmail string `json:"recipient_email"`
}

// ResolveRequest is the payload for accepting or rejecting an invitation.
type ResolveRequest struct {
	Action         string `json:"action"`
	OrganizationID string `json:"organization_id,omitempty"`
}
