package invitation

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for invitations.
type Repository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error)
	ListBySender(ctx context.Context, senderOrgID uuid.UUID) ([]*Invitation, error)
	MarkResolved(ctx context.Context, id uuid.UUID, status Status, resolvedByOrgID *uuid.UUID) error
}
