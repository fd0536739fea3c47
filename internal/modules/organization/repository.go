package organization

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for organizations and their visibility
// settings.
type Repository interface {
	CreateOrganization(ctx context.Context, org *Organization) error
	GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error)

	// GetSettings returns nil (no error) when no settings row exists.
	GetSettings(ctx context.Context, orgID uuid.UUID) (*VisibilitySettings, error)
	UpsertSettings(ctx context.Context, settings *VisibilitySettings) error
}
