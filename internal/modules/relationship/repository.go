package relationship

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for relationships, their permissions, and
// the interaction log.
type Repository interface {
	// Relationship
	GetByID(ctx context.Context, id uuid.UUID) (*BusinessRelationship, error)
	// FindBetween returns the relationship for the unordered pair {a, b}
	// filtered to the given statuses, or nil when none exists. This is the
	// single symmetric lookup every caller must go through.
	FindBetween(ctx context.Context, a, b uuid.UUID, statuses ...Status) (*BusinessRelationship, error)
	ListForOrganization(ctx context.Context, orgID uuid.UUID) ([]*BusinessRelationship, error)
	// CreateWithSeed inserts the relationship, its seeded permissions, and the
	// initial interaction in a single transaction.
	CreateWithSeed(ctx context.Context, rel *BusinessRelationship, perms []*RelationshipPermission, interaction *RelationshipInteraction) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, interaction *RelationshipInteraction) error

	// Permissions
	GetPermissions(ctx context.Context, relationshipID uuid.UUID) ([]*RelationshipPermission, error)
	GetPermissionByType(ctx context.Context, relationshipID uuid.UUID, permType PermissionType) (*RelationshipPermission, error)
	// ReplacePermissions deletes the full permission set and recreates it in
	// one transaction, recording the interaction alongside.
	ReplacePermissions(ctx context.Context, relationshipID uuid.UUID, perms []*RelationshipPermission, interaction *RelationshipInteraction) error

	// Interactions
	ListInteractions(ctx context.Context, relationshipID uuid.UUID) ([]*RelationshipInteraction, error)
}
