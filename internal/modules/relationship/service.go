package relationship

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("module", "relationship").Logger()

// PairCache is notified when committed state for an organization pair changes,
// so cached lookups can be dropped. Optional.
type PairCache interface {
	InvalidatePair(ctx context.Context, a, b uuid.UUID)
}

// Service defines the relationship lifecycle and permission business logic.
type Service interface {
	// CreateFromInvitation creates an ACTIVE relationship for an accepted
	// invitation, seeding default permissions and the initial interaction in
	// one transaction. The invitation sender is the requester (data owner).
	CreateFromInvitation(ctx context.Context, senderOrgID, recipientOrgID uuid.UUID) (*BusinessRelationship, error)

	// ChangeStatus transitions the relationship, enforcing the state machine
	// and that the actor is a party.
	ChangeStatus(ctx context.Context, relationshipID uuid.UUID, newStatus Status, actorOrgID uuid.UUID) (*BusinessRelationship, error)

	// FindActiveRelationship is the symmetric ACTIVE lookup for a pair.
	FindActiveRelationship(ctx context.Context, orgA, orgB uuid.UUID) (*BusinessRelationship, error)

	GetRelationship(ctx context.Context, id uuid.UUID) (*BusinessRelationship, error)
	ListForOrganization(ctx context.Context, orgID uuid.UUID) ([]*BusinessRelationship, error)
	ListInteractions(ctx context.Context, relationshipID uuid.UUID, actorOrgID uuid.UUID) ([]*RelationshipInteraction, error)

	GetPermissions(ctx context.Context, relationshipID uuid.UUID, actorOrgID uuid.UUID) ([]*RelationshipPermission, error)

	// SetPermissions atomically replaces the full permission set. Only the
	// requester organization may call this.
	SetPermissions(ctx context.Context, relationshipID uuid.UUID, actorOrgID uuid.UUID, inputs []PermissionInput) ([]*RelationshipPermission, error)
}

type service struct {
	repo        Repository
	kafkaWriter *kafka.Writer
	cache       PairCache
}

// NewService creates the relationship service. kafkaWriter and cache may be nil.
func NewService(repo Repository, kafkaWriter *kafka.Writer, cache PairCache) Service {
	return &service{repo: repo, kafkaWriter: kafkaWriter, cache: cache}
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func (s *service) CreateFromInvitation(ctx context.Context, senderOrgID, recipientOrgID uuid.UUID) (*BusinessRelationship, error) {
	if senderOrgID == recipientOrgID {
		return nil, fmt.Errorf("%w: an organization cannot connect to itself", apperr.ErrValidation)
	}

	existing, err := s.repo.FindBetween(ctx, senderOrgID, recipientOrgID, StatusPending, StatusActive)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: a %s relationship already exists between these organizations", apperr.ErrConflict, existing.Status)
	}

	now := time.Now()
	rel := &BusinessRelationship{
		ID:                uuid.New(),
		RequesterID:       senderOrgID,
		TargetID:          recipientOrgID,
		Status:            StatusActive,
		Type:              TypeGeneral,
		CreatedAt:         now,
		LastInteractionAt: now,
	}

	// Seeded baseline: catalog open, prices closed until configured.
	perms := []*RelationshipPermission{
		{ID: uuid.New(), RelationshipID: rel.ID, PermissionType: PermViewProducts, IsGranted: true, Scope: ScopeAll},
		{ID: uuid.New(), RelationshipID: rel.ID, PermissionType: PermViewPrices, IsGranted: false, Scope: ScopeNone},
	}
	interaction := &RelationshipInteraction{
		ID:             uuid.New(),
		RelationshipID: rel.ID,
		Type:           InteractionConnectionAccepted,
		InitiatorOrgID: recipientOrgID,
	}

	if err := s.repo.CreateWithSeed(ctx, rel, perms, interaction); err != nil {
		return nil, err
	}

	s.invalidatePair(ctx, senderOrgID, recipientOrgID)
	s.publishInteraction(ctx, interaction)
	logger.Info().Str("relationship_id", rel.ID.String()).
		Str("requester_id", senderOrgID.String()).
		Str("target_id", recipientOrgID.String()).
		Msg("relationship created from invitation")
	return rel, nil
}

func (s *service) ChangeStatus(ctx context.Context, relationshipID uuid.UUID, newStatus Status, actorOrgID uuid.UUID) (*BusinessRelationship, error) {
	if _, ok := ParseStatus(string(newStatus)); !ok {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, newStatus)
	}

	rel, err := s.getRelationship(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if !rel.IsParty(actorOrgID) {
		return nil, fmt.Errorf("%w: organization is not a party to this relationship", apperr.ErrForbidden)
	}
	if !CanTransition(rel.Status, newStatus) {
		return nil, fmt.Errorf("%w: cannot transition from %s to %s", apperr.ErrInvalidTransition, rel.Status, newStatus)
	}

	interaction := &RelationshipInteraction{
		ID:             uuid.New(),
		RelationshipID: rel.ID,
		Type:           InteractionStatusChanged,
		InitiatorOrgID: actorOrgID,
		Metadata:       map[string]string{"from": string(rel.Status), "to": string(newStatus)},
	}
	if err := s.repo.UpdateStatus(ctx, rel.ID, newStatus, interaction); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: relationship %s", apperr.ErrNotFound, relationshipID)
		}
		return nil, err
	}

	rel.Status = newStatus
	rel.LastInteractionAt = time.Now()
	s.invalidatePair(ctx, rel.RequesterID, rel.TargetID)
	s.publishInteraction(ctx, interaction)
	return rel, nil
}

func (s *service) FindActiveRelationship(ctx context.Context, orgA, orgB uuid.UUID) (*BusinessRelationship, error) {
	return s.repo.FindBetween(ctx, orgA, orgB, StatusActive)
}

func (s *service) GetRelationship(ctx context.Context, id uuid.UUID) (*BusinessRelationship, error) {
	return s.getRelationship(ctx, id)
}

func (s *service) ListForOrganization(ctx context.Context, orgID uuid.UUID) ([]*BusinessRelationship, error) {
	return s.repo.ListForOrganization(ctx, orgID)
}

func (s *service) ListInteractions(ctx context.Context, relationshipID uuid.UUID, actorOrgID uuid.UUID) ([]*RelationshipInteraction, error) {
	rel, err := s.getRelationship(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if !rel.IsParty(actorOrgID) {
		return nil, fmt.Errorf("%w: organization is not a party to this relationship", apperr.ErrForbidden)
	}
	return s.repo.ListInteractions(ctx, relationshipID)
}

// ── Permissions ───────────────────────────────────────────────────────────────

func (s *service) GetPermissions(ctx context.Context, relationshipID uuid.UUID, actorOrgID uuid.UUID) ([]*RelationshipPermission, error) {
	rel, err := s.getRelationship(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if !rel.IsParty(actorOrgID) {
		return nil, fmt.Errorf("%w: organization is not a party to this relationship", apperr.ErrForbidden)
	}
	return s.repo.GetPermissions(ctx, relationshipID)
}

func (s *service) SetPermissions(ctx context.Context, relationshipID uuid.UUID, actorOrgID uuid.UUID, inputs []PermissionInput) ([]*RelationshipPermission, error) {
	rel, err := s.getRelationship(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	// The requester is the data owner granting access; only it may configure
	// what the counterparty sees.
	if rel.RequesterID != actorOrgID {
		return nil, fmt.Errorf("%w: only the requester organization may set permissions", apperr.ErrForbidden)
	}

	perms, err := buildPermissionSet(rel.ID, inputs)
	if err != nil {
		return nil, err
	}

	interaction := &RelationshipInteraction{
		ID:             uuid.New(),
		RelationshipID: rel.ID,
		Type:           InteractionPermissionsUpdated,
		InitiatorOrgID: actorOrgID,
		Metadata:       map[string]string{"count": fmt.Sprintf("%d", len(perms))},
	}
	if err := s.repo.ReplacePermissions(ctx, rel.ID, perms, interaction); err != nil {
		return nil, err
	}

	s.invalidatePair(ctx, rel.RequesterID, rel.TargetID)
	s.publishInteraction(ctx, interaction)
	return perms, nil
}

// buildPermissionSet validates every input before anything is written:
// unknown enums, SELECTED without ids, and duplicate types all reject the
// whole request.
func buildPermissionSet(relationshipID uuid.UUID, inputs []PermissionInput) ([]*RelationshipPermission, error) {
	seen := map[PermissionType]bool{}
	perms := make([]*RelationshipPermission, 0, len(inputs))
	for i, in := range inputs {
		permType, ok := ParsePermissionType(in.PermissionType)
		if !ok {
			return nil, fmt.Errorf("%w: item %d: unknown permission type %q", apperr.ErrValidation, i, in.PermissionType)
		}
		if seen[permType] {
			return nil, fmt.Errorf("%w: duplicate permission type %s", apperr.ErrConflict, permType)
		}
		seen[permType] = true

		scope, ok := ParseScope(in.Scope)
		if !ok {
			return nil, fmt.Errorf("%w: item %d: unknown scope %q", apperr.ErrValidation, i, in.Scope)
		}
		if scope == ScopeSelected && len(in.ScopeIDs) == 0 {
			return nil, fmt.Errorf("%w: item %d: scope SELECTED requires scope_ids", apperr.ErrValidation, i)
		}

		var scopeIDs []uuid.UUID
		if scope == ScopeSelected {
			for _, raw := range in.ScopeIDs {
				id, err := uuid.Parse(raw)
				if err != nil {
					return nil, fmt.Errorf("%w: item %d: invalid scope id %q", apperr.ErrValidation, i, raw)
				}
				scopeIDs = append(scopeIDs, id)
			}
		}

		perms = append(perms, &RelationshipPermission{
			ID:             uuid.New(),
			RelationshipID: relationshipID,
			PermissionType: permType,
			IsGranted:      in.IsGranted,
			Scope:          scope,
			ScopeIDs:       scopeIDs,
		})
	}
	return perms, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *service) getRelationship(ctx context.Context, id uuid.UUID) (*BusinessRelationship, error) {
	rel, err := s.repo.GetByID(ctx, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: relationship %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rel, nil
}

func (s *service) invalidatePair(ctx context.Context, a, b uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidatePair(ctx, a, b)
	}
}
