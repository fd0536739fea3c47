package invitation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
	"github.com/tradeweave/tradeweave-backend/internal/modules/relationship"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("module", "invitation").Logger()

const defaultTTL = 14 * 24 * time.Hour

// ResolveResult is the outcome of acting on an invitation: accepting yields
// the created relationship, rejecting yields the updated invitation.
type ResolveResult struct {
	Invitation   *Invitation                        `json:"invitation"`
	Relationship *relationship.BusinessRelationship `json:"relationship,omitempty"`
}

// Service defines invitation business logic.
type Service interface {
	// Create issues an invitation and returns it with the one-time token.
	Create(ctx context.Context, senderOrgID uuid.UUID, req CreateInvitationRequest) (*Invitation, string, error)

	ListBySender(ctx context.Context, senderOrgID uuid.UUID) ([]*Invitation, error)

	// Resolve accepts or rejects an invitation by its token. Accepting
	// requires the resolving organization's id and creates the relationship;
	// the caller may only accept on behalf of its own organization.
	Resolve(ctx context.Context, token string, callerOrgID uuid.UUID, req ResolveRequest) (*ResolveResult, error)
}

type service struct {
	repo          Repository
	relationships relationship.Service
}

func NewService(repo Repository, relationships relationship.Service) Service {
	return &service{repo: repo, relationships: relationships}
}

func (s *service) Create(ctx context.Context, senderOrgID uuid.UUID, req CreateInvitationRequest) (*Invitation, string, error) {
	email := strings.TrimSpace(req.RecipientEmail)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: a valid recipient_email is required", apperr.ErrValidation)
	}

	inv := &Invitation{
		ID:             uuid.New(),
		SenderOrgID:    senderOrgID,
		RecipientEmail: email,
		Status:         StatusPending,
		ExpiresAt:      time.Now().Add(defaultTTL),
	}
	token, secretHash, err := newToken(inv.ID)
	if err != nil {
		return nil, "", err
	}
	inv.TokenHash = secretHash

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, "", err
	}
	logger.Info().Str("invitation_id", inv.ID.String()).
		Str("sender_org_id", senderOrgID.String()).
		Msg("invitation issued")
	return inv, token, nil
}

func (s *service) ListBySender(ctx context.Context, senderOrgID uuid.UUID) ([]*Invitation, error) {
	return s.repo.ListBySender(ctx, senderOrgID)
}

func (s *service) Resolve(ctx context.Context, token string, callerOrgID uuid.UUID, req ResolveRequest) (*ResolveResult, error) {
	id, secret, err := splitToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown invitation token", apperr.ErrNotFound)
	}

	inv, err := s.repo.GetByID(ctx, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: unknown invitation token", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	// A bad secret is indistinguishable from an unknown token on purpose.
	if !verifySecret(inv.TokenHash, secret) {
		return nil, fmt.Errorf("%w: unknown invitation token", apperr.ErrNotFound)
	}

	if inv.Status != StatusPending {
		return nil, fmt.Errorf("%w: invitation is already %s", apperr.ErrValidation, strings.ToLower(string(inv.Status)))
	}
	if inv.Expired(time.Now()) {
		_ = s.repo.MarkResolved(ctx, inv.ID, StatusExpired, nil)
		return nil, fmt.Errorf("%w: invitation has expired", apperr.ErrValidation)
	}

	switch strings.ToLower(req.Action) {
	case "accept":
		if req.OrganizationID == "" {
			return nil, fmt.Errorf("%w: organization_id is required to accept", apperr.ErrValidation)
		}
		recipientOrgID, err := uuid.Parse(req.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid organization_id", apperr.ErrValidation)
		}
		// Holding the token is not enough: the caller may only bind its own
		// organization into the relationship.
		if recipientOrgID != callerOrgID {
			return nil, fmt.Errorf("%w: invitation can only be accepted on behalf of the caller's organization", apperr.ErrForbidden)
		}

		rel, err := s.relationships.CreateFromInvitation(ctx, inv.SenderOrgID, recipientOrgID)
		if err != nil {
			// A prior accept may have committed the relationship and crashed
			// before marking the invitation; finishing the resolution is the
			// right recovery for that state.
			if errors.Is(err, apperr.ErrConflict) {
				existing, ferr := s.relationships.FindActiveRelationship(ctx, inv.SenderOrgID, recipientOrgID)
				if ferr != nil || existing == nil {
					return nil, err
				}
				rel = existing
			} else {
				return nil, err
			}
		}
		if err := s.repo.MarkResolved(ctx, inv.ID, StatusAccepted, &recipientOrgID); err != nil {
			return nil, err
		}
		inv.Status = StatusAccepted
		inv.ResolvedByOrgID = &recipientOrgID
		return &ResolveResult{Invitation: inv, Relationship: rel}, nil

	case "reject":
		if err := s.repo.MarkResolved(ctx, inv.ID, StatusRejected, nil); err != nil {
			return nil, err
		}
		inv.Status = StatusRejected
		return &ResolveResult{Invitation: inv}, nil

	default:
		return nil, fmt.Errorf("%w: action must be accept or reject", apperr.ErrValidation)
	}
}
