package invitation

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
	"github.com/tradeweave/tradeweave-backend/internal/modules/relationship"
)

// mockRepo implements Repository backed by a single invitation.
type mockRepo struct {
	inv      *Invitation
	resolved []Status
}

func (m *mockRepo) Create(ctx context.Context, inv *Invitation) error {
	m.inv = inv
	return nil
}
func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error) {
	if m.inv != nil && m.inv.ID == id {
		copied := *m.inv
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}
func (m *mockRepo) ListBySender(ctx context.Context, senderOrgID uuid.UUID) ([]*Invitation, error) {
	return nil, nil
}
func (m *mockRepo) MarkResolved(ctx context.Context, id uuid.UUID, status Status, resolvedByOrgID *uuid.UUID) error {
	m.inv.Status = status
	m.inv.ResolvedByOrgID = resolvedByOrgID
	m.resolved = append(m.resolved, status)
	return nil
}

// mockRelationships implements relationship.Service for the accept path.
type mockRelationships struct {
	relationship.Service
	createFunc func(ctx context.Context, senderOrgID, recipientOrgID uuid.UUID) (*relationship.BusinessRelationship, error)
	findFunc   func(ctx context.Context, orgA, orgB uuid.UUID) (*relationship.BusinessRelationship, error)
}

func (m *mockRelationships) CreateFromInvitation(ctx context.Context, senderOrgID, recipientOrgID uuid.UUID) (*relationship.BusinessRelationship, error) {
	return m.createFunc(ctx, senderOrgID, recipientOrgID)
}

func (m *mockRelationships) FindActiveRelationship(ctx context.Context, orgA, orgB uuid.UUID) (*relationship.BusinessRelationship, error) {
	return m.findFunc(ctx, orgA, orgB)
}

func issuedInvitation(t *testing.T, repo *mockRepo, relationships relationship.Service, sender uuid.UUID) (Service, string) {
	t.Helper()
	svc := NewService(repo, relationships)
	_, token, err := svc.Create(context.Background(), sender, CreateInvitationRequest{RecipientEmail: "buyer@example.com"})
	require.NoError(t, err)
	return svc, token
}

func TestCreateRequiresValidEmail(t *testing.T) {
	svc := NewService(&mockRepo{}, nil)

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, _, err := svc.Create(context.Background(), uuid.New(), CreateInvitationRequest{RecipientEmail: email})
		require.ErrorIs(t, err, apperr.ErrValidation, "email %q", email)
	}
}

func TestCreateStoresHashNotToken(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, nil)

	inv, token, err := svc.Create(context.Background(), uuid.New(), CreateInvitationRequest{RecipientEmail: "buyer@example.com"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, inv.Status)
	require.NotEmpty(t, token)
	require.NotEmpty(t, repo.inv.TokenHash)
	require.NotContains(t, token, repo.inv.TokenHash)
	require.WithinDuration(t, time.Now().Add(defaultTTL), inv.ExpiresAt, time.Minute)
}

func TestResolveAcceptCreatesRelationship(t *testing.T) {
	sender, recipient := uuid.New(), uuid.New()
	repo := &mockRepo{}
	rels := &mockRelationships{
		createFunc: func(ctx context.Context, senderOrgID, recipientOrgID uuid.UUID) (*relationship.BusinessRelationship, error) {
			require.Equal(t, sender, senderOrgID)
			require.Equal(t, recipient, recipientOrgID)
			return &relationship.BusinessRelationship{
				ID: uuid.New(), RequesterID: senderOrgID, TargetID: recipientOrgID,
				Status: relationship.StatusActive,
			}, nil
		},
	}
	svc, token := issuedInvitation(t, repo, rels, sender)

	result, err := svc.Resolve(context.Background(), token, recipient, ResolveRequest{
		Action: "accept", OrganizationID: recipient.String(),
	})
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, result.Invitation.Status)
	require.NotNil(t, result.Relationship)
	require.Equal(t, relationship.StatusActive, result.Relationship.Status)
	require.Equal(t, []Status{StatusAccepted}, repo.resolved)
}

func TestResolveAcceptForeignOrgForbidden(t *testing.T) {
	victim := uuid.New()
	repo := &mockRepo{}
	rels := &mockRelationships{
		createFunc: func(ctx context.Context, senderOrgID, recipientOrgID uuid.UUID) (*relationship.BusinessRelationship, error) {
			t.Fatal("no relationship may be created for an organization the caller does not represent")
			return nil, nil
		},
	}
	svc, token := issuedInvitation(t, repo, rels, uuid.New())

	// The caller holds a valid token but names another organization.
	attacker := uuid.New()
	_, err := svc.Resolve(context.Background(), token, attacker, ResolveRequest{
		Action: "accept", OrganizationID: victim.String(),
	})
	require.ErrorIs(t, err, apperr.ErrForbidden)
	require.Empty(t, repo.resolved)
}

func TestResolveAcceptRequiresOrganizationID(t *testing.T) {
	repo := &mockRepo{}
	svc, token := issuedInvitation(t, repo, nil, uuid.New())

	_, err := svc.Resolve(context.Background(), token, uuid.New(), ResolveRequest{Action: "accept"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestResolveAcceptRecoversFromEarlierPartialAccept(t *testing.T) {
	sender, recipient := uuid.New(), uuid.New()
	repo := &mockRepo{}
	existing := &relationship.BusinessRelationship{
		ID: uuid.New(), RequesterID: sender, TargetID: recipient,
		Status: relationship.StatusActive,
	}
	rels := &mockRelationships{
		createFunc: func(ctx context.Context, senderOrgID, recipientOrgID uuid.UUID) (*relationship.BusinessRelationship, error) {
			return nil, fmt.Errorf("%w: a ACTIVE relationship already exists between these organizations", apperr.ErrConflict)
		},
		findFunc: func(ctx context.Context, orgA, orgB uuid.UUID) (*relationship.BusinessRelationship, error) {
			return existing, nil
		},
	}
	svc, token := issuedInvitation(t, repo, rels, sender)

	// The relationship committed on a previous attempt that died before
	// resolving the invitation; re-accepting finishes the resolution.
	result, err := svc.Resolve(context.Background(), token, recipient, ResolveRequest{
		Action: "accept", OrganizationID: recipient.String(),
	})
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, result.Invitation.Status)
	require.Equal(t, existing.ID, result.Relationship.ID)
}

func TestResolveReject(t *testing.T) {
	repo := &mockRepo{}
	svc, token := issuedInvitation(t, repo, nil, uuid.New())

	result, err := svc.Resolve(context.Background(), token, uuid.New(), ResolveRequest{Action: "reject"})
	require.NoError(t, err)
	require.Equal(t, StatusRejected, result.Invitation.Status)
	require.Nil(t, result.Relationship)
}

func TestResolveUnknownActionRejected(t *testing.T) {
	repo := &mockRepo{}
	svc, token := issuedInvitation(t, repo, nil, uuid.New())

	_, err := svc.Resolve(context.Background(), token, uuid.New(), ResolveRequest{Action: "maybe"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestResolveBadSecretIndistinguishableFromUnknown(t *testing.T) {
	repo := &mockRepo{}
	svc, _ := issuedInvitation(t, repo, nil, uuid.New())

	caller := uuid.New()

	// Correct id, wrong secret.
	forged := repo.inv.ID.String() + ".deadbeef"
	_, err := svc.Resolve(context.Background(), forged, caller, ResolveRequest{Action: "reject"})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	// Unknown id entirely.
	_, err = svc.Resolve(context.Background(), uuid.New().String()+".deadbeef", caller, ResolveRequest{Action: "reject"})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	// Malformed token.
	_, err = svc.Resolve(context.Background(), "garbage", caller, ResolveRequest{Action: "reject"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveAlreadyResolved(t *testing.T) {
	repo := &mockRepo{}
	svc, token := issuedInvitation(t, repo, nil, uuid.New())

	caller := uuid.New()
	_, err := svc.Resolve(context.Background(), token, caller, ResolveRequest{Action: "reject"})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), token, caller, ResolveRequest{Action: "reject"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestResolveExpiredInvitation(t *testing.T) {
	repo := &mockRepo{}
	svc, token := issuedInvitation(t, repo, nil, uuid.New())
	repo.inv.ExpiresAt = time.Now().Add(-time.Hour)

	caller := uuid.New()
	_, err := svc.Resolve(context.Background(), token, caller, ResolveRequest{Action: "accept", OrganizationID: caller.String()})
	require.ErrorIs(t, err, apperr.ErrValidation)
	require.Equal(t, []Status{StatusExpired}, repo.resolved, "expiry is recorded on first touch")
}
