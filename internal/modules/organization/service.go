package organization

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
	"github.com/tradeweave/tradeweave-backend/internal/modules/relationship"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("module", "organization").Logger()

// SettingsCache is notified when an organization's settings change. Optional.
type SettingsCache interface {
	InvalidateSettings(ctx context.Context, orgID uuid.UUID)
}

// Service defines organization business logic.
type Service interface {
	CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*Organization, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error)

	// GetVisibilitySettings returns the organization's settings, creating the
	// documented defaults on first read.
	GetVisibilitySettings(ctx context.Context, orgID uuid.UUID) (*VisibilitySettings, error)

	// UpdateVisibilitySettings applies a partial patch.
	UpdateVisibilitySettings(ctx context.Context, orgID uuid.UUID, req UpdateSettingsRequest) (*VisibilitySettings, error)
}

type service struct {
	repo  Repository
	cache SettingsCache
}

// NewService creates the organization service. cache may be nil.
func NewService(repo Repository, cache SettingsCache) Service {
	return &service{repo: repo, cache: cache}
}

func (s *service) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	businessType, ok := ParseBusinessType(req.BusinessType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown business type %q", apperr.ErrValidation, req.BusinessType)
	}

	org := &Organization{
		ID:           uuid.New(),
		Name:         name,
		BusinessType: businessType,
	}
	if err := s.repo.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}
	logger.Info().Str("organization_id", org.ID.String()).Str("business_type", string(businessType)).
		Msg("organization created")
	return s.repo.GetOrganization(ctx, org.ID)
}

func (s *service) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	org, err := s.repo.GetOrganization(ctx, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: organization %s", apperr.ErrNotFound, id)
	}
	return org, err
}

func (s *service) GetVisibilitySettings(ctx context.Context, orgID uuid.UUID) (*VisibilitySettings, error) {
	settings, err := s.repo.GetSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	settings = DefaultVisibilitySettings(orgID)
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	return s.repo.GetSettings(ctx, orgID)
}

func (s *service) UpdateVisibilitySettings(ctx context.Context, orgID uuid.UUID, req UpdateSettingsRequest) (*VisibilitySettings, error) {
	// Validate the template patch completely before touching anything.
	patch := make(map[relationship.PermissionType]PermissionDefault, len(req.DefaultPermissions))
	for rawType, in := range req.DefaultPermissions {
		permType, ok := relationship.ParsePermissionType(rawType)
		if !ok {
			return nil, fmt.Errorf("%w: unknown permission type %q", apperr.ErrValidation, rawType)
		}
		scope, ok := relationship.ParseScope(in.Scope)
		if !ok {
			return nil, fmt.Errorf("%w: unknown scope %q for %s", apperr.ErrValidation, in.Scope, rawType)
		}
		patch[permType] = PermissionDefault{IsGranted: in.IsGranted, Scope: scope}
	}

	settings, err := s.GetVisibilitySettings(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if req.Discoverable != nil {
		settings.Discoverable = *req.Discoverable
	}
	if req.ShowContactInfo != nil {
		settings.ShowContactInfo = *req.ShowContactInfo
	}
	if req.ShowProducts != nil {
		settings.ShowProducts = *req.ShowProducts
	}
	if req.ShowPricing != nil {
		settings.ShowPricing = *req.ShowPricing
	}
	for permType, def := range patch {
		settings.DefaultPermissions[permType] = def
	}

	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateSettings(ctx, orgID)
	}
	return s.repo.GetSettings(ctx, orgID)
}
