package access

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tradeweave/tradeweave-backend/internal/modules/organization"
	"github.com/tradeweave/tradeweave-backend/internal/modules/relationship"
	"github.com/tradeweave/tradeweave-backend/internal/modules/visibility"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("module", "access").Logger()

// Money is a resolved unit price.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// PriceDecision is the outcome of price resolution for one viewer. A nil
// Price with Visible=true means the catalog price applies unchanged.
type PriceDecision struct {
	Visible bool   `json:"visible"`
	Price   *Money `json:"price,omitempty"`
	Source  string `json:"source"`
}

// Price sources reported in decisions.
const (
	SourceCatalog = "catalog"
	SourceCustom  = "custom"
	SourceHidden  = "hidden"
)

// ProductAccess is the combined answer for one (viewer, owner, product) tuple.
type ProductAccess struct {
	ProductVisible bool          `json:"product_visible"`
	Price          PriceDecision `json:"price"`
}

// Service is the visibility and pricing resolution engine. All methods are
// pure reads over committed state and safe for unbounded parallel use.
type Service interface {
	// IsGranted decides a permission for a viewer against an owner: self
	// access always passes, organization defaults apply while no active
	// relationship exists, and an active relationship requires an explicit
	// grant (absent configuration denies).
	IsGranted(ctx context.Context, viewerOrgID, ownerOrgID uuid.UUID, permType relationship.PermissionType) (bool, error)

	// IsProductVisible layers per-product allow/deny lists on top of the
	// VIEW_PRODUCTS gate. The gate dominates: a denied category hides every
	// product regardless of record contents.
	IsProductVisible(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID) (bool, error)

	// ResolvePrice returns whether any price may be shown to the viewer and
	// the custom unit price if an applicable tier exists; otherwise the
	// caller falls back to the catalog price.
	ResolvePrice(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID, quantity int, asOf time.Time) (PriceDecision, error)

	// CheckProductAccess composes product and price resolution.
	CheckProductAccess(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID, quantity int, asOf time.Time) (*ProductAccess, error)
}

type service struct {
	relRepo relationship.Repository
	orgRepo organization.Repository
	visRepo visibility.Repository
	cache   *Cache
}

// NewService creates the access resolution engine. cache may be nil.
func NewService(relRepo relationship.Repository, orgRepo organization.Repository, visRepo visibility.Repository, cache *Cache) Service {
	if cache == nil {
		cache = NewCache(nil)
	}
	return &service{relRepo: relRepo, orgRepo: orgRepo, visRepo: visRepo, cache: cache}
}

// ── Permission resolution ─────────────────────────────────────────────────────

func (s *service) IsGranted(ctx context.Context, viewerOrgID, ownerOrgID uuid.UUID, permType relationship.PermissionType) (bool, error) {
	// Self-access is unconditional: an organization never needs a
	// relationship with itself.
	if viewerOrgID == ownerOrgID {
		return true, nil
	}

	rel, err := s.activeRelationship(ctx, viewerOrgID, ownerOrgID)
	if err != nil {
		return false, err
	}

	// No relationship: the owner's public-default policy decides, so an
	// organization can run a storefront without formal connections.
	if rel == nil {
		settings, err := s.ownerSettings(ctx, ownerOrgID)
		if err != nil {
			return false, err
		}
		if settings != nil {
			if def, ok := settings.DefaultPermissions[permType]; ok {
				return def.IsGranted, nil
			}
		}
		return organization.HardDefaultGrant(permType), nil
	}

	// Relationship present: only an explicit grant opens anything beyond the
	// seeded defaults. Unconfigured means denied.
	perm, err := s.relRepo.GetPermissionByType(ctx, rel.ID, permType)
	if err != nil {
		return false, err
	}
	if perm == nil {
		return false, nil
	}
	return perm.IsGranted, nil
}

// ── Product visibility resolution ─────────────────────────────────────────────

func (s *service) IsProductVisible(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID) (bool, error) {
	if viewerOrgID == ownerOrgID {
		return true, nil
	}

	granted, err := s.IsGranted(ctx, viewerOrgID, ownerOrgID, relationship.PermViewProducts)
	if err != nil {
		return false, err
	}
	if !granted {
		return false, nil
	}

	record, err := s.visRepo.GetProductVisibility(ctx, ownerOrgID, productID)
	if err != nil {
		return false, err
	}
	if record == nil {
		// Default-visible once the category gate passes.
		return true, nil
	}
	return record.AllowsViewer(viewerOrgID), nil
}

// ── Price resolution ──────────────────────────────────────────────────────────

func (s *service) ResolvePrice(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID, quantity int, asOf time.Time) (PriceDecision, error) {
	if viewerOrgID == ownerOrgID {
		return PriceDecision{Visible: true, Source: SourceCatalog}, nil
	}

	granted, err := s.IsGranted(ctx, viewerOrgID, ownerOrgID, relationship.PermViewPrices)
	if err != nil {
		return PriceDecision{}, err
	}
	if !granted {
		// Not even the public catalog price may be shown: partner-specific
		// pricing stays confidential.
		return PriceDecision{Visible: false, Source: SourceHidden}, nil
	}

	record, err := s.visRepo.GetPriceVisibility(ctx, ownerOrgID, productID)
	if err != nil {
		return PriceDecision{}, err
	}
	if record == nil {
		return PriceDecision{Visible: true, Source: SourceCatalog}, nil
	}

	tier := record.ScheduleFor(viewerOrgID, quantity, asOf)
	if tier == nil {
		// Expired, not yet effective, or quantity below every breakpoint:
		// fall back to catalog, never serve a stale override.
		return PriceDecision{Visible: true, Source: SourceCatalog}, nil
	}
	return PriceDecision{
		Visible: true,
		Price:   &Money{Amount: tier.Price, Currency: tier.Currency},
		Source:  SourceCustom,
	}, nil
}

func (s *service) CheckProductAccess(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID, quantity int, asOf time.Time) (*ProductAccess, error) {
	visible, err := s.IsProductVisible(ctx, viewerOrgID, ownerOrgID, productID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return &ProductAccess{ProductVisible: false, Price: PriceDecision{Visible: false, Source: SourceHidden}}, nil
	}
	price, err := s.ResolvePrice(ctx, viewerOrgID, ownerOrgID, productID, quantity, asOf)
	if err != nil {
		return nil, err
	}
	return &ProductAccess{ProductVisible: true, Price: price}, nil
}

// ── Cached lookups ────────────────────────────────────────────────────────────

func (s *service) activeRelationship(ctx context.Context, a, b uuid.UUID) (*relationship.BusinessRelationship, error) {
	if rel, found := s.cache.GetRelationship(ctx, a, b); found {
		return rel, nil
	}
	rel, err := s.relRepo.FindBetween(ctx, a, b, relationship.StatusActive)
	if err != nil {
		return nil, err
	}
	s.cache.SetRelationship(ctx, a, b, rel)
	return rel, nil
}

func (s *service) ownerSettings(ctx context.Context, orgID uuid.UUID) (*organization.VisibilitySettings, error) {
	if settings, found := s.cache.GetSettings(ctx, orgID); found {
		return settings, nil
	}
	settings, err := s.orgRepo.GetSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}
	s.cache.SetSettings(ctx, orgID, settings)
	return settings, nil
}
