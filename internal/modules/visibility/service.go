package visibility

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("module", "visibility").Logger()

// Service defines visibility record business logic. Both upserts are
// all-or-nothing: every item is validated first, and any failure rejects the
// whole batch before a single write happens.
type Service interface {
	UpsertProductVisibility(ctx context.Context, ownerOrgID uuid.UUID, items []ProductVisibilityInput) ([]*ProductVisibility, error)
	UpsertPriceVisibility(ctx context.Context, ownerOrgID uuid.UUID, items []PriceVisibilityInput) ([]*PriceVisibility, error)

	GetProductVisibility(ctx context.Context, ownerOrgID, productID uuid.UUID) (*ProductVisibility, error)
	GetPriceVisibility(ctx context.Context, ownerOrgID, productID uuid.UUID) (*PriceVisibility, error)
	ListProductVisibility(ctx context.Context, ownerOrgID uuid.UUID) ([]*ProductVisibility, error)
	ListPriceVisibility(ctx context.Context, ownerOrgID uuid.UUID) ([]*PriceVisibility, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

// ── Product visibility ────────────────────────────────────────────────────────

func (s *service) UpsertProductVisibility(ctx context.Context, ownerOrgID uuid.UUID, items []ProductVisibilityInput) ([]*ProductVisibility, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", apperr.ErrValidation)
	}

	var problems []string
	records := make([]*ProductVisibility, 0, len(items))
	for i, in := range items {
		productID, err := uuid.Parse(in.ProductID)
		if err != nil {
			problems = append(problems, fmt.Sprintf("item %d: invalid product_id %q", i, in.ProductID))
			continue
		}
		visibleTo, err := parseIDList(in.VisibleToIDs)
		if err != nil {
			problems = append(problems, fmt.Sprintf("item %d: %v", i, err))
		}
		hiddenFrom, err := parseIDList(in.HiddenFromIDs)
		if err != nil {
			problems = append(problems, fmt.Sprintf("item %d: %v", i, err))
		}
		records = append(records, &ProductVisibility{
			OrganizationID: ownerOrgID,
			ProductID:      productID,
			IsPublic:       in.IsPublic,
			VisibleToIDs:   visibleTo,
			HiddenFromIDs:  hiddenFrom,
		})
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, strings.Join(problems, "; "))
	}

	if err := s.repo.UpsertProductVisibilityBatch(ctx, records); err != nil {
		return nil, err
	}
	logger.Info().Str("organization_id", ownerOrgID.String()).Int("items", len(records)).
		Msg("product visibility upserted")
	return records, nil
}

// ── Price visibility ──────────────────────────────────────────────────────────

func (s *service) UpsertPriceVisibility(ctx context.Context, ownerOrgID uuid.UUID, items []PriceVisibilityInput) ([]*PriceVisibility, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", apperr.ErrValidation)
	}

	var problems []string
	records := make([]*PriceVisibility, 0, len(items))
	for i, in := range items {
		productID, err := uuid.Parse(in.ProductID)
		if err != nil {
			problems = append(problems, fmt.Sprintf("item %d: invalid product_id %q", i, in.ProductID))
			continue
		}
		pricing := make(map[string][]PriceSchedule, len(in.CustomPricing))
		for viewer, tiers := range in.CustomPricing {
			if _, err := uuid.Parse(viewer); err != nil {
				problems = append(problems, fmt.Sprintf("item %d: invalid viewer org id %q", i, viewer))
				continue
			}
			entries := make([]PriceSchedule, 0, len(tiers))
			for j, tier := range tiers {
				if tier.Price < 0 {
					problems = append(problems, fmt.Sprintf("item %d: viewer %s tier %d: negative price", i, viewer, j))
				}
				if strings.TrimSpace(tier.Currency) == "" {
					problems = append(problems, fmt.Sprintf("item %d: viewer %s tier %d: currency is required", i, viewer, j))
				}
				if tier.MinimumQuantity < 0 {
					problems = append(problems, fmt.Sprintf("item %d: viewer %s tier %d: negative minimum_quantity", i, viewer, j))
				}
				if tier.EffectiveFrom != nil && tier.EffectiveTo != nil && tier.EffectiveTo.Before(*tier.EffectiveFrom) {
					problems = append(problems, fmt.Sprintf("item %d: viewer %s tier %d: effective_to precedes effective_from", i, viewer, j))
				}
				entries = append(entries, PriceSchedule{
					Price:           tier.Price,
					Currency:        tier.Currency,
					EffectiveFrom:   tier.EffectiveFrom,
					EffectiveTo:     tier.EffectiveTo,
					MinimumQuantity: tier.MinimumQuantity,
				})
			}
			// Tiers are stored ordered by quantity breakpoint.
			sort.SliceStable(entries, func(a, b int) bool {
				return entries[a].MinimumQuantity < entries[b].MinimumQuantity
			})
			pricing[viewer] = entries
		}
		records = append(records, &PriceVisibility{
			OrganizationID: ownerOrgID,
			ProductID:      productID,
			IsPublic:       in.IsPublic,
			CustomPricing:  pricing,
		})
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, strings.Join(problems, "; "))
	}

	if err := s.repo.UpsertPriceVisibilityBatch(ctx, records); err != nil {
		return nil, err
	}
	logger.Info().Str("organization_id", ownerOrgID.String()).Int("items", len(records)).
		Msg("price visibility upserted")
	return records, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *service) GetProductVisibility(ctx context.Context, ownerOrgID, productID uuid.UUID) (*ProductVisibility, error) {
	pv, err := s.repo.GetProductVisibility(ctx, ownerOrgID, productID)
	if err != nil {
		return nil, err
	}
	if pv == nil {
		return nil, fmt.Errorf("%w: no product visibility record for product %s", apperr.ErrNotFound, productID)
	}
	return pv, nil
}

func (s *service) GetPriceVisibility(ctx context.Context, ownerOrgID, productID uuid.UUID) (*PriceVisibility, error) {
	pv, err := s.repo.GetPriceVisibility(ctx, ownerOrgID, productID)
	if err != nil {
		return nil, err
	}
	if pv == nil {
		return nil, fmt.Errorf("%w: no price visibility record for product %s", apperr.ErrNotFound, productID)
	}
	return pv, nil
}

func (s *service) ListProductVisibility(ctx context.Context, ownerOrgID uuid.UUID) ([]*ProductVisibility, error) {
	return s.repo.ListProductVisibility(ctx, ownerOrgID)
}

func (s *service) ListPriceVisibility(ctx context.Context, ownerOrgID uuid.UUID) ([]*PriceVisibility, error) {
	return s.repo.ListPriceVisibility(ctx, ownerOrgID)
}

func parseIDList(raw []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid organization id %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
