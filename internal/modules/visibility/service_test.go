package visibility_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
	"github.com/tradeweave/tradeweave-backend/internal/modules/visibility"
)

// MockRepo implements visibility.Repository and records batch writes.
type MockRepo struct {
	ProductBatches [][]*visibility.ProductVisibility
	PriceBatches   [][]*visibility.PriceVisibility

	GetProductVisibilityFunc func(ctx context.Context, orgID, productID uuid.UUID) (*visibility.ProductVisibility, error)
	GetPriceVisibilityFunc   func(ctx context.Context, orgID, productID uuid.UUID) (*visibility.PriceVisibility, error)
}

func (m *MockRepo) GetProductVisibility(ctx context.Context, orgID, productID uuid.UUID) (*visibility.ProductVisibility, error) {
	if m.GetProductVisibilityFunc != nil {
		return m.GetProductVisibilityFunc(ctx, orgID, productID)
	}
	return nil, nil
}
func (m *MockRepo) GetPriceVisibility(ctx context.Context, orgID, productID uuid.UUID) (*visibility.PriceVisibility, error) {
	if m.GetPriceVisibilityFunc != nil {
		return m.GetPriceVisibilityFunc(ctx, orgID, productID)
	}
	return nil, nil
}
func (m *MockRepo) ListProductVisibility(ctx context.Context, orgID uuid.UUID) ([]*visibility.ProductVisibility, error) {
	return nil, nil
}
func (m *MockRepo) ListPriceVisibility(ctx context.Context, orgID uuid.UUID) ([]*visibility.PriceVisibility, error) {
	return nil, nil
}
func (m *MockRepo) UpsertProductVisibilityBatch(ctx context.Context, records []*visibility.ProductVisibility) error {
	m.ProductBatches = append(m.ProductBatches, records)
	return nil
}
func (m *MockRepo) UpsertPriceVisibilityBatch(ctx context.Context, records []*visibility.PriceVisibility) error {
	m.PriceBatches = append(m.PriceBatches, records)
	return nil
}

func TestUpsertProductVisibilityEmptyBatch(t *testing.T) {
	svc := visibility.NewService(&MockRepo{})

	_, err := svc.UpsertProductVisibility(context.Background(), uuid.New(), nil)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpsertProductVisibilityRejectsWholeBatchOnAnyBadItem(t *testing.T) {
	repo := &MockRepo{}
	svc := visibility.NewService(repo)

	_, err := svc.UpsertProductVisibility(context.Background(), uuid.New(), []visibility.ProductVisibilityInput{
		{ProductID: uuid.New().String(), IsPublic: true},
		{ProductID: "nope", IsPublic: true},
		{ProductID: uuid.New().String(), IsPublic: false, VisibleToIDs: []string{"also-nope"}},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
	// Both bad items are reported together and nothing reaches storage.
	require.Contains(t, err.Error(), "item 1")
	require.Contains(t, err.Error(), "item 2")
	require.Empty(t, repo.ProductBatches)
}

func TestUpsertProductVisibilityWritesOneBatch(t *testing.T) {
	repo := &MockRepo{}
	svc := visibility.NewService(repo)
	owner := uuid.New()
	productA, productB, hidden := uuid.New(), uuid.New(), uuid.New()

	records, err := svc.UpsertProductVisibility(context.Background(), owner, []visibility.ProductVisibilityInput{
		{ProductID: productA.String(), IsPublic: true, HiddenFromIDs: []string{hidden.String()}},
		{ProductID: productB.String(), IsPublic: false},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, owner, records[0].OrganizationID)
	require.Equal(t, productA, records[0].ProductID)
	require.Equal(t, []uuid.UUID{hidden}, records[0].HiddenFromIDs)

	require.Len(t, repo.ProductBatches, 1)
	require.Equal(t, records, repo.ProductBatches[0])
}

func TestUpsertPriceVisibilityValidatesTiers(t *testing.T) {
	repo := &MockRepo{}
	svc := visibility.NewService(repo)
	viewer := uuid.New()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.UpsertPriceVisibility(context.Background(), uuid.New(), []visibility.PriceVisibilityInput{
		{
			ProductID: uuid.New().String(),
			CustomPricing: map[string][]visibility.PriceScheduleInput{
				viewer.String(): {
					{Price: -10, Currency: "USD"},
					{Price: 100, Currency: ""},
					{Price: 100, Currency: "USD", EffectiveFrom: &from, EffectiveTo: &to},
				},
				"not-an-org-id": {{Price: 100, Currency: "USD"}},
			},
		},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
	require.Contains(t, err.Error(), "negative price")
	require.Contains(t, err.Error(), "currency is required")
	require.Contains(t, err.Error(), "effective_to precedes effective_from")
	require.Contains(t, err.Error(), "invalid viewer org id")
	require.Empty(t, repo.PriceBatches)
}

func TestUpsertPriceVisibilitySortsTiersByBreakpoint(t *testing.T) {
	repo := &MockRepo{}
	svc := visibility.NewService(repo)
	owner, viewer := uuid.New(), uuid.New()

	records, err := svc.UpsertPriceVisibility(context.Background(), owner, []visibility.PriceVisibilityInput{
		{
			ProductID: uuid.New().String(),
			IsPublic:  false,
			CustomPricing: map[string][]visibility.PriceScheduleInput{
				viewer.String(): {
					{Price: 850, Currency: "USD", MinimumQuantity: 100},
					{Price: 950, Currency: "USD", MinimumQuantity: 5},
					{Price: 900, Currency: "USD", MinimumQuantity: 20},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	tiers := records[0].CustomPricing[viewer.String()]
	require.Len(t, tiers, 3)
	require.Equal(t, 5, tiers[0].MinimumQuantity)
	require.Equal(t, 20, tiers[1].MinimumQuantity)
	require.Equal(t, 100, tiers[2].MinimumQuantity)
}

func TestGetProductVisibilityNotFound(t *testing.T) {
	svc := visibility.NewService(&MockRepo{})

	_, err := svc.GetProductVisibility(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetPriceVisibilityNotFound(t *testing.T) {
	svc := visibility.NewService(&MockRepo{})

	_, err := svc.GetPriceVisibility(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
