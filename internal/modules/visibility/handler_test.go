package visibility

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tradeweave/tradeweave-backend/internal/modules/auth"
	"github.com/tradeweave/tradeweave-backend/internal/testutils"
)

func TestDecodeSingleOrArray(t *testing.T) {
	var items []ProductVisibilityInput

	err := decodeSingleOrArray(strings.NewReader(`{"product_id":"p1","is_public":true}`), &items)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "p1", items[0].ProductID)

	items = nil
	err = decodeSingleOrArray(strings.NewReader(`  [{"product_id":"p1"},{"product_id":"p2"}]`), &items)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "p2", items[1].ProductID)

	err = decodeSingleOrArray(strings.NewReader(`not json`), &items)
	require.Error(t, err)
}

// stubService implements Service with overridable upserts.
type stubService struct {
	Service
	upsertProduct func(ctx context.Context, ownerOrgID uuid.UUID, items []ProductVisibilityInput) ([]*ProductVisibility, error)
}

func (s *stubService) UpsertProductVisibility(ctx context.Context, ownerOrgID uuid.UUID, items []ProductVisibilityInput) ([]*ProductVisibility, error) {
	return s.upsertProduct(ctx, ownerOrgID, items)
}

func TestPostProductVisibilityAcceptsSingleObject(t *testing.T) {
	owner := uuid.New()
	productID := uuid.New()
	h := NewHandler(&stubService{
		upsertProduct: func(ctx context.Context, ownerOrgID uuid.UUID, items []ProductVisibilityInput) ([]*ProductVisibility, error) {
			require.Equal(t, owner, ownerOrgID)
			require.Len(t, items, 1)
			return []*ProductVisibility{{OrganizationID: ownerOrgID, ProductID: productID, IsPublic: true}}, nil
		},
	})

	body, _ := json.Marshal(ProductVisibilityInput{ProductID: productID.String(), IsPublic: true})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/organizations/"+owner.String()+"/products/visibility", bytes.NewReader(body))
	req = testutils.WithChiURLParams(req, map[string]string{"id": owner.String()})
	req = req.WithContext(auth.WithCaller(req.Context(), "user-1", owner))

	rec := httptest.NewRecorder()
	h.postProductVisibility(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var records []ProductVisibility
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	require.Equal(t, productID, records[0].ProductID)
}

func TestPostProductVisibilityForeignOrgForbidden(t *testing.T) {
	owner := uuid.New()
	h := NewHandler(&stubService{
		upsertProduct: func(ctx context.Context, ownerOrgID uuid.UUID, items []ProductVisibilityInput) ([]*ProductVisibility, error) {
			t.Fatal("service must not be reached for a foreign organization")
			return nil, nil
		},
	})

	body, _ := json.Marshal(ProductVisibilityInput{ProductID: uuid.New().String(), IsPublic: true})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/organizations/"+owner.String()+"/products/visibility", bytes.NewReader(body))
	req = testutils.WithChiURLParams(req, map[string]string{"id": owner.String()})
	req = req.WithContext(auth.WithCaller(req.Context(), "user-1", uuid.New()))

	rec := httptest.NewRecorder()
	h.postProductVisibility(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}
