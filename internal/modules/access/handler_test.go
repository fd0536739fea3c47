package access_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tradeweave/tradeweave-backend/internal/modules/access"
	"github.com/tradeweave/tradeweave-backend/internal/modules/auth"
)

// mockAccessService implements access.Service for handler tests.
type mockAccessService struct {
	access.Service
	checkFunc func(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID, quantity int, asOf time.Time) (*access.ProductAccess, error)
}

func (m *mockAccessService) CheckProductAccess(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID, quantity int, asOf time.Time) (*access.ProductAccess, error) {
	return m.checkFunc(ctx, viewerOrgID, ownerOrgID, productID, quantity, asOf)
}

func accessRouter(svc access.Service) *chi.Mux {
	r := chi.NewMux()
	access.NewHandler(svc).RegisterRoutes(r)
	return r
}

func TestCheckProductAccessHandler(t *testing.T) {
	viewer, owner, product := uuid.New(), uuid.New(), uuid.New()
	asOf := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	router := accessRouter(&mockAccessService{
		checkFunc: func(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID, quantity int, gotAsOf time.Time) (*access.ProductAccess, error) {
			require.Equal(t, viewer, viewerOrgID)
			require.Equal(t, owner, ownerOrgID)
			require.Equal(t, product, productID)
			require.Equal(t, 25, quantity)
			require.True(t, asOf.Equal(gotAsOf))
			return &access.ProductAccess{
				ProductVisible: true,
				Price: access.PriceDecision{
					Visible: true,
					Price:   &access.Money{Amount: 900, Currency: "USD"},
					Source:  access.SourceCustom,
				},
			}, nil
		},
	})

	target := "/api/v1/organizations/" + owner.String() + "/products/" + product.String() +
		"/access?quantity=25&as_of=" + asOf.Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(auth.WithCaller(req.Context(), "user-1", viewer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result access.ProductAccess
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.ProductVisible)
	require.Equal(t, 900.0, result.Price.Price.Amount)
	require.Equal(t, access.SourceCustom, result.Price.Source)
}

func TestCheckProductAccessHandlerValidation(t *testing.T) {
	viewer, owner, product := uuid.New(), uuid.New(), uuid.New()
	router := accessRouter(&mockAccessService{
		checkFunc: func(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID, quantity int, asOf time.Time) (*access.ProductAccess, error) {
			t.Fatal("service must not be reached with invalid query parameters")
			return nil, nil
		},
	})

	base := "/api/v1/organizations/" + owner.String() + "/products/" + product.String() + "/access"
	for _, target := range []string{
		base + "?quantity=0",
		base + "?quantity=-3",
		base + "?quantity=lots",
		base + "?as_of=yesterday",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req = req.WithContext(auth.WithCaller(req.Context(), "user-1", viewer))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestCheckProductAccessHandlerUnauthenticated(t *testing.T) {
	owner, product := uuid.New(), uuid.New()
	router := accessRouter(&mockAccessService{
		checkFunc: func(ctx context.Context, viewerOrgID, ownerOrgID, productID uuid.UUID, quantity int, asOf time.Time) (*access.ProductAccess, error) {
			t.Fatal("service must not be reached without caller identity")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/organizations/"+owner.String()+"/products/"+product.String()+"/access", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
