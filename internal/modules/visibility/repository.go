package visibility

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for product and price visibility records.
// Batch upserts run in a single transaction; Get methods return nil (no
// error) when no record exists, since absence carries meaning.
type Repository interface {
	GetProductVisibility(ctx context.Context, orgID, productID uuid.UUID) (*ProductVisibility, error)
	GetPriceVisibility(ctx context.Context, orgID, productID uuid.UUID) (*PriceVisibility, error)
	ListProductVisibility(ctx context.Context, orgID uuid.UUID) ([]*ProductVisibility, error)
	ListPriceVisibility(ctx context.Context, orgID uuid.UUID) ([]*PriceVisibility, error)

	UpsertProductVisibilityBatch(ctx context.Context, records []*ProductVisibility) error
	UpsertPriceVisibilityBatch(ctx context.Context, records []*PriceVisibility) error
}
