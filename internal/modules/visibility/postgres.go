package visibility

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// ── Product visibility ────────────────────────────────────────────────────────

const productVisColumns = `organization_id, product_id, is_public, visible_to_ids, hidden_from_ids, created_at, updated_at`

func (r *postgresRepo) GetProductVisibility(ctx context.Context, orgID, productID uuid.UUID) (*ProductVisibility, error) {
	pv, err := r.scanProductVis(r.db.QueryRowContext(ctx, `
		SELECT `+productVisColumns+`
		FROM product_visibility
		WHERE organization_id=$1 AND product_id=$2`, orgID, productID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return pv, err
}

func (r *postgresRepo) ListProductVisibility(ctx context.Context, orgID uuid.UUID) ([]*ProductVisibility, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productVisColumns+`
		FROM product_visibility
		WHERE organization_id=$1
		ORDER BY product_id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*ProductVisibility
	for rows.Next() {
		pv, err := r.scanProductVis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, pv)
	}
	return records, rows.Err()
}

func (r *postgresRepo) UpsertProductVisibilityBatch(ctx context.Context, records []*ProductVisibility) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, pv := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO product_visibility
			  (organization_id, product_id, is_public, visible_to_ids, hidden_from_ids)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (organization_id, product_id) DO UPDATE SET
			  is_public=EXCLUDED.is_public,
			  visible_to_ids=EXCLUDED.visible_to_ids,
			  hidden_from_ids=EXCLUDED.hidden_from_ids,
			  updated_at=$6`,
			pv.OrganizationID, pv.ProductID, pv.IsPublic,
			uuidArray(pv.VisibleToIDs), uuidArray(pv.HiddenFromIDs), now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ── Price visibility ──────────────────────────────────────────────────────────

const priceVisColumns = `organization_id, product_id, is_public, custom_pricing, created_at, updated_at`

func (r *postgresRepo) GetPriceVisibility(ctx context.Context, orgID, productID uuid.UUID) (*PriceVisibility, error) {
	pv, err := r.scanPriceVis(r.db.QueryRowContext(ctx, `
		SELECT `+priceVisColumns+`
		FROM price_visibility
		WHERE organization_id=$1 AND product_id=$2`, orgID, productID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return pv, err
}

func (r *postgresRepo) ListPriceVisibility(ctx context.Context, orgID uuid.UUID) ([]*PriceVisibility, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+priceVisColumns+`
		FROM price_visibility
		WHERE organization_id=$1
		ORDER BY product_id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*PriceVisibility
	for rows.Next() {
		pv, err := r.scanPriceVis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, pv)
	}
	return records, rows.Err()
}

func (r *postgresRepo) UpsertPriceVisibilityBatch(ctx context.Context, records []*PriceVisibility) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, pv := range records {
		pricingJSON, err := json.Marshal(pv.CustomPricing)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO price_visibility
			  (organization_id, product_id, is_public, custom_pricing)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (organization_id, product_id) DO UPDATE SET
			  is_public=EXCLUDED.is_public,
			  custom_pricing=EXCLUDED.custom_pricing,
			  updated_at=$5`,
			pv.OrganizationID, pv.ProductID, pv.IsPublic, pricingJSON, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ── Scanners ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanProductVis(row rowScanner) (*ProductVisibility, error) {
	pv := &ProductVisibility{}
	var visibleTo, hiddenFrom pq.StringArray
	err := row.Scan(&pv.OrganizationID, &pv.ProductID, &pv.IsPublic,
		&visibleTo, &hiddenFrom, &pv.CreatedAt, &pv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	pv.VisibleToIDs = parseUUIDs(visibleTo)
	pv.HiddenFromIDs = parseUUIDs(hiddenFrom)
	return pv, nil
}

func (r *postgresRepo) scanPriceVis(row rowScanner) (*PriceVisibility, error) {
	pv := &PriceVisibility{}
	var pricingJSON []byte
	err := row.Scan(&pv.OrganizationID, &pv.ProductID, &pv.IsPublic,
		&pricingJSON, &pv.CreatedAt, &pv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(pricingJSON) > 0 {
		if err := json.Unmarshal(pricingJSON, &pv.CustomPricing); err != nil {
			return nil, err
		}
	}
	return pv, nil
}

func uuidArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw pq.StringArray) []uuid.UUID {
	var ids []uuid.UUID
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
