package organization

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateOrganization(ctx context.Context, org *Organization) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, business_type)
		VALUES ($1,$2,$3)`,
		org.ID, org.Name, org.BusinessType)
	return err
}

func (r *postgresRepo) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	org := &Organization{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, business_type, created_at, updated_at
		FROM organizations WHERE id=$1`, id).
		Scan(&org.ID, &org.Name, &org.BusinessType, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (r *postgresRepo) GetSettings(ctx context.Context, orgID uuid.UUID) (*VisibilitySettings, error) {
	s := &VisibilitySettings{}
	var permsJSON []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT organization_id, discoverable, show_contact_info, show_products,
		       show_pricing, default_permissions, created_at, updated_at
		FROM visibility_settings WHERE organization_id=$1`, orgID).
		Scan(&s.OrganizationID, &s.Discoverable, &s.ShowContactInfo, &s.ShowProducts,
			&s.ShowPricing, &permsJSON, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(permsJSON) > 0 {
		if err := json.Unmarshal(permsJSON, &s.DefaultPermissions); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (r *postgresRepo) UpsertSettings(ctx context.Context, settings *VisibilitySettings) error {
	permsJSON, err := json.Marshal(settings.DefaultPermissions)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO visibility_settings
		  (organization_id, discoverable, show_contact_info, show_products,
		   show_pricing, default_permissions)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (organization_id) DO UPDATE SET
		  discoverable=EXCLUDED.discoverable,
		  show_contact_info=EXCLUDED.show_contact_info,
		  show_products=EXCLUDED.show_products,
		  show_pricing=EXCLUDED.show_pricing,
		  default_permissions=EXCLUDED.default_permissions,
		  updated_at=$7`,
		settings.OrganizationID, settings.Discoverable, settings.ShowContactInfo,
		settings.ShowProducts, settings.ShowPricing, permsJSON, time.Now())
	return err
}
