package invitation

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const invColumns = `id, sender_org_id, recipient_email, status, token_hash, expires_at, resolved_at, resolved_by_org_id, created_at`

func (r *postgresRepo) Create(ctx context.Context, inv *Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations
		  (id, sender_org_id, recipient_email, status, token_hash, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		inv.ID, inv.SenderOrgID, inv.RecipientEmail, inv.Status, inv.TokenHash, inv.ExpiresAt)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error) {
	return r.scanInv(r.db.QueryRowContext(ctx, `
		SELECT `+invColumns+` FROM invitations WHERE id=$1`, id))
}

func (r *postgresRepo) ListBySender(ctx context.Context, senderOrgID uuid.UUID) ([]*Invitation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invColumns+`
		FROM invitations
		WHERE sender_org_id=$1
		ORDER BY created_at DESC`, senderOrgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invs []*Invitation
	for rows.Next() {
		inv, err := r.scanInv(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (r *postgresRepo) MarkResolved(ctx context.Context, id uuid.UUID, status Status, resolvedByOrgID *uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status=$1, resolved_at=$2, resolved_by_org_id=$3 WHERE id=$4`,
		status, time.Now(), resolvedByOrgID, id)
	return err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanInv(row rowScanner) (*Invitation, error) {
	inv := &Invitation{}
	var resolvedAt sql.NullTime
	var resolvedBy sql.NullString
	err := row.Scan(&inv.ID, &inv.SenderOrgID, &inv.RecipientEmail, &inv.Status,
		&inv.TokenHash, &inv.ExpiresAt, &resolvedAt, &resolvedBy, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		inv.ResolvedAt = &resolvedAt.Time
	}
	if resolvedBy.Valid {
		if id, err := uuid.Parse(resolvedBy.String); err == nil {
			inv.ResolvedByOrgID = &id
		}
	}
	return inv, nil
}
