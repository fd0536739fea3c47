package relationship

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tradeweave/tradeweave-backend/internal/apperr"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const relColumns = `id, requester_id, target_id, status, rel_type, created_at, last_interaction_at`

// ── Relationship ──────────────────────────────────────────────────────────────

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*BusinessRelationship, error) {
	return r.scanRel(r.db.QueryRowContext(ctx, `
		SELECT `+relColumns+` FROM business_relationships WHERE id=$1`, id))
}

func (r *postgresRepo) FindBetween(ctx context.Context, a, b uuid.UUID, statuses ...Status) (*BusinessRelationship, error) {
	ss := make([]string, len(statuses))
	for i, s := range statuses {
		ss[i] = string(s)
	}
	rel, err := r.scanRel(r.db.QueryRowContext(ctx, `
		SELECT `+relColumns+`
		FROM business_relationships
		WHERE ((requester_id=$1 AND target_id=$2) OR (requester_id=$2 AND target_id=$1))
		  AND status = ANY($3)
		ORDER BY created_at DESC
		LIMIT 1`, a, b, pq.Array(ss)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rel, err
}

func (r *postgresRepo) ListForOrganization(ctx context.Context, orgID uuid.UUID) ([]*BusinessRelationship, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+relColumns+`
		FROM business_relationships
		WHERE requester_id=$1 OR target_id=$1
		ORDER BY last_interaction_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rels []*BusinessRelationship
	for rows.Next() {
		rel, err := r.scanRel(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

func (r *postgresRepo) CreateWithSeed(ctx context.Context, rel *BusinessRelationship, perms []*RelationshipPermission, interaction *RelationshipInteraction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO business_relationships
		  (id, requester_id, target_id, status, rel_type, created_at, last_interaction_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rel.ID, rel.RequesterID, rel.TargetID, rel.Status, rel.Type,
		rel.CreatedAt, rel.LastInteractionAt)
	if err != nil {
		return mapUniquePairViolation(err)
	}
	for _, p := range perms {
		if err := insertPermission(ctx, tx, p); err != nil {
			return err
		}
	}
	if err := insertInteraction(ctx, tx, interaction); err != nil {
		return err
	}
	return mapUniquePairViolation(tx.Commit())
}

// mapUniquePairViolation converts the live-pair unique index violation into a
// conflict error. The pre-insert existence check and the insert are separate
// statements, so a concurrent accept for the same pair can lose the race and
// only the index catches it.
func mapUniquePairViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: a live relationship already exists between these organizations", apperr.ErrConflict)
	}
	return err
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, interaction *RelationshipInteraction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE business_relationships SET status=$1, last_interaction_at=$2 WHERE id=$3`,
		status, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := insertInteraction(ctx, tx, interaction); err != nil {
		return err
	}
	return tx.Commit()
}

// ── Permissions ───────────────────────────────────────────────────────────────

const permColumns = `id, relationship_id, permission_type, is_granted, scope, scope_ids, created_at, updated_at`

func (r *postgresRepo) GetPermissions(ctx context.Context, relationshipID uuid.UUID) ([]*RelationshipPermission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+permColumns+`
		FROM relationship_permissions
		WHERE relationship_id=$1
		ORDER BY permission_type`, relationshipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []*RelationshipPermission
	for rows.Next() {
		p, err := r.scanPerm(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *postgresRepo) GetPermissionByType(ctx context.Context, relationshipID uuid.UUID, permType PermissionType) (*RelationshipPermission, error) {
	p, err := r.scanPerm(r.db.QueryRowContext(ctx, `
		SELECT `+permColumns+`
		FROM relationship_permissions
		WHERE relationship_id=$1 AND permission_type=$2`, relationshipID, permType))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *postgresRepo) ReplacePermissions(ctx context.Context, relationshipID uuid.UUID, perms []*RelationshipPermission, interaction *RelationshipInteraction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM relationship_permissions WHERE relationship_id=$1`, relationshipID); err != nil {
		return err
	}
	for _, p := range perms {
		if err := insertPermission(ctx, tx, p); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE business_relationships SET last_interaction_at=$1 WHERE id=$2`,
		time.Now(), relationshipID); err != nil {
		return err
	}
	if err := insertInteraction(ctx, tx, interaction); err != nil {
		return err
	}
	return tx.Commit()
}

// ── Interactions ──────────────────────────────────────────────────────────────

func (r *postgresRepo) ListInteractions(ctx context.Context, relationshipID uuid.UUID) ([]*RelationshipInteraction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, relationship_id, interaction_type, initiator_org_id, metadata, created_at
		FROM relationship_interactions
		WHERE relationship_id=$1
		ORDER BY created_at DESC`, relationshipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*RelationshipInteraction
	for rows.Next() {
		it := &RelationshipInteraction{}
		var metadataJSON []byte
		if err := rows.Scan(&it.ID, &it.RelationshipID, &it.Type, &it.InitiatorOrgID,
			&metadataJSON, &it.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadataJSON) > 0 {
			_ = json.Unmarshal(metadataJSON, &it.Metadata)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertPermission(ctx context.Context, tx execer, p *RelationshipPermission) error {
	ids := make([]string, len(p.ScopeIDs))
	for i, id := range p.ScopeIDs {
		ids[i] = id.String()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO relationship_permissions
		  (id, relationship_id, permission_type, is_granted, scope, scope_ids)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.RelationshipID, p.PermissionType, p.IsGranted, p.Scope, pq.Array(ids))
	return err
}

func insertInteraction(ctx context.Context, tx execer, it *RelationshipInteraction) error {
	if it == nil {
		return nil
	}
	metadataJSON, err := json.Marshal(it.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO relationship_interactions
		  (id, relationship_id, interaction_type, initiator_org_id, metadata)
		VALUES ($1,$2,$3,$4,$5)`,
		it.ID, it.RelationshipID, it.Type, it.InitiatorOrgID, metadataJSON)
	return err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanRel(row rowScanner) (*BusinessRelationship, error) {
	rel := &BusinessRelationship{}
	err := row.Scan(&rel.ID, &rel.RequesterID, &rel.TargetID, &rel.Status, &rel.Type,
		&rel.CreatedAt, &rel.LastInteractionAt)
	if err != nil {
		return nil, err
	}
	return rel, nil
}

func (r *postgresRepo) scanPerm(row rowScanner) (*RelationshipPermission, error) {
	p := &RelationshipPermission{}
	var ids pq.StringArray
	err := row.Scan(&p.ID, &p.RelationshipID, &p.PermissionType, &p.IsGranted,
		&p.Scope, &ids, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		p.ScopeIDs = append(p.ScopeIDs, id)
	}
	return p, nil
}
