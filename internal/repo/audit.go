package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/google/uuid"
)

// AuditRepo persists audit log entries in Postgres.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append records an audit entry. The timestamp and insertion sequence are
// assigned by the database.
func (r *AuditRepo) Append(ctx context.Context, action models.ActionType, entityID, entityName string) (models.AuditRecord, error) {
	if !action.Valid() {
		return models.AuditRecord{}, fmt.Errorf("audit append: unknown action %q", action)
	}
	rec := models.AuditRecord{
		ID:         uuid.NewString(),
		ActionType: action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO audit_log (id, action_type, product_id, product_name) VALUES ($1, $2, $3, $4) RETURNING seq, timestamp`,
		rec.ID, string(action), entityID, entityName,
	).Scan(&rec.Seq, &rec.Timestamp)
	if err != nil {
		return models.AuditRecord{}, apperr.Storage("append audit record", err)
	}
	return rec, nil
}

// List returns every audit entry, newest first.
func (r *AuditRepo) List(ctx context.Context) ([]models.AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, action_type, product_id, product_name, timestamp, seq FROM audit_log ORDER BY timestamp DESC, seq DESC`,
	)
	if err != nil {
		return nil, apperr.Storage("list audit records", err)
	}
	defer rows.Close()

	records := []models.AuditRecord{}
	for rows.Next() {
		var rec models.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.ActionType, &rec.EntityID, &rec.EntityName, &rec.Timestamp, &rec.Seq); err != nil {
			return nil, apperr.Storage("scan audit record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list audit records", err)
	}
	return records, nil
}
