package repository

import (
	"context"
	"encoding/json"

	"scamfeed/internal/domain"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil || log.Details == nil {
		detailsJSON = []byte("{}")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_logs (user_id, action, category, details, ip, user_agent)
		VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5, $6)
	`, log.UserID, log.Action, log.Category, detailsJSON, log.IP, log.UserAgent)
	return err
}
