package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spec-kit/contractor-portal/internal/domain"
)

// AuditRepository appends audit events. It is used outside business
// transactions so a failed insert never rolls back the audited change.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}

type auditRepository struct {
	db DBTX
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db DBTX) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	const query = `
        INSERT INTO audit_logs (actor_user_id, action, entity_type, entity_id, data_json)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id::text, created_at`

	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	return translate(r.db.QueryRow(ctx, query,
		event.ActorID,
		event.Action,
		event.SubjectType,
		event.SubjectID,
		payload,
	).Scan(&event.ID, &event.CreatedAt))
}
