package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/repository"
)

// AuditService records audit events best-effort. It never returns an error;
// failures are logged and dropped.
type AuditService struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditService builds the service.
func NewAuditService(repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record appends an event. actorID may be empty for anonymous actions.
func (s *AuditService) Record(ctx context.Context, actorID string, action domain.AuditAction, subjectType, subjectID string, metadata map[string]any) {
	if s == nil || s.repo == nil {
		return
	}
	event := &domain.AuditEvent{
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Metadata:    metadata,
	}
	if actorID != "" {
		event.ActorID = &actorID
	}
	if err := s.repo.Insert(ctx, event); err != nil {
		s.logger.Warn("audit record failed",
			zap.String("action", string(action)),
			zap.String("subject_type", subjectType),
			zap.String("subject_id", subjectID),
			zap.Error(err))
	}
}
