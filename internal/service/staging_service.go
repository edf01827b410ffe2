package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/events"
	"github.com/spec-kit/contractor-portal/internal/observability"
	"github.com/spec-kit/contractor-portal/internal/repository"
)

// StagingService resolves staged contractor submissions by merging selected
// fields into the canonical contractor or discarding them.
type StagingService struct {
	store      repository.Store
	audit      *AuditService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewStagingService reuses the approval dependency bundle.
func NewStagingService(deps ApprovalDependencies) *StagingService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &StagingService{
		store:      deps.Store,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        clock,
	}
}

type stagingOutcome struct {
	record   *domain.StagingRecord
	changed  []domain.MergeField
	promoted int64
}

// Merge copies the selected whitelisted fields from the staged profile onto
// the contractor and marks the record MERGED. The license number is never
// mergeable. An empty selection resolves the record without touching the
// contractor.
func (s *StagingService) Merge(ctx context.Context, stagingID, adminID string, fields domain.FieldSet) (Result, error) {
	if res, ok := requireIDs(stagingID, adminID, "staging record not found"); !ok {
		return res, nil
	}

	var out stagingOutcome
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		rec, err := s.lockPending(ctx, repos, stagingID)
		if err != nil {
			return err
		}
		contractor, err := repos.Contractors.GetForUpdate(ctx, rec.ContractorID)
		if err != nil {
			return fmt.Errorf("load contractor %s: %w", rec.ContractorID, err)
		}

		now := s.now()
		out.changed = contractor.ApplyFields(rec.Proposed, fields)
		if len(out.changed) > 0 {
			contractor.MarkMerged(adminID, now)
			if err := repos.Contractors.UpdateProfile(ctx, contractor); err != nil {
				return fmt.Errorf("update contractor profile: %w", err)
			}
		}

		if err := s.resolve(ctx, repos, rec, domain.StagingMerged, adminID, now); err != nil {
			return err
		}

		if contractor.Status == domain.StatusActive {
			if out.promoted, err = promoteContractorUsers(ctx, repos, contractor.ID); err != nil {
				return err
			}
		}
		out.record = rec
		return nil
	})
	if err != nil {
		return s.failed(err, "merge", stagingID)
	}

	names := domain.FieldNames(out.changed)
	s.metrics.RecordDecision(domain.SubjectStaging, "merge", "ok")
	s.metrics.RecordPromoted(out.promoted)
	s.audit.Record(ctx, adminID, domain.AuditStagingMerged, domain.SubjectContractor, out.record.ContractorID, map[string]any{
		"staging_id":     stagingID,
		"contractor_id":  out.record.ContractorID,
		"changed_fields": names,
		"promoted_users": out.promoted,
	})
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventStagingMerged,
		SubjectID: stagingID,
		ActorID:   &adminID,
		Payload: events.StagingResolvedPayload{
			ContractorID:  out.record.ContractorID,
			ChangedFields: names,
		},
	})

	if len(names) == 0 {
		return Succeeded("Staging record merged; no fields changed"), nil
	}
	return Succeeded(fmt.Sprintf("Staging record merged; %d field(s) updated", len(names))), nil
}

// Keep discards the staged profile, leaving the contractor untouched.
func (s *StagingService) Keep(ctx context.Context, stagingID, adminID string) (Result, error) {
	if res, ok := requireIDs(stagingID, adminID, "staging record not found"); !ok {
		return res, nil
	}

	var rec *domain.StagingRecord
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		r, err := s.lockPending(ctx, repos, stagingID)
		if err != nil {
			return err
		}
		if err := s.resolve(ctx, repos, r, domain.StagingKept, adminID, s.now()); err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return s.failed(err, "keep", stagingID)
	}

	s.metrics.RecordDecision(domain.SubjectStaging, "keep", "ok")
	s.audit.Record(ctx, adminID, domain.AuditStagingKept, domain.SubjectContractor, rec.ContractorID, map[string]any{
		"staging_id":     stagingID,
		"contractor_id":  rec.ContractorID,
		"changed_fields": []string{},
	})
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventStagingKept,
		SubjectID: stagingID,
		ActorID:   &adminID,
		Payload: events.StagingResolvedPayload{
			ContractorID:  rec.ContractorID,
			ChangedFields: []string{},
		},
	})
	return Succeeded("Existing contractor data kept"), nil
}

// lockPending loads the record with a row lock and refuses anything already
// resolved before a single write happens.
func (s *StagingService) lockPending(ctx context.Context, repos repository.Repositories, stagingID string) (*domain.StagingRecord, error) {
	rec, err := repos.Staging.GetForUpdate(ctx, stagingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domainErr(KindNotFound, "staging record not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lock staging record: %w", err)
	}
	if !rec.Pending() {
		return nil, domainErr(KindAlreadyResolved, "staging record already %s", rec.Status)
	}
	return rec, nil
}

func (s *StagingService) resolve(ctx context.Context, repos repository.Repositories, rec *domain.StagingRecord, status domain.StagingStatus, adminID string, at time.Time) error {
	if err := rec.Resolve(status, adminID, at); err != nil {
		return domainErr(KindAlreadyResolved, "%s", err.Error())
	}
	err := repos.Staging.Resolve(ctx, rec)
	if errors.Is(err, repository.ErrStaleStaging) {
		return domainErr(KindAlreadyResolved, "staging record already resolved")
	}
	if err != nil {
		return fmt.Errorf("resolve staging record: %w", err)
	}
	return nil
}

func (s *StagingService) failed(err error, op, stagingID string) (Result, error) {
	var de *DomainError
	if errors.As(err, &de) {
		s.metrics.RecordDecision(domain.SubjectStaging, op, string(de.Result.Kind))
		return de.Result, nil
	}
	s.metrics.RecordDecision(domain.SubjectStaging, op, "error")
	s.logger.Error("staging resolution failed",
		zap.String("operation", op),
		zap.String("staging_id", stagingID),
		zap.Error(err))
	return infraFailure("Could not resolve staging record"), fmt.Errorf("%s staging %s: %w", op, stagingID, err)
}
