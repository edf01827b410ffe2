package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/events"
	"github.com/spec-kit/contractor-portal/internal/observability"
	"github.com/spec-kit/contractor-portal/internal/repository"
)

// ApprovalService drives the PENDING -> ACTIVE/REJECTED transitions of users
// and contractors. Callers must have verified the admin capability of adminID.
type ApprovalService struct {
	store      repository.Store
	audit      *AuditService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// ApprovalDependencies bundles collaborators for the approval service.
type ApprovalDependencies struct {
	Store      repository.Store
	Audit      *AuditService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Clock      func() time.Time
}

// NewApprovalService constructs the service.
func NewApprovalService(deps ApprovalDependencies) *ApprovalService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ApprovalService{
		store:      deps.Store,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        clock,
	}
}

// PendingQueue is what the admin approval screen lists.
type PendingQueue struct {
	Users       []domain.User
	Contractors []domain.Contractor
	Staging     []domain.StagingRecord
}

// ListPending returns verified pending users, pending contractors and
// unresolved staging records.
func (s *ApprovalService) ListPending(ctx context.Context) (*PendingQueue, error) {
	queue := &PendingQueue{}
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		var err error
		if queue.Users, err = repos.Users.ListPendingVerified(ctx); err != nil {
			return fmt.Errorf("list pending users: %w", err)
		}
		if queue.Contractors, err = repos.Contractors.ListByStatus(ctx, domain.StatusPending); err != nil {
			return fmt.Errorf("list pending contractors: %w", err)
		}
		if queue.Staging, err = repos.Staging.ListPending(ctx); err != nil {
			return fmt.Errorf("list pending staging: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return queue, nil
}

// ApproveUser activates a user in any prior status. When the user belongs to
// an ACTIVE contractor the role becomes CONTRACTOR as well.
func (s *ApprovalService) ApproveUser(ctx context.Context, userID, adminID string) (Result, error) {
	if res, ok := requireIDs(userID, adminID, "user not found"); !ok {
		return res, nil
	}

	var (
		user     *domain.User
		promoted bool
	)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		u.Approve(adminID, s.now())

		if u.ContractorID != nil && u.Promotable() && u.Role != domain.RoleContractor {
			c, err := repos.Contractors.GetForUpdate(ctx, *u.ContractorID)
			switch {
			case err == nil && c.Status == domain.StatusActive:
				u.Role = domain.RoleContractor
				promoted = true
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return fmt.Errorf("load contractor: %w", err)
			}
		}

		if err := repos.Users.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return s.failed(err, "approve", domain.SubjectUser, userID, "user not found", "Could not approve user")
	}

	s.metrics.RecordDecision(domain.SubjectUser, "approve", "ok")
	if promoted {
		s.metrics.RecordPromoted(1)
	}
	s.audit.Record(ctx, adminID, domain.AuditUserApproved, domain.SubjectUser, userID, map[string]any{
		"user_id":  userID,
		"promoted": promoted,
	})
	s.publish(ctx, events.Event{
		Type:      events.EventUserApproved,
		SubjectID: userID,
		ActorID:   &adminID,
		Payload: events.UserDecisionPayload{
			Email:    user.Email,
			Name:     user.DisplayName(),
			Promoted: promoted,
		},
	})
	return Succeeded("User approved"), nil
}

// RejectUser rejects a user; an empty reason is replaced by the default message.
func (s *ApprovalService) RejectUser(ctx context.Context, userID, adminID, reason string) (Result, error) {
	if res, ok := requireIDs(userID, adminID, "user not found"); !ok {
		return res, nil
	}

	var user *domain.User
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		u.Reject(adminID, reason, s.now())
		if err := repos.Users.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return s.failed(err, "reject", domain.SubjectUser, userID, "user not found", "Could not reject user")
	}

	stored := *user.RejectionReason
	s.metrics.RecordDecision(domain.SubjectUser, "reject", "ok")
	s.audit.Record(ctx, adminID, domain.AuditUserRejected, domain.SubjectUser, userID, map[string]any{
		"user_id": userID,
		"reason":  stored,
	})
	s.publish(ctx, events.Event{
		Type:      events.EventUserRejected,
		SubjectID: userID,
		ActorID:   &adminID,
		Payload: events.UserDecisionPayload{
			Email:  user.Email,
			Name:   user.DisplayName(),
			Reason: stored,
		},
	})
	return Succeeded("User rejected"), nil
}

// ApproveContractor activates a contractor and, in the same transaction,
// promotes every non-admin user referencing it to CONTRACTOR.
func (s *ApprovalService) ApproveContractor(ctx context.Context, contractorID, adminID string) (Result, error) {
	if res, ok := requireIDs(contractorID, adminID, "contractor not found"); !ok {
		return res, nil
	}

	var (
		contractor *domain.Contractor
		promoted   int64
	)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		c, err := repos.Contractors.GetForUpdate(ctx, contractorID)
		if err != nil {
			return err
		}
		c.Approve(adminID, s.now())
		if err := repos.Contractors.Update(ctx, c); err != nil {
			return err
		}
		if promoted, err = promoteContractorUsers(ctx, repos, c.ID); err != nil {
			return err
		}
		contractor = c
		return nil
	})
	if err != nil {
		return s.failed(err, "approve", domain.SubjectContractor, contractorID, "contractor not found", "Could not approve contractor")
	}

	s.metrics.RecordDecision(domain.SubjectContractor, "approve", "ok")
	s.metrics.RecordPromoted(promoted)
	s.audit.Record(ctx, adminID, domain.AuditContractorApproved, domain.SubjectContractor, contractorID, map[string]any{
		"contractor_id":  contractorID,
		"promoted_users": promoted,
	})
	s.publish(ctx, events.Event{
		Type:      events.EventContractorApproved,
		SubjectID: contractorID,
		ActorID:   &adminID,
		Payload: events.ContractorDecisionPayload{
			LicenseNumber: contractor.LicenseNumber,
			PromotedUsers: promoted,
		},
	})
	return Succeeded("Contractor approved"), nil
}

// RejectContractor rejects a contractor. Users keep their current roles.
func (s *ApprovalService) RejectContractor(ctx context.Context, contractorID, adminID, reason string) (Result, error) {
	if res, ok := requireIDs(contractorID, adminID, "contractor not found"); !ok {
		return res, nil
	}

	var contractor *domain.Contractor
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		c, err := repos.Contractors.GetForUpdate(ctx, contractorID)
		if err != nil {
			return err
		}
		c.Reject(adminID, reason, s.now())
		if err := repos.Contractors.Update(ctx, c); err != nil {
			return err
		}
		contractor = c
		return nil
	})
	if err != nil {
		return s.failed(err, "reject", domain.SubjectContractor, contractorID, "contractor not found", "Could not reject contractor")
	}

	stored := *contractor.RejectionReason
	s.metrics.RecordDecision(domain.SubjectContractor, "reject", "ok")
	s.audit.Record(ctx, adminID, domain.AuditContractorRejected, domain.SubjectContractor, contractorID, map[string]any{
		"contractor_id": contractorID,
		"reason":        stored,
	})
	s.publish(ctx, events.Event{
		Type:      events.EventContractorRejected,
		SubjectID: contractorID,
		ActorID:   &adminID,
		Payload: events.ContractorDecisionPayload{
			LicenseNumber: contractor.LicenseNumber,
			Reason:        stored,
		},
	})
	return Succeeded("Contractor rejected"), nil
}

// failed turns a transaction error into the caller-facing outcome: not-found
// is a domain result, anything else is logged and returned as an error.
func (s *ApprovalService) failed(err error, op, subjectType, subjectID, notFound, generic string) (Result, error) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Result, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordDecision(subjectType, op, "not_found")
		return Failed(KindNotFound, "%s", notFound), nil
	}
	s.metrics.RecordDecision(subjectType, op, "error")
	s.logger.Error("approval operation failed",
		zap.String("operation", op),
		zap.String("subject_type", subjectType),
		zap.String("subject_id", subjectID),
		zap.Error(err))
	return infraFailure(generic), fmt.Errorf("%s %s: %w", op, subjectID, err)
}

func (s *ApprovalService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
	}
}

// promoteContractorUsers is the promotion cascade shared by contractor
// approval and staging merge. It must run inside the caller's transaction.
func promoteContractorUsers(ctx context.Context, repos repository.Repositories, contractorID string) (int64, error) {
	n, err := repos.Users.PromoteByContractor(ctx, contractorID)
	if err != nil {
		return 0, fmt.Errorf("promote contractor users: %w", err)
	}
	return n, nil
}

// requireIDs rejects blank ids as invalid input and malformed subject ids as
// not found, since no stored record can carry them.
func requireIDs(subjectID, adminID, notFound string) (Result, bool) {
	if strings.TrimSpace(subjectID) == "" {
		return Failed(KindValidation, "subject id is required"), false
	}
	if strings.TrimSpace(adminID) == "" {
		return Failed(KindValidation, "admin id is required"), false
	}
	if _, err := uuid.Parse(subjectID); err != nil {
		return Failed(KindNotFound, "%s", notFound), false
	}
	return Result{}, true
}

// PromoteAdmin grants the ADMIN role to an existing account and activates it.
// It is an operator action with no acting admin, so the account approves itself.
func (s *ApprovalService) PromoteAdmin(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		u, err := repos.Users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		u.Role = domain.RoleAdmin
		if u.Status != domain.StatusActive {
			u.Approve(u.ID, s.now())
		}
		if err := repos.Users.Update(ctx, u); err != nil {
			return err
		}
		if err := repos.Users.MarkEmailVerified(ctx, u.ID); err != nil {
			return err
		}
		user = u
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domainErr(KindNotFound, "no user with email %s", domain.NormalizeEmail(email))
	}
	if err != nil {
		return nil, fmt.Errorf("promote admin: %w", err)
	}

	s.audit.Record(ctx, "", domain.AuditRolePromoted, domain.SubjectUser, user.ID, map[string]any{
		"email": user.Email,
		"role":  string(domain.RoleAdmin),
	})
	return user, nil
}
