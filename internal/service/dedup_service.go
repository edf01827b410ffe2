package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/observability"
	"github.com/spec-kit/contractor-portal/internal/repository"
)

// Intake outcomes, also used as metric labels.
const (
	IntakeCreated  = "created"
	IntakeAttached = "attached_staged"
)

// Association is the result of linking a user to a contractor at sign-up.
type Association struct {
	ContractorID string
	StagingID    *string
	Created      bool
}

// Outcome returns the intake outcome label.
func (a *Association) Outcome() string {
	if a.Created {
		return IntakeCreated
	}
	return IntakeAttached
}

// DedupService links sign-ups to the canonical contractor for their license
// number, staging conflicting profiles for admin review.
type DedupService struct {
	store   repository.Store
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDedupService constructs the service.
func NewDedupService(store repository.Store, logger *zap.Logger, metrics *observability.Metrics) *DedupService {
	return &DedupService{store: store, logger: logger, metrics: metrics}
}

// ResolveContractorAssociation runs the association in its own transaction.
func (s *DedupService) ResolveContractorAssociation(ctx context.Context, profile domain.ContractorProfile, userID string) (*Association, error) {
	var assoc *Association
	err := runWithLicenseRetry(ctx, s.store, s.logger, func(repos repository.Repositories) error {
		a, err := s.ResolveInTx(ctx, repos, profile, userID)
		assoc = a
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordIntake(assoc.Outcome())
	return assoc, nil
}

// ResolveInTx decides between creating a contractor and attaching to the
// existing one, using repos bound to the caller's transaction.
//
// A contractor found by license is attached regardless of its status, and the
// submitted profile is staged against it. If the insert of a new contractor
// hits the license unique index the returned error wraps
// repository.ErrDuplicateLicense; the caller must roll back and retry, at
// which point the lookup finds the winner and the staging path is taken.
func (s *DedupService) ResolveInTx(ctx context.Context, repos repository.Repositories, profile domain.ContractorProfile, userID string) (*Association, error) {
	profile = profile.Trimmed()
	license := domain.NormalizeLicense(profile.LicenseNumber)
	if license == "" {
		return nil, domainErr(KindValidation, "license number is required")
	}

	existing, err := repos.Contractors.GetByLicense(ctx, license)
	if errors.Is(err, repository.ErrNotFound) {
		contractor := domain.NewContractor(profile)
		if err := repos.Contractors.Create(ctx, contractor); err != nil {
			return nil, fmt.Errorf("create contractor: %w", err)
		}
		if err := s.attach(ctx, repos, userID, contractor.ID); err != nil {
			return nil, err
		}
		return &Association{ContractorID: contractor.ID, Created: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup contractor by license: %w", err)
	}

	if err := s.attach(ctx, repos, userID, existing.ID); err != nil {
		return nil, err
	}
	creator := userID
	staging := &domain.StagingRecord{
		ContractorID: existing.ID,
		Proposed:     profile,
		CreatedBy:    &creator,
		Status:       domain.StagingPending,
	}
	if err := repos.Staging.Create(ctx, staging); err != nil {
		return nil, fmt.Errorf("create staging record: %w", err)
	}
	return &Association{ContractorID: existing.ID, StagingID: &staging.ID}, nil
}

func (s *DedupService) attach(ctx context.Context, repos repository.Repositories, userID, contractorID string) error {
	err := repos.Users.AttachContractor(ctx, userID, contractorID)
	if errors.Is(err, repository.ErrNotFound) {
		return domainErr(KindNotFound, "user not found")
	}
	if err != nil {
		return fmt.Errorf("attach contractor to user: %w", err)
	}
	return nil
}

// runWithLicenseRetry runs fn in a transaction and retries once when the
// license unique index rejected an insert made on the strength of a stale lookup.
func runWithLicenseRetry(ctx context.Context, store repository.Store, logger *zap.Logger, fn func(repository.Repositories) error) error {
	err := store.RunInTx(ctx, fn)
	if !errors.Is(err, repository.ErrDuplicateLicense) {
		return err
	}
	logger.Info("contractor license inserted concurrently; retrying via staging path")
	return store.RunInTx(ctx, fn)
}
