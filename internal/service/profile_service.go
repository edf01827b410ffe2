package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/repository"
)

// Verification summarizes how far an account has progressed through review.
type Verification struct {
	HasName          bool
	HasContractor    bool
	HasLicense       bool
	ContractorActive bool
	// LicenseVerified means the linked contractor has a license and was approved.
	LicenseVerified bool
}

// Profile is what a signed-in user sees about their own account.
type Profile struct {
	User         *domain.User
	Contractor   *domain.Contractor
	Verification Verification
}

// ProfileService serves the self-view of an account.
type ProfileService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewProfileService constructs the service.
func NewProfileService(store repository.Store, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: store, logger: logger}
}

// Profile loads the user and the contractor they are associated with, if any.
func (s *ProfileService) Profile(ctx context.Context, userID string) (*Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainErr(KindValidation, "user id is required")
	}

	profile := &Profile{}
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		profile.User = u
		if u.ContractorID == nil {
			return nil
		}
		c, err := repos.Contractors.GetByID(ctx, *u.ContractorID)
		if err != nil {
			return fmt.Errorf("load contractor %s: %w", *u.ContractorID, err)
		}
		profile.Contractor = c
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) && profile.User == nil {
			return nil, domainErr(KindNotFound, "user not found")
		}
		s.logger.Error("load profile failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	profile.Verification = verify(profile.User, profile.Contractor)
	return profile, nil
}

func verify(u *domain.User, c *domain.Contractor) Verification {
	v := Verification{
		HasName:       strings.TrimSpace(u.FirstName) != "" && strings.TrimSpace(u.LastName) != "",
		HasContractor: c != nil,
	}
	if c != nil {
		v.HasLicense = strings.TrimSpace(c.LicenseNumber) != ""
		v.ContractorActive = c.Status == domain.StatusActive
		v.LicenseVerified = v.HasLicense && v.ContractorActive
	}
	return v
}
