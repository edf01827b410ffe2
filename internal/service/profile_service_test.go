package service

import (
	"github.com/google/uuid"

	"github.com/spec-kit/contractor-portal/internal/domain"
)

func (s *ServiceSuite) TestProfileWithoutContractor() {
	u := s.putUser("solo@example.com", domain.RoleTechnician, nil)

	profile, err := s.profiles.Profile(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.ID, profile.User.ID)
	s.Equal(domain.StatusPending, profile.User.Status)
	s.Nil(profile.Contractor)
	s.Equal(Verification{HasName: true}, profile.Verification)
}

func (s *ServiceSuite) TestProfileFollowsDecisions() {
	c := s.putContractor("FL-ME", domain.StatusPending)
	u := s.putUser("crew@example.com", domain.RoleTechnician, &c.ID)

	s.Run("pending contractor is not verified", func() {
		profile, err := s.profiles.Profile(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Require().NotNil(profile.Contractor)
		s.Equal(c.ID, profile.Contractor.ID)
		s.True(profile.Verification.HasContractor)
		s.True(profile.Verification.HasLicense)
		s.False(profile.Verification.ContractorActive)
		s.False(profile.Verification.LicenseVerified)
	})

	s.Run("rejection carries the reason", func() {
		_, err := s.approvals.RejectUser(s.ctx, u.ID, s.adminID, "missing insurance")
		s.Require().NoError(err)

		profile, err := s.profiles.Profile(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusRejected, profile.User.Status)
		s.Require().NotNil(profile.User.RejectionReason)
		s.Equal("missing insurance", *profile.User.RejectionReason)
		s.Equal(s.adminID, *profile.User.RejectedBy)
	})

	s.Run("approved contractor is verified", func() {
		_, err := s.approvals.ApproveContractor(s.ctx, c.ID, s.adminID)
		s.Require().NoError(err)
		_, err = s.approvals.ApproveUser(s.ctx, u.ID, s.adminID)
		s.Require().NoError(err)

		profile, err := s.profiles.Profile(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusActive, profile.User.Status)
		s.Equal(domain.RoleContractor, profile.User.Role)
		s.Nil(profile.User.RejectionReason)
		s.Equal(fixedNow, *profile.User.ApprovedAt)
		s.Equal(domain.StatusActive, profile.Contractor.Status)
		s.True(profile.Verification.ContractorActive)
		s.True(profile.Verification.LicenseVerified)
	})
}

func (s *ServiceSuite) TestProfileUnknownUser() {
	_, err := s.profiles.Profile(s.ctx, uuid.NewString())
	s.Equal(KindNotFound, kindOf(err))

	_, err = s.profiles.Profile(s.ctx, " ")
	s.Equal(KindValidation, kindOf(err))
}
