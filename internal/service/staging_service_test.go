package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/repository/memory"
)

func (s *ServiceSuite) proposedProfile() domain.ContractorProfile {
	return domain.ContractorProfile{
		CompanyName:  "Acme Plumbing & Heating",
		CompanyPhone: "813-555-0199",
		City:         "Tampa",
		State:        "FL",
		PostalCode:   "33601",
	}
}

func (s *ServiceSuite) TestMergeSelectedFields() {
	c := s.putContractor("FL-1234", domain.StatusPending)
	_, stagingID := s.stage(c, s.proposedProfile())

	res, err := s.staging.Merge(s.ctx, stagingID, s.adminID, domain.NewFieldSet(domain.FieldCity, domain.FieldPostalCode))
	s.Require().NoError(err)
	s.True(res.OK)

	stored := s.contractor(c.ID)
	s.Equal("Tampa", stored.Profile.City)
	s.Equal("33601", stored.Profile.PostalCode)
	s.Equal("Acme Plumbing", stored.Profile.CompanyName)
	s.Equal("305-555-0100", stored.Profile.CompanyPhone)
	s.Equal("FL-1234", stored.LicenseNumber)
	s.Require().NotNil(stored.MergedBy)
	s.Equal(s.adminID, *stored.MergedBy)

	rec, _ := s.store.Staging(stagingID)
	s.Equal(domain.StagingMerged, rec.Status)
	s.Equal(s.adminID, *rec.ResolvedBy)
	s.Equal(fixedNow, *rec.ResolvedAt)

	audit := s.lastAudit(domain.AuditStagingMerged)
	s.Equal(domain.SubjectContractor, audit.SubjectType)
	s.Equal(c.ID, audit.SubjectID)
	s.Equal(stagingID, audit.Metadata["staging_id"])
	s.Equal([]string{"city", "postal_code"}, audit.Metadata["changed_fields"])
}

func (s *ServiceSuite) TestMergeWithoutChangesLeavesContractor() {
	c := s.putContractor("FL-3", domain.StatusPending)
	_, stagingID := s.stage(c, c.Profile)

	res, err := s.staging.Merge(s.ctx, stagingID, s.adminID, domain.NewFieldSet(domain.MergeFields...))
	s.Require().NoError(err)
	s.True(res.OK)

	stored := s.contractor(c.ID)
	s.Nil(stored.MergedBy)
	s.Equal(c.UpdatedAt, stored.UpdatedAt)

	rec, _ := s.store.Staging(stagingID)
	s.Equal(domain.StagingMerged, rec.Status)
	s.Equal([]string{}, s.lastAudit(domain.AuditStagingMerged).Metadata["changed_fields"])
}

func (s *ServiceSuite) TestStagingResolvesOnlyOnce() {
	c := s.putContractor("FL-4", domain.StatusPending)
	_, merged := s.stage(c, s.proposedProfile())
	second := s.proposedProfile()
	second.CompanyName = "Second Submission"
	_, kept := s.stage(c, second)

	_, err := s.staging.Merge(s.ctx, merged, s.adminID, domain.NewFieldSet(domain.FieldCity))
	s.Require().NoError(err)
	_, err = s.staging.Keep(s.ctx, kept, s.adminID)
	s.Require().NoError(err)

	writes := s.store.Writes()
	audits := len(s.store.AuditEvents())
	profile := s.contractor(c.ID).Profile

	for _, tc := range []struct {
		name string
		run  func() (Result, error)
	}{
		{"merge after merge", func() (Result, error) {
			return s.staging.Merge(s.ctx, merged, s.adminID, domain.NewFieldSet(domain.MergeFields...))
		}},
		{"keep after merge", func() (Result, error) { return s.staging.Keep(s.ctx, merged, s.adminID) }},
		{"merge after keep", func() (Result, error) {
			return s.staging.Merge(s.ctx, kept, s.adminID, domain.NewFieldSet(domain.FieldCompanyName))
		}},
		{"keep after keep", func() (Result, error) { return s.staging.Keep(s.ctx, kept, s.adminID) }},
	} {
		s.Run(tc.name, func() {
			res, err := tc.run()
			s.Require().NoError(err)
			s.False(res.OK)
			s.Equal(KindAlreadyResolved, res.Kind)
		})
	}

	s.Equal(writes, s.store.Writes())
	s.Len(s.store.AuditEvents(), audits)
	s.Equal(profile, s.contractor(c.ID).Profile)
}

func (s *ServiceSuite) TestKeepDiscardsSubmission() {
	c := s.putContractor("FL-5", domain.StatusPending)
	_, stagingID := s.stage(c, s.proposedProfile())

	res, err := s.staging.Keep(s.ctx, stagingID, s.adminID)
	s.Require().NoError(err)
	s.True(res.OK)

	s.Equal(c.Profile, s.contractor(c.ID).Profile)
	rec, _ := s.store.Staging(stagingID)
	s.Equal(domain.StagingKept, rec.Status)

	audit := s.lastAudit(domain.AuditStagingKept)
	s.Equal(stagingID, audit.Metadata["staging_id"])
	s.Equal([]string{}, audit.Metadata["changed_fields"])
}

func (s *ServiceSuite) TestMergePromotesWhenContractorActive() {
	active := s.putContractor("FL-6", domain.StatusActive)
	staged, stagingID := s.stage(active, s.proposedProfile())

	_, err := s.staging.Merge(s.ctx, stagingID, s.adminID, domain.NewFieldSet())
	s.Require().NoError(err)
	s.Equal(domain.RoleContractor, s.user(staged.ID).Role)

	pending := s.putContractor("FL-7", domain.StatusPending)
	waiting, pendingStaging := s.stage(pending, s.proposedProfile())
	_, err = s.staging.Merge(s.ctx, pendingStaging, s.adminID, domain.NewFieldSet(domain.FieldCity))
	s.Require().NoError(err)
	s.Equal(domain.RoleTechnician, s.user(waiting.ID).Role)
}

func (s *ServiceSuite) TestStagingFailures() {
	s.Run("unknown record", func() {
		res, err := s.staging.Keep(s.ctx, uuid.NewString(), s.adminID)
		s.Require().NoError(err)
		s.Equal(KindNotFound, res.Kind)
	})

	s.Run("malformed id", func() {
		res, err := s.staging.Merge(s.ctx, "missing", s.adminID, domain.NewFieldSet(domain.FieldCity))
		s.Require().NoError(err)
		s.Equal(KindNotFound, res.Kind)
	})

	s.Run("write failure rolls back the merge", func() {
		c := s.putContractor("FL-8", domain.StatusPending)
		_, stagingID := s.stage(c, s.proposedProfile())
		s.store.FailOn(memory.OpStagingResolve, errors.New("timeout"))
		defer s.store.FailOn(memory.OpStagingResolve, nil)

		res, err := s.staging.Merge(s.ctx, stagingID, s.adminID, domain.NewFieldSet(domain.FieldCity))
		s.Require().Error(err)
		s.Equal(KindInfrastructure, res.Kind)
		s.Equal("Miami", s.contractor(c.ID).Profile.City)

		rec, _ := s.store.Staging(stagingID)
		s.Equal(domain.StagingPending, rec.Status)
	})
}

func (s *ServiceSuite) TestMergeKeepsContractorDecision() {
	c := s.putContractor("FL-9", domain.StatusPending)
	_, stagingID := s.stage(c, s.proposedProfile())

	_, err := s.approvals.ApproveContractor(s.ctx, c.ID, s.adminID)
	s.Require().NoError(err)
	approved := s.contractor(c.ID)

	res, err := s.staging.Merge(s.ctx, stagingID, s.adminID, domain.NewFieldSet(domain.MergeFields...))
	s.Require().NoError(err)
	s.True(res.OK)

	merged := s.contractor(c.ID)
	s.Equal("Tampa", merged.Profile.City)
	s.Equal(domain.StatusActive, merged.Status)
	s.Equal(approved.Decision, merged.Decision)
	s.Equal("FL-9", merged.LicenseNumber)
	s.Contains(s.store.ContractorLocks(), c.ID)
}
