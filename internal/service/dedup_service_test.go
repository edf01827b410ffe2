package service

import (
	"errors"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/repository/memory"
)

func (s *ServiceSuite) TestResolveContractorAssociation() {
	profile := domain.ContractorProfile{
		LicenseNumber: " fl-1234 ",
		CompanyName:   " Sunshine Electric ",
		City:          "Tampa",
		PostalCode:    "33601",
	}

	s.Run("unknown license creates a pending contractor", func() {
		u := s.putUser("first@example.com", domain.RoleTechnician, nil)

		assoc, err := s.dedup.ResolveContractorAssociation(s.ctx, profile, u.ID)
		s.Require().NoError(err)
		s.True(assoc.Created)
		s.Nil(assoc.StagingID)
		s.Equal(IntakeCreated, assoc.Outcome())

		c := s.contractor(assoc.ContractorID)
		s.Equal("FL-1234", c.LicenseNumber)
		s.Equal("Sunshine Electric", c.Profile.CompanyName)
		s.Equal(domain.StatusPending, c.Status)
		s.Empty(s.store.StagingFor(c.ID))

		stored := s.user(u.ID)
		s.Require().NotNil(stored.ContractorID)
		s.Equal(c.ID, *stored.ContractorID)
	})

	s.Run("known license attaches and stages the submission", func() {
		existing := s.store.Contractors()
		s.Require().Len(existing, 1)
		canonical := existing[0]
		second := s.putUser("second@example.com", domain.RoleTechnician, nil)

		conflicting := profile
		conflicting.LicenseNumber = "FL-1234"
		conflicting.CompanyName = "Sunshine Electric Co"
		conflicting.City = "Orlando"

		assoc, err := s.dedup.ResolveContractorAssociation(s.ctx, conflicting, second.ID)
		s.Require().NoError(err)
		s.False(assoc.Created)
		s.Equal(IntakeAttached, assoc.Outcome())
		s.Equal(canonical.ID, assoc.ContractorID)
		s.Require().NotNil(assoc.StagingID)

		s.Len(s.store.Contractors(), 1)
		s.Equal(canonical.Profile, s.contractor(canonical.ID).Profile)

		rec, ok := s.store.Staging(*assoc.StagingID)
		s.Require().True(ok)
		s.Equal(domain.StagingPending, rec.Status)
		s.Equal(canonical.ID, rec.ContractorID)
		s.Equal("Orlando", rec.Proposed.City)
		s.Equal("Sunshine Electric Co", rec.Proposed.CompanyName)
		s.Require().NotNil(rec.CreatedBy)
		s.Equal(second.ID, *rec.CreatedBy)
		s.Equal(canonical.ID, *s.user(second.ID).ContractorID)
	})
}

func (s *ServiceSuite) TestResolveAttachesRegardlessOfStatus() {
	rejected := s.putContractor("GA-77", domain.StatusRejected)
	u := s.putUser("late@example.com", domain.RoleSupport, nil)

	assoc, err := s.dedup.ResolveContractorAssociation(s.ctx, domain.ContractorProfile{LicenseNumber: "ga-77"}, u.ID)
	s.Require().NoError(err)
	s.Equal(rejected.ID, assoc.ContractorID)
	s.NotNil(assoc.StagingID)
	s.Equal(domain.StatusRejected, s.contractor(rejected.ID).Status)
}

func (s *ServiceSuite) TestResolveConcurrentInsertFallsBackToStaging() {
	u := s.putUser("racer@example.com", domain.RoleTechnician, nil)
	var rival *domain.Contractor
	s.store.BeforeContractorInsert = func(license string) *domain.Contractor {
		if rival != nil {
			return nil
		}
		rival = &domain.Contractor{LicenseNumber: license, Status: domain.StatusPending}
		return rival
	}

	assoc, err := s.dedup.ResolveContractorAssociation(s.ctx, domain.ContractorProfile{
		LicenseNumber: "TX-9",
		CompanyName:   "Lone Star HVAC",
	}, u.ID)
	s.Require().NoError(err)
	s.False(assoc.Created)
	s.Require().NotNil(assoc.StagingID)

	all := s.store.Contractors()
	s.Require().Len(all, 1)
	s.Equal("TX-9", all[0].LicenseNumber)
	s.Equal(all[0].ID, assoc.ContractorID)
	s.Equal(all[0].ID, *s.user(u.ID).ContractorID)
	s.Len(s.store.StagingFor(all[0].ID), 1)
}

func (s *ServiceSuite) TestResolveIsAllOrNothing() {
	canonical := s.putContractor("NY-5", domain.StatusActive)
	u := s.putUser("atomic@example.com", domain.RoleTechnician, nil)
	before := s.store.Writes()
	s.store.FailOn(memory.OpStagingCreate, errors.New("disk full"))

	_, err := s.dedup.ResolveContractorAssociation(s.ctx, domain.ContractorProfile{LicenseNumber: "NY-5"}, u.ID)
	s.Require().Error(err)
	s.Equal(KindNone, kindOf(err))

	s.Nil(s.user(u.ID).ContractorID)
	s.Empty(s.store.StagingFor(canonical.ID))
	s.Equal(before, s.store.Writes())
}

func (s *ServiceSuite) TestResolveRejectsBadInput() {
	u := s.putUser("input@example.com", domain.RoleTechnician, nil)

	_, err := s.dedup.ResolveContractorAssociation(s.ctx, domain.ContractorProfile{LicenseNumber: "   "}, u.ID)
	s.Equal(KindValidation, kindOf(err))

	_, err = s.dedup.ResolveContractorAssociation(s.ctx, domain.ContractorProfile{LicenseNumber: "CA-1"}, "missing-user")
	s.Equal(KindNotFound, kindOf(err))
	s.Empty(s.store.Contractors())
}
