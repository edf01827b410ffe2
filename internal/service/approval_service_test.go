package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/notify"
	"github.com/spec-kit/contractor-portal/internal/repository/memory"
)

func (s *ServiceSuite) TestApproveAndRejectUser() {
	u := s.putUser("tech@example.com", domain.RoleTechnician, nil)

	s.Run("approve activates and notifies", func() {
		res, err := s.approvals.ApproveUser(s.ctx, u.ID, s.adminID)
		s.Require().NoError(err)
		s.True(res.OK)

		stored := s.user(u.ID)
		s.Equal(domain.StatusActive, stored.Status)
		s.Equal(domain.RoleTechnician, stored.Role)
		s.Require().NotNil(stored.ApprovedBy)
		s.Equal(s.adminID, *stored.ApprovedBy)
		s.Equal(fixedNow, *stored.ApprovedAt)
		s.Nil(stored.RejectedAt)

		sent := s.sender.messages(notify.KindApproved)
		s.Require().Len(sent, 1)
		s.Equal("tech@example.com", sent[0].To)

		audit := s.lastAudit(domain.AuditUserApproved)
		s.Equal(s.adminID, *audit.ActorID)
		s.Equal(u.ID, audit.SubjectID)
	})

	s.Run("reject clears approval and stores the default reason", func() {
		res, err := s.approvals.RejectUser(s.ctx, u.ID, s.adminID, "  ")
		s.Require().NoError(err)
		s.True(res.OK)

		stored := s.user(u.ID)
		s.Equal(domain.StatusRejected, stored.Status)
		s.Nil(stored.ApprovedBy)
		s.Nil(stored.ApprovedAt)
		s.Equal(domain.DefaultRejectionReason, *stored.RejectionReason)

		sent := s.sender.messages(notify.KindRejected)
		s.Require().Len(sent, 1)
		s.Equal(domain.DefaultRejectionReason, sent[0].Variables["reason"])
		s.Equal(domain.DefaultRejectionReason, s.lastAudit(domain.AuditUserRejected).Metadata["reason"])
	})

	s.Run("approve again clears the rejection", func() {
		_, err := s.approvals.ApproveUser(s.ctx, u.ID, s.adminID)
		s.Require().NoError(err)

		stored := s.user(u.ID)
		s.Equal(domain.StatusActive, stored.Status)
		s.Nil(stored.RejectedBy)
		s.Nil(stored.RejectionReason)
	})
}

func (s *ServiceSuite) TestApproveUserRoleFollowsContractor() {
	active := s.putContractor("FL-1", domain.StatusActive)
	pending := s.putContractor("FL-2", domain.StatusPending)

	s.Run("promoted when the contractor is active", func() {
		u := s.putUser("a@example.com", domain.RoleTechnician, &active.ID)
		_, err := s.approvals.ApproveUser(s.ctx, u.ID, s.adminID)
		s.Require().NoError(err)
		s.Equal(domain.RoleContractor, s.user(u.ID).Role)
	})

	s.Run("unchanged while the contractor is pending", func() {
		u := s.putUser("b@example.com", domain.RoleSupport, &pending.ID)
		_, err := s.approvals.ApproveUser(s.ctx, u.ID, s.adminID)
		s.Require().NoError(err)
		s.Equal(domain.RoleSupport, s.user(u.ID).Role)
	})

	s.Run("admins are never demoted", func() {
		u := s.putUser("c@example.com", domain.RoleAdmin, &active.ID)
		_, err := s.approvals.ApproveUser(s.ctx, u.ID, s.adminID)
		s.Require().NoError(err)
		s.Equal(domain.RoleAdmin, s.user(u.ID).Role)
	})
}

func (s *ServiceSuite) TestApproveContractorPromotesUsers() {
	c := s.putContractor("FL-1234", domain.StatusPending)
	other := s.putContractor("GA-1", domain.StatusPending)

	tech := s.putUser("t@example.com", domain.RoleTechnician, &c.ID)
	support := s.putUser("s@example.com", domain.RoleSupport, &c.ID)
	pendingTech := s.putUser("p@example.com", domain.RoleTechnician, &c.ID)
	admin := s.putUser("adm@example.com", domain.RoleAdmin, &c.ID)
	outsider := s.putUser("o@example.com", domain.RoleTechnician, &other.ID)

	res, err := s.approvals.ApproveContractor(s.ctx, c.ID, s.adminID)
	s.Require().NoError(err)
	s.True(res.OK)

	stored := s.contractor(c.ID)
	s.Equal(domain.StatusActive, stored.Status)
	s.Equal(s.adminID, *stored.ApprovedBy)

	for _, id := range []string{tech.ID, support.ID, pendingTech.ID} {
		s.Equal(domain.RoleContractor, s.user(id).Role)
	}
	s.Equal(domain.StatusPending, s.user(pendingTech.ID).Status)
	s.Equal(domain.RoleAdmin, s.user(admin.ID).Role)
	s.Equal(domain.RoleTechnician, s.user(outsider.ID).Role)

	audit := s.lastAudit(domain.AuditContractorApproved)
	s.Equal(int64(3), audit.Metadata["promoted_users"])
}

func (s *ServiceSuite) TestRejectContractorLeavesRoles() {
	c := s.putContractor("FL-9", domain.StatusActive)
	member := s.store.PutUser(domain.User{
		Email:        "member@example.com",
		Role:         domain.RoleContractor,
		Status:       domain.StatusActive,
		ContractorID: &c.ID,
	})

	res, err := s.approvals.RejectContractor(s.ctx, c.ID, s.adminID, "License expired")
	s.Require().NoError(err)
	s.True(res.OK)

	stored := s.contractor(c.ID)
	s.Equal(domain.StatusRejected, stored.Status)
	s.Equal("License expired", *stored.RejectionReason)
	s.Nil(stored.ApprovedBy)
	s.Equal(domain.RoleContractor, s.user(member.ID).Role)
	s.Contains(s.auditActions(), domain.AuditContractorRejected)
}

func (s *ServiceSuite) TestApprovalNotFound() {
	before := s.store.Writes()

	res, err := s.approvals.ApproveUser(s.ctx, uuid.NewString(), s.adminID)
	s.Require().NoError(err)
	s.False(res.OK)
	s.Equal(KindNotFound, res.Kind)

	res, err = s.approvals.RejectContractor(s.ctx, uuid.NewString(), s.adminID, "")
	s.Require().NoError(err)
	s.Equal(KindNotFound, res.Kind)

	for _, id := range []string{"nobody", "42", "not-a-uuid"} {
		s.Run("malformed id "+id, func() {
			res, err := s.approvals.ApproveUser(s.ctx, id, s.adminID)
			s.Require().NoError(err)
			s.Equal(KindNotFound, res.Kind)
			s.Equal("user not found", res.Message)

			res, err = s.approvals.ApproveContractor(s.ctx, id, s.adminID)
			s.Require().NoError(err)
			s.Equal(KindNotFound, res.Kind)
		})
	}

	s.Equal(before, s.store.Writes())
	s.Empty(s.store.AuditEvents())
}

func (s *ServiceSuite) TestApprovalRequiresIDs() {
	u := s.putUser("ids@example.com", domain.RoleTechnician, nil)

	res, err := s.approvals.ApproveUser(s.ctx, u.ID, " ")
	s.Require().NoError(err)
	s.Equal(KindValidation, res.Kind)
	s.Equal(domain.StatusPending, s.user(u.ID).Status)
}

func (s *ServiceSuite) TestApprovalInfrastructureFailure() {
	u := s.putUser("infra@example.com", domain.RoleTechnician, nil)
	s.store.FailOn(memory.OpUserUpdate, errors.New("connection reset"))

	res, err := s.approvals.ApproveUser(s.ctx, u.ID, s.adminID)
	s.Require().Error(err)
	s.False(res.OK)
	s.Equal(KindInfrastructure, res.Kind)
	s.NotContains(res.Message, "connection reset")
	s.Equal(domain.StatusPending, s.user(u.ID).Status)
	s.Empty(s.sender.messages(notify.KindApproved))
}

func (s *ServiceSuite) TestCascadeFailureRollsBackApproval() {
	c := s.putContractor("FL-55", domain.StatusPending)
	u := s.putUser("cascade@example.com", domain.RoleTechnician, &c.ID)
	s.store.FailOn(memory.OpUserPromote, errors.New("deadlock"))

	res, err := s.approvals.ApproveContractor(s.ctx, c.ID, s.adminID)
	s.Require().Error(err)
	s.Equal(KindInfrastructure, res.Kind)
	s.Equal(domain.StatusPending, s.contractor(c.ID).Status)
	s.Nil(s.contractor(c.ID).ApprovedBy)
	s.Equal(domain.RoleTechnician, s.user(u.ID).Role)
}

func (s *ServiceSuite) TestSideEffectFailuresDoNotFailDecision() {
	u := s.putUser("quiet@example.com", domain.RoleTechnician, nil)
	s.sender.err = errors.New("smtp down")
	s.store.FailOn(memory.OpAuditInsert, errors.New("audit table locked"))

	res, err := s.approvals.RejectUser(s.ctx, u.ID, s.adminID, "Incomplete profile")
	s.Require().NoError(err)
	s.True(res.OK)
	s.Equal(domain.StatusRejected, s.user(u.ID).Status)
	s.Empty(s.store.AuditEvents())
}

func (s *ServiceSuite) TestListPending() {
	verified := s.putUser("verified@example.com", domain.RoleTechnician, nil)
	s.putUser("unverified@example.com", domain.RoleTechnician, nil)
	stamp := fixedNow
	v := s.user(verified.ID)
	v.EmailVerifiedAt = &stamp
	s.store.PutUser(v)

	pendingContractor := s.putContractor("FL-100", domain.StatusPending)
	s.putContractor("FL-200", domain.StatusActive)
	_, stagingID := s.stage(pendingContractor, domain.ContractorProfile{CompanyName: "Other"})

	queue, err := s.approvals.ListPending(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(queue.Users, 1)
	s.Equal(verified.ID, queue.Users[0].ID)
	s.Require().Len(queue.Contractors, 1)
	s.Equal(pendingContractor.ID, queue.Contractors[0].ID)
	s.Require().Len(queue.Staging, 1)
	s.Equal(stagingID, queue.Staging[0].ID)
}

func (s *ServiceSuite) TestPromoteAdmin() {
	u := s.putUser("ops@example.com", domain.RoleSupport, nil)

	promoted, err := s.approvals.PromoteAdmin(s.ctx, "  OPS@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, promoted.ID)

	stored := s.user(u.ID)
	s.Equal(domain.RoleAdmin, stored.Role)
	s.Equal(domain.StatusActive, stored.Status)
	s.NotNil(stored.EmailVerifiedAt)
	s.Nil(s.lastAudit(domain.AuditRolePromoted).ActorID)

	_, err = s.approvals.PromoteAdmin(s.ctx, "ghost@example.com")
	s.Equal(KindNotFound, kindOf(err))
}

func (s *ServiceSuite) TestDecisionsLockContractorRow() {
	c := s.putContractor("FL-LOCK", domain.StatusActive)
	member := s.putUser("locked@example.com", domain.RoleTechnician, &c.ID)
	_, stagingID := s.stage(c, domain.ContractorProfile{CompanyName: "Lock Co", City: "Orlando"})

	steps := []struct {
		name string
		run  func() (Result, error)
	}{
		{"approve user", func() (Result, error) { return s.approvals.ApproveUser(s.ctx, member.ID, s.adminID) }},
		{"approve contractor", func() (Result, error) { return s.approvals.ApproveContractor(s.ctx, c.ID, s.adminID) }},
		{"merge", func() (Result, error) {
			return s.staging.Merge(s.ctx, stagingID, s.adminID, domain.NewFieldSet(domain.FieldCity))
		}},
		{"reject contractor", func() (Result, error) { return s.approvals.RejectContractor(s.ctx, c.ID, s.adminID, "") }},
	}
	for _, step := range steps {
		s.Run(step.name, func() {
			before := len(s.store.ContractorLocks())
			res, err := step.run()
			s.Require().NoError(err)
			s.Require().True(res.OK, res.Message)

			locks := s.store.ContractorLocks()
			s.Require().Len(locks, before+1)
			s.Equal(c.ID, locks[before])
		})
	}
}
