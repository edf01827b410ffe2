package service

import (
	"errors"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/notify"
)

func (s *ServiceSuite) register(email string, profile domain.ContractorProfile) *Registration {
	reg, err := s.signup.Register(s.ctx, RegisterInput{
		Email:      email,
		Password:   "correct-horse",
		FirstName:  "Dana",
		LastName:   "Reyes",
		Contractor: profile,
	})
	s.Require().NoError(err)
	return reg
}

func (s *ServiceSuite) verify(userID string) {
	token, ok := s.tokens.Latest(userID)
	s.Require().True(ok)
	_, err := s.signup.VerifyEmail(s.ctx, token)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestRegisterCreatesPendingTechnician() {
	reg := s.register("  Dana@Example.com ", domain.ContractorProfile{})

	s.Nil(reg.Association)
	stored := s.user(reg.User.ID)
	s.Equal("dana@example.com", stored.Email)
	s.Equal(domain.RoleTechnician, stored.Role)
	s.Equal(domain.StatusPending, stored.Status)
	s.Nil(stored.EmailVerifiedAt)
	s.NotEqual("correct-horse", stored.PasswordHash)

	token, ok := s.tokens.Latest(stored.ID)
	s.Require().True(ok)
	sent := s.sender.messages(notify.KindVerifyEmail)
	s.Require().Len(sent, 1)
	s.Equal("dana@example.com", sent[0].To)
	s.Equal(token, sent[0].Variables["token"])

	audit := s.lastAudit(domain.AuditUserCreated)
	s.Equal(stored.ID, audit.SubjectID)
	s.Equal("dana@example.com", audit.Metadata["email"])
}

func (s *ServiceSuite) TestRegisterWithContractor() {
	s.Run("new license creates the contractor", func() {
		reg := s.register("first@example.com", domain.ContractorProfile{LicenseNumber: " cgc-77 ", CompanyName: "Delta Air"})
		s.Require().NotNil(reg.Association)
		s.True(reg.Association.Created)
		s.Nil(reg.Association.StagingID)

		c := s.contractor(reg.Association.ContractorID)
		s.Equal("CGC-77", c.LicenseNumber)
		s.Equal(domain.StatusPending, c.Status)
		s.Equal(c.ID, *s.user(reg.User.ID).ContractorID)
	})

	s.Run("known license is staged", func() {
		reg := s.register("second@example.com", domain.ContractorProfile{LicenseNumber: "CGC-77", CompanyName: "Delta Air LLC"})
		s.Require().NotNil(reg.Association)
		s.False(reg.Association.Created)
		s.Require().NotNil(reg.Association.StagingID)

		rec, ok := s.store.Staging(*reg.Association.StagingID)
		s.Require().True(ok)
		s.Equal("Delta Air LLC", rec.Proposed.CompanyName)
		s.Equal(reg.User.ID, *rec.CreatedBy)
		s.Len(s.store.Contractors(), 1)
		s.Equal(IntakeAttached, s.lastAudit(domain.AuditUserCreated).Metadata["contractor_outcome"])
	})
}

func (s *ServiceSuite) TestRegisterRejectsBadInput() {
	s.register("taken@example.com", domain.ContractorProfile{})
	writes := s.store.Writes()

	cases := []struct {
		name string
		in   RegisterInput
		kind ErrorKind
	}{
		{"invalid email", RegisterInput{Email: "not-an-email", Password: "long-enough", FirstName: "A", LastName: "B"}, KindValidation},
		{"missing name", RegisterInput{Email: "a@example.com", Password: "long-enough", FirstName: " ", LastName: "B"}, KindValidation},
		{"short password", RegisterInput{Email: "a@example.com", Password: "short", FirstName: "A", LastName: "B"}, KindValidation},
		{"duplicate email", RegisterInput{Email: "TAKEN@example.com", Password: "long-enough", FirstName: "A", LastName: "B"}, KindConflict},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			reg, err := s.signup.Register(s.ctx, tc.in)
			s.Require().Error(err)
			s.Nil(reg)
			s.Equal(tc.kind, kindOf(err))
		})
	}
	s.Equal(writes, s.store.Writes())
}

func (s *ServiceSuite) TestRegisterSurvivesTokenStoreFailure() {
	s.tokens.Fail(errors.New("redis down"))
	defer s.tokens.Fail(nil)

	reg := s.register("late@example.com", domain.ContractorProfile{})
	s.NotEmpty(reg.User.ID)
	s.Empty(s.sender.messages(notify.KindVerifyEmail))
}

func (s *ServiceSuite) TestVerifyEmail() {
	reg := s.register("verify@example.com", domain.ContractorProfile{})
	token, ok := s.tokens.Latest(reg.User.ID)
	s.Require().True(ok)

	user, err := s.signup.VerifyEmail(s.ctx, token)
	s.Require().NoError(err)
	s.NotNil(user.EmailVerifiedAt)
	s.Equal(domain.AuditEmailVerified, s.lastAudit(domain.AuditEmailVerified).Action)

	admin := s.sender.messages(notify.KindAdminPendingApproval)
	s.Require().Len(admin, 1)
	s.Equal("admin@portal.test", admin[0].To)
	s.Equal("verify@example.com", admin[0].Variables["user_email"])

	queue, err := s.approvals.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(queue.Users, 1)
	s.Equal(reg.User.ID, queue.Users[0].ID)

	s.Run("token is single use", func() {
		_, err := s.signup.VerifyEmail(s.ctx, token)
		s.Equal(KindNotFound, kindOf(err))
	})
	s.Run("blank token", func() {
		_, err := s.signup.VerifyEmail(s.ctx, "  ")
		s.Equal(KindValidation, kindOf(err))
	})
}

func (s *ServiceSuite) TestLogin() {
	reg := s.register("login@example.com", domain.ContractorProfile{})
	id := reg.User.ID

	refused := func(password, message string) {
		_, token, err := s.signup.Login(s.ctx, "login@example.com", password)
		s.Require().Error(err)
		s.Nil(token)
		s.Equal(KindUnauthorized, kindOf(err))
		s.Contains(err.Error(), message)
	}

	s.Run("unverified", func() { refused("correct-horse", "verify your email") })

	s.verify(id)
	s.Run("pending approval", func() { refused("correct-horse", "pending approval") })
	s.Run("wrong password", func() { refused("wrong-horse", "invalid credentials") })

	s.Run("rejected with reason", func() {
		_, err := s.approvals.RejectUser(s.ctx, id, s.adminID, "license expired")
		s.Require().NoError(err)
		refused("correct-horse", "account rejected: license expired")
	})

	s.Run("approved", func() {
		_, err := s.approvals.ApproveUser(s.ctx, id, s.adminID)
		s.Require().NoError(err)

		user, token, err := s.signup.Login(s.ctx, " LOGIN@example.com", "correct-horse")
		s.Require().NoError(err)
		s.Equal(id, user.ID)
		s.Require().NotNil(token)
		s.NotEmpty(token.Token)

		claims, err := s.signup.TokenManager().ParseToken(token.Token)
		s.Require().NoError(err)
		s.Equal(id, claims.UserID)
		s.Equal(domain.AuditLoginSuccess, s.lastAudit(domain.AuditLoginSuccess).Action)
	})

	s.Run("unknown account", func() {
		_, _, err := s.signup.Login(s.ctx, "nobody@example.com", "correct-horse")
		s.Equal(KindUnauthorized, kindOf(err))
	})
}
