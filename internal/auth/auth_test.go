package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/repository"
	"github.com/spec-kit/contractor-portal/pkg/util/errorutil"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

type AuthSuite struct {
	suite.Suite
	tokens *TokenManager
	users  fakeUsers
	app    *fiber.App
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	s.tokens = NewTokenManager("test-secret", 15)
	s.users = fakeUsers{
		"admin":   {ID: "admin", Role: domain.RoleAdmin, Status: domain.StatusActive},
		"tech":    {ID: "tech", Role: domain.RoleTechnician, Status: domain.StatusActive},
		"pending": {ID: "pending", Role: domain.RoleAdmin, Status: domain.StatusPending},
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(errorutil.ToDomainError(err).HTTPStatus)
		},
	})
	mw := NewAuthMiddleware(s.tokens, s.users)
	s.app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c)
		s.Require().True(ok)
		return c.SendString(p.User.ID)
	})
}

func (s *AuthSuite) bearer(userID string) string {
	u, ok := s.users[userID]
	if !ok {
		u = &domain.User{ID: userID, Role: domain.RoleAdmin}
	}
	token, err := s.tokens.Issue(u)
	s.Require().NoError(err)
	return "Bearer " + token.Token
}

func (s *AuthSuite) status(authorization string) int {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := s.app.Test(req)
	s.Require().NoError(err)
	return resp.StatusCode
}

func (s *AuthSuite) TestTokenRoundTrip() {
	token, err := s.tokens.Issue(s.users["tech"])
	s.Require().NoError(err)
	s.Equal("tech", token.UserID)
	s.WithinDuration(time.Now().Add(15*time.Minute), token.ExpiresAt, time.Minute)

	claims, err := s.tokens.ParseToken(token.Token)
	s.Require().NoError(err)
	s.Equal("tech", claims.UserID)
	s.Equal(domain.RoleTechnician, claims.Role)

	_, err = NewTokenManager("other-secret", 15).ParseToken(token.Token)
	s.Error(err)
}

func (s *AuthSuite) TestExpiredToken() {
	s.tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := s.tokens.Issue(s.users["admin"])
	s.Require().NoError(err)

	_, err = s.tokens.ParseToken(token.Token)
	s.Error(err)
}

func (s *AuthSuite) TestAdminGuard() {
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"unknown user", s.bearer("ghost"), http.StatusUnauthorized},
		{"inactive admin", s.bearer("pending"), http.StatusUnauthorized},
		{"non admin", s.bearer("tech"), http.StatusForbidden},
		{"active admin", s.bearer("admin"), http.StatusOK},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, s.status(tc.header))
		})
	}
}

func (s *AuthSuite) TestRoleReadFromStore() {
	header := s.bearer("admin")
	s.users["admin"].Role = domain.RoleTechnician
	s.Equal(http.StatusForbidden, s.status(header))
}

func (s *AuthSuite) TestPasswordHashing() {
	_, err := HashPassword("short", 4)
	s.ErrorIs(err, ErrPasswordTooShort)

	hash, err := HashPassword("long-enough", 4)
	s.Require().NoError(err)
	s.NoError(ComparePassword(hash, "long-enough"))
	s.Error(ComparePassword(hash, "long-enougH"))
}
