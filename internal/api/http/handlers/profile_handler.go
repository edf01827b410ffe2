package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contractor-portal/internal/api/dto"
	"github.com/spec-kit/contractor-portal/internal/auth"
	"github.com/spec-kit/contractor-portal/internal/service"
	"github.com/spec-kit/contractor-portal/pkg/util/errorutil"
)

// ProfileHandler serves the signed-in user's own account.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me handles GET /me.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("missing principal")
	}

	profile, err := h.profiles.Profile(c.UserContext(), principal.User.ID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewMeResponse(profile)})
}
