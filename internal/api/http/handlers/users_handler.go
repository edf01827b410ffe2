package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contractor-portal/internal/api/dto"
	"github.com/spec-kit/contractor-portal/internal/service"
)

// UsersHandler exposes sign-up endpoints.
type UsersHandler struct {
	signup *service.SignUpService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(signup *service.SignUpService) *UsersHandler {
	return &UsersHandler{signup: signup}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	reg, err := h.signup.Register(c.UserContext(), service.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Contractor: req.Contractor.Profile(),
	})
	if err != nil {
		return serviceError(err)
	}

	data := fiber.Map{"user": dto.NewUserResponse(reg.User)}
	if a := reg.Association; a != nil {
		data["contractor"] = fiber.Map{
			"contractor_id": a.ContractorID,
			"staging_id":    a.StagingID,
			"outcome":       a.Outcome(),
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": data})
}

// VerifyEmail handles POST /auth/verify-email.
func (h *UsersHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.signup.VerifyEmail(c.UserContext(), req.Token)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": dto.NewUserResponse(user)}})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, token, err := h.signup.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token.Token, ExpiresAt: token.ExpiresAt},
		},
	})
}
