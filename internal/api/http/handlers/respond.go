package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contractor-portal/internal/api/dto"
	"github.com/spec-kit/contractor-portal/internal/service"
	"github.com/spec-kit/contractor-portal/pkg/util/errorutil"
	"github.com/spec-kit/contractor-portal/pkg/util/validation"
)

// bind parses the JSON body into req and validates it.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if details := validation.Struct(req); details != nil {
		return errorutil.NewValidationError("validation failed", details)
	}
	return nil
}

// serviceError maps a service error to an HTTP error. Domain failures keep
// their kind and message; anything else becomes an internal error.
func serviceError(err error) error {
	var de *service.DomainError
	if errors.As(err, &de) {
		return errorutil.FromCode(string(de.Result.Kind), de.Result.Message)
	}
	return errorutil.NewInternalError(err)
}

// respondResult writes a workflow Result, converting failures to errors.
func respondResult(c *fiber.Ctx, res service.Result, err error) error {
	if err != nil {
		return &errorutil.DomainError{
			Code:       errorutil.CodeInternal,
			Message:    res.Message,
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		}
	}
	if !res.OK {
		return errorutil.FromCode(string(res.Kind), res.Message)
	}
	return c.JSON(fiber.Map{"data": dto.ResultResponse{OK: true, Message: res.Message}})
}
